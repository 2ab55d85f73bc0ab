// Package observability assembles the logger, metrics registry and tracer
// shared by every module.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const ServiceName = "abacus"

// Provider bundles the observability handles passed to modules.
type Provider struct {
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Tracer   trace.Tracer
	Metrics  *OperationMetrics
}

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values fall
// back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a JSON logger writing to w at the given level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(h).With(slog.String("service", ServiceName))
}

// New builds a Provider with a fresh registry. The global otel tracer
// provider is used; it is a no-op unless an exporter was installed.
func New(logLevel string) *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Provider{
		Logger:   NewLogger(os.Stdout, logLevel),
		Registry: reg,
		Tracer:   otel.Tracer(ServiceName),
		Metrics:  NewOperationMetrics(reg),
	}
}

// NewNop returns a Provider that discards logs and spans.
func NewNop() *Provider {
	reg := prometheus.NewRegistry()
	return &Provider{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registry: reg,
		Tracer:   noop.NewTracerProvider().Tracer("test"),
		Metrics:  NewOperationMetrics(reg),
	}
}
