package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records per-operation outcomes.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

var _ Metrics = (*OperationMetrics)(nil)

// OperationMetrics implements Metrics on prometheus collectors.
type OperationMetrics struct {
	attempts *prometheus.CounterVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewOperationMetrics registers the operation collectors on reg.
func NewOperationMetrics(reg prometheus.Registerer) *OperationMetrics {
	labels := []string{"service", "operation"}
	m := &OperationMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "operation_attempts_total",
			Help:      "Operations started.",
		}, labels),
		success: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "operation_success_total",
			Help:      "Operations that finished without an infrastructure error.",
		}, labels),
		failure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "operation_failure_total",
			Help:      "Operations that failed with an infrastructure error or panic.",
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ServiceName,
			Name:      "operation_duration_seconds",
			Help:      "Operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, labels),
	}
	if reg != nil {
		reg.MustRegister(m.attempts, m.success, m.failure, m.duration)
	}
	return m
}

func (m *OperationMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(service, operation).Inc()
}

func (m *OperationMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.success.WithLabelValues(service, operation).Inc()
}

func (m *OperationMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failure.WithLabelValues(service, operation).Inc()
}

func (m *OperationMetrics) RecordOperationDuration(_ context.Context, operation, service string, d time.Duration) {
	m.duration.WithLabelValues(service, operation).Observe(d.Seconds())
}
