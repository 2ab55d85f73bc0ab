// Package attr builds slog attributes with consistent keys.
package attr

import (
	"context"
	"log/slog"
	"time"
)

type correlationKey struct{}

// WithCorrelationID stores a request correlation id on ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// ExtractCorrelationID returns the correlation id attribute from ctx, or an
// empty attribute when none is set.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	if id, ok := ctx.Value(correlationKey{}).(string); ok && id != "" {
		return slog.String("correlation_id", id)
	}
	return slog.Attr{}
}

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

func Time(key string, value time.Time) slog.Attr { return slog.Time(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

func TournamentID(id string) slog.Attr { return slog.String("tournament_id", id) }

func RoundID(id string) slog.Attr { return slog.String("round_id", id) }

func DebateID(id string) slog.Attr { return slog.String("debate_id", id) }
