// Package xlog wraps zerolog with the small conveniences the rest of the
// module expects: a level-parsing constructor and context embedding, in the
// style of CedrosPay's internal/logger package.
package xlog

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// New builds a zerolog.Logger writing JSON to stderr at the given level
// ("debug", "info", "warn", "error"; unrecognized values fall back to info).
func New(level string) zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(parseLevel(level))
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithContext embeds a logger into ctx for downstream retrieval.
func WithContext(ctx context.Context, log zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the embedded logger, or a disabled logger if none was set.
func FromContext(ctx context.Context) zerolog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return log
	}
	return zerolog.Nop()
}
