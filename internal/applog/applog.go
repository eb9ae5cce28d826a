// Package applog provides the structured logger threaded through the
// engine via context.Context, the way logger.FromContext(ctx) is used
// throughout the teacher codebase (e.g. engine/auth/router/handler.go,
// engine/infra/server/lifecycle.go). It wraps charmbracelet/log, a direct
// dependency of the teacher module.
package applog

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
)

type ctxKey struct{}

var base = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "2006-01-02T15:04:05Z07:00",
})

// New returns the process-wide root logger with the given prefix, e.g.
// applog.New("reaper").
func New(prefix string) *log.Logger {
	l := base.WithPrefix(prefix)
	return l
}

// WithContext attaches l to ctx so downstream calls can recover it with
// FromContext.
func WithContext(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger attached to ctx, or the unprefixed root
// logger if none was attached.
func FromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*log.Logger); ok && l != nil {
		return l
	}
	return base
}

// SetLevel adjusts the root logger's verbosity, used by the CLI's
// --debug flag the way cli/main.go toggles logrus.TraceLevel.
func SetLevel(debug bool) {
	if debug {
		base.SetLevel(log.DebugLevel)
		return
	}
	base.SetLevel(log.InfoLevel)
}
