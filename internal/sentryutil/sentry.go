// Package sentryutil reports run failures to Sentry when a DSN is set.
package sentryutil

import (
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/ppiankov/canonica/internal/model"
)

// Init configures the Sentry client. An empty DSN leaves reporting
// disabled; capture calls then do nothing. Init failures are logged and
// never block a run.
func Init(cfg model.SentryConfig, logger *zap.Logger) bool {
	if cfg.DSN == "" {
		logger.Debug("sentry disabled: no DSN")
		return false
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			// records hold patient data; never attach user context
			event.User = sentry.User{}
			return event
		},
	})
	if err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
		return false
	}
	return true
}

// Flush waits for buffered events
func Flush() { sentry.Flush(2 * time.Second) }

// CaptureError reports err with tags.
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// CaptureWarning reports a non-fatal run problem, such as a skipped input.
func CaptureWarning(msg string, tags map[string]string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelWarning)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureMessage(msg)
	})
}
