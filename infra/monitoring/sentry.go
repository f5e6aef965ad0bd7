package monitoring

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/bikesim/config"
	coremon "github.com/kilianp07/bikesim/core/monitoring"
)

// NewSentryMonitor initializes Sentry using the provided configuration and
// returns a Monitor implementation. An empty DSN disables reporting.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
		ServerName:       "bikesim",
		AttachStacktrace: true,
		BeforeSend:       dropCancellation,
	})
	if err != nil {
		return nil, err
	}
	return &sentryMonitor{}, nil
}

// dropCancellation discards reports caused by shutting the simulation down.
func dropCancellation(ev *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if hint != nil && hint.OriginalException != nil {
		if errors.Is(hint.OriginalException, context.Canceled) || errors.Is(hint.OriginalException, context.DeadlineExceeded) {
			return nil
		}
	}
	return ev
}

type sentryMonitor struct{}

func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("service", "bikesim")
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		// Group by actor kind (User, Truck, Station...) rather than by instance.
		if origin, ok := tags["origin"]; ok {
			scope.SetTag("actor", actorKind(origin))
			scope.SetFingerprint([]string{"{{ default }}", actorKind(origin)})
		}
		sentry.CaptureException(err)
	})
}

func (s *sentryMonitor) Recover() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(2 * time.Second)
		panic(r)
	}
}

func (s *sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }

// actorKind strips the generated suffix from an actor id: "Truck-3f2a" -> "Truck".
func actorKind(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
