// Package reporting sends errors and recovered panics to Sentry. With no
// DSN configured every function here is a no-op, so callers never need to
// check whether reporting is on.
package reporting

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"

	"portfolio/internal/apperr"
)

// FlushTimeout bounds how long shutdown waits for queued events.
const FlushTimeout = 2 * time.Second

// Settings configures the Sentry client.
type Settings struct {
	DSN         string
	Environment string
	Release     string
}

// Init builds a hub for settings. It returns a nil hub and a no-op flush
// when DSN is empty.
func Init(settings Settings) (*sentry.Hub, func(), error) {
	if settings.DSN == "" {
		return nil, func() {}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         settings.DSN,
		Environment: settings.Environment,
		Release:     settings.Release,
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "error initializing sentry client")
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	flush := func() {
		hub.Flush(FlushTimeout)
	}
	return hub, flush, nil
}

// Capture reports err on the hub attached to ctx. The error kind and op
// are attached as tags when err is an *apperr.Error.
func Capture(ctx context.Context, err error) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error.kind", apperr.KindOf(err).String())
		if e, ok := apperr.As(err); ok && e.Op != "" {
			scope.SetTag("error.op", e.Op)
		}
		hub.CaptureException(err)
	})
}

// Recover reports a recovered panic value on the hub attached to ctx.
func Recover(ctx context.Context, rec any) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.RecoverWithContext(ctx, rec)
		hub.Flush(FlushTimeout)
	}
}
