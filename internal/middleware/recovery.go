// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"

	"portfolio/internal/reporting"
)

// Sentry attaches a per-request clone of hub to the context so handlers
// and Recoverer can report to it. A nil hub disables reporting.
func Sentry(hub *sentry.Hub) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if hub == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqHub := hub.Clone()
			scope := reqHub.Scope()
			scope.SetRequest(r)
			scope.SetTag("http.method", r.Method)
			if id := RequestIDFromCtx(r.Context()); id != "" {
				scope.SetTag("request_id", id)
			}
			next.ServeHTTP(w, r.WithContext(sentry.SetHubOnContext(r.Context(), reqHub)))
		})
	}
}

// Recoverer catches panics in downstream handlers, logs the stack trace,
// reports the panic to Sentry when enabled, and returns a 500 instead of
// crashing the server.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.Error("panic recovered",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", RequestIDFromCtx(r.Context()),
					"stack", string(debug.Stack()),
				)
				reporting.Recover(r.Context(), rec)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
