// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"portfolio/internal/auth"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// UserKey is the context key for the signed-in user.
	UserKey contextKey = "user"
)

// LoginPath is where signed-out visitors are sent. The post editor route
// doubles as the login form.
const LoginPath = "/admin/blog/new"

// CurrentUserer is the part of auth.Gate the middleware needs.
type CurrentUserer interface {
	CurrentUser(ctx context.Context, r *http.Request) (*auth.User, error)
}

// LoadUser asks the gate who is signed in and stores the answer in the
// request context. It never blocks the request; a session store error is
// logged and the visitor is treated as signed out.
func LoadUser(gate CurrentUserer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := gate.CurrentUser(r.Context(), r)
			if err != nil {
				slog.Warn("load user failed", "error", err, "path", r.URL.Path)
			}
			if user != nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth redirects signed-out visitors to the login gate.
// Must be applied after LoadUser in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromCtx(r.Context()) == nil {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *auth.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFromCtx extracts the signed-in user from the request context.
// Returns nil if nobody is signed in.
func UserFromCtx(ctx context.Context) *auth.User {
	user, _ := ctx.Value(UserKey).(*auth.User)
	return user
}
