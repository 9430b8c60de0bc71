// Package router sets up all HTTP routes and middleware chains for the
// portfolio. Public pages, the JSON API and the admin editor share one
// chi router; admin routes sit in a group behind RequireAuth.
package router

import (
	"io/fs"
	"net/http"
	"net/netip"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"

	"portfolio/internal/handlers"
	"portfolio/internal/middleware"
	"portfolio/web"
)

// Deps holds everything the router wires together.
type Deps struct {
	Gate    middleware.CurrentUserer
	Public  *handlers.Public
	Contact *handlers.Contact
	API     *handlers.API
	Auth    *handlers.Auth
	Admin   *handlers.Admin

	// Hub receives panics and store errors. Nil disables reporting.
	Hub *sentry.Hub

	// LoginLimiter and ContactLimiter throttle the two public form posts.
	// Either may be nil.
	LoginLimiter   *middleware.RateLimiter
	ContactLimiter *middleware.RateLimiter

	// SecureCookies marks the CSRF cookie Secure and turns on HSTS.
	SecureCookies bool

	// TrustedProxies may set the client address through forwarding
	// headers. Empty means RemoteAddr is the client.
	TrustedProxies []netip.Prefix
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.TrustProxies(d.TrustedProxies))
	r.Use(middleware.RequestID)
	r.Use(middleware.Sentry(d.Hub))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(d.SecureCookies))

	// Pages get a CSRF token and the signed-in user. The 404 page is
	// rendered with the same layout, so it needs both too.
	pages := chi.Chain(middleware.NewCSRF(d.SecureCookies), middleware.LoadUser(d.Gate))
	r.NotFound(pages.HandlerFunc(d.Public.NotFound).ServeHTTP)

	// Health check and static files skip CSRF and the session lookup.
	r.Get("/health", healthHandler)
	r.Handle("/static/*", staticHandler())

	r.Group(func(r chi.Router) {
		r.Use(pages...)

		r.Get("/", d.Public.Home)
		r.Get("/blog", d.Public.BlogIndex)
		r.Get("/blog/{slug}", d.Public.BlogPost)
		r.Get("/contact", d.Contact.Page)
		r.With(limit(d.ContactLimiter)).Post("/contact", d.Contact.Submit)

		r.Route("/api", func(r chi.Router) {
			r.Get("/posts", d.API.Posts)
			r.Get("/posts/{slug}", d.API.Post)
			r.Get("/categories", d.API.Categories)
		})

		r.Route("/admin", func(r chi.Router) {
			// The editor route doubles as the login form for visitors.
			r.Get("/blog/new", d.Admin.PostNew)
			r.With(limit(d.LoginLimiter)).Post("/login", d.Auth.LoginSubmit)
			r.Post("/logout", d.Auth.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)

				r.Post("/blog", d.Admin.PostCreate)
				r.Get("/blog/manage", d.Admin.Manage)
				r.Get("/blog/edit/{slug}", d.Admin.PostEdit)
				r.Post("/blog/edit/{slug}", d.Admin.PostUpdate)
				r.Post("/blog/{id}/delete", d.Admin.PostDelete)

				r.Post("/categories", d.Admin.CategoryCreate)
				r.Post("/categories/{id}/delete", d.Admin.CategoryDelete)

				r.Post("/images", d.Admin.ImageUpload)
			})
		})
	})

	return r
}

// limit returns rl's middleware, or a pass-through when rl is nil.
func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
