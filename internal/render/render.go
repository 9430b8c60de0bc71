// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public site and
// the admin editor. It supports full-page and HTMX partial rendering,
// automatically detecting the request type via the HX-Request header.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"portfolio/internal/auth"
	"portfolio/internal/markdown"
	"portfolio/internal/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

// layoutFiles are parsed together with every page template.
var layoutFiles = []string{"templates/base.html", "templates/partials.html"}

// Site is the metadata shared by every page.
type Site struct {
	Name string
	URL  string // absolute, no trailing slash
}

// PageData holds all data passed to templates.
type PageData struct {
	Title       string         // Page title for <title> tag
	Description string         // meta description
	Image       string         // og:image, absolute URL
	Canonical   string         // absolute URL of this page
	Section     string         // Active nav section (e.g., "home", "blog")
	User        *auth.User     // Signed-in admin (nil for visitors)
	CSRFToken   string         // CSRF token for forms and fetch headers
	Site        Site           // Site name and base URL
	Data        map[string]any // Page-specific data
	Flashes     []Flash        // One-time notification messages
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// Renderer handles template parsing and execution.
type Renderer struct {
	site      Site
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// New creates a Renderer by parsing all templates from the embedded
// filesystem. Each page template is paired with the base layout.
// When devMode is true, templates use CDN-hosted assets (TailwindCSS,
// HTMX); when false, they reference local static files.
func New(devMode bool, site Site) (*Renderer, error) {
	r := &Renderer{
		site:      site,
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			"activeClass": func(current, target string) string {
				if current == target {
					return "text-indigo-600 font-semibold"
				}
				return "text-gray-600 hover:text-gray-900"
			},
			// isDev returns true when the app runs in development mode.
			// Used by templates to conditionally load CDN vs local assets.
			"isDev": func() bool {
				return devMode
			},
			"date": func(t time.Time) string {
				return t.Format("January 2, 2006")
			},
			"isoDate": func(t time.Time) string {
				return t.UTC().Format(time.RFC3339)
			},
			// safeHTML marks stored post HTML as trusted. See package markdown.
			"safeHTML": func(s string) template.HTML {
				return template.HTML(s)
			},
			"excerpt": markdown.Excerpt,
		},
	}

	entries, err := fs.ReadDir(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" || name == "partials.html" {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		files := append(append([]string{}, layoutFiles...), "templates/"+name)
		tmpl, err := template.New("base.html").Funcs(r.funcMap).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[tmplName] = tmpl
	}

	return r, nil
}

// Site returns the site metadata the renderer stamps on every page.
func (rn *Renderer) Site() Site {
	return rn.site
}

// Page renders a page with status 200.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus renders a full page or an HTMX partial with the given status.
// For HTMX requests, only the "content" block is sent. Output is buffered
// so a template error never leaves a half-written page.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		slog.Error("template not found", "template", name)
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = &PageData{}
	}

	// Inject request-scoped values set by the middleware chain.
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.User == nil {
		data.User = middleware.UserFromCtx(r.Context())
	}
	data.Site = rn.site

	execName := "base.html"
	if isHTMX(r) {
		execName = "content"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, execName, data); err != nil {
		slog.Error("template execute failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
