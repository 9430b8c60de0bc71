// Package web provides embedded static assets (CSS, JS) for the site.
// In development, templates load Tailwind and HTMX from a CDN; in
// production, the files embedded here are served at /static/.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree. Release builds drop the
// compiled Tailwind stylesheet over css/site.css and vendor
// js/htmx.min.js; without HTMX the "load more" link falls back to a full
// page load.
//
//go:embed all:static
var StaticFS embed.FS
