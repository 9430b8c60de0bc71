// Package handlers implements the HTTP handlers for the public site, the
// JSON API, and the admin editor. Handlers depend on small interfaces so
// tests can run them against in-memory stores.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"portfolio/internal/apperr"
	"portfolio/internal/blog"
	"portfolio/internal/models"
	"portfolio/internal/render"
	"portfolio/internal/reporting"
)

// Blog is the part of blog.Service the handlers use.
type Blog interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	PostsPageAfter(ctx context.Context, afterID string, pageSize int) ([]models.Post, error)
	PostBySlug(ctx context.Context, slug string) (*models.Post, error)
	CreatePost(ctx context.Context, in blog.PostInput) (*models.Post, error)
	UpdatePost(ctx context.Context, id string, in blog.PostUpdateInput) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	AddCategory(ctx context.Context, name string) (string, error)
	DeleteCategory(ctx context.Context, id string) error
}

var _ Blog = (*blog.Service)(nil)

// notices are the one-line messages shown after a redirect, keyed by the
// ?notice= value the redirecting handler sets.
var notices = map[string]render.Flash{
	"created":          {Type: "success", Message: "Post published."},
	"updated":          {Type: "success", Message: "Post saved."},
	"deleted":          {Type: "success", Message: "Post deleted."},
	"category-added":   {Type: "success", Message: "Category added."},
	"category-deleted": {Type: "success", Message: "Category deleted. Its posts were moved to Unknown."},
	"signed-out":       {Type: "info", Message: "You have been signed out."},

	"category-invalid":   {Type: "error", Message: "Category names are required and at most 100 characters."},
	"category-missing":   {Type: "error", Message: "That category no longer exists."},
	"category-protected": {Type: "error", Message: "The Unknown category cannot be deleted."},
	"category-failed":    {Type: "error", Message: "The category could not be saved. No changes were made."},
}

// noticeFlashes returns the flash named by the request's ?notice= value.
func noticeFlashes(r *http.Request) []render.Flash {
	if f, ok := notices[r.URL.Query().Get("notice")]; ok {
		return []render.Flash{f}
	}
	return nil
}

// errorFlash turns a classified error into a flash, logging and reporting
// the kinds that point at an infrastructure or deployment problem.
func errorFlash(ctx context.Context, err error) render.Flash {
	logError(ctx, err)
	return render.Flash{Type: "error", Message: apperr.Message(err)}
}

func logError(ctx context.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.StoreUnavailable, apperr.ConfigMissing:
		slog.Error("request failed", "error", err)
		reporting.Capture(ctx, err)
	case apperr.NotFound, apperr.ValidationFailed, apperr.AuthFailed:
		slog.Debug("request rejected", "error", err)
	default:
		slog.Warn("request failed", "error", err)
	}
}

// writeJSON writes data as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("json encode failed", "error", err)
	}
}

// errorBody is the JSON shape of every API and upload failure.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeJSONError writes err as {error, kind} with the status for its kind.
func writeJSONError(w http.ResponseWriter, r *http.Request, err error) {
	logError(r.Context(), err)
	kind := apperr.KindOf(err)
	writeJSON(w, kind.HTTPStatus(), errorBody{Error: apperr.Message(err), Kind: kind.String()})
}
