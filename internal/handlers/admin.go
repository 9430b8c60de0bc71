// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"portfolio/internal/apperr"
	"portfolio/internal/blog"
	"portfolio/internal/middleware"
	"portfolio/internal/models"
	"portfolio/internal/render"
	"portfolio/internal/session"
)

// UploadGate tracks image uploads in flight per session.
type UploadGate interface {
	Begin(ctx context.Context, sessionID string) (release func(), err error)
	InFlight(ctx context.Context, sessionID string) (bool, error)
}

// ImageUploader sends a featured image to the image host.
type ImageUploader interface {
	Upload(ctx context.Context, data []byte) (string, error)
}

// Admin groups the editor and management handlers. Every route except
// PostNew sits behind middleware.RequireAuth.
type Admin struct {
	renderer *render.Renderer
	blog     Blog
	auth     *Auth
	uploads  UploadGate
	images   ImageUploader
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(renderer *render.Renderer, b Blog, authHandlers *Auth, uploads UploadGate, images ImageUploader) *Admin {
	return &Admin{
		renderer: renderer,
		blog:     b,
		auth:     authHandlers,
		uploads:  uploads,
		images:   images,
	}
}

// uploadBusyMsg is shown when a submit races an image upload.
const uploadBusyMsg = "An image is still uploading. Wait for it to finish, then submit again."

// PostNew renders the empty editor, or the login form for visitors.
func (a *Admin) PostNew(w http.ResponseWriter, r *http.Request) {
	if middleware.UserFromCtx(r.Context()) == nil {
		a.auth.LoginPage(w, r)
		return
	}
	a.renderEditor(w, r, http.StatusOK, nil, editorForm{}, noticeFlashes(r))
}

// PostCreate publishes a new post and redirects to it.
func (a *Admin) PostCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := editorForm{
		Title:      trimmed(r.PostForm, "title"),
		Content:    r.PostForm.Get("content"),
		Image:      trimmed(r.PostForm, "image"),
		CategoryID: trimmed(r.PostForm, "category_id"),
	}

	if a.uploadBusy(r) {
		a.renderEditor(w, r, http.StatusConflict, nil, form, []render.Flash{{Type: "warning", Message: uploadBusyMsg}})
		return
	}

	post, err := a.blog.CreatePost(ctx, blog.PostInput{
		Title:      form.Title,
		Content:    form.Content,
		Image:      form.Image,
		CategoryID: form.CategoryID,
	})
	if err != nil {
		a.renderEditor(w, r, apperr.KindOf(err).HTTPStatus(), nil, form, []render.Flash{errorFlash(ctx, err)})
		return
	}

	slog.Info("post created", "id", post.ID, "slug", post.Slug)
	http.Redirect(w, r, "/blog/"+post.Slug+"?notice=created", http.StatusSeeOther)
}

// PostEdit renders the editor for the post at {slug}.
func (a *Admin) PostEdit(w http.ResponseWriter, r *http.Request) {
	post, ok := a.findPost(w, r)
	if !ok {
		return
	}
	a.renderEditor(w, r, http.StatusOK, post, formFromPost(post), noticeFlashes(r))
}

// PostUpdate saves an edit and redirects to the post under its current
// slug, which changes when the title does. Only submitted fields change.
func (a *Admin) PostUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, ok := a.findPost(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var in blog.PostUpdateInput
	form := formFromPost(post)
	if r.PostForm.Has("title") {
		form.Title = trimmed(r.PostForm, "title")
		in.Title = &form.Title
	}
	if r.PostForm.Has("content") {
		form.Content = r.PostForm.Get("content")
		in.Content = &form.Content
	}
	if r.PostForm.Has("image") {
		form.Image = trimmed(r.PostForm, "image")
		in.Image = &form.Image
	}
	if r.PostForm.Has("category_id") {
		form.CategoryID = trimmed(r.PostForm, "category_id")
		in.CategoryID = &form.CategoryID
	}

	if a.uploadBusy(r) {
		a.renderEditor(w, r, http.StatusConflict, post, form, []render.Flash{{Type: "warning", Message: uploadBusyMsg}})
		return
	}

	updated, err := a.blog.UpdatePost(ctx, post.ID, in)
	if err != nil {
		a.renderEditor(w, r, apperr.KindOf(err).HTTPStatus(), post, form, []render.Flash{errorFlash(ctx, err)})
		return
	}

	slog.Info("post updated", "id", updated.ID, "slug", updated.Slug)
	http.Redirect(w, r, "/blog/"+updated.Slug+"?notice=updated", http.StatusSeeOther)
}

// PostDelete removes the post with {id}.
func (a *Admin) PostDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := a.blog.DeletePost(ctx, id); err != nil {
		a.renderManage(w, r, apperr.KindOf(err).HTTPStatus(), []render.Flash{errorFlash(ctx, err)})
		return
	}
	slog.Info("post deleted", "id", id)
	http.Redirect(w, r, "/admin/blog/manage?notice=deleted", http.StatusSeeOther)
}

// Manage renders the post management list. ?q= searches titles and
// category names; ?after= is the ID of the last post on the previous page.
func (a *Admin) Manage(w http.ResponseWriter, r *http.Request) {
	a.renderManage(w, r, http.StatusOK, noticeFlashes(r))
}

// CategoryCreate adds a category and returns to the editor it came from.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	back := returnTo(r)

	id, err := a.blog.AddCategory(ctx, r.PostForm.Get("name"))
	if err != nil {
		logError(ctx, err)
		http.Redirect(w, r, withNotice(back, categoryNotice(err, "category-invalid")), http.StatusSeeOther)
		return
	}
	slog.Info("category added", "id", id)
	http.Redirect(w, r, withNotice(back, "category-added"), http.StatusSeeOther)
}

// CategoryDelete deletes the category with {id}, moving its posts to
// the Unknown category.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	back := returnTo(r)
	if err := a.blog.DeleteCategory(ctx, chi.URLParam(r, "id")); err != nil {
		logError(ctx, err)
		http.Redirect(w, r, withNotice(back, categoryNotice(err, "category-protected")), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, withNotice(back, "category-deleted"), http.StatusSeeOther)
}

// categoryNotice picks the notice for a failed category action. invalid
// is used for ValidationFailed, which means different things for add and
// delete.
func categoryNotice(err error, invalid string) string {
	switch apperr.KindOf(err) {
	case apperr.ValidationFailed:
		return invalid
	case apperr.NotFound:
		return "category-missing"
	default:
		return "category-failed"
	}
}

// findPost loads the post at {slug}, rendering the failure page itself
// when it cannot.
func (a *Admin) findPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	post, err := a.blog.PostBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err == nil {
		return post, true
	}
	logError(r.Context(), err)
	name := "error"
	if apperr.Is(err, apperr.NotFound) {
		name = "not_found"
	}
	a.renderer.PageStatus(w, r, apperr.KindOf(err).HTTPStatus(), name, &render.PageData{
		Title: "Edit post",
		Data:  map[string]any{"Message": apperr.Message(err)},
	})
	return nil, false
}

// uploadBusy reports whether the caller's session has an image upload in
// flight. A tracker failure is logged and does not block the submit.
func (a *Admin) uploadBusy(r *http.Request) bool {
	busy, err := a.uploads.InFlight(r.Context(), session.ID(r))
	if err != nil {
		slog.Warn("upload tracker unavailable", "error", err)
		return false
	}
	return busy
}

func (a *Admin) renderEditor(w http.ResponseWriter, r *http.Request, status int, post *models.Post, form editorForm, flashes []render.Flash) {
	categories, err := a.blog.ListCategories(r.Context())
	if err != nil {
		flashes = append(flashes, errorFlash(r.Context(), err))
	}
	categories = withUnknown(categories, form.CategoryID)

	title, action, path := "New post", "/admin/blog", "/admin/blog/new"
	if post != nil {
		title = "Edit: " + post.Title
		action = "/admin/blog/edit/" + post.Slug
		path = action
	}

	a.renderer.PageStatus(w, r, status, "editor", &render.PageData{
		Title:   title,
		Section: "editor",
		Flashes: flashes,
		Data: map[string]any{
			"Post":       post,
			"Form":       form,
			"Categories": categories,
			"Action":     action,
			"ReturnTo":   path,
		},
	})
}

func (a *Admin) renderManage(w http.ResponseWriter, r *http.Request, status int, flashes []render.Flash) {
	ctx := r.Context()
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	after := q.Get("after")

	var (
		posts []models.Post
		next  string
		err   error
	)
	if query == "" {
		posts, next, err = a.storePage(ctx, after)
	} else {
		var all []models.Post
		all, err = a.blog.ListPosts(ctx)
		if err == nil {
			posts, next, err = pageAfter(blog.FilterPosts(all, query), after, blog.ManagePageSize)
		}
	}
	if err != nil {
		flashes = append(flashes, errorFlash(ctx, err))
	}

	var nextURL string
	if next != "" {
		v := url.Values{}
		if query != "" {
			v.Set("q", query)
		}
		v.Set("after", next)
		nextURL = "/admin/blog/manage?" + v.Encode()
	}

	a.renderer.PageStatus(w, r, status, "manage", &render.PageData{
		Title:   "Manage posts",
		Section: "manage",
		Flashes: flashes,
		Data: map[string]any{
			"Posts":   posts,
			"Query":   query,
			"After":   after,
			"NextURL": nextURL,
		},
	})
}

// storePage fetches one page from the store. It asks for one extra post
// to learn whether a next page exists.
func (a *Admin) storePage(ctx context.Context, after string) ([]models.Post, string, error) {
	posts, err := a.blog.PostsPageAfter(ctx, after, blog.ManagePageSize+1)
	if err != nil {
		return nil, "", err
	}
	if len(posts) <= blog.ManagePageSize {
		return posts, "", nil
	}
	posts = posts[:blog.ManagePageSize]
	return posts, posts[len(posts)-1].ID, nil
}

// pageAfter pages an in-memory list the same way the store does.
func pageAfter(posts []models.Post, after string, size int) ([]models.Post, string, error) {
	start := 0
	if after != "" {
		start = -1
		for i := range posts {
			if posts[i].ID == after {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return nil, "", apperr.New(apperr.NotFound, "handlers.Manage", "The page cursor no longer exists.")
		}
	}
	end := min(start+size, len(posts))
	page := posts[start:end]
	if end < len(posts) && len(page) > 0 {
		return page, page[len(page)-1].ID, nil
	}
	return page, "", nil
}

// withUnknown adds the Unknown sentinel to the select options when the
// post being edited was moved there by a category deletion.
func withUnknown(categories []models.Category, selected string) []models.Category {
	if selected != models.UnknownCategoryID {
		return categories
	}
	for _, c := range categories {
		if c.IsUnknown() {
			return categories
		}
	}
	return append([]models.Category{models.UnknownCategory()}, categories...)
}

func formFromPost(p *models.Post) editorForm {
	return editorForm{
		Title:      p.Title,
		Content:    p.Content,
		Image:      p.Image,
		CategoryID: p.CategoryID,
	}
}

// returnTo reads the return_to form value, allowing only editor paths.
func returnTo(r *http.Request) string {
	back := r.FormValue("return_to")
	if strings.HasPrefix(back, "/admin/blog/") && !strings.HasPrefix(back, "//") && !strings.ContainsAny(back, "?#\\") {
		return back
	}
	return middleware.LoginPath
}

func withNotice(path, notice string) string {
	return path + "?notice=" + url.QueryEscape(notice)
}
