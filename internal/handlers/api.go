package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"portfolio/internal/blog"
	"portfolio/internal/models"
)

// API serves read-only JSON views of posts and categories.
type API struct {
	blog Blog
}

// NewAPI creates a new API handler group.
func NewAPI(b Blog) *API {
	return &API{blog: b}
}

// postJSON is the transport shape of a post. Dates are RFC 3339 in UTC.
type postJSON struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	Content      string `json:"content"`
	ContentHTML  string `json:"contentHtml"`
	Date         string `json:"date"`
	Image        string `json:"image,omitempty"`
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

func toPostJSON(p *models.Post) postJSON {
	return postJSON{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		Content:      p.Content,
		ContentHTML:  p.ContentHTML,
		Date:         p.DateISO(),
		Image:        p.Image,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
	}
}

// Posts lists every post, newest first. ?category= filters by category ID.
func (a *API) Posts(w http.ResponseWriter, r *http.Request) {
	posts, err := a.blog.ListPosts(r.Context())
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	posts = blog.FilterByCategory(posts, r.URL.Query().Get("category"))
	out := make([]postJSON, 0, len(posts))
	for i := range posts {
		out = append(out, toPostJSON(&posts[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Post returns the post stored under {slug}.
func (a *API) Post(w http.ResponseWriter, r *http.Request) {
	post, err := a.blog.PostBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostJSON(post))
}

// Categories lists every category in insertion order.
func (a *API) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := a.blog.ListCategories(r.Context())
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}
