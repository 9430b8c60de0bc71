package blog

import (
	"strings"

	"portfolio/internal/models"
)

// Listing sizes used by the public and admin views.
const (
	IndexPageSize  = 6  // blog index reveals this many more per "load more"
	LatestCount    = 3  // home page "latest articles"
	ManagePageSize = 10 // admin management list
)

// FilterPosts keeps posts whose title or category name contains query,
// case-insensitively. An empty query keeps everything.
func FilterPosts(posts []models.Post, query string) []models.Post {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return posts
	}
	var out []models.Post
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.CategoryName), q) {
			out = append(out, p)
		}
	}
	return out
}

// FilterByCategory keeps posts in the given category. An empty ID keeps
// everything.
func FilterByCategory(posts []models.Post, categoryID string) []models.Post {
	if categoryID == "" {
		return posts
	}
	var out []models.Post
	for _, p := range posts {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out
}

// Reveal returns the first visible posts and whether more remain.
func Reveal(posts []models.Post, visible int) ([]models.Post, bool) {
	if visible < 0 {
		visible = 0
	}
	if visible >= len(posts) {
		return posts, false
	}
	return posts[:visible], true
}

// Latest returns the n newest posts of a list already ordered newest first.
func Latest(posts []models.Post, n int) []models.Post {
	shown, _ := Reveal(posts, n)
	return shown
}
