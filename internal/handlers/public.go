// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"portfolio/internal/apperr"
	"portfolio/internal/blog"
	"portfolio/internal/markdown"
	"portfolio/internal/models"
	"portfolio/internal/render"
)

// descriptionLength is the rune budget for meta descriptions.
const descriptionLength = 160

// Public groups handlers for the public-facing site: home, blog index,
// post detail and the not-found page. A failing store degrades listings
// to an empty list with a notice; it never takes the page down.
type Public struct {
	renderer *render.Renderer
	blog     Blog
}

// NewPublic creates a new Public handler group.
func NewPublic(renderer *render.Renderer, b Blog) *Public {
	return &Public{renderer: renderer, blog: b}
}

// Home renders the landing page with the latest posts.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flashes := noticeFlashes(r)

	posts, err := p.blog.ListPosts(ctx)
	if err != nil {
		flashes = append(flashes, errorFlash(ctx, err))
	}

	site := p.renderer.Site()
	p.renderer.Page(w, r, "home", &render.PageData{
		Section:     "home",
		Description: "Projects and writing by " + site.Name + ".",
		Canonical:   site.URL + "/",
		Flashes:     flashes,
		Data:        map[string]any{"Latest": blog.Latest(posts, blog.LatestCount)},
	})
}

// BlogIndex renders the post list, optionally filtered by ?category=.
// ?show= sets how many posts are revealed; "load more" adds IndexPageSize.
func (p *Public) BlogIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	category := q.Get("category")
	show := parseShow(q.Get("show"))

	var flashes []render.Flash
	posts, err := p.blog.ListPosts(ctx)
	if err != nil {
		flashes = append(flashes, errorFlash(ctx, err))
	}
	categories, err := p.blog.ListCategories(ctx)
	if err != nil {
		flashes = append(flashes, errorFlash(ctx, err))
	}

	shown, hasMore := blog.Reveal(blog.FilterByCategory(posts, category), show)

	var moreURL string
	if hasMore {
		v := url.Values{}
		if category != "" {
			v.Set("category", category)
		}
		v.Set("show", strconv.Itoa(show+blog.IndexPageSize))
		moreURL = "/blog?" + v.Encode()
	}

	site := p.renderer.Site()
	p.renderer.Page(w, r, "blog_index", &render.PageData{
		Title:       "Blog",
		Description: "Articles and notes from " + site.Name + ".",
		Canonical:   site.URL + "/blog",
		Section:     "blog",
		Flashes:     flashes,
		Data: map[string]any{
			"Posts":      shown,
			"Categories": categories,
			"Category":   category,
			"HasMore":    hasMore,
			"MoreURL":    moreURL,
		},
	})
}

// BlogPost renders a single post looked up by slug.
func (p *Public) BlogPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, err := p.blog.PostBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			p.notFound(w, r, apperr.Message(err))
			return
		}
		logError(ctx, err)
		p.renderer.PageStatus(w, r, apperr.KindOf(err).HTTPStatus(), "error", &render.PageData{
			Title: "Unavailable",
			Data:  map[string]any{"Message": apperr.Message(err)},
		})
		return
	}

	site := p.renderer.Site()
	canonical := site.URL + "/blog/" + post.Slug
	p.renderer.Page(w, r, "blog_post", &render.PageData{
		Title:       post.Title,
		Description: markdown.Excerpt(post.ContentHTML, descriptionLength),
		Image:       post.Image,
		Canonical:   canonical,
		Section:     "blog",
		Flashes:     noticeFlashes(r),
		Data: map[string]any{
			"Post":  post,
			"Share": shareLinks(post, canonical),
		},
	})
}

// NotFound renders the 404 page for unmatched routes.
func (p *Public) NotFound(w http.ResponseWriter, r *http.Request) {
	p.notFound(w, r, "")
}

func (p *Public) notFound(w http.ResponseWriter, r *http.Request, msg string) {
	p.renderer.PageStatus(w, r, http.StatusNotFound, "not_found", &render.PageData{
		Title: "Not found",
		Data:  map[string]any{"Message": msg},
	})
}

// ShareLink is one "share this post" target.
type ShareLink struct {
	Name string
	URL  string
}

func shareLinks(post *models.Post, pageURL string) []ShareLink {
	u := url.QueryEscape(pageURL)
	title := url.QueryEscape(post.Title)
	return []ShareLink{
		{"Twitter", "https://twitter.com/intent/tweet?url=" + u + "&text=" + title},
		{"Facebook", "https://www.facebook.com/sharer/sharer.php?u=" + u},
		{"LinkedIn", "https://www.linkedin.com/sharing/share-offsite/?url=" + u},
		{"WhatsApp", "https://api.whatsapp.com/send?text=" + url.QueryEscape(post.Title+" "+pageURL)},
	}
}

// parseShow reads ?show=, never revealing fewer than one page.
func parseShow(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < blog.IndexPageSize {
		return blog.IndexPageSize
	}
	return n
}
