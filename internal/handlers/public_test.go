package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomeShowsLatestThree(t *testing.T) {
	env := newTestEnv(t, nil)
	cat := env.mustCategory(t, "Notes")
	for i := 1; i <= 5; i++ {
		env.mustPost(t, fmt.Sprintf("Post number %d", i), cat)
	}

	rr := env.do(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	for _, want := range []string{"Post number 5", "Post number 4", "Post number 3"} {
		assert.Contains(t, body, want)
	}
	assert.NotContains(t, body, "Post number 2")
	assert.NotContains(t, body, "Post number 1")
}

func TestHomeStoreDownStillRenders(t *testing.T) {
	env := newTestEnv(t, nil)
	env.mem.Fail("posts.List", errStoreDown)

	rr := env.do(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Could not load posts.")
	assert.Contains(t, rr.Body.String(), "No posts yet.")
}

func TestBlogIndexRevealAndFilter(t *testing.T) {
	env := newTestEnv(t, nil)
	finance := env.mustCategory(t, "Finance")
	travel := env.mustCategory(t, "Travel")
	for i := 1; i <= 8; i++ {
		env.mustPost(t, fmt.Sprintf("Money %d", i), finance)
	}
	env.mustPost(t, "Lisbon", travel)

	tests := []struct {
		name     string
		target   string
		want     []string
		notWant  []string
		moreLink string
	}{
		{
			name:     "first six",
			target:   "/blog",
			want:     []string{"Lisbon", "Money 8", "Money 4"},
			notWant:  []string{"Money 3<", "Money 1<"},
			moreLink: "/blog?show=12",
		},
		{
			name:    "load more reveals the rest",
			target:  "/blog?show=12",
			want:    []string{"Lisbon", "Money 1"},
			notWant: []string{"Load more"},
		},
		{
			name:     "category filter",
			target:   "/blog?category=" + finance,
			want:     []string{"Money 8", "Money 3"},
			notWant:  []string{"Lisbon"},
			moreLink: "/blog?category=" + finance + "&amp;show=12",
		},
		{
			name:    "bogus show falls back to a page",
			target:  "/blog?show=-4",
			want:    []string{"Money 4"},
			notWant: []string{"Money 3<"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodGet, tt.target, nil, nil)
			require.Equal(t, http.StatusOK, rr.Code)
			body := rr.Body.String()
			for _, w := range tt.want {
				assert.Contains(t, body, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, body, w)
			}
			if tt.moreLink != "" {
				assert.Contains(t, body, tt.moreLink)
			}
		})
	}
}

func TestBlogIndexCategoryChips(t *testing.T) {
	env := newTestEnv(t, nil)
	finance := env.mustCategory(t, "Finance")

	rr := env.do(http.MethodGet, "/blog?category="+finance, nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `href="/blog?category=`+finance+`"`)
}

func TestBlogPost(t *testing.T) {
	env := newTestEnv(t, nil)
	finance := env.mustCategory(t, "Finance")
	post := env.mustPost(t, "My First Post", finance)
	require.Equal(t, "my-first-post", post.Slug)

	rr := env.do(http.MethodGet, "/blog/my-first-post", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "<strong>My First Post</strong>", "stored HTML is rendered")
	assert.Contains(t, body, `<link rel="canonical" href="https://jane.example/blog/my-first-post">`)
	assert.Contains(t, body, `<meta name="description" content="Body of My First Post, long enough to make an excerpt.">`)
	assert.Contains(t, body, "https://www.linkedin.com/sharing/share-offsite/?url=https%3A%2F%2Fjane.example%2Fblog%2Fmy-first-post")
	assert.Contains(t, body, "Finance")
}

func TestBlogPostNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, target := range []string{"/blog/nothing-here", "/blog/Not%20A%20Slug"} {
		rr := env.do(http.MethodGet, target, nil, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code, target)
		assert.Contains(t, rr.Body.String(), "Post not found.")
	}
}

func TestBlogPostStoreDown(t *testing.T) {
	env := newTestEnv(t, nil)
	env.mem.Fail("posts.FindBySlug", errStoreDown)

	rr := env.do(http.MethodGet, "/blog/anything", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "Could not load the post.")
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(http.MethodGet, "/no/such/page", nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "This page does not exist.")
}

func TestParseShow(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 6}, {"abc", 6}, {"3", 6}, {"6", 6}, {"12", 12}, {"18", 18},
	}
	for _, tt := range tests {
		if got := parseShow(tt.in); got != tt.want {
			t.Errorf("parseShow(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestShareLinks(t *testing.T) {
	env := newTestEnv(t, nil)
	post := env.mustPost(t, "Hello & Goodbye", env.mustCategory(t, "Notes"))

	links := shareLinks(post, testSiteURL+"/blog/"+post.Slug)
	require.Len(t, links, 4)
	names := make([]string, 0, len(links))
	for _, l := range links {
		names = append(names, l.Name)
		assert.True(t, strings.HasPrefix(l.URL, "https://"), l.URL)
		assert.NotContains(t, l.URL, " & ", "title must be query-escaped")
	}
	assert.Equal(t, []string{"Twitter", "Facebook", "LinkedIn", "WhatsApp"}, names)
}
