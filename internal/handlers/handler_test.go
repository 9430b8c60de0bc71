// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the handler
// tests: an in-memory blog store, an in-memory session store and fakes for
// the upload tracker and image host, wired into a chi router.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"portfolio/internal/auth"
	"portfolio/internal/auth/authtest"
	"portfolio/internal/blog"
	"portfolio/internal/blog/blogtest"
	"portfolio/internal/middleware"
	"portfolio/internal/models"
	"portfolio/internal/render"
	"portfolio/internal/session"
)

const (
	testEmail    = "owner@example.com"
	testPassword = "correct horse battery staple"
	testSiteURL  = "https://jane.example"
)

var errStoreDown = errors.New("connection refused")

// fakeUploads is an in-memory UploadGate.
type fakeUploads struct {
	mu       sync.Mutex
	inFlight map[string]int
	err      error
}

func newFakeUploads() *fakeUploads {
	return &fakeUploads{inFlight: make(map[string]int)}
}

func (f *fakeUploads) Begin(_ context.Context, sessionID string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.inFlight[sessionID]++
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.inFlight[sessionID]--
			f.mu.Unlock()
		})
	}, nil
}

func (f *fakeUploads) InFlight(_ context.Context, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight[sessionID] > 0, f.err
}

// fakeImages is an ImageUploader that records what it was sent.
type fakeImages struct {
	mu    sync.Mutex
	url   string
	err   error
	calls int
}

func (f *fakeImages) Upload(_ context.Context, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// testEnv bundles everything a handler test needs.
type testEnv struct {
	mem      *blogtest.Store
	svc      *blog.Service
	sessions *authtest.Sessions
	gate     *auth.Gate
	uploads  *fakeUploads
	images   *fakeImages
	public   *Public
	admin    *Admin
	router   http.Handler
}

// newTestEnv builds the handlers over in-memory dependencies. images may
// be nil to use a fake that returns a fixed URL.
func newTestEnv(t *testing.T, images ImageUploader) *testEnv {
	t.Helper()

	renderer, err := render.New(true, render.Site{Name: "Jane Doe", URL: testSiteURL})
	require.NoError(t, err)

	mem := blogtest.New()
	svc := blog.NewService(mem.Posts(), mem.Categories())
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	})

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	sessions := authtest.NewSessions()
	gate := auth.NewGate(auth.Identity{Email: testEmail, PasswordHash: string(hash)}, sessions)

	env := &testEnv{
		mem:      mem,
		svc:      svc,
		sessions: sessions,
		gate:     gate,
		uploads:  newFakeUploads(),
		images:   &fakeImages{url: "https://res.cloudinary.com/demo/image/upload/cover.jpg"},
	}
	if images == nil {
		images = env.images
	}

	authHandlers := NewAuth(renderer, gate)
	env.public = NewPublic(renderer, svc)
	env.admin = NewAdmin(renderer, svc, authHandlers, env.uploads, images)
	contact := NewContact(renderer)
	api := NewAPI(svc)

	r := chi.NewRouter()
	r.Use(middleware.LoadUser(gate))
	r.NotFound(env.public.NotFound)
	r.Get("/", env.public.Home)
	r.Get("/blog", env.public.BlogIndex)
	r.Get("/blog/{slug}", env.public.BlogPost)
	r.Get("/contact", contact.Page)
	r.Post("/contact", contact.Submit)
	r.Get("/api/posts", api.Posts)
	r.Get("/api/posts/{slug}", api.Post)
	r.Get("/api/categories", api.Categories)
	r.Get("/admin/blog/new", env.admin.PostNew)
	r.Post("/admin/login", authHandlers.LoginSubmit)
	r.Post("/admin/logout", authHandlers.Logout)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/admin/blog", env.admin.PostCreate)
		r.Get("/admin/blog/edit/{slug}", env.admin.PostEdit)
		r.Post("/admin/blog/edit/{slug}", env.admin.PostUpdate)
		r.Post("/admin/blog/{id}/delete", env.admin.PostDelete)
		r.Get("/admin/blog/manage", env.admin.Manage)
		r.Post("/admin/categories", env.admin.CategoryCreate)
		r.Post("/admin/categories/{id}/delete", env.admin.CategoryDelete)
		r.Post("/admin/images", env.admin.ImageUpload)
	})
	env.router = r
	return env
}

// signedIn returns a session cookie for a verified admin session.
func (e *testEnv) signedIn() *http.Cookie {
	return e.sessions.Put(session.Data{Email: testEmail, Verified: true})
}

// do sends a request through the router. cookie may be nil.
func (e *testEnv) do(method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) mustCategory(t *testing.T, name string) string {
	t.Helper()
	id, err := e.svc.AddCategory(context.Background(), name)
	require.NoError(t, err)
	return id
}

func (e *testEnv) mustPost(t *testing.T, title, categoryID string) *models.Post {
	t.Helper()
	p, err := e.svc.CreatePost(context.Background(), blog.PostInput{
		Title:      title,
		Content:    "Body of **" + title + "**, long enough to make an excerpt.",
		CategoryID: categoryID,
	})
	require.NoError(t, err)
	return p
}

// postBySlug returns the stored post with slug, or nil.
func (e *testEnv) postBySlug(slug string) *models.Post {
	for _, p := range e.mem.AllPosts() {
		if p.Slug == slug {
			return &p
		}
	}
	return nil
}
