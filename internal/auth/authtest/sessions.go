// Package authtest provides an in-memory session store for tests that
// need an auth.Gate without Valkey.
package authtest

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"time"

	"portfolio/internal/session"
)

// Sessions is a map-backed stand-in for session.Store. It issues the same
// cookie name, so requests built for the real store work against it.
type Sessions struct {
	mu   sync.Mutex
	data map[string]session.Data
	err  error
}

// NewSessions returns an empty store.
func NewSessions() *Sessions {
	return &Sessions{data: make(map[string]session.Data)}
}

// Fail makes every subsequent call return err. Pass nil to recover.
func (s *Sessions) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Put stores data under a fresh ID and returns a cookie carrying it.
func (s *Sessions) Put(data session.Data) *http.Cookie {
	id := newID()
	s.mu.Lock()
	s.data[id] = data
	s.mu.Unlock()
	return &http.Cookie{Name: session.CookieName, Value: id}
}

func (s *Sessions) Create(_ context.Context, w http.ResponseWriter, data *session.Data) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	id := newID()
	data.CreatedAt = time.Now().UTC()
	s.data[id] = *data
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: id, Path: "/", HttpOnly: true})
	return id, nil
}

func (s *Sessions) Get(_ context.Context, r *http.Request) (*session.Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	d, ok := s.data[session.ID(r)]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *Sessions) Update(_ context.Context, r *http.Request, data *session.Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	id := session.ID(r)
	if id == "" {
		return errors.New("session update: no cookie")
	}
	s.data[id] = *data
	return nil
}

func (s *Sessions) Destroy(_ context.Context, w http.ResponseWriter, r *http.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := session.ID(r)
	if id == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "", Path: "/", MaxAge: -1})
	if s.err != nil {
		return s.err
	}
	delete(s.data, id)
	return nil
}

func newID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
