// Package auth decides who is signed in. A Gate wraps the admin Identity
// and a session store, and tells interested parties when the signed-in
// state changes. Build one per process with NewGate and pass it to the
// handlers and middleware that need it.
package auth

import (
	"context"
	"net/http"
	"sync"

	"portfolio/internal/apperr"
	"portfolio/internal/session"
)

// Sessions is the subset of session.Store the gate needs.
type Sessions interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Get(ctx context.Context, r *http.Request) (*session.Data, error)
	Update(ctx context.Context, r *http.Request, data *session.Data) error
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// User is the signed-in admin.
type User struct {
	Email string
}

// EventKind says which way the signed-in state moved.
type EventKind int

const (
	SignedOut EventKind = iota
	SignedIn
)

func (k EventKind) String() string {
	if k == SignedIn {
		return "signed_in"
	}
	return "signed_out"
}

// Event is delivered to OnChange listeners.
type Event struct {
	Kind EventKind
	User User
}

// Gate is the session-state provider.
type Gate struct {
	identity Identity
	sessions Sessions

	mu        sync.Mutex
	listeners map[int]func(Event)
	nextID    int
}

// NewGate creates a gate for identity backed by sessions.
func NewGate(identity Identity, sessions Sessions) *Gate {
	return &Gate{
		identity:  identity,
		sessions:  sessions,
		listeners: make(map[int]func(Event)),
	}
}

const badCredentialsMsg = "Invalid email or password."

// SignIn checks the credentials and starts a session. When the identity
// has a TOTP secret the session stays pending until VerifyCode succeeds,
// and needsCode is true.
func (g *Gate) SignIn(ctx context.Context, w http.ResponseWriter, email, password string) (needsCode bool, err error) {
	if !g.identity.CheckPassword(email, password) {
		return false, apperr.New(apperr.AuthFailed, "auth.SignIn", badCredentialsMsg)
	}

	data := &session.Data{
		Email:    g.identity.Email,
		Verified: !g.identity.TOTPEnabled(),
	}
	if _, err := g.sessions.Create(ctx, w, data); err != nil {
		return false, apperr.Wrap(apperr.StoreUnavailable, "auth.SignIn", err, "Could not start a session. Please try again.")
	}

	if data.Verified {
		g.notify(Event{Kind: SignedIn, User: User{Email: data.Email}})
		return false, nil
	}
	return true, nil
}

// VerifyCode completes a pending sign-in with an authenticator code.
func (g *Gate) VerifyCode(ctx context.Context, r *http.Request, code string) error {
	data, err := g.sessions.Get(ctx, r)
	if err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, "auth.VerifyCode", err, "Could not read your session. Please try again.")
	}
	if data == nil {
		return apperr.New(apperr.AuthFailed, "auth.VerifyCode", "Your sign-in expired. Please start again.")
	}
	if data.Verified {
		return nil
	}
	if !g.identity.CheckCode(code) {
		return apperr.New(apperr.AuthFailed, "auth.VerifyCode", "Invalid authentication code.")
	}

	data.Verified = true
	if err := g.sessions.Update(ctx, r, data); err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, "auth.VerifyCode", err, "Could not update your session. Please try again.")
	}
	g.notify(Event{Kind: SignedIn, User: User{Email: data.Email}})
	return nil
}

// SignOut ends the session. Listeners hear SignedOut only if someone was
// actually signed in.
func (g *Gate) SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	user, _ := g.CurrentUser(ctx, r)
	if err := g.sessions.Destroy(ctx, w, r); err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, "auth.SignOut", err, "Could not end your session.")
	}
	if user != nil {
		g.notify(Event{Kind: SignedOut, User: *user})
	}
	return nil
}

// CurrentUser returns the signed-in user, or nil when the request carries
// no verified session.
func (g *Gate) CurrentUser(ctx context.Context, r *http.Request) (*User, error) {
	data, err := g.sessions.Get(ctx, r)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "auth.CurrentUser", err, "Could not read your session.")
	}
	if data == nil || !data.Verified {
		return nil, nil
	}
	return &User{Email: data.Email}, nil
}

// Pending reports whether the request has a session waiting for its code.
func (g *Gate) Pending(ctx context.Context, r *http.Request) bool {
	data, err := g.sessions.Get(ctx, r)
	return err == nil && data != nil && !data.Verified
}

// OnChange registers fn for sign-in and sign-out events and returns a
// function that removes it. Listeners run synchronously on the request
// goroutine that caused the change.
func (g *Gate) OnChange(fn func(Event)) (unsubscribe func()) {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.listeners, id)
			g.mu.Unlock()
		})
	}
}

func (g *Gate) notify(ev Event) {
	g.mu.Lock()
	fns := make([]func(Event), 0, len(g.listeners))
	for _, fn := range g.listeners {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
