package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"portfolio/internal/apperr"
	"portfolio/internal/auth"
	"portfolio/internal/middleware"
	"portfolio/internal/render"
)

// Gate is the part of auth.Gate the sign-in handlers use.
type Gate interface {
	SignIn(ctx context.Context, w http.ResponseWriter, email, password string) (needsCode bool, err error)
	VerifyCode(ctx context.Context, r *http.Request, code string) error
	SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) error
	Pending(ctx context.Context, r *http.Request) bool
}

var _ Gate = (*auth.Gate)(nil)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	renderer *render.Renderer
	gate     Gate
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, gate Gate) *Auth {
	return &Auth{renderer: renderer, gate: gate}
}

// LoginPage renders the login form, or the code form when a password
// sign-in is waiting for its authenticator code.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, a.gate.Pending(r.Context(), r), "", noticeFlashes(r))
}

// LoginSubmit processes either sign-in step. A form carrying "code"
// completes a pending sign-in; anything else is a password attempt.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if r.PostForm.Has("code") {
		form := codeForm{Code: trimmed(r.PostForm, "code")}
		err := validateForm("handlers.LoginSubmit", form)
		if err == nil {
			err = a.gate.VerifyCode(ctx, r, form.Code)
		}
		if err != nil {
			a.fail(w, r, err, "")
			return
		}
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}

	form := loginForm{
		Email:    trimmed(r.PostForm, "email"),
		Password: r.PostForm.Get("password"),
	}
	err := validateForm("handlers.LoginSubmit", form)
	if err == nil {
		_, err = a.gate.SignIn(ctx, w, form.Email, form.Password)
	}
	if err != nil {
		slog.Warn("sign-in failed", "email", form.Email, "remote", r.RemoteAddr, "kind", apperr.KindOf(err).String())
		a.fail(w, r, err, form.Email)
		return
	}
	// A pending session lands on the code form; a verified one on the editor.
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// Logout ends the session and returns to the blog.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.gate.SignOut(r.Context(), w, r); err != nil {
		logError(r.Context(), err)
	}
	http.Redirect(w, r, "/blog?notice=signed-out", http.StatusSeeOther)
}

func (a *Auth) fail(w http.ResponseWriter, r *http.Request, err error, email string) {
	status := apperr.KindOf(err).HTTPStatus()
	flash := errorFlash(r.Context(), err)
	a.render(w, r, status, a.gate.Pending(r.Context(), r), email, []render.Flash{flash})
}

func (a *Auth) render(w http.ResponseWriter, r *http.Request, status int, needsCode bool, email string, flashes []render.Flash) {
	a.renderer.PageStatus(w, r, status, "login", &render.PageData{
		Title:   "Sign in",
		Section: "editor",
		Flashes: flashes,
		Data: map[string]any{
			"NeedsCode": needsCode,
			"Email":     email,
		},
	})
}
