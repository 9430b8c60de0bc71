package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"portfolio/internal/auth"
	"portfolio/internal/auth/authtest"
	"portfolio/internal/middleware"
	"portfolio/internal/render"
	"portfolio/internal/session"
)

func TestEditorRouteShowsLoginToVisitors(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(http.MethodGet, "/admin/blog/new", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `action="/admin/login"`)
	assert.Contains(t, body, `name="password"`)
	assert.NotContains(t, body, `id="post-form"`)
}

func TestEditorRouteShowsEditorWhenSignedIn(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(http.MethodGet, "/admin/blog/new", nil, env.signedIn())
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `id="post-form"`)
}

func TestLoginSubmit(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantText   string
	}{
		{"wrong password", url.Values{"email": {testEmail}, "password": {"nope"}}, http.StatusUnauthorized, "Invalid email or password."},
		{"unknown email", url.Values{"email": {"someone@example.com"}, "password": {testPassword}}, http.StatusUnauthorized, "Invalid email or password."},
		{"missing password", url.Values{"email": {testEmail}}, http.StatusUnprocessableEntity, "Password is required."},
		{"malformed email", url.Values{"email": {"owner"}, "password": {testPassword}}, http.StatusUnprocessableEntity, "Email must be a valid email address."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rr := env.do(http.MethodPost, "/admin/login", tt.form, nil)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantText)
			assert.Zero(t, env.sessions.Len())
		})
	}
}

func TestLoginSuccessThenLogout(t *testing.T) {
	env := newTestEnv(t, nil)

	var events []auth.EventKind
	env.gate.OnChange(func(ev auth.Event) { events = append(events, ev.Kind) })

	rr := env.do(http.MethodPost, "/admin/login", url.Values{"email": {testEmail}, "password": {testPassword}}, nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/admin/blog/new", rr.Header().Get("Location"))

	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login should set the session cookie")

	rr = env.do(http.MethodGet, "/admin/blog/manage", nil, cookie)
	assert.Equal(t, http.StatusOK, rr.Code, "session should grant access")

	rr = env.do(http.MethodPost, "/admin/logout", url.Values{}, cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/blog?notice=signed-out", rr.Header().Get("Location"))

	rr = env.do(http.MethodGet, "/admin/blog/manage", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, rr.Code, "signed out session should be refused")
	assert.Equal(t, []auth.EventKind{auth.SignedIn, auth.SignedOut}, events)
}

func TestLoginWithTOTP(t *testing.T) {
	renderer, err := render.New(true, render.Site{Name: "Jane Doe", URL: testSiteURL})
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "Portfolio", AccountName: testEmail})
	require.NoError(t, err)

	gate := auth.NewGate(auth.Identity{Email: testEmail, PasswordHash: string(hash), TOTPSecret: key.Secret()}, authtest.NewSessions())
	h := NewAuth(renderer, gate)

	r := chi.NewRouter()
	r.Use(middleware.LoadUser(gate))
	r.Get("/admin/blog/new", h.LoginPage)
	r.Post("/admin/login", h.LoginSubmit)

	send := func(method string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}
		target := "/admin/login"
		if method == http.MethodGet {
			target = "/admin/blog/new"
		}
		req := httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	rr := send(http.MethodPost, url.Values{"email": {testEmail}, "password": {testPassword}}, nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]

	rr = send(http.MethodGet, nil, cookie)
	assert.Contains(t, rr.Body.String(), `name="code"`, "pending session sees the code form")

	rr = send(http.MethodPost, url.Values{"code": {"12345x"}}, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	stale, err := totp.GenerateCode(key.Secret(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	rr = send(http.MethodPost, url.Values{"code": {stale}}, cookie)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid authentication code.")
	assert.Contains(t, rr.Body.String(), `name="code"`, "a wrong code keeps the code form")

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)
	rr = send(http.MethodPost, url.Values{"code": {code}}, cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	user, err := gate.CurrentUser(req.Context(), req)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, testEmail, user.Email)
}

func TestRequireAuthOnAdminRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	routes := []struct{ method, target string }{
		{http.MethodGet, "/admin/blog/manage"},
		{http.MethodGet, "/admin/blog/edit/anything"},
		{http.MethodPost, "/admin/blog"},
		{http.MethodPost, "/admin/blog/p1/delete"},
		{http.MethodPost, "/admin/categories"},
		{http.MethodPost, "/admin/categories/c1/delete"},
		{http.MethodPost, "/admin/images"},
	}
	for _, rt := range routes {
		rr := env.do(rt.method, rt.target, url.Values{}, nil)
		assert.Equal(t, http.StatusSeeOther, rr.Code, rt.target)
		assert.Equal(t, "/admin/blog/new", rr.Header().Get("Location"), rt.target)
	}
}
