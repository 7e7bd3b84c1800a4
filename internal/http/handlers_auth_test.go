package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
)

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandlers_LoginSetsOAuthCookies(t *testing.T) {
	app := newTestApp(t)

	r := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=/profile-setup", nil)
	r.AddCookie(&http.Cookie{Name: LangCookieName, Value: "hi"})
	w := httptest.NewRecorder()
	app.handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://mock-idp/auth", w.Header().Get("Location"))
	assert.Equal(t, "hi", app.provider.LastBegin.Language)

	resp := w.Result()
	defer resp.Body.Close()
	require.NotNil(t, cookieNamed(resp, "oauth_state"))
	require.NotNil(t, cookieNamed(resp, "oauth_nonce"))
	redirect := cookieNamed(resp, "post_login_redirect")
	require.NotNil(t, redirect)
	assert.Equal(t, "/profile-setup", redirect.Value)
}

func TestAuthHandlers_LoginRejectsOpenRedirect(t *testing.T) {
	app := newTestApp(t)

	for _, target := range []string{"https://evil.example/x", "//evil.example", "relative"} {
		w := app.do(t, request{method: http.MethodGet, path: "/auth/login?redirect_uri=" + url.QueryEscape(target)})
		resp := w.Result()
		c := cookieNamed(resp, "post_login_redirect")
		_ = resp.Body.Close()
		require.NotNil(t, c)
		assert.Equal(t, "/", c.Value, target)
	}
}

func TestAuthHandlers_CallbackCreatesSession(t *testing.T) {
	app := newTestApp(t)

	r := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=state-1", nil)
	r.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-1"})
	r.AddCookie(&http.Cookie{Name: "oauth_nonce", Value: "nonce-1"})
	w := httptest.NewRecorder()
	app.handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))

	resp := w.Result()
	defer resp.Body.Close()
	sc := cookieNamed(resp, SessionCookieName)
	require.NotNil(t, sc)
	sess, err := app.sessions.Get(context.Background(), sc.Value)
	require.NoError(t, err)
	assert.Equal(t, "mock-user-1", sess.UserID)
	assert.Equal(t, domainauth.RoleNone, sess.Role)
}

func TestAuthHandlers_CallbackValidation(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name    string
		path    string
		cookies []*http.Cookie
		errCode string
	}{
		{name: "missing code", path: "/auth/callback?state=s", errCode: "missing_code"},
		{name: "missing state", path: "/auth/callback?code=c", errCode: "missing_state"},
		{
			name:    "state mismatch",
			path:    "/auth/callback?code=c&state=s",
			cookies: []*http.Cookie{{Name: "oauth_state", Value: "other"}},
			errCode: "invalid_state",
		},
		{
			name:    "missing nonce",
			path:    "/auth/callback?code=c&state=s",
			cookies: []*http.Cookie{{Name: "oauth_state", Value: "s"}},
			errCode: "missing_nonce",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			for _, c := range tt.cookies {
				r.AddCookie(c)
			}
			w := httptest.NewRecorder()
			app.handler.ServeHTTP(w, r)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.errCode, decodeBody(t, w)["error"])
		})
	}
}

func TestAuthHandlers_LogoutClearsSessionAndDraft(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signIn(t, "u-1", domainauth.RoleJobseeker)
	w := app.do(t, request{method: http.MethodPut, path: "/api/onboarding", cookie: cookie, body: map[string]any{"name": "Ravi"}})
	require.Equal(t, http.StatusOK, w.Code)
	_, found, _ := app.drafts.Load(context.Background(), cookie.Value)
	require.True(t, found)

	w = app.do(t, request{method: http.MethodPost, path: "/auth/logout", cookie: cookie, accept: "application/json"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/language", decodeBody(t, w)["redirect_to"])
	_, err := app.sessions.Get(context.Background(), cookie.Value)
	require.ErrorIs(t, err, ports.ErrSessionNotFound)
	_, found, _ = app.drafts.Load(context.Background(), cookie.Value)
	assert.False(t, found)
}

func TestAuthHandlers_Status(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, request{method: http.MethodGet, path: "/auth/status"})
	assert.Equal(t, false, decodeBody(t, w)["authenticated"])

	w = app.do(t, request{method: http.MethodGet, path: "/auth/status", cookie: &http.Cookie{Name: SessionCookieName, Value: "gone"}})
	assert.Equal(t, false, decodeBody(t, w)["authenticated"])

	cookie := app.signIn(t, "u-1", domainauth.RoleEmployer)
	w = app.do(t, request{method: http.MethodGet, path: "/auth/status", cookie: cookie})
	body := decodeBody(t, w)
	assert.Equal(t, true, body["authenticated"])
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "employer", user["role"])
}

func TestAuthHandlers_ChooseRole(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signIn(t, "u-1", domainauth.RoleNone)

	w := app.do(t, request{method: http.MethodPost, path: "/api/role", cookie: cookie, body: map[string]string{"role": "admin"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, request{method: http.MethodPost, path: "/api/role", cookie: cookie, body: map[string]string{"role": "Jobseeker"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/profile-setup", decodeBody(t, w)["redirect_to"])

	w = app.do(t, request{method: http.MethodPost, path: "/api/role", cookie: cookie, body: map[string]string{"role": "employer"}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "role_already_set", decodeBody(t, w)["error"])

	w = app.do(t, request{method: http.MethodPost, path: "/api/role", body: map[string]string{"role": "employer"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlers_SelectLanguage(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, request{method: http.MethodPost, path: "/api/language", body: map[string]string{"language": "xx-invalid-!"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, request{method: http.MethodPost, path: "/api/language", body: map[string]string{"language": "ta-IN"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ta", decodeBody(t, w)["language"])
	resp := w.Result()
	defer resp.Body.Close()
	c := cookieNamed(resp, LangCookieName)
	require.NotNil(t, c)
	assert.Equal(t, "ta", c.Value)

	cookie := app.signIn(t, "u-1", domainauth.RoleNone)
	w = app.do(t, request{method: http.MethodPost, path: "/api/language", cookie: cookie, body: map[string]string{"language": "bn"}})
	require.Equal(t, http.StatusOK, w.Code)
	sess, err := app.sessions.Get(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "bn", sess.Language)

	w = app.do(t, request{method: http.MethodGet, path: "/api/language", cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bn", decodeBody(t, w)["active"])
}
