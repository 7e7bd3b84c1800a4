package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/guard"
	"github.com/rithish08/fyke-connect-india-sub001/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	SessionLoader
	BeginLogin(ctx context.Context, in service.BeginLoginInput) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	ChooseRole(ctx context.Context, sess domainauth.Session, role domainauth.Role) (domainauth.Session, error)
	SetLanguage(ctx context.Context, sess domainauth.Session, lang string) (domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login starts the phone/OTP flow at the identity provider.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))
	lang := ResolveLanguage(r, "")

	result, err := h.Svc.BeginLogin(r.Context(), service.BeginLoginInput{
		RedirectURL: redirectURI,
		Language:    lang.String(),
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("could not start login"),
		})
		return
	}

	h.setOAuthCookies(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the login flow.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie("oauth_nonce")
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:     code,
		State:    state,
		Nonce:    nonceCookie.Value,
		Language: ResolveLanguage(r, "").String(),
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "complete login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     errors.New("could not complete login"),
		})
		return
	}

	h.setSessionCookie(w, r, result.Session)
	h.clearCookie(w, r, "oauth_state")
	h.clearCookie(w, r, "oauth_nonce")

	// The guard on the destination sends first-time users on to role selection.
	http.Redirect(w, r, h.getPostLoginRedirect(w, r), http.StatusFound)
}

// Logout deletes the session and its onboarding draft.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), c.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}
	h.clearCookie(w, r, SessionCookieName)

	if !IsBrowserRequest(r) || strings.Contains(r.Header.Get("Accept"), "application/json") {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": guard.PathLanguage})
		return
	}
	http.Redirect(w, r, guard.PathLanguage, http.StatusSeeOther)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	session, err := h.Svc.GetSession(r.Context(), c.Value)
	if err != nil {
		h.clearCookie(w, r, SessionCookieName)
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":           session.UserID,
			"phone":        session.Phone,
			"display_name": session.DisplayName,
			"role":         session.Role,
			"language":     session.Language,
		},
		"expires_at": session.ExpiresAt,
	})
}

type roleRequest struct {
	Role string `json:"role"`
}

// ChooseRole records the caller's marketplace role once.
// POST /api/role {"role": "jobseeker"|"employer"}.
func (h *AuthHandlers) ChooseRole(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	var req roleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	role, ok := domainauth.ParseRole(req.Role)
	if !ok {
		WriteServiceError(w, service.ErrInvalidRole)
		return
	}

	updated, err := h.Svc.ChooseRole(r.Context(), *sess, role)
	if err != nil {
		h.logServiceError(r, "choose role", err)
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"role": updated.Role, "redirect_to": guard.PathProfileSetup})
}

type languageRequest struct {
	Language string `json:"language"`
}

// Languages lists the supported UI languages.
// GET /api/language.
func (h *AuthHandlers) Languages(w http.ResponseWriter, r *http.Request) {
	lang := ""
	if sess := GetSessionFromContext(r.Context()); sess != nil {
		lang = sess.Language
	}
	active := ResolveLanguage(r, lang)
	WriteJSON(w, http.StatusOK, map[string]any{"active": active.String(), "languages": LanguageOptions(active)})
}

// SelectLanguage stores the chosen language in a cookie and, when signed in,
// on the session. It is the first step for new visitors.
// POST /api/language {"language": "hi"}.
func (h *AuthHandlers) SelectLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	tag, ok := MatchLanguage(req.Language)
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "unsupported_language",
			Err:     errors.New("language is not supported"),
			Field:   "language",
		})
		return
	}

	SetLanguageCookie(w, r, h.CookieDomain, tag)
	if sess := GetSessionFromContext(r.Context()); sess != nil {
		if _, err := h.Svc.SetLanguage(r.Context(), *sess, tag.String()); err != nil {
			h.logServiceError(r, "set language", err)
			WriteServiceError(w, err)
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"language": tag.String(), "redirect_to": guard.PathLogin})
}

func (h *AuthHandlers) logServiceError(r *http.Request, op string, err error) {
	h.logger().WarnContext(r.Context(), op+" failed", "path", r.URL.Path, "error", err)
}

// clearCookie expires a cookie, mirroring the attributes used to set it.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// oauthCookieParams groups values needed to set OAuth cookies.
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// oauthCookieMaxAge bounds how long the user has to finish the OTP flow.
const oauthCookieMaxAge = 600

// setOAuthCookies stores OAuth state, nonce and the post-login redirect.
func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	for name, value := range map[string]string{
		"oauth_state":         p.State,
		"oauth_nonce":         p.Nonce,
		"post_login_redirect": p.RedirectURI,
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Domain:   h.CookieDomain,
			HttpOnly: true,
			Secure:   isSecureRequest(r),
			SameSite: http.SameSiteLaxMode,
			MaxAge:   oauthCookieMaxAge,
		})
	}
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

// getPostLoginRedirect returns the post-login redirect and clears its cookie.
func (h *AuthHandlers) getPostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	redirectURI := guard.PathHome
	if c, err := r.Cookie("post_login_redirect"); err == nil {
		if safe := safeRedirectPath(c.Value); safe != "/" {
			redirectURI = safe
		}
		h.clearCookie(w, r, "post_login_redirect")
	}
	return redirectURI
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(candidate, "//") {
		return "/"
	}
	return candidate
}
