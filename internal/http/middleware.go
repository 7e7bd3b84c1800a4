package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/guard"
)

// SessionCookieName carries the opaque session ID.
const SessionCookieName = "session_id"

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionLoader resolves a session ID to a live session.
type SessionLoader interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

// OptionalAuth adds the session to the request context when the cookie
// resolves to a live session. Requests continue either way.
func OptionalAuth(sessions SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session := getSessionFromRequest(r, sessions); session != nil {
				r = r.WithContext(SetSessionInContext(r.Context(), session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects API requests without a live session with 401.
func RequireAuth(sessions SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetUserSessionFromContext(r.Context())
			if !ok {
				session = getSessionFromRequest(r, sessions)
			}
			if session == nil {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), session)))
		})
	}
}

// getSessionFromRequest retrieves and validates a session from the request.
func getSessionFromRequest(r *http.Request, sessions SessionLoader) *domainauth.Session {
	if sessions == nil {
		return nil
	}
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	session, err := sessions.GetSession(r.Context(), c.Value)
	if err != nil {
		return nil
	}
	return session
}

// AccessEvaluator runs the navigation guard for a request. Evaluate reports
// redirects; Preview does not.
type AccessEvaluator interface {
	Evaluate(ctx context.Context, sess *domainauth.Session, path string) (guard.Decision, guard.Snapshot)
	Preview(ctx context.Context, sess *domainauth.Session, path string) (guard.Decision, guard.Snapshot)
}

// AccessGuard evaluates the navigation guard for page routes. Browsers get a
// 303 to the target, API-style clients a 409 with redirect_to. While the
// snapshot is loading the response is a 202 placeholder asking the client to
// retry; the page handler is not run.
//
// It must run after OptionalAuth.
func AccessGuard(access AccessEvaluator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isPageRequest(r) {
				next.ServeHTTP(w, r)
				return
			}

			decision, snap := access.Evaluate(r.Context(), GetSessionFromContext(r.Context()), r.URL.Path)
			switch {
			case decision.IsRedirect():
				writeRedirect(w, r, decision)
			case snap.Loading:
				w.Header().Set("Retry-After", "1")
				WriteJSON(w, http.StatusAccepted, map[string]any{"loading": true, "path": guard.NormalizePath(r.URL.Path)})
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func writeRedirect(w http.ResponseWriter, r *http.Request, d guard.Decision) {
	if IsBrowserRequest(r) {
		http.Redirect(w, r, d.Target, http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusConflict, map[string]string{
		"error":       "navigation_redirect",
		"redirect_to": d.Target,
		"reason":      string(d.Reason),
	})
}

//nolint:gochecknoglobals // fixed prefix table
var unguardedPrefixes = []string{"/api/", "/auth/", "/static/"}

// isPageRequest reports whether the guard applies to r.
func isPageRequest(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	p := r.URL.Path
	if p == "/healthz" || p == "/readyz" {
		return false
	}
	for _, prefix := range unguardedPrefixes {
		if strings.HasPrefix(p, prefix) {
			return false
		}
	}
	return true
}

// IsBrowserRequest reports whether r expects HTML navigation rather than JSON.
func IsBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html")
}
