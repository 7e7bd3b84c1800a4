package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/guard"
)

var errNotFound = errors.New("page not found")

// appPages are the guarded app-shell routes besides the onboarding ones.
//
//nolint:gochecknoglobals // fixed route table
var appPages = []string{guard.PathHome, "/jobs", "/messages", "/notifications", "/profile"}

// pageHandler is the placeholder for app-shell routes. Rendering lives in the
// client; by the time this runs the guard has admitted the request.
func pageHandler(w http.ResponseWriter, r *http.Request) {
	path := guard.NormalizePath(r.URL.Path)
	page := strings.TrimPrefix(path, "/")
	if page == "" {
		page = "home"
	}
	body := map[string]any{"page": page, "path": path}
	if sess := GetSessionFromContext(r.Context()); sess != nil {
		body["role"] = sess.Role
	}
	WriteJSON(w, http.StatusOK, body)
}

// rootHandler sends "/" to home and lets the guard take it from there.
func rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errNotFound})
		return
	}
	http.Redirect(w, r, guard.PathHome, http.StatusSeeOther)
}
