package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rithish08/fyke-connect-india-sub001/internal/adapters/memory"
	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	mocksauth "github.com/rithish08/fyke-connect-india-sub001/internal/mocks/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/observability/statsd"
	"github.com/rithish08/fyke-connect-india-sub001/internal/service"
)

// testApp wires the real services over in-memory stores.
type testApp struct {
	handler  http.Handler
	provider *mocksauth.MockAuthProvider
	sessions *mocksauth.MemorySessionStore
	profiles *memory.ProfileStore
	drafts   *memory.DraftStore
	metrics  *statsd.Recorder
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := &testApp{
		provider: mocksauth.NewMockAuthProvider(),
		sessions: mocksauth.NewMemorySessionStore(),
		profiles: memory.NewProfileStore(),
		drafts:   memory.NewDraftStore(),
		metrics:  &statsd.Recorder{},
	}
	authSvc := service.NewAuthService(service.AuthServiceOptions{
		Provider: a.provider,
		Sessions: a.sessions,
		Profiles: a.profiles,
		Drafts:   a.drafts,
	})
	onboardingSvc := service.NewOnboardingService(service.OnboardingServiceOptions{
		Profiles: a.profiles,
		Drafts:   a.drafts,
		Metrics:  a.metrics,
		Logger:   logger,
	})
	accessSvc := service.NewAccessService(service.AccessServiceOptions{
		Profiles: a.profiles,
		Metrics:  a.metrics,
		Logger:   logger,
	})
	a.handler = NewRouter(RouterServices{
		Auth:       authSvc,
		Onboarding: onboardingSvc,
		Access:     accessSvc,
		Logger:     logger,
	})
	return a
}

// signIn stores a live session and returns its cookie.
func (a *testApp) signIn(t *testing.T, userID string, role domainauth.Role) *http.Cookie {
	t.Helper()
	sess := domainauth.Session{
		ID:        "sess-" + userID,
		UserID:    userID,
		Role:      role,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, a.sessions.Save(context.Background(), sess))
	if role.Valid() {
		_, err := a.profiles.SetRole(context.Background(), userID, role)
		require.NoError(t, err)
	}
	return &http.Cookie{Name: SessionCookieName, Value: sess.ID}
}

type request struct {
	method string
	path   string
	body   any
	cookie *http.Cookie
	accept string
}

func (a *testApp) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	r := httptest.NewRequest(req.method, req.path, body)
	if req.body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.accept != "" {
		r.Header.Set("Accept", req.accept)
	}
	if req.cookie != nil {
		r.AddCookie(req.cookie)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}
