package httpx

import (
	"log/slog"
	"net/http"

	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/guard"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth       AuthServiceInterface
	Onboarding OnboardingServiceInterface
	Access     AccessEvaluator
	// Readiness checks exposed on /readyz, keyed by dependency name.
	Readiness    map[string]ReadinessCheck
	CookieDomain string
	Logger       *slog.Logger
}

// NewRouter builds the mux and wraps it with the standard middleware chain:
// recover, logging, session lookup, then the navigation guard.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{Svc: services.Auth, CookieDomain: services.CookieDomain, Logger: logger}
	onboardingHandlers := &OnboardingHandlers{Svc: services.Onboarding, Access: services.Access, Logger: logger}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.Readiness))

	registerAuthRoutes(mux, authHandlers)
	registerOnboardingRoutes(mux, onboardingHandlers, RequireAuth(services.Auth))
	registerPageRoutes(mux)

	var handler http.Handler = mux
	handler = AccessGuard(services.Access)(handler)
	handler = OptionalAuth(services.Auth)(handler)
	handler = Logging(logger)(handler)
	return Recover(logger)(handler)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.Handle("GET /auth/login", http.HandlerFunc(h.Login))
	mux.Handle("GET /auth/callback", http.HandlerFunc(h.Callback))
	mux.Handle("POST /auth/logout", http.HandlerFunc(h.Logout))
	mux.Handle("GET /auth/status", http.HandlerFunc(h.Status))

	mux.Handle("GET /api/language", http.HandlerFunc(h.Languages))
	mux.Handle("POST /api/language", http.HandlerFunc(h.SelectLanguage))
	mux.Handle("POST /api/role", RequireAuth(h.Svc)(http.HandlerFunc(h.ChooseRole)))
}

func registerOnboardingRoutes(mux *http.ServeMux, h *OnboardingHandlers, authed func(http.Handler) http.Handler) {
	mux.Handle("GET /api/guard", http.HandlerFunc(h.Guard))

	mux.Handle("GET /api/onboarding", authed(http.HandlerFunc(h.State)))
	mux.Handle("PUT /api/onboarding", authed(http.HandlerFunc(h.Edit)))
	mux.Handle("POST /api/onboarding/next", authed(http.HandlerFunc(h.Next)))
	mux.Handle("POST /api/onboarding/back", authed(http.HandlerFunc(h.Back)))
	mux.Handle("POST /api/onboarding/commit", authed(http.HandlerFunc(h.Commit)))

	mux.Handle("GET /api/profile", authed(http.HandlerFunc(h.Profile)))
	mux.Handle("POST /api/profile/employer", authed(http.HandlerFunc(h.SetupEmployer)))
}

func registerPageRoutes(mux *http.ServeMux) {
	page := http.HandlerFunc(pageHandler)
	for _, p := range append([]string{
		guard.PathLanguage,
		guard.PathLogin,
		guard.PathOTPVerify,
		guard.PathRoleSelection,
		guard.PathProfileSetup,
	}, appPages...) {
		mux.Handle("GET "+p, page)
	}
	mux.Handle("GET "+guard.PathProfileSetup+"/{step...}", page)
	mux.Handle("GET /{$}", http.HandlerFunc(rootHandler))
	mux.Handle("GET /", http.HandlerFunc(rootHandler))
}
