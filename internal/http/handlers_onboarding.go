package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/guard"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/onboarding"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/profile"
	"github.com/rithish08/fyke-connect-india-sub001/internal/service"
)

// OnboardingServiceInterface is the slice of service.OnboardingService the handlers use.
type OnboardingServiceInterface interface {
	Catalog() *onboarding.Catalog
	State(ctx context.Context, sess domainauth.Session) (service.WizardState, error)
	Edit(ctx context.Context, sess domainauth.Session, e onboarding.Edit) (service.WizardState, error)
	Next(ctx context.Context, sess domainauth.Session) (service.WizardState, error)
	Back(ctx context.Context, sess domainauth.Session) (service.WizardState, error)
	Commit(ctx context.Context, sess domainauth.Session) (profile.Profile, error)
	SetupEmployer(ctx context.Context, sess domainauth.Session, in service.EmployerInput) (profile.Profile, error)
	Profile(ctx context.Context, sess domainauth.Session) (profile.Profile, error)
}

// OnboardingHandlers serves the wizard, employer setup and guard APIs.
type OnboardingHandlers struct {
	Svc    OnboardingServiceInterface
	Access AccessEvaluator
	Logger *slog.Logger
}

func (h *OnboardingHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type wizardResponse struct {
	service.WizardState
	Catalog *onboarding.Catalog `json:"catalog,omitempty"`
}

// State returns the wizard with the catalog so the client can render choices.
// GET /api/onboarding.
func (h *OnboardingHandlers) State(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	state, err := h.Svc.State(r.Context(), *sess)
	if err != nil {
		h.fail(w, r, "load wizard", err)
		return
	}
	WriteJSON(w, http.StatusOK, wizardResponse{WizardState: state, Catalog: h.Svc.Catalog()})
}

// Edit applies a partial form update.
// PUT /api/onboarding.
func (h *OnboardingHandlers) Edit(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	var edit onboarding.Edit
	if !DecodeJSON(w, r, &edit) {
		return
	}
	state, err := h.Svc.Edit(r.Context(), *sess, edit)
	if err != nil {
		h.fail(w, r, "edit wizard", err)
		return
	}
	WriteJSON(w, http.StatusOK, wizardResponse{WizardState: state})
}

// Next validates the current step and advances.
// POST /api/onboarding/next.
func (h *OnboardingHandlers) Next(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "next", h.Svc.Next)
}

// Back returns to the previous step.
// POST /api/onboarding/back.
func (h *OnboardingHandlers) Back(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "back", h.Svc.Back)
}

func (h *OnboardingHandlers) step(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	fn func(context.Context, domainauth.Session) (service.WizardState, error),
) {
	sess := GetSessionFromContext(r.Context())
	state, err := fn(r.Context(), *sess)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	WriteJSON(w, http.StatusOK, wizardResponse{WizardState: state})
}

// Commit finishes onboarding and points the client at home.
// POST /api/onboarding/commit.
func (h *OnboardingHandlers) Commit(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	p, err := h.Svc.Commit(r.Context(), *sess)
	if err != nil {
		h.fail(w, r, "commit", err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"profile": p, "redirect_to": guard.PathHome})
}

// SetupEmployer writes the employer profile.
// POST /api/profile/employer.
func (h *OnboardingHandlers) SetupEmployer(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	var in service.EmployerInput
	if !DecodeJSON(w, r, &in) {
		return
	}
	p, err := h.Svc.SetupEmployer(r.Context(), *sess, in)
	if err != nil {
		h.fail(w, r, "employer setup", err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"profile": p, "redirect_to": guard.PathHome})
}

// Profile returns the caller's profile.
// GET /api/profile.
func (h *OnboardingHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	p, err := h.Svc.Profile(r.Context(), *sess)
	if err != nil {
		h.fail(w, r, "load profile", err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// Guard evaluates the navigation guard for a path without navigating.
// GET /api/guard?path=/home. Works with or without a session.
func (h *OnboardingHandlers) Guard(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_path",
			Err:     errors.New("path query parameter is required"),
			Field:   "path",
		})
		return
	}
	decision, snap := h.Access.Preview(r.Context(), GetSessionFromContext(r.Context()), path)
	WriteJSON(w, http.StatusOK, map[string]any{
		"decision": decision,
		"loading":  snap.Loading,
		"path":     guard.NormalizePath(path),
	})
}

func (h *OnboardingHandlers) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var stepErr *onboarding.StepError
	if !errors.As(err, &stepErr) {
		h.logger().WarnContext(r.Context(), op+" failed", "path", r.URL.Path, "error", err)
	}
	WriteServiceError(w, err)
}
