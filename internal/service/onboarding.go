package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/onboarding"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/profile"
	apperrors "github.com/rithish08/fyke-connect-india-sub001/internal/errors"
	"github.com/rithish08/fyke-connect-india-sub001/internal/observability/metrics"
	"github.com/rithish08/fyke-connect-india-sub001/internal/observability/statsd"
	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
)

// DefaultCommitLockTTL bounds how long a crashed commit can block a retry.
const DefaultCommitLockTTL = 30 * time.Second

var (
	// ErrRoleRequired is returned when the session has not chosen a role yet.
	ErrRoleRequired = errors.New("choose a role before onboarding")
	// ErrWrongRole is returned when the operation belongs to the other role.
	ErrWrongRole = errors.New("operation not available for this role")
)

// OnboardingServiceOptions groups dependencies for OnboardingService.
type OnboardingServiceOptions struct {
	Profiles ports.ProfileStore
	Drafts   ports.DraftStore
	// Lock is optional; without it commits are only guarded per request.
	Lock    ports.CommitLock
	LockTTL time.Duration
	Catalog *onboarding.Catalog
	Actions ports.ActionLogger
	Metrics statsd.Sink
	Logger  *slog.Logger
	Now     func() time.Time
}

// OnboardingService rebuilds the wizard from the session's draft on every
// call, applies one operation, and persists the result.
type OnboardingService struct {
	profiles ports.ProfileStore
	drafts   ports.DraftStore
	lock     ports.CommitLock
	lockTTL  time.Duration
	catalog  *onboarding.Catalog
	actions  ports.ActionLogger
	metrics  statsd.Sink
	logger   *slog.Logger
	now      func() time.Time
}

// NewOnboardingService constructs an OnboardingService.
func NewOnboardingService(opts OnboardingServiceOptions) *OnboardingService {
	s := &OnboardingService{
		profiles: opts.Profiles,
		drafts:   opts.Drafts,
		lock:     opts.Lock,
		lockTTL:  opts.LockTTL,
		catalog:  opts.Catalog,
		actions:  opts.Actions,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if s.lockTTL <= 0 {
		s.lockTTL = DefaultCommitLockTTL
	}
	if s.catalog == nil {
		s.catalog = onboarding.DefaultCatalog()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.logger = s.logger.With("component", "onboarding")
	return s
}

// Catalog returns the category catalog the wizard validates against.
func (s *OnboardingService) Catalog() *onboarding.Catalog { return s.catalog }

// WizardState is the client-facing view of a wizard.
type WizardState struct {
	Step            onboarding.Step   `json:"step"`
	StepIndex       int               `json:"step_index"`
	Steps           []onboarding.Step `json:"steps"`
	Values          onboarding.Draft  `json:"values"`
	IsFinal         bool              `json:"is_final"`
	RequiresVehicle bool              `json:"requires_vehicle"`
}

func stateOf(w *onboarding.Wizard) WizardState {
	return WizardState{
		Step:            w.Step(),
		StepIndex:       w.StepIndex(),
		Steps:           onboarding.Steps(),
		Values:          w.Values(),
		IsFinal:         w.IsFinal(),
		RequiresVehicle: w.RequiresVehicle(),
	}
}

// Load rebuilds the session's wizard. Without a stored draft it is seeded
// from the existing profile, if any.
func (s *OnboardingService) Load(ctx context.Context, sess domainauth.Session) (*onboarding.Wizard, error) {
	if err := requireRole(sess, domainauth.RoleJobseeker); err != nil {
		return nil, err
	}

	d, found, err := s.drafts.Load(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if !found {
		p, getErr := s.profiles.Get(ctx, sess.UserID)
		switch {
		case errors.Is(getErr, ports.ErrProfileNotFound):
			d = onboarding.NewDraft()
		case getErr != nil:
			return nil, fmt.Errorf("load profile: %w", getErr)
		default:
			d = onboarding.SeedFromProfile(p)
		}
	}

	return onboarding.New(onboarding.Deps{
		Drafts:   s.drafts,
		Profiles: s.profiles,
		Catalog:  s.catalog,
	}, onboarding.Owner{SessionID: sess.ID, UserID: sess.UserID}, d), nil
}

// State returns the current wizard view without changing anything.
func (s *OnboardingService) State(ctx context.Context, sess domainauth.Session) (WizardState, error) {
	w, err := s.Load(ctx, sess)
	if err != nil {
		return WizardState{}, err
	}
	return stateOf(w), nil
}

// Edit applies a partial form update and saves the draft at the current step.
func (s *OnboardingService) Edit(ctx context.Context, sess domainauth.Session, e onboarding.Edit) (WizardState, error) {
	return s.transition(ctx, sess, "save", func(w *onboarding.Wizard) error {
		if err := w.Apply(e); err != nil {
			return err
		}
		return w.Save(ctx)
	})
}

// Next validates the current step and advances.
func (s *OnboardingService) Next(ctx context.Context, sess domainauth.Session) (WizardState, error) {
	return s.transition(ctx, sess, "next", func(w *onboarding.Wizard) error { return w.Next(ctx) })
}

// Back returns to the previous step.
func (s *OnboardingService) Back(ctx context.Context, sess domainauth.Session) (WizardState, error) {
	return s.transition(ctx, sess, "back", func(w *onboarding.Wizard) error { return w.Back(ctx) })
}

func (s *OnboardingService) transition(
	ctx context.Context,
	sess domainauth.Session,
	kind string,
	apply func(*onboarding.Wizard) error,
) (WizardState, error) {
	w, err := s.Load(ctx, sess)
	if err != nil {
		return WizardState{}, err
	}
	from := w.Step()

	err = apply(w)
	metrics.EmitTransition(s.metrics, metrics.Transition{
		Kind:   kind,
		Step:   string(from),
		Result: resultOf(err),
		Err:    err,
	})
	if err != nil {
		return stateOf(w), err
	}

	if from != w.Step() {
		s.action(ctx, "onboarding.transition", map[string]any{
			"user_id": sess.UserID,
			"step":    string(w.Step()),
			"from":    string(from),
			"result":  kind,
		})
	}
	return stateOf(w), nil
}

// Commit writes the jobseeker profile from the final step and clears the draft.
// Concurrent commits for the same user get onboarding.ErrCommitInProgress.
func (s *OnboardingService) Commit(ctx context.Context, sess domainauth.Session) (profile.Profile, error) {
	start := s.now()
	if err := requireRole(sess, domainauth.RoleJobseeker); err != nil {
		return profile.Profile{}, err
	}

	// The draft is read under the lock so a concurrent commit cannot clear it
	// between our load and our write.
	release, err := s.acquire(ctx, sess.UserID)
	if err != nil {
		metrics.EmitCommit(s.metrics, metrics.Commit{Result: resultOf(err), Err: err})
		return profile.Profile{}, err
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			s.logger.WarnContext(ctx, "commit lock release failed", "user_id", sess.UserID, "error", relErr)
		}
	}()

	w, err := s.Load(ctx, sess)
	if err != nil {
		return profile.Profile{}, err
	}

	patch, err := w.Commit(ctx)
	if err != nil && !errors.Is(err, onboarding.ErrDraftNotCleared) {
		metrics.EmitCommit(s.metrics, metrics.Commit{Result: resultOf(err), Duration: s.now().Sub(start), Err: err})
		s.action(ctx, "onboarding.commit", map[string]any{"user_id": sess.UserID, "result": resultOf(err)})
		return profile.Profile{}, err
	}
	if err != nil {
		s.logger.WarnContext(ctx, "onboarding draft not cleared after commit", "session_id", sess.ID, "error", err)
	}

	mixed := false
	if js, ok := patch.Details.(profile.JobseekerDetails); ok {
		if summary, aggErr := profile.Aggregate(js.Wages); aggErr == nil {
			mixed = summary.Mixed
		}
	}
	metrics.EmitCommit(s.metrics, metrics.Commit{Result: metrics.ResultSuccess, Duration: s.now().Sub(start), Mixed: mixed})
	s.action(ctx, "onboarding.commit", map[string]any{
		"user_id": sess.UserID,
		"result":  metrics.ResultSuccess,
		"role":    string(sess.Role),
	})

	return profile.Profile{UserID: sess.UserID, Role: sess.Role}.Apply(patch), nil
}

func (s *OnboardingService) acquire(ctx context.Context, userID string) (func(context.Context) error, error) {
	if s.lock == nil {
		return func(context.Context) error { return nil }, nil
	}
	release, err := s.lock.Acquire(ctx, "commit:"+userID, s.lockTTL)
	if errors.Is(err, ports.ErrLockHeld) {
		return nil, onboarding.ErrCommitInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("acquire commit lock: %w", err)
	}
	return release, nil
}

// EmployerInput is the employer setup form.
type EmployerInput struct {
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
}

// SetupEmployer writes the employer profile. Completeness only needs a name.
func (s *OnboardingService) SetupEmployer(ctx context.Context, sess domainauth.Session, in EmployerInput) (profile.Profile, error) {
	if err := requireRole(sess, domainauth.RoleEmployer); err != nil {
		return profile.Profile{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return profile.Profile{}, apperrors.ValidationField("name", "name is required and cannot be empty")
	}

	p := profile.Profile{UserID: sess.UserID, Role: domainauth.RoleEmployer}.Apply(profile.Patch{
		Name:    name,
		Details: profile.EmployerDetails{CompanyName: strings.TrimSpace(in.CompanyName)},
	})
	patch := profile.Patch{
		Name:            p.Name,
		Details:         p.Details,
		ProfileComplete: profile.IsComplete(p),
	}
	if err := s.profiles.Update(ctx, sess.UserID, patch); err != nil {
		return profile.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	p.ProfileComplete = patch.ProfileComplete

	s.action(ctx, "onboarding.employer_setup", map[string]any{"user_id": sess.UserID, "role": string(domainauth.RoleEmployer)})
	return p, nil
}

// Profile returns the caller's stored profile. A user without a row gets an
// empty profile carrying the session's role.
func (s *OnboardingService) Profile(ctx context.Context, sess domainauth.Session) (profile.Profile, error) {
	p, err := s.profiles.Get(ctx, sess.UserID)
	if errors.Is(err, ports.ErrProfileNotFound) {
		return profile.Profile{UserID: sess.UserID, Role: sess.Role}, nil
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

func (s *OnboardingService) action(ctx context.Context, event string, fields map[string]any) {
	if s.actions != nil {
		s.actions.Action(ctx, event, fields)
	}
}

func requireRole(sess domainauth.Session, want domainauth.Role) error {
	switch {
	case !sess.Role.Valid():
		return ErrRoleRequired
	case sess.Role != want:
		return ErrWrongRole
	default:
		return nil
	}
}

func resultOf(err error) string {
	var stepErr *onboarding.StepError
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.As(err, &stepErr):
		return metrics.ResultInvalid
	case errors.Is(err, onboarding.ErrCommitInProgress):
		return metrics.ResultBusy
	default:
		return metrics.ResultError
	}
}
