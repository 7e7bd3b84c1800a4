package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider
	Sessions ports.SessionStore
	Profiles ports.ProfileStore
	// Drafts is optional; when set, Logout clears the session's onboarding draft.
	Drafts ports.DraftStore
	// Actions is optional.
	Actions ports.ActionLogger
	// Now overrides the clock in tests.
	Now func() time.Time
}

// AuthService coordinates the identity provider, session persistence and the
// role stored on the profile.
type AuthService struct {
	provider ports.AuthProvider
	sessions ports.SessionStore
	profiles ports.ProfileStore
	drafts   ports.DraftStore
	actions  ports.ActionLogger
	now      func() time.Time
}

var (
	// ErrSessionExpired is returned by GetSession for a session past its expiry.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidRole is returned by ChooseRole for anything but jobseeker or employer.
	ErrInvalidRole = errors.New("role must be jobseeker or employer")
)

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		provider: opts.Provider,
		sessions: opts.Sessions,
		profiles: opts.Profiles,
		drafts:   opts.Drafts,
		actions:  opts.Actions,
		now:      now,
	}
}

// BeginLoginInput groups parameters for starting a login flow.
type BeginLoginInput struct {
	RedirectURL string
	Language    string
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, in BeginLoginInput) (*BeginLoginResult, error) {
	if in.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{
		RedirectURL: in.RedirectURL,
		Language:    in.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code     string
	State    string
	Nonce    string
	Language string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session domainauth.Session
}

// CompleteLogin exchanges the code for an identity, reads any role already on
// the user's profile, and persists a session.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	role, err := s.storedRole(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	session := domainauth.Session{
		ID:          generateSessionID(),
		UserID:      identity.UserID,
		Phone:       identity.Phone,
		DisplayName: identity.DisplayName,
		Role:        role,
		Language:    input.Language,
		ExpiresAt:   identity.ExpiresAt,
	}
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	s.action(ctx, "auth.login", map[string]any{"user_id": session.UserID, "role": string(role)})
	return &CompleteLoginResult{Session: session}, nil
}

func (s *AuthService) storedRole(ctx context.Context, userID string) (domainauth.Role, error) {
	if s.profiles == nil {
		return domainauth.RoleNone, nil
	}
	p, err := s.profiles.Get(ctx, userID)
	switch {
	case errors.Is(err, ports.ErrProfileNotFound):
		return domainauth.RoleNone, nil
	case err != nil:
		return domainauth.RoleNone, fmt.Errorf("load profile: %w", err)
	default:
		return p.Role, nil
	}
}

// GetSession retrieves a session by ID, deleting it if it has expired.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if s.now().After(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(ErrSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, ErrSessionExpired
	}

	if !session.Role.Valid() {
		session = s.adoptStoredRole(ctx, session)
	}
	return &session, nil
}

// adoptStoredRole copies a role chosen elsewhere (another device, another
// session) onto the session. Lookup or save failures leave the session as is.
func (s *AuthService) adoptStoredRole(ctx context.Context, session domainauth.Session) domainauth.Session {
	role, err := s.storedRole(ctx, session.UserID)
	if err != nil || !role.Valid() {
		return session
	}
	session.Role = role
	if err := s.sessions.Save(ctx, session); err != nil {
		return session
	}
	s.action(ctx, "auth.role_adopted", map[string]any{"user_id": session.UserID, "role": string(role)})
	return session
}

// ChooseRole records the role on the profile and the session. Choosing the
// same role again is a no-op; a different role yields ports.ErrRoleAlreadySet.
func (s *AuthService) ChooseRole(ctx context.Context, sess domainauth.Session, role domainauth.Role) (domainauth.Session, error) {
	if !role.Valid() {
		return sess, ErrInvalidRole
	}
	if sess.Role.Valid() && sess.Role != role {
		return sess, ports.ErrRoleAlreadySet
	}

	p, err := s.profiles.SetRole(ctx, sess.UserID, role)
	if err != nil {
		return sess, fmt.Errorf("set role: %w", err)
	}
	if sess.Role == p.Role {
		return sess, nil
	}

	sess.Role = p.Role
	if err := s.sessions.Save(ctx, sess); err != nil {
		return sess, fmt.Errorf("save session: %w", err)
	}
	s.action(ctx, "auth.role_selected", map[string]any{"user_id": sess.UserID, "role": string(role)})
	return sess, nil
}

// SetLanguage stores the chosen UI language on the session.
func (s *AuthService) SetLanguage(ctx context.Context, sess domainauth.Session, lang string) (domainauth.Session, error) {
	if sess.Language == lang {
		return sess, nil
	}
	sess.Language = lang
	if err := s.sessions.Save(ctx, sess); err != nil {
		return sess, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Logout removes a session and its onboarding draft.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	var errs []error
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		errs = append(errs, fmt.Errorf("delete session: %w", err))
	}
	if s.drafts != nil {
		if err := s.drafts.Clear(ctx, sessionID); err != nil {
			errs = append(errs, fmt.Errorf("clear draft: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *AuthService) action(ctx context.Context, event string, fields map[string]any) {
	if s.actions != nil {
		s.actions.Action(ctx, event, fields)
	}
}

// generateSessionID returns a random, URL-safe session ID.
func generateSessionID() string {
	return uuid.New().String()
}
