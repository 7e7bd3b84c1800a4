package ports

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/onboarding"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/profile"
)

var (
	// ErrProfileNotFound is returned by ProfileStore.Get when the user has no profile row.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrRoleAlreadySet is returned by ProfileStore.SetRole when a different role is recorded.
	ErrRoleAlreadySet = errors.New("role already set")
	// ErrRoleMismatch is returned by ProfileStore.Update when the patch details do not match the profile's role.
	ErrRoleMismatch = errors.New("profile details do not match role")
	// ErrLockHeld is returned by CommitLock.Acquire when another holder owns the lock.
	ErrLockHeld = errors.New("lock already held")
)

// ProfileStore is the durable, backend-owned profile record.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (profile.Profile, error)
	// SetRole creates the profile if needed and records the role. It is idempotent
	// for the same role and rejects a change to a different one.
	SetRole(ctx context.Context, userID string, role domainauth.Role) (profile.Profile, error)
	// Update writes a full onboarding patch. The role column is never touched.
	Update(ctx context.Context, userID string, patch profile.Patch) error
}

// DraftStore holds one in-progress onboarding form per session.
type DraftStore interface {
	Save(ctx context.Context, sessionID string, d onboarding.Draft) error
	// Load reports found=false when the slot is empty or expired.
	Load(ctx context.Context, sessionID string) (d onboarding.Draft, found bool, err error)
	Clear(ctx context.Context, sessionID string) error
}

// CommitLock serializes onboarding commits for one user across requests.
type CommitLock interface {
	// Acquire returns a release func, or ErrLockHeld if the key is taken.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// ActionLogger records user-visible navigation and onboarding events.
type ActionLogger interface {
	Action(ctx context.Context, event string, fields map[string]any)
}
