// Package memory provides process-local ProfileStore and DraftStore
// implementations for local development and handler tests. State is lost on
// restart and is not shared between replicas.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/onboarding"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/profile"
	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
)

var (
	_ ports.ProfileStore = (*ProfileStore)(nil)
	_ ports.DraftStore   = (*DraftStore)(nil)
)

// ProfileStore keeps profiles in a map with the same role rules as the
// Postgres repository.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]profile.Profile
	now      func() time.Time
}

// NewProfileStore returns an empty store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[string]profile.Profile), now: time.Now}
}

func (s *ProfileStore) Get(_ context.Context, userID string) (profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return profile.Profile{}, ports.ErrProfileNotFound
	}
	// Re-applying its own fields deep-copies Details so callers cannot alias the store.
	return p.Apply(profile.Patch{Name: p.Name, Details: p.Details, ProfileComplete: p.ProfileComplete}), nil
}

func (s *ProfileStore) SetRole(_ context.Context, userID string, role domainauth.Role) (profile.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return profile.Profile{}, errors.New("user ID is required")
	}
	if !role.Valid() {
		return profile.Profile{}, errors.New("invalid role")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	switch {
	case !ok:
		p = profile.Profile{UserID: userID, Availability: profile.DefaultAvailability}
	case p.Role.Valid() && p.Role != role:
		return profile.Profile{}, ports.ErrRoleAlreadySet
	}
	p.Role = role
	p.UpdatedAt = s.now().UTC()
	s.profiles[userID] = p
	return p, nil
}

func (s *ProfileStore) Update(_ context.Context, userID string, patch profile.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return ports.ErrProfileNotFound
	}
	if !p.Role.Valid() || (patch.Details != nil && patch.Details.Role() != p.Role) {
		return ports.ErrRoleMismatch
	}
	patch.Name = strings.TrimSpace(patch.Name)
	p = p.Apply(patch)
	p.UpdatedAt = s.now().UTC()
	s.profiles[userID] = p
	return nil
}

// DraftStore keeps one draft per session.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[string]onboarding.Draft
}

// NewDraftStore returns an empty store.
func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[string]onboarding.Draft)}
}

func (s *DraftStore) Save(_ context.Context, sessionID string, d onboarding.Draft) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[sessionID] = d.Clone()
	return nil
}

func (s *DraftStore) Load(_ context.Context, sessionID string) (onboarding.Draft, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[sessionID]
	if !ok {
		return onboarding.Draft{}, false, nil
	}
	return d.Clone(), true, nil
}

func (s *DraftStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, sessionID)
	return nil
}
