package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/onboarding"
	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
)

// DefaultDraftTTL bounds how long an abandoned onboarding draft survives.
const DefaultDraftTTL = 7 * 24 * time.Hour

// Key prefixes for everything this package stores.
const (
	DraftPrefix   = "fyke:draft:"
	SessionPrefix = "fyke:session:"
	LockPrefix    = "fyke:lock:"
)

// DraftStoreOptions configures a DraftStore.
type DraftStoreOptions struct {
	Prefix string
	TTL    time.Duration
}

// DraftStore keeps one onboarding draft per session under prefix+sessionID.
// Each Save overwrites the slot and refreshes its TTL.
type DraftStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ ports.DraftStore = (*DraftStore)(nil)

// NewDraftStore creates a Redis-backed draft store.
func NewDraftStore(client redis.UniversalClient, opts DraftStoreOptions) *DraftStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DraftPrefix
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &DraftStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *DraftStore) key(sessionID string) string { return s.prefix + sessionID }

// Save overwrites the session's draft slot.
func (s *DraftStore) Save(ctx context.Context, sessionID string, d onboarding.Draft) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft: %w", err)
	}
	return nil
}

// Load returns the session's draft. found is false when the slot is empty.
func (s *DraftStore) Load(ctx context.Context, sessionID string) (onboarding.Draft, bool, error) {
	if sessionID == "" {
		return onboarding.Draft{}, false, nil
	}
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return onboarding.Draft{}, false, nil
		}
		return onboarding.Draft{}, false, fmt.Errorf("redis get draft: %w", err)
	}
	var d onboarding.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return onboarding.Draft{}, false, fmt.Errorf("unmarshal draft: %w", err)
	}
	return d, true, nil
}

// Clear empties the session's draft slot. Clearing an empty slot is not an error.
func (s *DraftStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del draft: %w", err)
	}
	return nil
}
