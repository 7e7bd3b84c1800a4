package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
)

// releaseScript deletes the key only if it still holds our token.
//
//nolint:gochecknoglobals // compiled once
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// CommitLock is a SET NX PX lock keyed per user.
type CommitLock struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.CommitLock = (*CommitLock)(nil)

// NewCommitLock creates a Redis-backed commit lock.
func NewCommitLock(client redis.UniversalClient) *CommitLock {
	return &CommitLock{client: client, prefix: LockPrefix}
}

// Acquire takes the lock for ttl. The returned release only deletes the key
// while this holder still owns it.
func (l *CommitLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if key == "" {
		return nil, errors.New("lock key cannot be empty")
	}
	token := uuid.NewString()
	full := l.prefix + key

	ok, err := l.client.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, ports.ErrLockHeld
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{full}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("release lock: %w", err)
		}
		return nil
	}
	return release, nil
}
