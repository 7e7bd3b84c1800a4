package testutil

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCandidates are tried in order when REDIS_ADDR is unset.
var redisCandidates = []string{"redis:6379", "localhost:6379", "localhost:56379"}

func reachable(addr string) bool {
	c := redis.NewClient(&redis.Options{Addr: addr})
	defer func() { _ = c.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.Ping(ctx).Err() == nil
}

func findRedis() (string, bool) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr, reachable(addr)
	}
	for _, addr := range redisCandidates {
		if reachable(addr) {
			return addr, true
		}
	}
	return "", false
}

// SetupTestRedis returns a client on a flushed logical DB reserved for this
// test, so packages running in parallel do not clobber each other's keys.
func SetupTestRedis(t testing.TB) *redis.Client {
	t.Helper()
	addr, ok := findRedis()
	if !ok {
		flags := loadInfraFlags()
		skipOrFail(t, flags.RequireInfra || flags.RequireRedis, "redis not available for testing")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: reserveDB(t, addr)})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush test redis db: %v", err)
	}
	return client
}

// reserveDB claims a DB index in 1..15 through a lock key in DB 0, which
// FlushDB on the test DB never touches. TEST_REDIS_DB overrides the choice.
func reserveDB(t testing.TB, addr string) int {
	t.Helper()
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
	}

	meta := redis.NewClient(&redis.Options{Addr: addr})
	token := fmt.Sprintf("%d:%d", os.Getpid(), time.Now().UnixNano())
	for i := 1; i <= 15; i++ {
		key := fmt.Sprintf("fyke:testutil:db_lock:%d", i)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		ok, err := meta.SetNX(ctx, key, token, 30*time.Minute).Result()
		cancel()
		if err != nil || !ok {
			continue
		}
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = meta.Del(ctx, key).Err()
			_ = meta.Close()
		})
		return i
	}
	_ = meta.Close()
	t.Logf("no free redis db; falling back to DB 1")
	return 1
}
