package testutil

import (
	"errors"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDBConfig_Defaults(t *testing.T) {
	for _, k := range []string{"TEST_DB_HOST", "TEST_DB_PORT", "TEST_DB_USER", "TEST_DB_PASSWORD", "TEST_DB_NAME", "DB_SSL_MODE", "TEST_DB_EPHEMERAL"} {
		unsetenv(t, k)
	}
	cfg := LoadDBConfig()
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "55432", cfg.Port)
	assert.Equal(t, "fyke", cfg.Name)
	assert.False(t, cfg.Ephemeral)
}

func TestLoadDBConfig_CI(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "postgres")
	t.Setenv("TEST_DB_PORT", "5432")
	t.Setenv("TEST_DB_EPHEMERAL", "true")

	cfg := LoadDBConfig()
	assert.Equal(t, "postgres", cfg.Host)
	assert.Equal(t, "5432", cfg.Port)
	assert.True(t, cfg.Ephemeral)
}

func TestDBConfig_DSN(t *testing.T) {
	cfg := DBConfig{Host: "db", Port: "5432", User: "fyke", Password: "p@ss", Name: "fyke", SSLMode: "disable"}
	assert.Equal(t, "postgres://fyke:p%40ss@db:5432/fyke?sslmode=disable", cfg.DSN(""))
	assert.Contains(t, cfg.DSN("t_1,public"), "search_path=t_1%2Cpublic")
}

func TestRunConcurrent(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	errs := RunConcurrent(
		func() error { calls.Add(1); return nil },
		func() error { calls.Add(1); return boom },
	)
	assert.Equal(t, int32(2), calls.Load())
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], boom)
}

// unsetenv clears key for the duration of t.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	_ = os.Unsetenv(key)
}
