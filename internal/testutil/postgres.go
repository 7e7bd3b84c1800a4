// Package testutil provides Postgres and Redis fixtures for integration tests.
// Tests skip when the backing service is unreachable unless TEST_REQUIRE_INFRA is set.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/rithish08/fyke-connect-india-sub001/internal/migrate"
)

// DBConfig locates the integration test database. The default port matches
// the test profile of the local compose stack; CI sets TEST_DB_PORT=5432.
type DBConfig struct {
	Host      string `env:"TEST_DB_HOST"      envDefault:"localhost"`
	Port      string `env:"TEST_DB_PORT"      envDefault:"55432"`
	User      string `env:"TEST_DB_USER"      envDefault:"fyke"`
	Password  string `env:"TEST_DB_PASSWORD"  envDefault:"fyke"`
	Name      string `env:"TEST_DB_NAME"      envDefault:"fyke"`
	SSLMode   string `env:"DB_SSL_MODE"       envDefault:"disable"`
	Ephemeral bool   `env:"TEST_DB_EPHEMERAL"`
}

// infraFlags forces failures instead of skips when infrastructure is missing.
type infraFlags struct {
	RequireInfra bool `env:"TEST_REQUIRE_INFRA"`
	RequireDB    bool `env:"TEST_REQUIRE_DB"`
	RequireRedis bool `env:"TEST_REQUIRE_REDIS"`
}

func loadInfraFlags() infraFlags {
	var f infraFlags
	_ = env.Parse(&f)
	return f
}

// LoadDBConfig reads DBConfig from the environment.
func LoadDBConfig() DBConfig {
	var cfg DBConfig
	_ = env.Parse(&cfg)
	return cfg
}

// DSN renders cfg as a postgres URL, optionally pinning search_path.
func (c DBConfig) DSN(searchPath string) string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.Name,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	if searchPath != "" {
		q.Set("search_path", searchPath)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func skipOrFail(t testing.TB, required bool, args ...any) {
	t.Helper()
	if required {
		t.Fatal(args...)
	}
	t.Skip(args...)
}

func open(t testing.TB, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		flags := loadInfraFlags()
		skipOrFail(t, flags.RequireInfra || flags.RequireDB, "test database not available:", err)
	}
	return db
}

// SkipIfNoTestDB skips t when the test database cannot be reached.
func SkipIfNoTestDB(t testing.TB) {
	t.Helper()
	db := open(t, LoadDBConfig().DSN(""))
	_ = db.Close()
}

// WithAutoDB hands fn a migrated database. With TEST_DB_EPHEMERAL set, each
// test gets its own schema that is dropped afterwards; otherwise the shared
// database is used and the profiles table is emptied before and after.
func WithAutoDB(t testing.TB, fn func(*sql.DB)) {
	t.Helper()
	cfg := LoadDBConfig()
	if cfg.Ephemeral {
		fn(ephemeralDB(t, cfg))
		return
	}

	db := open(t, cfg.DSN(""))
	migrateDB(t, db)
	truncateProfiles(t, db)
	t.Cleanup(func() {
		truncateProfiles(t, db)
		_ = db.Close()
	})
	fn(db)
}

func ephemeralDB(t testing.TB, cfg DBConfig) *sql.DB {
	t.Helper()
	admin := open(t, cfg.DSN(""))

	schema := randomSchema()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		_ = admin.Close()
		t.Fatalf("create schema %s: %v", schema, err)
	}

	db := open(t, cfg.DSN(schema+",public"))
	db.SetMaxOpenConns(10)
	t.Logf("using ephemeral schema %s", schema)
	t.Cleanup(func() {
		_ = db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := admin.ExecContext(ctx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
		_ = admin.Close()
	})
	migrateDB(t, db)
	return db
}

func migrateDB(t testing.TB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := migrate.Run(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
}

func truncateProfiles(t testing.TB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "TRUNCATE profiles"); err != nil {
		t.Fatalf("truncate profiles: %v", err)
	}
}

func randomSchema() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "t_" + time.Now().Format("150405000000")
	}
	return "t_" + hex.EncodeToString(b)
}

// TestTime is the fixed instant used for timestamp assertions.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// RunConcurrent starts every fn at once and returns their errors in call order.
func RunConcurrent(fns ...func() error) []error {
	errs := make([]error, len(fns))
	start := make(chan struct{})
	done := make(chan struct{}, len(fns))
	for i, fn := range fns {
		go func() {
			<-start
			errs[i] = fn()
			done <- struct{}{}
		}()
	}
	close(start)
	for range fns {
		<-done
	}
	return errs
}
