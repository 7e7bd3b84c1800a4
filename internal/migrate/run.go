// Package migrate applies the embedded profile schema migrations.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// advisoryLockKey serializes migrators across replicas that start together.
const advisoryLockKey int64 = 0x66796b65 // "fyke"

const createVersionsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// Status lists embedded migrations split by whether they have been recorded.
type Status struct {
	Applied []string `json:"applied"`
	Pending []string `json:"pending"`
}

// Versions returns the embedded migration versions in apply order.
func Versions() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			out = append(out, strings.TrimSuffix(e.Name(), ".sql"))
		}
	}
	slices.Sort(out)
	return out, nil
}

// Run applies every pending migration, each in its own transaction, and
// returns the versions it applied. Safe to call repeatedly.
func Run(ctx context.Context, db *sql.DB) ([]string, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire conn: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, advisoryLockKey); err != nil {
		return nil, fmt.Errorf("take migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, advisoryLockKey)
	}()

	if _, err := conn.ExecContext(ctx, createVersionsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations table: %w", err)
	}

	st, err := status(ctx, conn)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "migrations")
	var applied []string
	for _, v := range st.Pending {
		logger.InfoContext(ctx, "applying migration", "version", v)
		if err := apply(ctx, conn, v); err != nil {
			return applied, err
		}
		applied = append(applied, v)
	}
	return applied, nil
}

// CurrentStatus reports applied and pending versions without changing anything.
func CurrentStatus(ctx context.Context, db *sql.DB) (Status, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("acquire conn: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var exists bool
	if err := conn.QueryRowContext(ctx, `SELECT to_regclass('schema_migrations') IS NOT NULL`).Scan(&exists); err != nil {
		return Status{}, fmt.Errorf("check schema_migrations: %w", err)
	}
	if !exists {
		all, err := Versions()
		return Status{Pending: all}, err
	}
	return status(ctx, conn)
}

func status(ctx context.Context, conn *sql.Conn) (Status, error) {
	all, err := Versions()
	if err != nil {
		return Status{}, err
	}
	rows, err := conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return Status{}, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	done := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return Status{}, err
		}
		done[v] = true
	}
	if err := rows.Err(); err != nil {
		return Status{}, err
	}
	return split(all, done), nil
}

func split(all []string, done map[string]bool) Status {
	var st Status
	for _, v := range all {
		if done[v] {
			st.Applied = append(st.Applied, v)
		} else {
			st.Pending = append(st.Pending, v)
		}
	}
	return st
}

func apply(ctx context.Context, conn *sql.Conn, version string) error {
	body, err := migrationsFS.ReadFile("migrations/" + version + ".sql")
	if err != nil {
		return fmt.Errorf("read migration %s: %w", version, err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, string(body)); err != nil {
		return fmt.Errorf("exec migration %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}
