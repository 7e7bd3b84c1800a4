package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rithish08/fyke-connect-india-sub001/internal/data/pgxutil"
	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/profile"
	apperrors "github.com/rithish08/fyke-connect-india-sub001/internal/errors"
	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
)

const profileColumns = `user_id, role, name, availability, details, profile_complete, updated_at`

// updateRetries bounds how often an Update that lost a deadlock is replayed.
const updateRetries = 2

// ProfileRepo persists profiles in Postgres. Role-specific details live in a
// JSONB column decoded according to the role.
type ProfileRepo struct {
	DB    *sql.DB
	clock Clock
}

var _ ports.ProfileStore = (*ProfileRepo)(nil)

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, clock: SystemClock{}}
}

// NewProfileRepoWithClock creates a ProfileRepo that stamps rows from clock.
func NewProfileRepoWithClock(db *sql.DB, clock Clock) *ProfileRepo {
	return &ProfileRepo{DB: db, clock: clock}
}

type profileRow struct {
	UserID          string    `db:"user_id"`
	Role            *string   `db:"role"`
	Name            string    `db:"name"`
	Availability    string    `db:"availability"`
	Details         []byte    `db:"details"`
	ProfileComplete bool      `db:"profile_complete"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r profileRow) toProfile() (profile.Profile, error) {
	var role domainauth.Role
	if r.Role != nil {
		role = domainauth.Role(*r.Role)
	}
	details, err := profile.DecodeDetails(role, r.Details)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("profile %s: %w", r.UserID, err)
	}
	return profile.Profile{
		UserID:          r.UserID,
		Role:            role,
		Name:            r.Name,
		Availability:    profile.Availability(r.Availability),
		Details:         details,
		ProfileComplete: r.ProfileComplete,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

func collectProfile(rows pgx.Rows) (profile.Profile, error) {
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[profileRow])
	if err != nil {
		return profile.Profile{}, err
	}
	return row.toProfile()
}

// Get returns the profile for userID, or ports.ErrProfileNotFound.
func (r *ProfileRepo) Get(ctx context.Context, userID string) (profile.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return profile.Profile{}, apperrors.ValidationField("user_id", "user ID is required")
	}
	var out profile.Profile
	err := pgxutil.WithConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = collectProfile(rows)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return profile.Profile{}, ports.ErrProfileNotFound
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("get profile: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// SetRole creates the profile row if needed and records role. Repeating the
// same role is a no-op; a different role yields ports.ErrRoleAlreadySet.
func (r *ProfileRepo) SetRole(ctx context.Context, userID string, role domainauth.Role) (profile.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return profile.Profile{}, apperrors.ValidationField("user_id", "user ID is required")
	}
	if !role.Valid() {
		return profile.Profile{}, apperrors.ValidationField("role", "role must be jobseeker or employer")
	}

	now := r.clock.Now().UTC()
	var out profile.Profile
	err := pgxutil.WithConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO profiles (user_id, role, created_at, updated_at)
			VALUES ($1, $2, $3, $3)
			ON CONFLICT (user_id) DO UPDATE
				SET role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
				WHERE profiles.role IS NULL OR profiles.role = EXCLUDED.role
			RETURNING `+profileColumns,
			userID, string(role), now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = collectProfile(rows)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		// The conflict guard rejected the update: a different role is stored.
		return profile.Profile{}, ports.ErrRoleAlreadySet
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("set role: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// Update writes an onboarding patch. The role column is never modified and
// the patch details must match it.
func (r *ProfileRepo) Update(ctx context.Context, userID string, patch profile.Patch) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.ValidationField("user_id", "user ID is required")
	}
	if patch.Availability != "" && !patch.Availability.Valid() {
		return apperrors.ValidationField("availability", "must be one of: available, busy, offline")
	}

	details, err := profile.EncodeDetails(patch.Details)
	if err != nil {
		return err
	}

	var detailsRole *string
	if patch.Details != nil {
		s := string(patch.Details.Role())
		detailsRole = &s
	}

	now := r.clock.Now().UTC()
	return pgxutil.WithTx(ctx, r.DB, pgxutil.TxOptions{Retries: updateRetries}, func(tx pgx.Tx) error {
		var current *string
		if err := tx.QueryRow(ctx, `SELECT role FROM profiles WHERE user_id = $1 FOR UPDATE`, userID).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ports.ErrProfileNotFound
			}
			return fmt.Errorf("lock profile: %w", apperrors.MapDBError(err))
		}
		if current == nil || (detailsRole != nil && *detailsRole != *current) {
			return ports.ErrRoleMismatch
		}

		_, err := tx.Exec(ctx, `
			UPDATE profiles
			SET name = $2,
			    availability = COALESCE(NULLIF($3, ''), availability),
			    details = $4,
			    profile_complete = $5,
			    updated_at = $6
			WHERE user_id = $1`,
			userID, strings.TrimSpace(patch.Name), string(patch.Availability), details, patch.ProfileComplete, now,
		)
		if err != nil {
			return fmt.Errorf("update profile: %w", apperrors.MapDBError(err))
		}
		return nil
	})
}

// ProfileStats summarizes onboarding progress across all profiles.
type ProfileStats struct {
	Total      int            `json:"total"`
	ByRole     map[string]int `json:"by_role"`
	Complete   int            `json:"complete"`
	Incomplete int            `json:"incomplete"`
}

// Stats counts profiles by role and completeness.
func (r *ProfileRepo) Stats(ctx context.Context) (ProfileStats, error) {
	stats := ProfileStats{ByRole: map[string]int{}}
	err := pgxutil.WithConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT COALESCE(role, 'none') AS role, profile_complete, count(*)
			FROM profiles GROUP BY 1, 2`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				role     string
				complete bool
				n        int
			)
			if err := rows.Scan(&role, &complete, &n); err != nil {
				return err
			}
			stats.Total += n
			stats.ByRole[role] += n
			if complete {
				stats.Complete += n
			} else {
				stats.Incomplete += n
			}
		}
		return rows.Err()
	})
	if err != nil {
		return ProfileStats{}, fmt.Errorf("profile stats: %w", apperrors.MapDBError(err))
	}
	return stats, nil
}
