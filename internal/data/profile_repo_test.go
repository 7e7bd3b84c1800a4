package data

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/profile"
	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
	"github.com/rithish08/fyke-connect-india-sub001/internal/testutil"
)

func uniqueUserID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func jobseekerPatch() profile.Patch {
	return profile.Patch{
		Name:         "Ravi",
		Availability: profile.AvailabilityBusy,
		Details: profile.JobseekerDetails{
			Categories:    []string{"construction"},
			Subcategories: []string{"Mason", "Carpenter"},
			Wages: profile.NewWageBook(
				profile.WagePair{Subcategory: "Mason", Entry: profile.WageEntry{Amount: 500, Period: profile.PeriodDaily}},
				profile.WagePair{Subcategory: "Carpenter", Entry: profile.WageEntry{Amount: 700, Period: profile.PeriodDaily}},
			),
			SalaryExpectation: &profile.SalaryRange{Min: 500, Max: 700},
			SalaryPeriod:      profile.PeriodDaily,
		},
		ProfileComplete: true,
	}
}

func TestProfileRepo_SetRoleAndUpdate(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewProfileRepoWithClock(db, NewFixedClock(testutil.TestTime()))
		userID := uniqueUserID("js")

		_, err := repo.Get(ctx, userID)
		require.ErrorIs(t, err, ports.ErrProfileNotFound)

		p, err := repo.SetRole(ctx, userID, domainauth.RoleJobseeker)
		require.NoError(t, err)
		assert.Equal(t, domainauth.RoleJobseeker, p.Role)
		assert.Equal(t, profile.AvailabilityAvailable, p.Availability)
		assert.False(t, p.ProfileComplete)
		assert.False(t, profile.IsComplete(p))

		// idempotent for the same role
		_, err = repo.SetRole(ctx, userID, domainauth.RoleJobseeker)
		require.NoError(t, err)

		_, err = repo.SetRole(ctx, userID, domainauth.RoleEmployer)
		require.ErrorIs(t, err, ports.ErrRoleAlreadySet)

		require.NoError(t, repo.Update(ctx, userID, jobseekerPatch()))

		got, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, domainauth.RoleJobseeker, got.Role)
		assert.Equal(t, "Ravi", got.Name)
		assert.Equal(t, profile.AvailabilityBusy, got.Availability)
		assert.True(t, got.ProfileComplete)
		assert.True(t, profile.IsComplete(got))
		assert.True(t, testutil.TestTime().Equal(got.UpdatedAt))

		js, ok := got.Jobseeker()
		require.True(t, ok)
		assert.Equal(t, []string{"Mason", "Carpenter"}, js.Wages.Keys())
		assert.Equal(t, &profile.SalaryRange{Min: 500, Max: 700}, js.SalaryExpectation)
	})
}

func TestProfileRepo_UpdateRejectsWrongVariant(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewProfileRepo(db)
		userID := uniqueUserID("emp")

		_, err := repo.SetRole(ctx, userID, domainauth.RoleEmployer)
		require.NoError(t, err)

		err = repo.Update(ctx, userID, jobseekerPatch())
		require.ErrorIs(t, err, ports.ErrRoleMismatch)

		require.NoError(t, repo.Update(ctx, userID, profile.Patch{
			Name:            "Acme Corp",
			Details:         profile.EmployerDetails{CompanyName: "Acme"},
			ProfileComplete: true,
		}))
		got, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		assert.True(t, profile.IsComplete(got))
		em, ok := got.Employer()
		require.True(t, ok)
		assert.Equal(t, "Acme", em.CompanyName)
	})
}

func TestProfileRepo_UpdateMissingProfile(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewProfileRepo(db)
		err := repo.Update(context.Background(), uniqueUserID("ghost"), jobseekerPatch())
		require.ErrorIs(t, err, ports.ErrProfileNotFound)
	})
}

func TestProfileRepo_Stats(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewProfileRepo(db)

		done := uniqueUserID("done")
		_, err := repo.SetRole(ctx, done, domainauth.RoleJobseeker)
		require.NoError(t, err)
		require.NoError(t, repo.Update(ctx, done, jobseekerPatch()))

		_, err = repo.SetRole(ctx, uniqueUserID("pending"), domainauth.RoleEmployer)
		require.NoError(t, err)

		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, stats.Total, 2)
		assert.GreaterOrEqual(t, stats.Complete, 1)
		assert.GreaterOrEqual(t, stats.Incomplete, 1)
		assert.GreaterOrEqual(t, stats.ByRole["employer"], 1)
	})
}

func TestProfileRepo_Validation(t *testing.T) {
	repo := NewProfileRepo(nil)
	ctx := context.Background()

	_, err := repo.Get(ctx, " ")
	require.Error(t, err)

	_, err = repo.SetRole(ctx, "u1", domainauth.RoleNone)
	require.Error(t, err)

	err = repo.Update(ctx, "u1", profile.Patch{Availability: "sleeping"})
	require.Error(t, err)
}
