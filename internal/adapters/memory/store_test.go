package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/onboarding"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/profile"
	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
)

func TestProfileStore_RoleRules(t *testing.T) {
	ctx := context.Background()
	s := NewProfileStore()

	_, err := s.Get(ctx, "u-1")
	require.ErrorIs(t, err, ports.ErrProfileNotFound)

	p, err := s.SetRole(ctx, "u-1", domainauth.RoleJobseeker)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleJobseeker, p.Role)
	assert.Equal(t, profile.DefaultAvailability, p.Availability)

	_, err = s.SetRole(ctx, "u-1", domainauth.RoleJobseeker)
	require.NoError(t, err, "same role is idempotent")

	_, err = s.SetRole(ctx, "u-1", domainauth.RoleEmployer)
	require.ErrorIs(t, err, ports.ErrRoleAlreadySet)
}

func TestProfileStore_Update(t *testing.T) {
	ctx := context.Background()
	s := NewProfileStore()

	err := s.Update(ctx, "u-1", profile.Patch{Name: "Ravi"})
	require.ErrorIs(t, err, ports.ErrProfileNotFound)

	_, err = s.SetRole(ctx, "u-1", domainauth.RoleEmployer)
	require.NoError(t, err)

	err = s.Update(ctx, "u-1", profile.Patch{Name: "Ravi", Details: profile.JobseekerDetails{}})
	require.ErrorIs(t, err, ports.ErrRoleMismatch)

	err = s.Update(ctx, "u-1", profile.Patch{
		Name:            "  Asha ",
		Details:         profile.EmployerDetails{CompanyName: "Asha Builders"},
		ProfileComplete: true,
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)
	assert.True(t, got.ProfileComplete)
	assert.True(t, profile.IsComplete(got))
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestDraftStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewDraftStore()

	_, found, err := s.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.False(t, found)

	d := onboarding.NewDraft()
	d.Category = "household"
	d.Subcategories = []string{"Cook"}
	require.NoError(t, s.Save(ctx, "s-1", d))

	d.Subcategories[0] = "mutated"
	got, found, err := s.Load(ctx, "s-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"Cook"}, got.Subcategories)

	require.NoError(t, s.Clear(ctx, "s-1"))
	_, found, err = s.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.Error(t, s.Save(ctx, "", d))
}
