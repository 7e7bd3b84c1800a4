package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/onboarding"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/profile"
	apperrors "github.com/rithish08/fyke-connect-india-sub001/internal/errors"
	"github.com/rithish08/fyke-connect-india-sub001/internal/mocks"
	"github.com/rithish08/fyke-connect-india-sub001/internal/observability/metrics"
	"github.com/rithish08/fyke-connect-india-sub001/internal/observability/statsd"
	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
)

type onboardingFixture struct {
	profiles *mocks.MockProfileStore
	drafts   *mocks.MockDraftStore
	lock     *mocks.MockCommitLock
	actions  *mocks.MockActionLogger
	metrics  *statsd.Recorder
	service  *OnboardingService
}

func newOnboardingFixture(t *testing.T) onboardingFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := onboardingFixture{
		profiles: mocks.NewMockProfileStore(ctrl),
		drafts:   mocks.NewMockDraftStore(ctrl),
		lock:     mocks.NewMockCommitLock(ctrl),
		actions:  mocks.NewMockActionLogger(ctrl),
		metrics:  &statsd.Recorder{},
	}
	f.service = NewOnboardingService(OnboardingServiceOptions{
		Profiles: f.profiles,
		Drafts:   f.drafts,
		Lock:     f.lock,
		Actions:  f.actions,
		Metrics:  f.metrics,
	})
	return f
}

func jobseekerSession() domainauth.Session {
	return domainauth.Session{ID: "s-1", UserID: "u-1", Role: domainauth.RoleJobseeker, ExpiresAt: time.Now().Add(time.Hour)}
}

func wageDraft(step onboarding.Step) onboarding.Draft {
	d := onboarding.NewDraft()
	d.Step = step
	d.Category = "construction"
	d.Subcategories = []string{"Mason", "Carpenter"}
	d.Wages = profile.NewWageBook(
		profile.WagePair{Subcategory: "Mason", Entry: profile.WageEntry{Amount: 500, Period: profile.PeriodDaily}},
		profile.WagePair{Subcategory: "Carpenter", Entry: profile.WageEntry{Amount: 700, Period: profile.PeriodDaily}},
	)
	d.Name = "Ravi"
	return d
}

func TestOnboardingService_LoadSeedsFromProfileWithoutDraft(t *testing.T) {
	f := newOnboardingFixture(t)
	f.drafts.EXPECT().Load(gomock.Any(), "s-1").Return(onboarding.Draft{}, false, nil)
	f.profiles.EXPECT().Get(gomock.Any(), "u-1").Return(profile.Profile{
		UserID: "u-1",
		Role:   domainauth.RoleJobseeker,
		Name:   "Ravi",
		Details: profile.JobseekerDetails{
			Categories:    []string{"household"},
			Subcategories: []string{"Cook"},
		},
	}, nil)

	state, err := f.service.State(context.Background(), jobseekerSession())

	require.NoError(t, err)
	assert.Equal(t, onboarding.StepCategory, state.Step)
	assert.Equal(t, "household", state.Values.Category)
	assert.Equal(t, []string{"Cook"}, state.Values.Subcategories)
	assert.Equal(t, "Ravi", state.Values.Name)
	assert.Len(t, state.Steps, 3)
}

func TestOnboardingService_LoadWithoutProfileStartsEmpty(t *testing.T) {
	f := newOnboardingFixture(t)
	f.drafts.EXPECT().Load(gomock.Any(), "s-1").Return(onboarding.Draft{}, false, nil)
	f.profiles.EXPECT().Get(gomock.Any(), "u-1").Return(profile.Profile{}, ports.ErrProfileNotFound)

	state, err := f.service.State(context.Background(), jobseekerSession())

	require.NoError(t, err)
	assert.Empty(t, state.Values.Category)
	assert.Equal(t, profile.DefaultAvailability, state.Values.Availability)
}

func TestOnboardingService_LoadResumesDraft(t *testing.T) {
	f := newOnboardingFixture(t)
	f.drafts.EXPECT().Load(gomock.Any(), "s-1").Return(wageDraft(onboarding.StepWage), true, nil)

	state, err := f.service.State(context.Background(), jobseekerSession())

	require.NoError(t, err)
	assert.Equal(t, onboarding.StepWage, state.Step)
	assert.Equal(t, 1, state.StepIndex)
}

func TestOnboardingService_RequiresJobseekerRole(t *testing.T) {
	f := newOnboardingFixture(t)
	sess := jobseekerSession()

	sess.Role = domainauth.RoleNone
	_, err := f.service.State(context.Background(), sess)
	require.ErrorIs(t, err, ErrRoleRequired)

	sess.Role = domainauth.RoleEmployer
	_, err = f.service.Next(context.Background(), sess)
	require.ErrorIs(t, err, ErrWrongRole)
}

func TestOnboardingService_NextInvalidStepReportsMetric(t *testing.T) {
	f := newOnboardingFixture(t)
	f.drafts.EXPECT().Load(gomock.Any(), "s-1").Return(onboarding.NewDraft(), true, nil)

	state, err := f.service.Next(context.Background(), jobseekerSession())

	var stepErr *onboarding.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, onboarding.StepCategory, state.Step)

	got := f.metrics.Named(metrics.NameTransition)
	require.Len(t, got, 1)
	assert.Equal(t, metrics.ResultInvalid, got[0].Tags["result"])
	assert.Equal(t, "category", got[0].Tags["step"])
}

func TestOnboardingService_NextPersistsAndLogs(t *testing.T) {
	f := newOnboardingFixture(t)
	f.drafts.EXPECT().Load(gomock.Any(), "s-1").Return(wageDraft(onboarding.StepCategory), true, nil)

	var saved onboarding.Draft
	f.drafts.EXPECT().Save(gomock.Any(), "s-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, d onboarding.Draft) error {
			saved = d
			return nil
		})
	f.actions.EXPECT().Action(gomock.Any(), "onboarding.transition", gomock.Any()).
		Do(func(_ context.Context, _ string, fields map[string]any) {
			assert.Equal(t, "wage", fields["step"])
			assert.Equal(t, "category", fields["from"])
		})

	state, err := f.service.Next(context.Background(), jobseekerSession())

	require.NoError(t, err)
	assert.Equal(t, onboarding.StepWage, state.Step)
	assert.Equal(t, onboarding.StepWage, saved.Step)
}

func TestOnboardingService_BackPersists(t *testing.T) {
	f := newOnboardingFixture(t)
	f.drafts.EXPECT().Load(gomock.Any(), "s-1").Return(wageDraft(onboarding.StepAvailability), true, nil)
	f.drafts.EXPECT().Save(gomock.Any(), "s-1", gomock.Any()).Return(nil)
	f.actions.EXPECT().Action(gomock.Any(), "onboarding.transition", gomock.Any())

	state, err := f.service.Back(context.Background(), jobseekerSession())

	require.NoError(t, err)
	assert.Equal(t, onboarding.StepWage, state.Step)
}

func TestOnboardingService_EditSavesAtCurrentStep(t *testing.T) {
	f := newOnboardingFixture(t)
	f.drafts.EXPECT().Load(gomock.Any(), "s-1").Return(onboarding.NewDraft(), true, nil)

	var saved onboarding.Draft
	f.drafts.EXPECT().Save(gomock.Any(), "s-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, d onboarding.Draft) error {
			saved = d
			return nil
		})

	category := "driving"
	vehicle := "car"
	state, err := f.service.Edit(context.Background(), jobseekerSession(), onboarding.Edit{
		Category:      &category,
		Subcategories: []string{"Cab Driver"},
		Vehicle:       &vehicle,
	})

	require.NoError(t, err)
	assert.True(t, state.RequiresVehicle)
	assert.Equal(t, onboarding.StepCategory, saved.Step)
	assert.Equal(t, "driving", saved.Category)
	assert.Equal(t, "car", saved.Vehicle)
}

func TestOnboardingService_CommitWritesProfileAndReleasesLock(t *testing.T) {
	f := newOnboardingFixture(t)
	ctx := context.Background()
	released := false

	gomock.InOrder(
		f.lock.EXPECT().Acquire(gomock.Any(), "commit:u-1", DefaultCommitLockTTL).
			Return(func(context.Context) error { released = true; return nil }, nil),
		f.drafts.EXPECT().Load(gomock.Any(), "s-1").Return(wageDraft(onboarding.StepAvailability), true, nil),
		f.profiles.EXPECT().Update(gomock.Any(), "u-1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, patch profile.Patch) error {
				assert.True(t, patch.ProfileComplete)
				return nil
			}),
		f.drafts.EXPECT().Clear(gomock.Any(), "s-1").Return(nil),
	)
	f.actions.EXPECT().Action(gomock.Any(), "onboarding.commit", gomock.Any())

	p, err := f.service.Commit(ctx, jobseekerSession())

	require.NoError(t, err)
	assert.True(t, released)
	assert.True(t, p.ProfileComplete)
	assert.True(t, profile.IsComplete(p))
	js, ok := p.Jobseeker()
	require.True(t, ok)
	require.NotNil(t, js.SalaryExpectation)
	assert.Equal(t, profile.SalaryRange{Min: 500, Max: 700}, *js.SalaryExpectation)
	assert.Equal(t, profile.PeriodDaily, js.SalaryPeriod)

	got := f.metrics.Named(metrics.NameCommit)
	require.Len(t, got, 1)
	assert.Equal(t, metrics.ResultSuccess, got[0].Tags["result"])
}

func TestOnboardingService_CommitLockHeld(t *testing.T) {
	f := newOnboardingFixture(t)
	// No Load expectation: a busy commit must not read the draft.
	f.lock.EXPECT().Acquire(gomock.Any(), "commit:u-1", gomock.Any()).Return(nil, ports.ErrLockHeld)

	_, err := f.service.Commit(context.Background(), jobseekerSession())

	require.ErrorIs(t, err, onboarding.ErrCommitInProgress)
	got := f.metrics.Named(metrics.NameCommit)
	require.Len(t, got, 1)
	assert.Equal(t, metrics.ResultBusy, got[0].Tags["result"])
}

func TestOnboardingService_CommitLoadFailureReleasesLock(t *testing.T) {
	f := newOnboardingFixture(t)
	released := false
	gomock.InOrder(
		f.lock.EXPECT().Acquire(gomock.Any(), "commit:u-1", gomock.Any()).
			Return(func(context.Context) error { released = true; return nil }, nil),
		f.drafts.EXPECT().Load(gomock.Any(), "s-1").Return(onboarding.Draft{}, false, errors.New("redis down")),
	)

	_, err := f.service.Commit(context.Background(), jobseekerSession())

	require.Error(t, err)
	assert.True(t, released)
}

func TestOnboardingService_CommitWrongRoleSkipsLock(t *testing.T) {
	f := newOnboardingFixture(t)
	sess := jobseekerSession()
	sess.Role = domainauth.RoleEmployer

	_, err := f.service.Commit(context.Background(), sess)

	require.ErrorIs(t, err, ErrWrongRole)
}

func TestOnboardingService_CommitFailureKeepsDraft(t *testing.T) {
	f := newOnboardingFixture(t)
	f.drafts.EXPECT().Load(gomock.Any(), "s-1").Return(wageDraft(onboarding.StepAvailability), true, nil)
	f.lock.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(func(context.Context) error { return nil }, nil)
	f.profiles.EXPECT().Update(gomock.Any(), "u-1", gomock.Any()).Return(apperrors.MapDBError(context.DeadlineExceeded))
	f.actions.EXPECT().Action(gomock.Any(), "onboarding.commit", gomock.Any())
	// No Clear expectation: the draft must survive a failed commit.

	_, err := f.service.Commit(context.Background(), jobseekerSession())

	require.Error(t, err)
	got := f.metrics.Named(metrics.NameCommit)
	require.Len(t, got, 1)
	assert.Equal(t, "timeout", got[0].Tags["error_class"])
}

func TestOnboardingService_CommitSucceedsWhenDraftClearFails(t *testing.T) {
	f := newOnboardingFixture(t)
	f.drafts.EXPECT().Load(gomock.Any(), "s-1").Return(wageDraft(onboarding.StepAvailability), true, nil)
	f.lock.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(func(context.Context) error { return errors.New("release failed") }, nil)
	f.profiles.EXPECT().Update(gomock.Any(), "u-1", gomock.Any()).Return(nil)
	f.drafts.EXPECT().Clear(gomock.Any(), "s-1").Return(errors.New("redis down"))
	f.actions.EXPECT().Action(gomock.Any(), "onboarding.commit", gomock.Any())

	p, err := f.service.Commit(context.Background(), jobseekerSession())

	require.NoError(t, err)
	assert.True(t, p.ProfileComplete)
}

func TestOnboardingService_CommitNotOnFinalStep(t *testing.T) {
	f := newOnboardingFixture(t)
	f.drafts.EXPECT().Load(gomock.Any(), "s-1").Return(wageDraft(onboarding.StepWage), true, nil)
	f.lock.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(func(context.Context) error { return nil }, nil)
	f.actions.EXPECT().Action(gomock.Any(), "onboarding.commit", gomock.Any())

	_, err := f.service.Commit(context.Background(), jobseekerSession())

	require.ErrorIs(t, err, onboarding.ErrNotFinalStep)
}

func TestOnboardingService_SetupEmployer(t *testing.T) {
	f := newOnboardingFixture(t)
	sess := jobseekerSession()
	sess.Role = domainauth.RoleEmployer

	f.profiles.EXPECT().Update(gomock.Any(), "u-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, patch profile.Patch) error {
			assert.Equal(t, "Asha", patch.Name)
			assert.Equal(t, profile.EmployerDetails{CompanyName: "Asha Builders"}, patch.Details)
			assert.True(t, patch.ProfileComplete)
			return nil
		})
	f.actions.EXPECT().Action(gomock.Any(), "onboarding.employer_setup", gomock.Any())

	p, err := f.service.SetupEmployer(context.Background(), sess, EmployerInput{Name: " Asha ", CompanyName: "Asha Builders"})

	require.NoError(t, err)
	assert.True(t, p.ProfileComplete)
	assert.Equal(t, domainauth.RoleEmployer, p.Role)
}

func TestOnboardingService_SetupEmployerValidation(t *testing.T) {
	f := newOnboardingFixture(t)
	sess := jobseekerSession()

	_, err := f.service.SetupEmployer(context.Background(), sess, EmployerInput{Name: "Asha"})
	require.ErrorIs(t, err, ErrWrongRole)

	sess.Role = domainauth.RoleEmployer
	_, err = f.service.SetupEmployer(context.Background(), sess, EmployerInput{Name: "   "})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
	assert.Equal(t, "name", appErr.Field)
}

func TestOnboardingService_ProfileFallsBackToEmpty(t *testing.T) {
	f := newOnboardingFixture(t)
	f.profiles.EXPECT().Get(gomock.Any(), "u-1").Return(profile.Profile{}, ports.ErrProfileNotFound)

	p, err := f.service.Profile(context.Background(), jobseekerSession())

	require.NoError(t, err)
	assert.Equal(t, "u-1", p.UserID)
	assert.Equal(t, domainauth.RoleJobseeker, p.Role)
	assert.False(t, p.ProfileComplete)
}
