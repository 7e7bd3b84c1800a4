package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/guard"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/profile"
	"github.com/rithish08/fyke-connect-india-sub001/internal/mocks"
	"github.com/rithish08/fyke-connect-india-sub001/internal/observability/metrics"
	"github.com/rithish08/fyke-connect-india-sub001/internal/observability/statsd"
	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
)

func TestAccessService_UnauthenticatedRedirectsToLanguage(t *testing.T) {
	ctrl := gomock.NewController(t)
	actions := mocks.NewMockActionLogger(ctrl)
	rec := &statsd.Recorder{}
	svc := NewAccessService(AccessServiceOptions{Profiles: mocks.NewMockProfileStore(ctrl), Actions: actions, Metrics: rec})

	actions.EXPECT().Action(gomock.Any(), "guard.redirect", map[string]any{
		"reason":         "unauthenticated",
		"attempted_path": "/home",
		"target":         guard.PathLanguage,
		"user_id":        "",
	})

	d, snap := svc.Evaluate(context.Background(), nil, "/home/")

	assert.False(t, snap.Authenticated)
	assert.Equal(t, guard.Decision{Action: guard.ActionRedirect, Target: guard.PathLanguage, Reason: guard.ReasonUnauthenticated}, d)
	require.Len(t, rec.Named(metrics.NameGuardRedirect), 1)
}

func TestAccessService_StayDoesNotReport(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileStore(ctrl)
	svc := NewAccessService(AccessServiceOptions{Profiles: profiles, Actions: mocks.NewMockActionLogger(ctrl)})

	profiles.EXPECT().Get(gomock.Any(), "u-1").Return(profile.Profile{
		UserID: "u-1", Role: domainauth.RoleEmployer, Name: "Asha", Details: profile.EmployerDetails{},
	}, nil)

	sess := &domainauth.Session{ID: "s", UserID: "u-1", Role: domainauth.RoleEmployer, ExpiresAt: time.Now().Add(time.Hour)}
	d, _ := svc.Evaluate(context.Background(), sess, "/home")

	assert.Equal(t, guard.ActionStay, d.Action)
}

func TestAccessService_MissingProfileIsIncomplete(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileStore(ctrl)
	actions := mocks.NewMockActionLogger(ctrl)
	svc := NewAccessService(AccessServiceOptions{Profiles: profiles, Actions: actions})

	profiles.EXPECT().Get(gomock.Any(), "u-1").Return(profile.Profile{}, ports.ErrProfileNotFound)
	actions.EXPECT().Action(gomock.Any(), "guard.redirect", gomock.Any())

	sess := &domainauth.Session{UserID: "u-1", Role: domainauth.RoleJobseeker}
	d, _ := svc.Evaluate(context.Background(), sess, "/home")

	assert.Equal(t, guard.PathProfileSetup, d.Target)
	assert.Equal(t, guard.ReasonProfileIncomplete, d.Reason)
}

func TestAccessService_StoredRoleFillsSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileStore(ctrl)
	svc := NewAccessService(AccessServiceOptions{Profiles: profiles})

	profiles.EXPECT().Get(gomock.Any(), "u-1").Return(profile.Profile{UserID: "u-1", Role: domainauth.RoleJobseeker}, nil)

	snap := svc.Snapshot(context.Background(), &domainauth.Session{UserID: "u-1"})

	assert.Equal(t, domainauth.RoleJobseeker, snap.Role)
}

func TestAccessService_LookupFailureHoldsNavigation(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileStore(ctrl)
	svc := NewAccessService(AccessServiceOptions{Profiles: profiles, Actions: mocks.NewMockActionLogger(ctrl)})

	profiles.EXPECT().Get(gomock.Any(), "u-1").Return(profile.Profile{}, errors.New("db down"))

	d, snap := svc.Evaluate(context.Background(), &domainauth.Session{UserID: "u-1", Role: domainauth.RoleJobseeker}, "/home")

	assert.True(t, snap.Loading)
	assert.Equal(t, guard.Decision{Action: guard.ActionStay, Reason: guard.ReasonLoading}, d)
}

func TestAccessService_CollapsesConcurrentLookups(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileStore(ctrl)
	svc := NewAccessService(AccessServiceOptions{Profiles: profiles})

	release := make(chan struct{})
	entered := make(chan struct{})
	profiles.EXPECT().Get(gomock.Any(), "u-1").
		DoAndReturn(func(context.Context, string) (profile.Profile, error) {
			close(entered)
			<-release
			return profile.Profile{UserID: "u-1", Role: domainauth.RoleJobseeker}, nil
		}).
		Times(1)

	sess := &domainauth.Session{UserID: "u-1", Role: domainauth.RoleJobseeker}
	var wg sync.WaitGroup
	first := make(chan guard.Snapshot, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		first <- svc.Snapshot(context.Background(), sess)
	}()
	<-entered

	const followers = 4
	results := make(chan guard.Snapshot, followers)
	for range followers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.Snapshot(context.Background(), sess)
		}()
	}
	// Give followers a moment to join the in-flight call before it returns.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	assert.False(t, (<-first).Loading)
	for snap := range results {
		assert.False(t, snap.Loading)
	}
}

func TestAccessService_PreviewDoesNotReport(t *testing.T) {
	ctrl := gomock.NewController(t)
	rec := &statsd.Recorder{}
	// No Action expectation: a preview must not log guard.redirect.
	svc := NewAccessService(AccessServiceOptions{
		Profiles: mocks.NewMockProfileStore(ctrl),
		Actions:  mocks.NewMockActionLogger(ctrl),
		Metrics:  rec,
	})

	d, _ := svc.Preview(context.Background(), nil, "/home")

	assert.Equal(t, guard.PathLanguage, d.Target)
	assert.Empty(t, rec.Named(metrics.NameGuardRedirect))
}

func TestAccessService_SharedLookupIgnoresCallerCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileStore(ctrl)
	svc := NewAccessService(AccessServiceOptions{Profiles: profiles})

	profiles.EXPECT().Get(gomock.Any(), "u-1").
		DoAndReturn(func(ctx context.Context, _ string) (profile.Profile, error) {
			if err := ctx.Err(); err != nil {
				return profile.Profile{}, err
			}
			return profile.Profile{UserID: "u-1", Role: domainauth.RoleJobseeker}, nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap := svc.Snapshot(ctx, &domainauth.Session{UserID: "u-1", Role: domainauth.RoleJobseeker})

	assert.False(t, snap.Loading)
	assert.Equal(t, "u-1", snap.Profile.UserID)
}
