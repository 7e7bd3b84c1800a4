package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/guard"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/profile"
	"github.com/rithish08/fyke-connect-india-sub001/internal/observability/metrics"
	"github.com/rithish08/fyke-connect-india-sub001/internal/observability/statsd"
	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
)

// AccessServiceOptions groups dependencies for AccessService.
type AccessServiceOptions struct {
	Profiles ports.ProfileStore
	Actions  ports.ActionLogger
	Metrics  statsd.Sink
	Logger   *slog.Logger
}

// AccessService is the effectful caller of guard.Decide: it resolves the
// snapshot for a request and reports redirects.
type AccessService struct {
	profiles ports.ProfileStore
	actions  ports.ActionLogger
	metrics  statsd.Sink
	logger   *slog.Logger
	lookups  singleflight.Group
}

// NewAccessService constructs an AccessService.
func NewAccessService(opts AccessServiceOptions) *AccessService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AccessService{
		profiles: opts.Profiles,
		actions:  opts.Actions,
		metrics:  opts.Metrics,
		logger:   logger.With("component", "access"),
	}
}

// Snapshot resolves what the guard needs to know about sess. A nil session is
// unauthenticated. A failed profile lookup yields a loading snapshot so the
// guard holds navigation instead of guessing.
func (s *AccessService) Snapshot(ctx context.Context, sess *domainauth.Session) guard.Snapshot {
	if sess == nil {
		return guard.Snapshot{}
	}
	snap := guard.Snapshot{Authenticated: true, UserID: sess.UserID, Role: sess.Role}

	p, err := s.profile(ctx, sess.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "profile lookup failed, holding navigation", "user_id", sess.UserID, "error", err)
		snap.Loading = true
		return snap
	}
	// The stored role wins when the session predates the choice, e.g. a second device.
	if !snap.Role.Valid() && p.Role.Valid() {
		snap.Role = p.Role
	}
	snap.Profile = p
	return snap
}

// profile collapses concurrent lookups for the same user into one store call.
func (s *AccessService) profile(ctx context.Context, userID string) (profile.Profile, error) {
	// The shared call outlives any one caller, so it must not inherit a
	// cancellation that would fail every request waiting on it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.lookups.Do(userID, func() (any, error) {
		p, err := s.profiles.Get(shared, userID)
		if errors.Is(err, ports.ErrProfileNotFound) {
			return profile.Profile{UserID: userID}, nil
		}
		return p, err
	})
	if err != nil {
		return profile.Profile{}, err
	}
	return v.(profile.Profile), nil //nolint:forcetypeassert // only profile.Profile is stored
}

// Evaluate decides for path and reports a redirect before returning it.
func (s *AccessService) Evaluate(ctx context.Context, sess *domainauth.Session, path string) (guard.Decision, guard.Snapshot) {
	snap := s.Snapshot(ctx, sess)
	d := guard.Decide(snap, path)
	if d.IsRedirect() {
		s.report(ctx, snap, path, d)
	}
	return d, snap
}

// Preview decides for path without reporting. It answers "where would this
// go" queries that are not real navigations.
func (s *AccessService) Preview(ctx context.Context, sess *domainauth.Session, path string) (guard.Decision, guard.Snapshot) {
	snap := s.Snapshot(ctx, sess)
	return guard.Decide(snap, path), snap
}

func (s *AccessService) report(ctx context.Context, snap guard.Snapshot, path string, d guard.Decision) {
	metrics.EmitGuardRedirect(s.metrics, string(d.Reason), d.Target)
	if s.actions == nil {
		return
	}
	s.actions.Action(ctx, "guard.redirect", map[string]any{
		"reason":         string(d.Reason),
		"attempted_path": guard.NormalizePath(path),
		"target":         d.Target,
		"user_id":        snap.UserID,
	})
}
