package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/rithish08/fyke-connect-india-sub001/config"
	"github.com/rithish08/fyke-connect-india-sub001/internal/observability/audit"
	"github.com/rithish08/fyke-connect-india-sub001/internal/observability/statsd"
	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
	"github.com/rithish08/fyke-connect-india-sub001/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth          *service.AuthService
	Onboarding    *service.OnboardingService
	Access        *service.AccessService
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	// MetricsSink is nil when metrics are disabled; the client is nil-safe.
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
	Actions       *audit.Logger
}

// Close flushes and releases observability resources.
func (o ObservabilityContainer) Close() error {
	return o.MetricsSink.Close()
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Provider    ports.AuthProvider
	Logger      *slog.Logger
}

// buildObservability configures the metrics client and the action log.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  logger,
		})
		if err != nil {
			logger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
		Actions:       audit.New(logger, metricsSink),
	}
}

// NewServices wires the stores into the auth, onboarding and access services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.Provider == nil {
		return ServiceContainer{}, errors.New("auth provider is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	catalog, err := LoadCatalog(cfg.Onboarding)
	if err != nil {
		return ServiceContainer{}, err
	}

	obs := buildObservability(logger, cfg.Observability)
	stores := NewStores(deps.DB, deps.RedisClient, cfg.Onboarding)

	return ServiceContainer{
		Auth: service.NewAuthService(service.AuthServiceOptions{
			Provider: deps.Provider,
			Sessions: stores.Sessions,
			Profiles: stores.Profiles,
			Drafts:   stores.Drafts,
			Actions:  obs.Actions,
		}),
		Onboarding: service.NewOnboardingService(service.OnboardingServiceOptions{
			Profiles: stores.Profiles,
			Drafts:   stores.Drafts,
			Lock:     stores.Lock,
			LockTTL:  cfg.Onboarding.CommitLockTTL,
			Catalog:  catalog,
			Actions:  obs.Actions,
			Metrics:  obs.MetricsSink,
			Logger:   logger,
		}),
		Access: service.NewAccessService(service.AccessServiceOptions{
			Profiles: stores.Profiles,
			Actions:  obs.Actions,
			Metrics:  obs.MetricsSink,
			Logger:   logger,
		}),
		Observability: obs,
	}, nil
}

// ServiceOrchestrationConfig contains everything needed to serve until shutdown.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// RunServicesWithShutdown serves HTTP until SIGINT/SIGTERM or a server error,
// then drains in-flight requests.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, errCh := StartHTTPServer(&HTTPServerConfig{
		Config:    cfg.Config,
		Services:  cfg.Services,
		Readiness: ReadinessChecks(cfg.DB, cfg.RedisClient),
		Logger:    logger,
	})

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down services...")
	case err := <-errCh:
		logger.Error("service error", "error", err)
		runErr = err
	}

	if err := ShutdownHTTPServer(ShutdownConfig{
		Server:  server,
		Timeout: cfg.Config.HTTP.ShutdownTimeout,
		Logger:  logger,
	}); err != nil && !errors.Is(err, http.ErrServerClosed) {
		runErr = errors.Join(runErr, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := cfg.Services.Observability.Close(); err != nil {
		logger.Warn("close metrics client failed", "error", err)
	}
	return runErr
}
