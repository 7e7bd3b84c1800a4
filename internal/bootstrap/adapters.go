package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rithish08/fyke-connect-india-sub001/config"
	redisadapter "github.com/rithish08/fyke-connect-india-sub001/internal/adapters/redis"
	"github.com/rithish08/fyke-connect-india-sub001/internal/data"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/onboarding"
	httpx "github.com/rithish08/fyke-connect-india-sub001/internal/http"
)

// Stores groups the storage adapters backing service ports.
type Stores struct {
	Profiles *data.ProfileRepo
	Sessions *redisadapter.SessionStore
	Drafts   *redisadapter.DraftStore
	Lock     *redisadapter.CommitLock
}

// NewStores builds the Postgres and Redis adapters; no business rules here.
func NewStores(db *sql.DB, client redis.UniversalClient, cfg config.OnboardingConfig) Stores {
	return Stores{
		Profiles: data.NewProfileRepo(db),
		Sessions: redisadapter.NewSessionStore(client),
		Drafts:   redisadapter.NewDraftStore(client, redisadapter.DraftStoreOptions{TTL: cfg.DraftTTL}),
		Lock:     redisadapter.NewCommitLock(client),
	}
}

// LoadCatalog returns the configured category catalog, or the built-in one.
func LoadCatalog(cfg config.OnboardingConfig) (*onboarding.Catalog, error) {
	if cfg.CatalogPath == "" {
		return onboarding.DefaultCatalog(), nil
	}
	catalog, err := onboarding.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", cfg.CatalogPath, err)
	}
	return catalog, nil
}

// ReadinessChecks pings the stores the request path depends on.
func ReadinessChecks(db *sql.DB, client redis.UniversalClient) map[string]httpx.ReadinessCheck {
	checks := make(map[string]httpx.ReadinessCheck, 2)
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}
