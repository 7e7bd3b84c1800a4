package config

import (
	"strings"
	"time"
)

const (
	defaultDraftTTL      = 7 * 24 * time.Hour
	defaultCommitLockTTL = 30 * time.Second
)

// OnboardingConfig controls the jobseeker wizard.
type OnboardingConfig struct {
	// CatalogPath points at a YAML category catalog. Empty uses the built-in one.
	CatalogPath string `env:"CATALOG_PATH"`

	// DraftTTL is how long an untouched draft survives in Redis.
	DraftTTL time.Duration `env:"DRAFT_TTL" envDefault:"168h"`

	// CommitLockTTL caps how long one commit can hold the per-user lock.
	CommitLockTTL time.Duration `env:"COMMIT_LOCK_TTL" envDefault:"30s"`
}

// Sanitize restores defaults for non-positive durations.
func (c *OnboardingConfig) Sanitize() {
	c.CatalogPath = strings.TrimSpace(c.CatalogPath)
	if c.DraftTTL <= 0 {
		c.DraftTTL = defaultDraftTTL
	}
	if c.CommitLockTTL <= 0 {
		c.CommitLockTTL = defaultCommitLockTTL
	}
}
