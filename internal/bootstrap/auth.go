package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rithish08/fyke-connect-india-sub001/config"
	"github.com/rithish08/fyke-connect-india-sub001/internal/adapters/devauth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/adapters/oidc"
	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
)

// ErrAuthNotConfigured is returned when oauth mode lacks provider settings.
var ErrAuthNotConfigured = errors.New("oauth mode selected but provider configuration is incomplete")

// BuildAuthProvider selects the identity provider for the configured auth mode.
//
//nolint:ireturn // the mode decides which concrete provider is returned.
func BuildAuthProvider(cfg config.AuthConfig, logger *slog.Logger) (ports.AuthProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			UserID:          cfg.DevAuth.UserID,
			Phone:           cfg.DevAuth.Phone,
			DisplayName:     cfg.DevAuth.DisplayName,
			SessionDuration: cfg.SessionTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev auth provider: %w", err)
		}
		logger.Warn("dev auth enabled; every login signs in as the configured user", "user_id", cfg.DevAuth.UserID)
		return prov, nil

	case config.AuthModeOAuth, "":
		oauth := cfg.OAuth
		if !oauth.Complete() {
			logger.Error("oauth configuration incomplete",
				"discovery_url_empty", oauth.DiscoveryURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
			return nil, ErrAuthNotConfigured
		}
		prov, err := oidc.NewProvider(oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
			LogoutURL:    oauth.LogoutURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create oidc provider: %w", err)
		}
		return prov, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}
}
