package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rithish08/fyke-connect-india-sub001/config"
	"github.com/rithish08/fyke-connect-india-sub001/internal/bootstrap"
)

// adminApp carries configuration and lazily connected infrastructure
// shared by every subcommand.
type adminApp struct {
	logger *slog.Logger
	cfg    config.AppConfig
	out    io.Writer

	db    *sql.DB
	redis redis.UniversalClient
}

func newRootCmd() *cobra.Command {
	app := &adminApp{}

	root := &cobra.Command{
		Use:           "fyke-admin",
		Short:         "Operate the Fyke onboarding gate: drafts, profiles and guard decisions",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app.out = cmd.OutOrStdout()
			app.logger = bootstrap.InitLogger()
			cfg, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}
			bootstrap.SetLogLevel(cfg.Observability.Logging.SlogLevel())
			app.cfg = cfg
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return app.closeInfra()
		},
	}

	root.AddCommand(
		migrateCmd(app),
		draftCmd(app),
		profileCmd(app),
		statsCmd(app),
		guardCmd(app),
		catalogCmd(app),
	)
	return root
}

func (a *adminApp) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func (a *adminApp) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(a.out, format, args...)
	return err
}
