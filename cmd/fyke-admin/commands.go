package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	redisadapter "github.com/rithish08/fyke-connect-india-sub001/internal/adapters/redis"
	"github.com/rithish08/fyke-connect-india-sub001/internal/bootstrap"
	"github.com/rithish08/fyke-connect-india-sub001/internal/data"
	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/guard"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/onboarding"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/profile"
	"github.com/rithish08/fyke-connect-india-sub001/internal/migrate"
	"github.com/rithish08/fyke-connect-india-sub001/internal/ports"
	"github.com/rithish08/fyke-connect-india-sub001/internal/service"
)

const defaultMigrationTimeout = 5 * time.Minute

func migrateCmd(app *adminApp) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := app.database()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return bootstrap.RunMigrations(ctx, db, app.logger)
		},
	}
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", defaultMigrationTimeout, "migration timeout")

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := app.database()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			st, err := migrate.CurrentStatus(ctx, db)
			if err != nil {
				return err
			}
			return app.printJSON(st)
		},
	})
	return cmd
}

func draftCmd(app *adminApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Inspect or clear onboarding drafts",
	}

	show := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print the draft stored for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.draftStore()
			if err != nil {
				return err
			}
			d, found, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return app.printf("no draft for session %s\n", args[0])
			}
			return app.printJSON(d)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear <session-id>",
		Short: "Delete the draft stored for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.draftStore()
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context(), args[0]); err != nil {
				return err
			}
			return app.printf("cleared draft for session %s\n", args[0])
		},
	}

	cmd.AddCommand(show, clearCmd)
	return cmd
}

func (a *adminApp) draftStore() (*redisadapter.DraftStore, error) {
	client, err := a.redisClient()
	if err != nil {
		return nil, err
	}
	return redisadapter.NewDraftStore(client, redisadapter.DraftStoreOptions{TTL: a.cfg.Onboarding.DraftTTL}), nil
}

func profileCmd(app *adminApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect stored profiles",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <user-id>",
		Short: "Print a user's profile and whether it counts as complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := app.database()
			if err != nil {
				return err
			}
			p, err := data.NewProfileRepo(db).Get(cmd.Context(), args[0])
			if errors.Is(err, ports.ErrProfileNotFound) {
				return app.printf("no profile for user %s\n", args[0])
			}
			if err != nil {
				return err
			}
			return app.printJSON(map[string]any{
				"profile":  p,
				"complete": profile.IsComplete(p),
			})
		},
	})
	return cmd
}

// gateStats is the combined Postgres and Redis view printed by stats.
type gateStats struct {
	Profiles data.ProfileStats `json:"profiles"`
	Drafts   int64             `json:"drafts"`
	Sessions int64             `json:"sessions"`
}

func statsCmd(app *adminApp) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count profiles by role and completeness alongside live drafts and sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := app.database()
			if err != nil {
				return err
			}
			client, err := app.redisClient()
			if err != nil {
				return err
			}

			var out gateStats
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				s, err := data.NewProfileRepo(db).Stats(ctx)
				out.Profiles = s
				return err
			})
			g.Go(func() error {
				n, err := countKeys(ctx, client, redisadapter.DraftPrefix+"*")
				out.Drafts = n
				return err
			})
			g.Go(func() error {
				n, err := countKeys(ctx, client, redisadapter.SessionPrefix+"*")
				out.Sessions = n
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}
			return app.printJSON(out)
		},
	}
}

const scanBatch = 500

// countKeys counts keys matching pattern, visiting every master in a cluster.
func countKeys(ctx context.Context, client redis.UniversalClient, pattern string) (int64, error) {
	if cc, ok := client.(*redis.ClusterClient); ok {
		var total atomic.Int64
		err := cc.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			n, err := scanCount(ctx, node, pattern)
			total.Add(n)
			return err
		})
		return total.Load(), err
	}
	return scanCount(ctx, client, pattern)
}

func scanCount(ctx context.Context, client redis.Cmdable, pattern string) (int64, error) {
	var n int64
	iter := client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("scan %s: %w", pattern, err)
	}
	return n, nil
}

func guardCmd(app *adminApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guard",
		Short: "Explain navigation guard decisions",
	}

	var (
		path    string
		role    string
		name    string
		details string
		anon    bool
	)
	simulate := &cobra.Command{
		Use:   "simulate",
		Short: "Decide a path for a hypothetical user without touching storage",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			snap, err := simulatedSnapshot(simulateInput{
				Anonymous: anon,
				Role:      role,
				Name:      name,
				Details:   details,
			})
			if err != nil {
				return err
			}
			return app.printDecision(path, guard.Decide(snap, path))
		},
	}
	simulate.Flags().StringVar(&path, "path", guard.PathHome, "route to evaluate")
	simulate.Flags().BoolVar(&anon, "anonymous", false, "evaluate as a signed-out visitor")
	simulate.Flags().StringVar(&role, "role", "", "jobseeker or employer; empty means not chosen")
	simulate.Flags().StringVar(&name, "name", "", "profile display name")
	simulate.Flags().StringVar(&details, "details", "", "role details as JSON")

	var userID string
	check := &cobra.Command{
		Use:   "check",
		Short: "Decide a path for a stored user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			db, err := app.database()
			if err != nil {
				return err
			}
			access := service.NewAccessService(service.AccessServiceOptions{
				Profiles: data.NewProfileRepo(db),
				Logger:   app.logger,
			})
			snap := access.Snapshot(cmd.Context(), &domainauth.Session{UserID: userID})
			if snap.Loading {
				return fmt.Errorf("profile lookup for %s failed; see logs", userID)
			}
			return app.printDecision(path, guard.Decide(snap, path))
		},
	}
	check.Flags().StringVar(&path, "path", guard.PathHome, "route to evaluate")
	check.Flags().StringVar(&userID, "user", "", "user ID to evaluate")

	cmd.AddCommand(simulate, check)
	return cmd
}

type simulateInput struct {
	Anonymous bool
	Role      string
	Name      string
	Details   string
}

func simulatedSnapshot(in simulateInput) (guard.Snapshot, error) {
	if in.Anonymous {
		return guard.Snapshot{}, nil
	}
	snap := guard.Snapshot{Authenticated: true, UserID: "simulated"}
	if in.Role == "" {
		return snap, nil
	}
	role, ok := domainauth.ParseRole(in.Role)
	if !ok {
		return guard.Snapshot{}, fmt.Errorf("invalid role %q", in.Role)
	}
	snap.Role = role
	snap.Profile = profile.Profile{UserID: snap.UserID, Role: role, Name: in.Name}
	if in.Details != "" {
		d, err := profile.DecodeDetails(role, []byte(in.Details))
		if err != nil {
			return guard.Snapshot{}, fmt.Errorf("decode details: %w", err)
		}
		snap.Profile.Details = d
	}
	return snap, nil
}

func (a *adminApp) printDecision(path string, d guard.Decision) error {
	return a.printJSON(map[string]any{
		"path":     guard.NormalizePath(path),
		"decision": d,
	})
}

func catalogCmd(app *adminApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the onboarding category catalog",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the catalog the server would load",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				c, err := bootstrap.LoadCatalog(app.cfg.Onboarding)
				if err != nil {
					return err
				}
				return app.printJSON(c)
			},
		},
		&cobra.Command{
			Use:   "validate <file>",
			Short: "Check a YAML catalog file",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				c, err := onboarding.LoadCatalogFile(args[0])
				if err != nil {
					return err
				}
				return app.printf("catalog ok: %d categories\n", len(c.Categories))
			},
		},
	)
	return cmd
}
