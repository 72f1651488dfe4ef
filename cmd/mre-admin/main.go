// Package main provides the mre-admin CLI, an operator tool for the
// My Race Engineer backend: schema migrations and manual rematch runs.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"my-race-engineer/internal/config"
	"my-race-engineer/internal/db"
	"my-race-engineer/internal/identity"
	"my-race-engineer/internal/logger"
	"my-race-engineer/internal/matching"
	"my-race-engineer/internal/metrics"
	"my-race-engineer/internal/repository"
	"my-race-engineer/internal/service"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	rematchUserID string
	rematchSince  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "mre-admin",
	Short: "Operator tasks for the My Race Engineer backend",
	Long: `mre-admin runs maintenance tasks against the My Race Engineer database.

It reads the same environment variables as the API server (DATABASE_URL,
MIGRATIONS_PATH, matching thresholds) and connects directly to PostgreSQL.`,
	SilenceUsage: true,
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "up",
		Short:   "Apply all pending migrations",
		Example: `  mre-admin migrate up`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			logger.Init(cfg.Logger)
			if err := db.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
				return fmt.Errorf("applying migrations: %w", err)
			}
			logger.Info().Msg("migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "down",
		Short:   "Roll back the most recent migration",
		Example: `  mre-admin migrate down`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			logger.Init(cfg.Logger)
			if err := db.MigrateDown(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
				return fmt.Errorf("rolling back migration: %w", err)
			}
			logger.Info().Msg("migration rolled back")
			return nil
		},
	})

	return cmd
}

func newRematchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rematch",
		Short: "Re-evaluate racer profiles against stored race entries",
		Long: `Re-run identity matching for racer profiles.

Without flags every profile is swept against its unlinked race entries.
Use --user to rematch a single user, or --since to restrict the sweep to
profiles updated within the given duration.`,
		Example: `  mre-admin rematch
  mre-admin rematch --user 123e4567-e89b-12d3-a456-426614174000
  mre-admin rematch --since 24h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRematch(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&rematchUserID, "user", "", "Rematch a single user by ID")
	cmd.Flags().DurationVar(&rematchSince, "since", 0, "Only sweep profiles updated within this duration")

	return cmd
}

func runRematch(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger.Init(cfg.Logger)

	database, err := db.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	profileRepo := repository.NewProfileRepository(database.Pool)
	driverRepo := repository.NewDriverRepository(database.Pool)
	eventRepo := repository.NewEventRepository(database.Pool)
	entryRepo := repository.NewEntryRepository(database.Pool)
	linkRepo := repository.NewLinkRepository(database.Pool)

	matcher := identity.NewMatcher(matching.DefaultConfig.WithOverrides(cfg.Matching.FuzzyThreshold, cfg.Matching.ExactThreshold))
	// Nothing scrapes a one-shot CLI run; keep metrics off the default registry.
	m := metrics.New(prometheus.NewRegistry())
	resolution := service.NewResolutionService(profileRepo, driverRepo, eventRepo, entryRepo, linkRepo, matcher, m, nil)

	if rematchUserID != "" {
		userID, err := uuid.Parse(rematchUserID)
		if err != nil {
			return fmt.Errorf("invalid user ID %q: %w", rematchUserID, err)
		}
		stats, err := resolution.RematchUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("rematching user: %w", err)
		}
		fmt.Printf("user %s: %d candidates evaluated, %d links created, %d links updated\n",
			stats.UserID, stats.CandidatesEvaluated, stats.LinksCreated, stats.LinksUpdated)
		return nil
	}

	var since time.Time
	if rematchSince > 0 {
		since = time.Now().UTC().Add(-rematchSince)
	}

	results, err := resolution.RematchSweep(ctx, since)
	if err != nil {
		return fmt.Errorf("running rematch sweep: %w", err)
	}

	var created, updated, evaluated int
	for _, stats := range results {
		evaluated += stats.CandidatesEvaluated
		created += stats.LinksCreated
		updated += stats.LinksUpdated
	}
	fmt.Printf("%d profiles swept: %d candidates evaluated, %d links created, %d links updated\n",
		len(results), evaluated, created, updated)
	return nil
}

func main() {
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newRematchCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
