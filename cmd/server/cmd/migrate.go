package cmd

import (
	"fmt"

	"github.com/Togather-Foundation/voluntier/internal/storage/backend"
	"github.com/spf13/cobra"
)

type migrateOptions struct {
	migrationsPath string
	steps          int
}

func newMigrateCommand(opts *globalOptions) *cobra.Command {
	mopts := &migrateOptions{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply or roll back database migrations for the configured DATABASE_URL.

Migrations for both drivers are embedded in the binary; --path points at a
directory of migration files instead.`,
	}
	cmd.PersistentFlags().StringVar(&mopts.migrationsPath, "path", "", "migrations directory (default: embedded migrations)")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if err := backend.Migrate(cmd.Context(), cfg.Database, mopts.migrationsPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if err := backend.MigrateDown(cmd.Context(), cfg.Database, mopts.migrationsPath, mopts.steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", mopts.steps)
			return nil
		},
	}
	down.Flags().IntVar(&mopts.steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}
