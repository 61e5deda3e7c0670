package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/Togather-Foundation/voluntier/internal/audit"
	"github.com/Togather-Foundation/voluntier/internal/config"
	"github.com/Togather-Foundation/voluntier/internal/storage/backend"
	"github.com/spf13/cobra"
)

type adminCreateOptions struct {
	username string
	password string
}

func newAdminCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	create := &adminCreateOptions{}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator account",
		Long: `Create an administrator account in the configured database.

The password is read from --password or, when that is empty, from the
ADMIN_PASSWORD environment variable.

Examples:
  server admin create --username coordinator --password 's3cret-pass'
  ADMIN_PASSWORD='s3cret-pass' server admin create --username coordinator`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password := create.password
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			if create.username == "" || password == "" {
				return errors.New("--username and a password (--password or ADMIN_PASSWORD) are required")
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			logger := config.NewLogger(cfg.Logging)

			if err := backend.Migrate(cmd.Context(), cfg.Database, ""); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			store, err := backend.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer store.Close()

			svc := newUserService(cfg, store, newTokenManager(cfg), audit.NewLogger(logger), logger)
			user, err := svc.CreateAdmin(cmd.Context(), create.username, password)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %q (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&create.username, "username", "", "admin username")
	createCmd.Flags().StringVar(&create.password, "password", "", "admin password (default: $ADMIN_PASSWORD)")

	cmd.AddCommand(createCmd)
	return cmd
}
