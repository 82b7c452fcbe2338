package main

import (
	"fmt"
	"io"

	"github.com/go-extras/cobraflags"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/geocoder89/freelancehours/internal/config"
	"github.com/geocoder89/freelancehours/internal/db"
	"github.com/geocoder89/freelancehours/internal/domain/user"
	"github.com/geocoder89/freelancehours/internal/observability"
	"github.com/geocoder89/freelancehours/internal/repo/postgres"
)

const (
	databaseURLFlag = "database-url"
	emailFlag       = "email"
	nameFlag        = "name"
	dryRunFlag      = "dry-run"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "hoursctl",
		Short: "Operational commands for the freelancehours API",
		Long: `Operational commands for the freelancehours API.

Settings come from the same environment variables (and .env file) as the
server; flags override them.

Examples:
  hoursctl migrate                       # apply pending migrations
  hoursctl migrate --dry-run             # list embedded migrations
  hoursctl seed-admin --email me@x.com   # pre-provision the admin account`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newMigrateCommand())
	root.AddCommand(newSeedAdminCommand())
	return root
}

func databaseFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		databaseURLFlag: &cobraflags.StringFlag{
			Name:  databaseURLFlag,
			Value: "",
			Usage: "Postgres connection string. Defaults to DATABASE_URL or the DB_* settings",
		},
	}
}

func newMigrateCommand() *cobra.Command {
	flags := databaseFlags()

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dryRun, err := cmd.Flags().GetBool(dryRunFlag)
			if err != nil {
				return err
			}

			if dryRun {
				return listMigrations(cmd.OutOrStdout())
			}

			cfg := config.Load()
			log := observability.NewLogger(cfg.Env)

			pool, err := connect(cmd, cfg, flags)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := db.Migrate(cmd.Context(), pool, log)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(applied))
			return nil
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	cmd.Flags().Bool(dryRunFlag, false, "List the embedded migrations without connecting")
	return cmd
}

func newSeedAdminCommand() *cobra.Command {
	flags := databaseFlags()
	flags[emailFlag] = &cobraflags.StringFlag{
		Name:  emailFlag,
		Value: "",
		Usage: "Admin email. Defaults to ADMIN_EMAIL",
	}
	flags[nameFlag] = &cobraflags.StringFlag{
		Name:  nameFlag,
		Value: "",
		Usage: "Admin display name. Defaults to ADMIN_NAME",
	}

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Pre-provision the admin user so the first Google login links to it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			log := observability.NewLogger(cfg.Env)

			cfg = withAdminOverrides(cfg, flags[emailFlag].GetString(), flags[nameFlag].GetString())
			if cfg.AdminEmail == "" {
				return fmt.Errorf("no admin email: set ADMIN_EMAIL or pass --%s", emailFlag)
			}

			pool, err := connect(cmd, cfg, flags)
			if err != nil {
				return err
			}
			defer pool.Close()

			if _, err := db.Migrate(cmd.Context(), pool, log); err != nil {
				return err
			}

			users := postgres.NewUsersRepo(pool, nil)
			if err := db.EnsureAdminUser(cmd.Context(), users, cfg, log); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "admin %s ready\n", cfg.AdminEmail)
			return nil
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

// helpers

func connect(cmd *cobra.Command, cfg config.Config, flags map[string]cobraflags.Flag) (*pgxpool.Pool, error) {
	url := flags[databaseURLFlag].GetString()
	if url == "" {
		url = cfg.DBURL
	}

	pool, err := db.NewPool(cmd.Context(), url)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	return pool, nil
}

func withAdminOverrides(cfg config.Config, email, name string) config.Config {
	if email != "" {
		cfg.AdminEmail = email
	}
	if name != "" {
		cfg.AdminName = name
	}
	cfg.AdminEmail = user.NormalizeEmail(cfg.AdminEmail)
	return cfg
}

func listMigrations(w io.Writer) error {
	ms, err := db.Embedded()
	if err != nil {
		return err
	}

	for _, m := range ms {
		fmt.Fprintf(w, "%04d %s\n", m.Version, m.Description)
	}
	return nil
}
