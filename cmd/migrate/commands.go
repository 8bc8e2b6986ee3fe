package main

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/erp/fincore/internal/infrastructure/config"
	"github.com/erp/fincore/internal/infrastructure/logger"
	"github.com/erp/fincore/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli holds what the subcommands share once flags are parsed.
type cli struct {
	logLevel string
	log      *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the fincore PostgreSQL schema",
		Long: `migrate applies the SQL migrations embedded in this binary.

The connection comes from the server configuration (config.toml and the
FINCORE_DATABASE_* environment variables). SQLite deployments create
their schema with database.auto_migrate instead.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			log, err := logger.New(logger.Config{
				Level:      c.logLevel,
				Format:     "console",
				Output:     "stderr",
				TimeLayout: "2006-01-02 15:04:05",
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = c.log.Sync()
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withMigrator(cmd, (*migration.Migrator).Up)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withMigrator(cmd, (*migration.Migrator).Down)
			},
		},
		&cobra.Command{
			Use:     "step <n>",
			Short:   "Apply n migrations, or roll back when n is negative",
			Example: "  migrate step 1\n  migrate step -- -1",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil || n == 0 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return c.withMigrator(cmd, func(m *migration.Migrator) error { return m.Steps(n) })
			},
		},
		&cobra.Command{
			Use:   "goto <version>",
			Short: "Migrate up or down to a version",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return c.withMigrator(cmd, func(m *migration.Migrator) error { return m.GoTo(uint(version)) })
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Mark a version as applied without running it",
			Long:  "force repairs a schema left dirty by a failed migration. Check the schema by hand first.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil || version < -1 {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return c.withMigrator(cmd, func(m *migration.Migrator) error { return m.Force(version) })
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withMigrator(cmd, func(m *migration.Migrator) error {
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					if version == 0 {
						cmd.Println("no migrations applied")
						return nil
					}
					cmd.Printf("version %d (dirty: %t)\n", version, dirty)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the embedded migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				names, err := migration.List()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			},
		},
	)
	return root
}

// withMigrator connects to the configured PostgreSQL database and runs fn
// against the embedded migrations.
func (c *cli) withMigrator(cmd *cobra.Command, fn func(*migration.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("driver %q has no SQL migrations; use database.auto_migrate", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(cmd.Context()); err != nil {
		return fmt.Errorf("failed to reach database: %w", err)
	}

	c.log.Info("Running migration command",
		zap.String("command", cmd.Name()),
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)
	m, err := migration.New(db, c.log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			c.log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return fn(m)
}
