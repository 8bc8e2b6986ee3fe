// Package migration applies the PostgreSQL schema shipped inside the binary.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var files embed.FS

const sourceDir = "sql"

// Migrator moves a PostgreSQL schema between the embedded versions.
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// New opens the embedded source against db. The caller keeps ownership of db.
func New(db *sql.DB, logger *zap.Logger) (*Migrator, error) {
	source, err := iofs.New(files, sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: "fincore_schema_migrations"})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{m: m, logger: logger}, nil
}

// apply runs one golang-migrate operation. ErrNoChange is success; on
// success the resulting schema version is logged.
func (m *Migrator) apply(action string, run func() error, fields ...zap.Field) error {
	m.logger.Info("Migrating schema", append(fields, zap.String("action", action))...)
	err := run()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		m.logger.Info("Schema already up to date", zap.String("action", action))
		return nil
	case err != nil:
		return fmt.Errorf("migration %s failed: %w", action, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Schema migrated",
		zap.String("action", action),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	return m.apply("up", m.m.Up)
}

// Down rolls back every migration.
func (m *Migrator) Down() error {
	return m.apply("down", m.m.Down)
}

// Steps applies n migrations forward, or -n backward when n is negative.
func (m *Migrator) Steps(n int) error {
	return m.apply("step", func() error { return m.m.Steps(n) }, zap.Int("steps", n))
}

// GoTo migrates up or down to version.
func (m *Migrator) GoTo(version uint) error {
	return m.apply("goto", func() error { return m.m.Migrate(version) }, zap.Uint("target_version", version))
}

// Version returns the applied version; 0 means an empty schema.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied and clean without running anything.
// It repairs a schema left dirty by a failed migration.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing schema version", zap.Int("version", version))
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Close releases the embedded source and the database driver.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.m.Close()
	return multierr.Combine(sourceErr, dbErr)
}

// List returns the embedded migration names in apply order.
func List() ([]string, error) {
	entries, err := fs.ReadDir(files, sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			names = append(names, base)
		}
	}
	slices.Sort(names)
	return names, nil
}
