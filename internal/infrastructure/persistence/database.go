package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erp/fincore/internal/infrastructure/config"
	"github.com/erp/fincore/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database is the fact store handle: the gorm session every repository
// shares and the pool underneath it.
type Database struct {
	DB     *gorm.DB
	Driver string
	pool   *sql.DB
}

// NewDatabase connects to the configured driver and verifies the connection.
// A nil logger silences gorm.
func NewDatabase(cfg *config.DatabaseConfig, log gormlogger.Interface) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	db, err := Open(dialector, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	d, err := wrap(db, cfg.Driver)
	if err != nil {
		return nil, err
	}
	configurePool(d.pool, cfg)

	if err := d.pool.Ping(); err != nil {
		_ = d.pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return d, nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath), nil
	case "postgres", "":
		return postgres.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// configurePool applies the pool limits. SQLite gets exactly one connection:
// it keeps an in-memory database alive and serialises writers.
func configurePool(pool *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.Driver == "sqlite" {
		pool.SetMaxOpenConns(1)
		return
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

func wrap(db *gorm.DB, driver string) (*Database, error) {
	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return &Database{DB: db, Driver: driver, pool: pool}, nil
}

// Open opens a gorm handle with the settings every repository relies on:
// driver errors are translated to gorm sentinels (ErrDuplicatedKey, ...)
// and timestamps are generated in UTC.
func Open(dialector gorm.Dialector, log gormlogger.Interface) (*gorm.DB, error) {
	if log == nil {
		log = gormlogger.Discard
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger:                 log,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// AutoMigrate creates or updates the schema from the persistence models.
// PostgreSQL deployments use the SQL migrations instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// PingContext reports whether the store answers. It backs /health.
func (d *Database) PingContext(ctx context.Context) error {
	return d.pool.PingContext(ctx)
}

func (d *Database) Close() error {
	return d.pool.Close()
}
