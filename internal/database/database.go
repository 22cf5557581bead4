// Package database opens the profile store through GORM. SQLite is the
// default; PostgreSQL and MySQL are selected with database.driver.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/config"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/database/migrations"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DB is an open profile store.
type DB struct {
	*gorm.DB
	driver string
	logger *slog.Logger
}

// PoolStatus is a point-in-time view of the connection pool.
type PoolStatus struct {
	Driver   string
	MaxOpen  int
	InUse    int
	Idle     int
	PingTime time.Duration
}

// New connects without touching the schema.
func New(cfg config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newQueryLogger(logger, cfg.LogLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", cfg.Driver, err)
	}
	pool, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", cfg.Driver, err)
	}

	// SQLite allows a single writer, and each connection to ":memory:" is
	// a separate database.
	if cfg.Driver == DriverSQLite {
		pool.SetMaxOpenConns(1)
		pool.SetMaxIdleConns(1)
	} else {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
		pool.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return &DB{DB: gdb, driver: cfg.Driver, logger: logger}, nil
}

// Open connects and brings the schema up to date.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	db, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	db.logger.Debug("profile store ready", slog.String("driver", db.driver))
	return db, nil
}

// Migrate applies pending schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	m := migrations.NewMigrator(db.DB, db.logger)
	m.RegisterAll(migrations.AllMigrations())
	if err := m.Up(ctx); err != nil {
		return fmt.Errorf("migrating profile store: %w", err)
	}
	return nil
}

// Driver is the configured driver name.
func (db *DB) Driver() string { return db.driver }

// Ping checks that the store answers.
func (db *DB) Ping(ctx context.Context) error {
	pool, err := db.DB.DB()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

// Check pings the store and reports the pool. The status is filled in
// even when the ping fails.
func (db *DB) Check(ctx context.Context) (PoolStatus, error) {
	status := PoolStatus{Driver: db.driver}
	pool, err := db.DB.DB()
	if err != nil {
		return status, err
	}

	start := time.Now()
	err = pool.PingContext(ctx)
	status.PingTime = time.Since(start)

	stats := pool.Stats()
	status.MaxOpen = stats.MaxOpenConnections
	status.InUse = stats.InUse
	status.Idle = stats.Idle
	return status, err
}

// Close releases the pool.
func (db *DB) Close() error {
	pool, err := db.DB.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}

// sqliteDSN appends the pragmas every pooled connection needs.
func sqliteDSN(dsn string) string {
	params := url.Values{}
	for _, pragma := range []string{"busy_timeout(10000)", "journal_mode(WAL)", "synchronous(NORMAL)", "foreign_keys(ON)"} {
		params.Add("_pragma", pragma)
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + params.Encode()
}
