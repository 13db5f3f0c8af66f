package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pwarestaurants/internal/config"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

const sqliteBusyTimeoutMS = 5000

// ConnectDB opens the configured store, verifies the connection and
// applies any pending migrations.
func ConnectDB(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}

	// Verify the connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(sqlDB, cfg.DBDriver, log); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.WithField("driver", cfg.DBDriver).Info("Connected to the database successfully")
	return db, nil
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the store is still reachable.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Reset drops every table and re-applies all migrations.
func Reset(db *gorm.DB, driver string, log *logrus.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	m, release, err := newMigrator(sqlDB, driver)
	if err != nil {
		return err
	}
	defer release()
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Info("Database schema reset")
	return nil
}

// SQLiteDSN turns a file path into a mattn/go-sqlite3 DSN with foreign
// keys enforced and a busy timeout so concurrent writers wait.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_foreign_keys=on&_busy_timeout=%d", path, sep, sqliteBusyTimeoutMS)
}

func openDialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		if err := ensureDir(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		return sqlite.Open(SQLiteDSN(cfg.DatabaseURL)), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DatabaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// ensureDir creates the parent directory of a SQLite file.
func ensureDir(path string) error {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

func runMigrations(sqlDB *sql.DB, driver string, log *logrus.Logger) error {
	m, release, err := newMigrator(sqlDB, driver)
	if err != nil {
		return err
	}
	defer release()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Database migrations applied successfully")
	return nil
}

// newMigrator shares sqlDB with gorm. The sqlite3 driver closes the whole
// pool on Close, so it is never closed; the postgres driver runs on a
// dedicated connection that release hands back to the pool.
func newMigrator(sqlDB *sql.DB, driver string) (*migrate.Migrate, func(), error) {
	src, err := iofs.New(migrationFS, "migrations/"+driver)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	var (
		drv     migratedb.Driver
		name    string
		release = func() {}
	)
	switch driver {
	case config.DriverSQLite:
		drv, err = migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
		name = "sqlite3"
	case config.DriverPostgres:
		ctx := context.Background()
		conn, cerr := sqlDB.Conn(ctx)
		if cerr != nil {
			return nil, nil, fmt.Errorf("failed to reserve migration connection: %w", cerr)
		}
		release = func() { conn.Close() }
		drv, err = migratepg.WithConnection(ctx, conn, &migratepg.Config{})
		name = "postgres"
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, name, drv)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, release, nil
}
