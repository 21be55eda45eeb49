// Package migration applies versioned SQL migrations with golang-migrate.
// Sources are read from an fs.FS (usually embedded) through the iofs
// driver; the database driver is chosen from the gorm connection's dialect.
//
//	err := migration.Up(db, migrations.FS, migrations.Dir(db.Driver()), migration.DriverFor(db.Driver()))
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

// DriverFunc creates a migrate database driver from sql.DB.
type DriverFunc func(*sql.DB) (migratedb.Driver, error)

// Postgres is the DriverFunc for postgres connections.
func Postgres(db *sql.DB) (migratedb.Driver, error) {
	return migratepg.WithInstance(db, &migratepg.Config{})
}

// SQLite is the DriverFunc for sqlite connections.
func SQLite(db *sql.DB) (migratedb.Driver, error) {
	return migratesqlite.WithInstance(db, &migratesqlite.Config{})
}

// DriverFor maps a database driver name to its DriverFunc.
func DriverFor(driver string) DriverFunc {
	if driver == "sqlite" {
		return SQLite
	}
	return Postgres
}

// Up applies all pending migrations. No pending migrations is not an error.
func Up(gormDB *gorm.DB, source fs.FS, path string, driverFunc DriverFunc) error {
	m, err := newMigrator(gormDB, source, path, driverFunc)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back every applied migration.
func Down(gormDB *gorm.DB, source fs.FS, path string, driverFunc DriverFunc) error {
	m, err := newMigrator(gormDB, source, path, driverFunc)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Steps applies n migrations: positive goes up, negative rolls back.
func Steps(gormDB *gorm.DB, source fs.FS, path string, n int, driverFunc DriverFunc) error {
	m, err := newMigrator(gormDB, source, path, driverFunc)
	if err != nil {
		return err
	}
	if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate steps: %w", err)
	}
	return nil
}

// Version returns the current version and dirty flag. A database with no
// applied migration reports version 0.
func Version(gormDB *gorm.DB, source fs.FS, path string, driverFunc DriverFunc) (uint, bool, error) {
	m, err := newMigrator(gormDB, source, path, driverFunc)
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// newMigrator builds a migrator over the shared pool. Callers must not call
// Close on it: that would close the gorm connection too.
func newMigrator(gormDB *gorm.DB, source fs.FS, path string, driverFunc DriverFunc) (*migrate.Migrate, error) {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	driver, err := driverFunc(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("create database driver: %w", err)
	}
	src, err := iofs.New(source, path)
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, gormDB.Dialector.Name(), driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
