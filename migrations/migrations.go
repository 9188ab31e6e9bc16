// Package migrations embeds the schema for every supported SQL dialect and
// applies it with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed mysql/*.sql postgres/*.sql sqlite/*.sql
var FS embed.FS

// Dir returns the migration files of one dialect.
func Dir(driver string) (fs.FS, error) {
	switch driver {
	case "mysql", "postgres", "sqlite":
		return fs.Sub(FS, driver)
	default:
		return nil, fmt.Errorf("migrations: unsupported driver %q", driver)
	}
}

// New opens a dedicated connection for driver/dsn and returns a migrator over
// the embedded files. Closing the migrator closes that connection.
func New(driver, dsn string) (*migrate.Migrate, error) {
	const op = "migrations.New"

	if _, err := Dir(driver); err != nil {
		return nil, err
	}

	src, err := iofs.New(FS, driver)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dbDriver, err := withInstance(driver, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, dbDriver)
	if err != nil {
		dbDriver.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

func withInstance(driver string, db *sql.DB) (database.Driver, error) {
	switch driver {
	case "mysql":
		return mysql.WithInstance(db, &mysql.Config{})
	case "postgres":
		return postgres.WithInstance(db, &postgres.Config{})
	default:
		return sqlite.WithInstance(db, &sqlite.Config{})
	}
}

// Up applies every pending migration. An up-to-date schema is not an error.
func Up(driver, dsn string) error {
	m, err := New(driver, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations.Up: %w", err)
	}
	return nil
}
