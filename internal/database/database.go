package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3" // Required by the library implementation.
)

// Database holds the SQLite connection behind the user store. The schema
// is applied from the embedded migrations on open.
type Database struct {
	db  *sql.DB
	log *slog.Logger
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

func newMigrator(dbFile *sql.DB) (*migrate.Migrate, error) {
	target, err := sqlite3.WithInstance(dbFile, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("wrap users DB for migrations: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load users schema: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", target)
	if err != nil {
		return nil, fmt.Errorf("create users migrator: %w", err)
	}

	return m, nil
}

// New opens the SQLite file at dbPath and brings the users schema up to date.
func New(ctx context.Context, dbPath string, log *slog.Logger) (*Database, error) {
	dbFile, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open users DB: %w", err)
	}

	m, err := newMigrator(dbFile)
	if err != nil {
		_ = dbFile.Close()
		return nil, err
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_ = dbFile.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	d := &Database{db: dbFile, log: log}

	fields := []any{
		"dbPath", dbPath,
	}

	version, dirty, err := m.Version()
	switch {
	case err == nil:
		fields = append(fields, "schemaVersion", version, "dirty", dirty)
	case !errors.Is(err, migrate.ErrNilVersion):
		log.WarnContext(ctx, "Failed to fetch schema version",
			"error", err,
			"dbPath", dbPath)
	}

	count, err := d.UserCount(ctx)
	if err != nil {
		_ = dbFile.Close()
		return nil, err
	}

	log.InfoContext(ctx, "Users table is ready", append(fields, "userCount", count)...)

	return d, nil
}

// UserCount reports how many mock users are stored.
func (d *Database) UserCount(ctx context.Context) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, "select count(*) from users").Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}
