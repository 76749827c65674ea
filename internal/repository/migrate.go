package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrate applies all pending migrations. No pending migrations is not an error.
func (s *Store) Migrate(ctx context.Context) error {
	return s.withMigrator(ctx, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	})
}

// Rollback reverts the given number of migration steps.
func (s *Store) Rollback(ctx context.Context, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0, got %d", steps)
	}
	return s.withMigrator(ctx, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				return errors.New("no migrations to roll back")
			}
			return fmt.Errorf("failed to rollback %d step(s): %w", steps, err)
		}
		return nil
	})
}

// MigrationVersion returns the applied version; 0 when nothing has been applied.
func (s *Store) MigrationVersion(ctx context.Context) (version uint, dirty bool, err error) {
	err = s.withMigrator(ctx, func(m *migrate.Migrate) error {
		var verr error
		version, dirty, verr = m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			version, dirty = 0, false
			return nil
		}
		return verr
	})
	return version, dirty, err
}

func (s *Store) withMigrator(ctx context.Context, fn func(*migrate.Migrate) error) error {
	dir := "migrations/sqlite"
	if s.dialect == dialect.Postgres {
		dir = "migrations/postgres"
	}
	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	var (
		drv     database.Driver
		release func()
	)
	switch s.dialect {
	case dialect.Postgres:
		// the pgx migrate driver pins a connection and closes its *sql.DB; give it its own.
		db, err := sql.Open("pgx", s.dsn)
		if err != nil {
			_ = src.Close()
			return fmt.Errorf("failed to open migration connection: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			_ = src.Close()
			return fmt.Errorf("failed to open migration connection: %w", err)
		}
		drv, err = migratepgx.WithInstance(db, &migratepgx.Config{})
		if err != nil {
			_ = db.Close()
			_ = src.Close()
			return fmt.Errorf("failed to create migrate driver: %w", err)
		}
		release = func() { _ = drv.Close() }
	default:
		drv, err = migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
		if err != nil {
			_ = src.Close()
			return fmt.Errorf("failed to create migrate driver: %w", err)
		}
		// closing the sqlite driver would close the shared *sql.DB
		release = func() {}
	}
	defer release()
	defer func() { _ = src.Close() }()

	m, err := migrate.NewWithInstance("iofs", src, s.dialect, drv)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := fn(m); err != nil {
		return err
	}
	s.logger.Debug("migrations inspected", "dialect", s.dialect)
	return nil
}
