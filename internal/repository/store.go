package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/attest-tracker/internal/common"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ConfigFrom maps the env-level database settings onto a store Config.
func ConfigFrom(c common.DatabaseConfig) Config {
	return Config{
		DSN:              c.DSN,
		MaxConns:         c.MaxConns,
		MinConns:         c.MinConns,
		MaxConnLifetime:  c.MaxConnLifetime,
		MaxConnIdleTime:  c.MaxConnIdleTime,
		DialTimeout:      c.DialTimeout,
		StatementTimeout: c.StatementTimeout,
	}
}

// Store is an explicitly opened handle to the document store.
// It must be closed by whoever opened it.
type Store struct {
	dialect string
	dsn     string
	db      *sql.DB
	pool    *pgxpool.Pool
	drv     *entsql.Driver
	logger  *slog.Logger
}

// Open connects to Postgres (postgres:// URLs) or SQLite (sqlite:// or file: DSNs).
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d, dsn, err := parseDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	switch d {
	case dialect.Postgres:
		return openPostgres(ctx, cfg, dsn, logger)
	default:
		return openSQLite(ctx, cfg, dsn, logger)
	}
}

func parseDSN(raw string) (string, string, error) {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return dialect.Postgres, raw, nil
	case strings.HasPrefix(raw, "sqlite://"):
		return dialect.SQLite, sqliteDSN(strings.TrimPrefix(raw, "sqlite://")), nil
	case strings.HasPrefix(raw, "file:"):
		return dialect.SQLite, sqliteDSN(raw), nil
	default:
		return "", "", common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unsupported DB_URL %q", raw), common.ErrInvalidInput)
	}
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func openPostgres(ctx context.Context, cfg Config, dsn string, logger *slog.Logger) (*Store, error) {
	logger.Info("connecting to database", "dialect", dialect.Postgres)
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, common.StorageError("parse dsn", err)
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "attest-tracker"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, common.StorageError("connect", err)
	}

	// Wrap pool as *sql.DB for the ent driver
	db := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to database")
	return &Store{
		dialect: dialect.Postgres,
		dsn:     dsn,
		db:      db,
		pool:    pool,
		drv:     entsql.OpenDB(dialect.Postgres, db),
		logger:  logger,
	}, nil
}

func openSQLite(ctx context.Context, cfg Config, dsn string, logger *slog.Logger) (*Store, error) {
	logger.Info("opening database", "dialect", dialect.SQLite)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, common.StorageError("open", err)
	}
	// one writer at a time; concurrent callers queue on the pool instead of failing with SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("failed to open database", "error", err)
		return nil, common.StorageError("open", err)
	}
	logger.Info("successfully opened database")
	return &Store{
		dialect: dialect.SQLite,
		dsn:     dsn,
		db:      db,
		drv:     entsql.OpenDB(dialect.SQLite, db),
		logger:  logger,
	}, nil
}

// Dialect returns the ent dialect name of the store.
func (s *Store) Dialect() string { return s.dialect }

// Driver exposes the ent SQL driver.
func (s *Store) Driver() *entsql.Driver { return s.drv }

// Close closes the database connections gracefully
func (s *Store) Close() {
	if s == nil {
		return
	}
	s.logger.Info("closing database connections")
	if err := s.drv.Close(); err != nil {
		s.logger.Error("failed to close database", "error", err)
	}
	if s.pool != nil {
		s.pool.Close()
	}
	s.logger.Info("database connections closed")
}

// HealthCheck pings using database/sql to catch DSN issues early.
func (s *Store) HealthCheck(ctx context.Context, timeout time.Duration) error {
	s.logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := s.db.PingContext(ctx); err != nil {
		return common.StorageError("ping", err)
	}
	s.logger.Debug("database ping successful")
	return nil
}

// sqliteTimeLayout is fixed width so created_at sorts lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timeArg renders t the way the dialect's created_at column expects.
func (s *Store) timeArg(t time.Time) any {
	if s.dialect == dialect.SQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t
}
