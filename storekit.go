package storekit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/fernandezvara/storekit/hooks"
)

// DB is a pooled connection factory for one logical database. It wraps
// bun.DB and carries the configuration it was opened with.
type DB struct {
	*bun.DB
	config Config
}

// Open builds a pooled connection factory for the configured database.
// No connection is established here: the pool dials on first borrow, so
// an unreachable store surfaces as an acquisition error on the first
// statement, bounded by the dial timeout. Use Ping to verify eagerly.
func Open(cfg Config) (*DB, error) {
	cfg.applyDefaults()

	if cfg.URL == "" && cfg.Database == "" {
		return nil, &Error{
			Code:    CodeConnectionFailed,
			Message: "database name or URL is required",
			Op:      "Open",
		}
	}

	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN()),
		pgdriver.WithDialTimeout(cfg.DialTimeout),
		pgdriver.WithReadTimeout(cfg.ReadTimeout),
		pgdriver.WithWriteTimeout(cfg.WriteTimeout),
	)

	sqlDB := sql.OpenDB(connector)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	bunDB := bun.NewDB(sqlDB, pgdialect.New())

	db := &DB{
		DB:     bunDB,
		config: cfg,
	}

	if cfg.Logger != nil && (cfg.LogQueries || cfg.LogSlowQueries > 0) {
		bunDB.AddQueryHook(hooks.NewLoggerHook(cfg.Logger, cfg.LogQueries, cfg.LogSlowQueries))
	}
	if cfg.MetricsRegistry != nil {
		hook, err := hooks.NewMetricsHook(cfg.MetricsRegistry, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("storekit: failed to create metrics hook: %w", err)
		}
		bunDB.AddQueryHook(hook)
		if err := hooks.RegisterPoolCollector(cfg.MetricsRegistry, cfg.Database, sqlDB.Stats); err != nil {
			return nil, fmt.Errorf("storekit: failed to register pool collector: %w", err)
		}
	}
	if cfg.Tracer != nil {
		bunDB.AddQueryHook(hooks.NewTracingHook(cfg.Tracer, cfg.Database))
	}

	return db, nil
}

// Close drains the pool and releases all connections.
func (db *DB) Close() error {
	return db.DB.Close()
}

// Ping verifies the database is reachable, borrowing (and establishing,
// if necessary) one connection.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, db.config.DialTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return wrapError(err, "Ping")
	}
	return nil
}

// Stats returns connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// Bun returns the underlying bun.DB for direct access
func (db *DB) Bun() *bun.DB {
	return db.DB
}

// Config returns the configuration this pool was opened with
func (db *DB) Config() Config {
	return db.config
}

// IDB is the interface for both DB and Tx to enable function reuse
type IDB interface {
	bun.IDB
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
	NewRaw(query string, args ...any) *bun.RawQuery
	NewCreateTable() *bun.CreateTableQuery
	NewDropTable() *bun.DropTableQuery
	NewCreateIndex() *bun.CreateIndexQuery
	NewDropIndex() *bun.DropIndexQuery
	NewTruncateTable() *bun.TruncateTableQuery
	NewAddColumn() *bun.AddColumnQuery
	NewDropColumn() *bun.DropColumnQuery
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Ensure DB implements IDB
var _ IDB = (*DB)(nil)
