package storekit

import (
	"context"
	"fmt"
)

// maintenanceDatabase is the database admin statements connect through.
// CREATE DATABASE and DROP DATABASE cannot run on a connection bound to
// the database they target.
const maintenanceDatabase = "postgres"

// Lifecycle drives a database's schema through its life: creation,
// migration to the current version, destructive reset for test
// isolation, and teardown. Pools come from the registry so lifecycle
// operations and regular data access share configuration.
type Lifecycle struct {
	registry   *Registry
	migrations []Migration
}

// NewLifecycle creates a lifecycle manager applying the given ordered
// migrations.
func NewLifecycle(registry *Registry, migrations []Migration) *Lifecycle {
	return &Lifecycle{
		registry:   registry,
		migrations: migrations,
	}
}

// CreateDatabase creates the named database if it does not exist.
func (l *Lifecycle) CreateDatabase(ctx context.Context, name string) error {
	admin, err := l.registry.Get(maintenanceDatabase)
	if err != nil {
		return err
	}

	exists, err := databaseExists(ctx, admin, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	// Database names cannot be bound as parameters; they come from
	// configuration, never from user input, and are quoted regardless.
	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+quoteIdent(name)); err != nil {
		return wrapError(err, "CreateDatabase")
	}
	return nil
}

// DropDatabase drops the named database, disconnecting any remaining
// sessions. The registry's pool for that name is closed first so this
// process does not hold it open. Dropping an absent database is a no-op.
func (l *Lifecycle) DropDatabase(ctx context.Context, name string) error {
	if err := l.registry.Close(name); err != nil {
		return err
	}

	admin, err := l.registry.Get(maintenanceDatabase)
	if err != nil {
		return err
	}

	if _, err := admin.ExecContext(ctx, "DROP DATABASE IF EXISTS "+quoteIdent(name)+" WITH (FORCE)"); err != nil {
		return wrapError(err, "DropDatabase")
	}
	return nil
}

// InitSchema brings the named database to the current schema version:
// it creates the database if absent, then applies pending migrations in
// order. Calling it on an up-to-date database applies nothing, so it is
// safe to run at every process start.
func (l *Lifecycle) InitSchema(ctx context.Context, name string) (*MigrationResult, error) {
	if err := l.CreateDatabase(ctx, name); err != nil {
		return nil, err
	}

	db, err := l.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return db.Migrate(ctx, l.migrations)
}

// Reset drops every managed schema object in the named database and
// reapplies all migrations from scratch. It exists for test isolation
// between independent test cases; it has no place in a production path.
func (l *Lifecycle) Reset(ctx context.Context, name string) (*MigrationResult, error) {
	db, err := l.registry.Get(name)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "DROP SCHEMA public CASCADE"); err != nil {
		return nil, wrapError(err, "Reset.DropSchema")
	}
	if _, err := db.ExecContext(ctx, "CREATE SCHEMA public"); err != nil {
		return nil, wrapError(err, "Reset.CreateSchema")
	}

	return db.Migrate(ctx, l.migrations)
}

func databaseExists(ctx context.Context, admin *DB, name string) (bool, error) {
	var one int
	err := admin.NewRaw("SELECT 1 FROM pg_database WHERE datname = ?", name).Scan(ctx, &one)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, wrapError(err, "CreateDatabase.Exists")
	}
	return true, nil
}

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name     string `bun:"column_name"`
	DataType string `bun:"data_type"`
	Nullable bool   `bun:"is_nullable"`
}

// Tables lists the user tables of the connected database, sorted by
// name. The migration bookkeeping table is included; it is a table like
// any other.
func (db *DB) Tables(ctx context.Context) ([]string, error) {
	var tables []string
	err := db.NewRaw(`
        SELECT table_name FROM information_schema.tables
        WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
        ORDER BY table_name
    `).Scan(ctx, &tables)
	if err != nil {
		return nil, wrapError(err, "Tables")
	}
	return tables, nil
}

// Columns lists the columns of the named table in ordinal order.
func (db *DB) Columns(ctx context.Context, table string) ([]ColumnInfo, error) {
	var rows []struct {
		Name     string `bun:"column_name"`
		DataType string `bun:"data_type"`
		Nullable string `bun:"is_nullable"`
	}
	err := db.NewRaw(`
        SELECT column_name, data_type, is_nullable
        FROM information_schema.columns
        WHERE table_schema = 'public' AND table_name = ?
        ORDER BY ordinal_position
    `, table).Scan(ctx, &rows)
	if err != nil {
		return nil, wrapError(err, "Columns")
	}

	cols := make([]ColumnInfo, len(rows))
	for i, row := range rows {
		cols[i] = ColumnInfo{
			Name:     row.Name,
			DataType: row.DataType,
			Nullable: row.Nullable == "YES",
		}
	}
	if len(cols) == 0 {
		return nil, &Error{
			Code:    CodeNotFound,
			Message: fmt.Sprintf("table %s not found", table),
			Op:      "Columns",
			Table:   table,
		}
	}
	return cols, nil
}
