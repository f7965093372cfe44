/*
Package storekit provides a connection-pooled data access layer for
PostgreSQL-backed Go applications.

StoreKit wraps Bun ORM with additional features:
  - Named connection pools managed by a registry, opened lazily
  - Migration execution with checksum verification
  - Database and schema lifecycle (create, drop, reset, introspection)
  - Transaction support with auto commit/rollback and savepoints
  - Batch statement execution with per-row result reporting
  - Generic CRUD helpers using Go generics
  - Rich error handling with PostgreSQL error parsing
  - Configurable observability (logging, metrics, tracing)

# Basic Usage

	cfg, err := storekit.LoadConfig("")
	if err != nil {
	    log.Fatal(err)
	}
	cfg.Logger = slog.Default()

	reg := storekit.NewRegistry(cfg)
	defer reg.CloseAll()

	db, err := reg.Get("shopdb")
	if err != nil {
	    log.Fatal(err)
	}

Pools are constructed on first use. The same *DB is returned for every
subsequent Get with the same name.

# Migrations

	migrations := []storekit.Migration{
	    {ID: "001", Description: "Create customer", SQL: "CREATE TABLE customer (...)"},
	    {ID: "002", Description: "Seed products", SQL: "INSERT INTO product ..."},
	}

	result, err := db.Migrate(ctx, migrations)

Each migration runs in its own transaction and is recorded with a
checksum. Already applied migrations are skipped; a checksum mismatch
or SQL failure aborts the run.

# Lifecycle

	lc := storekit.NewLifecycle(reg, migrations)

	db, err := lc.InitSchema(ctx, "shopdb") // create if missing, then migrate
	err = lc.Reset(ctx, "shopdb")           // drop schema contents, re-migrate
	err = lc.DropDatabase(ctx, "shopdb")

# Generic CRUD

	customer, err := storekit.FindByPK[Customer](ctx, db, 42)

	customers, err := storekit.FindAll[Customer](ctx, db, func(q *bun.SelectQuery) *bun.SelectQuery {
	    return q.Where("name ILIKE ?", "%smith%").Limit(20)
	})

	err = storekit.Create(ctx, db, &customer)
	err = storekit.Update(ctx, db, &customer)
	err = storekit.Delete(ctx, db, &customer)

# Transactions

Callback-based (auto commit/rollback):

	err := db.Transaction(ctx, func(tx *storekit.Tx) error {
	    if err := storekit.Create(ctx, tx, &order); err != nil {
	        return err // rollback
	    }
	    return nil // commit
	})

Nested Transaction calls inside a transaction run under savepoints: a
failed inner callback rolls back only the inner work. Manual Begin,
Commit, Rollback and named savepoints are also available.

# Batches

	results, err := storekit.ExecBatch(ctx, db, insertSQL, rows)

ExecBatch executes one statement template per parameter row and returns
the affected-row count for each. On failure the returned error is a
*BatchError reporting the failing row index and the counts gathered
before it.

# Errors

All errors returned by storekit are *Error values with a stable Code,
populated from the PostgreSQL error where available:

	if storekit.IsDuplicate(err) {
	    // unique constraint violation
	}
	if storekit.IsNotFound(err) {
	    // no rows
	}
*/
package storekit
