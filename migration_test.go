package storekit

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestChecksumSQL(t *testing.T) {
	a := checksumSQL("CREATE TABLE a (id INT)")
	b := checksumSQL("CREATE TABLE a (id INT)")
	c := checksumSQL("CREATE TABLE a (id BIGINT)")

	if a != b {
		t.Error("Expected identical SQL to produce identical checksums")
	}
	if a == c {
		t.Error("Expected different SQL to produce different checksums")
	}
	if len(a) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(a))
	}
}

func TestMigrate_OutOfOrder(t *testing.T) {
	// The ordering guard fires before any statement runs, so a lazy
	// pool that never dials is enough.
	db, err := Open(Config{Database: "unused", DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	_, err = db.Migrate(context.Background(), []Migration{
		{ID: "002", Description: "second", SQL: "SELECT 2"},
		{ID: "001", Description: "first", SQL: "SELECT 1"},
	})
	if err == nil {
		t.Fatal("Expected error for out-of-order migrations")
	}
	if !strings.Contains(err.Error(), "out of order") {
		t.Errorf("Expected ordering error, got %v", err)
	}
}

func TestMigrate_DuplicateID(t *testing.T) {
	db, err := Open(Config{Database: "unused", DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	_, err = db.Migrate(context.Background(), []Migration{
		{ID: "001", SQL: "SELECT 1"},
		{ID: "001", SQL: "SELECT 1"},
	})
	if err == nil {
		t.Fatal("Expected error for duplicate migration IDs")
	}
}

func testMigrations() []Migration {
	return []Migration{
		{
			ID:          "001",
			Description: "Create accounts table",
			SQL: `CREATE TABLE storekit_test_accounts (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(100) NOT NULL
			)`,
		},
		{
			ID:          "002",
			Description: "Add balance column",
			SQL:         "ALTER TABLE storekit_test_accounts ADD COLUMN balance NUMERIC(10,2) NOT NULL DEFAULT 0",
		},
	}
}

func cleanupMigrations(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()
	db.ExecContext(ctx, "DROP TABLE IF EXISTS storekit_test_accounts")
	db.ExecContext(ctx, "DELETE FROM _storekit_migrations WHERE id IN ('001', '002', '003')")
}

func TestIntegration_Migrate(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	ctx := context.Background()
	cleanupMigrations(t, db)
	t.Cleanup(func() { cleanupMigrations(t, db) })

	result, err := db.Migrate(ctx, testMigrations())
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	if len(result.Applied) != 2 {
		t.Fatalf("Expected 2 applied migrations, got %d", len(result.Applied))
	}
	if len(result.Skipped) != 0 {
		t.Errorf("Expected no skipped migrations, got %v", result.Skipped)
	}
	if result.Applied[0].ID != "001" || result.Applied[1].ID != "002" {
		t.Errorf("Expected ascending application order, got %+v", result.Applied)
	}

	// The migrated table is usable.
	if _, err := db.ExecContext(ctx, "INSERT INTO storekit_test_accounts (name, balance) VALUES ('a', 10.50)"); err != nil {
		t.Errorf("Expected migrated table to accept inserts: %v", err)
	}
}

func TestIntegration_MigrateIdempotent(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	ctx := context.Background()
	cleanupMigrations(t, db)
	t.Cleanup(func() { cleanupMigrations(t, db) })

	if _, err := db.Migrate(ctx, testMigrations()); err != nil {
		t.Fatalf("First migrate failed: %v", err)
	}

	result, err := db.Migrate(ctx, testMigrations())
	if err != nil {
		t.Fatalf("Second migrate failed: %v", err)
	}
	if len(result.Applied) != 0 {
		t.Errorf("Expected nothing applied on re-run, got %+v", result.Applied)
	}
	if len(result.Skipped) != 2 {
		t.Errorf("Expected 2 skipped, got %v", result.Skipped)
	}
}

func TestIntegration_MigrateIncremental(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	ctx := context.Background()
	cleanupMigrations(t, db)
	t.Cleanup(func() { cleanupMigrations(t, db) })

	migrations := testMigrations()
	if _, err := db.Migrate(ctx, migrations[:1]); err != nil {
		t.Fatalf("First migrate failed: %v", err)
	}

	result, err := db.Migrate(ctx, migrations)
	if err != nil {
		t.Fatalf("Incremental migrate failed: %v", err)
	}
	if len(result.Applied) != 1 || result.Applied[0].ID != "002" {
		t.Errorf("Expected only 002 applied, got %+v", result.Applied)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != "001" {
		t.Errorf("Expected 001 skipped, got %v", result.Skipped)
	}
}

func TestIntegration_MigrateChecksumMismatch(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	ctx := context.Background()
	cleanupMigrations(t, db)
	t.Cleanup(func() { cleanupMigrations(t, db) })

	migrations := testMigrations()
	if _, err := db.Migrate(ctx, migrations); err != nil {
		t.Fatalf("First migrate failed: %v", err)
	}

	migrations[1].SQL = "ALTER TABLE storekit_test_accounts ADD COLUMN changed INT"
	_, err := db.Migrate(ctx, migrations)
	if err == nil {
		t.Fatal("Expected checksum mismatch error")
	}
	if !strings.Contains(err.Error(), "checksum") {
		t.Errorf("Expected checksum error, got %v", err)
	}
}

func TestIntegration_MigrateFailureAborts(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	ctx := context.Background()
	cleanupMigrations(t, db)
	t.Cleanup(func() { cleanupMigrations(t, db) })

	migrations := testMigrations()
	migrations = append(migrations[:1], Migration{
		ID:          "002",
		Description: "broken",
		SQL:         "THIS IS NOT SQL",
	}, Migration{
		ID:          "003",
		Description: "never reached",
		SQL:         "ALTER TABLE storekit_test_accounts ADD COLUMN later INT",
	})

	_, err := db.Migrate(ctx, migrations)
	if err == nil {
		t.Fatal("Expected migrate to fail on broken SQL")
	}

	// 001 stays applied, the broken 002 is not recorded, 003 never ran.
	status, err := db.GetAppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("GetAppliedMigrations failed: %v", err)
	}
	ids := make(map[string]bool)
	for _, m := range status {
		ids[m.ID] = true
	}
	if !ids["001"] {
		t.Error("Expected 001 to remain applied")
	}
	if ids["002"] || ids["003"] {
		t.Errorf("Expected 002 and 003 to be absent, got %v", ids)
	}
}

func TestIntegration_MigrationStatus(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	ctx := context.Background()
	cleanupMigrations(t, db)
	t.Cleanup(func() { cleanupMigrations(t, db) })

	migrations := testMigrations()
	if _, err := db.Migrate(ctx, migrations[:1]); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	status, err := db.MigrationStatus(ctx, migrations)
	if err != nil {
		t.Fatalf("MigrationStatus failed: %v", err)
	}
	if len(status) != 2 {
		t.Fatalf("Expected status for 2 migrations, got %d", len(status))
	}
	if status[0].ID != "001" || !status[0].Applied || !status[0].ChecksumMatch {
		t.Errorf("Expected 001 applied with matching checksum, got %+v", status[0])
	}
	if status[1].ID != "002" || status[1].Applied {
		t.Errorf("Expected 002 pending, got %+v", status[1])
	}
}
