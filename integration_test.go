package storekit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/uptrace/bun"
)

// TestModel is a simple model for integration tests
type TestModel struct {
	bun.BaseModel `bun:"table:storekit_test_models,alias:tm"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Name          string `bun:"name,notnull"`
	Email         string `bun:"email,notnull,unique"`
	Amount        int    `bun:"amount"`
}

// getTestDB returns a pool for integration tests, skipping the test
// when TEST_DATABASE_URL is not set.
func getTestDB(t *testing.T) *DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	db, err := Open(Config{
		URL:             dbURL,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.Ping(context.Background()); err != nil {
		db.Close()
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	return db
}

// createTestTable drops and recreates the test table
func createTestTable(t *testing.T, db *DB) context.Context {
	t.Helper()
	ctx := context.Background()

	_, err := db.NewDropTable().IfExists().Model((*TestModel)(nil)).Exec(ctx)
	if err != nil {
		t.Fatalf("Failed to drop test table: %v", err)
	}

	_, err = db.ExecContext(ctx, `
CREATE TABLE storekit_test_models (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    email VARCHAR(100) NOT NULL UNIQUE,
    amount INT
)`)
	if err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}

	t.Cleanup(func() {
		_, _ = db.NewDropTable().IfExists().Model((*TestModel)(nil)).Exec(context.Background())
	})

	return ctx
}

// getAdminRegistry returns a registry whose base config points at the
// maintenance database, for lifecycle tests. Skips when
// TEST_DATABASE_ADMIN_URL is not set.
func getAdminRegistry(t *testing.T) *Registry {
	t.Helper()

	adminURL := os.Getenv("TEST_DATABASE_ADMIN_URL")
	if adminURL == "" {
		t.Skip("TEST_DATABASE_ADMIN_URL not set, skipping lifecycle test")
	}

	return NewRegistry(Config{URL: adminURL, MaxOpenConns: 3})
}

func TestIntegration_OpenIsLazy(t *testing.T) {
	// Opening against an unreachable server must not fail; the error
	// surfaces on first use.
	db, err := Open(Config{
		Host:        "127.0.0.1",
		Port:        1,
		Database:    "nope",
		User:        "nobody",
		DialTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Open should not dial, got error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err == nil {
		t.Error("Expected Ping to fail against unreachable server")
	} else if !IsConnection(err) && !IsTimeout(err) {
		t.Errorf("Expected connection or timeout error, got %v", err)
	}
}

func TestIntegration_CRUD(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	ctx := createTestTable(t, db)

	model := &TestModel{Name: "John Doe", Email: "john@example.com", Amount: 30}
	if err := CreateReturning(ctx, db, model); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if model.ID == 0 {
		t.Error("Expected generated ID to be populated")
	}

	found := &TestModel{ID: model.ID}
	if err := FindByPK(ctx, db, found); err != nil {
		t.Fatalf("FindByPK failed: %v", err)
	}
	if found.Email != "john@example.com" {
		t.Errorf("Expected email john@example.com, got %s", found.Email)
	}

	found.Amount = 31
	if err := Update(ctx, db, found); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	exists, err := Exists[TestModel](ctx, db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("amount = ?", 31)
	})
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("Expected updated row to exist")
	}

	if err := Delete(ctx, db, found); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	err = FindByPK(ctx, db, &TestModel{ID: model.ID})
	if !IsNotFound(err) {
		t.Errorf("Expected not found after delete, got %v", err)
	}
}

func TestIntegration_UpdateMissingRow(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	ctx := createTestTable(t, db)

	err := Update(ctx, db, &TestModel{ID: 999999, Name: "x", Email: "x@y.z"})
	if !IsNotFound(err) {
		t.Errorf("Expected not found updating missing row, got %v", err)
	}
}

func TestIntegration_DuplicateKey(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	ctx := createTestTable(t, db)

	if err := Create(ctx, db, &TestModel{Name: "a", Email: "dup@example.com"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := Create(ctx, db, &TestModel{Name: "b", Email: "dup@example.com"})
	if !IsDuplicate(err) {
		t.Errorf("Expected duplicate error, got %v", err)
	}
	if constraint, ok := GetConstraint(err); !ok || constraint == "" {
		t.Error("Expected constraint name on duplicate error")
	}
}

func TestIntegration_Health(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	status := db.Health(context.Background())
	if !status.Healthy {
		t.Errorf("Expected healthy status, got %+v", status)
	}
	if status.Latency <= 0 {
		t.Error("Expected positive latency")
	}
	if !db.IsHealthy(context.Background()) {
		t.Error("Expected IsHealthy to be true")
	}
}
