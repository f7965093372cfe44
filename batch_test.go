package storekit

import (
	"context"
	"errors"
	"testing"
)

func TestExecBatch_EmptyInput(t *testing.T) {
	results, err := ExecBatch(context.Background(), nil, "INSERT ...", nil)
	if err != nil {
		t.Errorf("Expected nil error for empty batch, got %v", err)
	}
	if results != nil {
		t.Errorf("Expected nil results for empty batch, got %v", results)
	}
}

func TestBatchInsert_EmptyInput(t *testing.T) {
	n, err := BatchInsert[TestModel](context.Background(), nil, nil, 0)
	if err != nil || n != 0 {
		t.Errorf("Expected (0, nil) for empty input, got (%d, %v)", n, err)
	}
}

func TestInsertReturning_EmptyInput(t *testing.T) {
	var items []TestModel
	if err := InsertReturning(context.Background(), nil, &items); err != nil {
		t.Errorf("Expected nil error for empty input, got %v", err)
	}
}

func TestIntegration_ExecBatch(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	ctx := createTestTable(t, db)

	rows := [][]any{
		{"a", "a@x.com", 1},
		{"b", "b@x.com", 2},
		{"c", "c@x.com", 3},
	}

	results, err := ExecBatch(ctx, db,
		"INSERT INTO storekit_test_models (name, email, amount) VALUES (?, ?, ?)", rows)
	if err != nil {
		t.Fatalf("ExecBatch failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for i, n := range results {
		if n != 1 {
			t.Errorf("Expected 1 affected row at index %d, got %d", i, n)
		}
	}

	if n := countModels(t, db, ctx); n != 3 {
		t.Errorf("Expected 3 rows, got %d", n)
	}
}

func TestIntegration_ExecBatchFailureRollsBack(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	ctx := createTestTable(t, db)

	rows := [][]any{
		{"a", "a@x.com", 1},
		{"b", "b@x.com", 2},
		{"c", "a@x.com", 3}, // duplicate email
		{"d", "d@x.com", 4},
	}

	_, err := ExecBatch(ctx, db,
		"INSERT INTO storekit_test_models (name, email, amount) VALUES (?, ?, ?)", rows)

	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("Expected *BatchError, got %v", err)
	}
	if batchErr.Index != 2 {
		t.Errorf("Expected failure at index 2, got %d", batchErr.Index)
	}
	if len(batchErr.Results) != 2 {
		t.Errorf("Expected 2 pre-failure results, got %d", len(batchErr.Results))
	}
	if !IsDuplicate(batchErr.Cause) {
		t.Errorf("Expected duplicate cause, got %v", batchErr.Cause)
	}

	// The implicit batch transaction rolled everything back.
	if n := countModels(t, db, ctx); n != 0 {
		t.Errorf("Expected 0 rows after batch failure, got %d", n)
	}
}

func TestIntegration_ExecBatchInTransaction(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	ctx := createTestTable(t, db)

	err := db.Transaction(ctx, func(tx *Tx) error {
		if err := Create(ctx, tx, &TestModel{Name: "first", Email: "first@x.com"}); err != nil {
			return err
		}
		_, err := ExecBatch(ctx, tx,
			"INSERT INTO storekit_test_models (name, email, amount) VALUES (?, ?, ?)",
			[][]any{{"a", "a@x.com", 1}, {"b", "b@x.com", 2}})
		return err
	})
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}

	if n := countModels(t, db, ctx); n != 3 {
		t.Errorf("Expected 3 rows, got %d", n)
	}
}

func TestIntegration_BatchInsert(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	ctx := createTestTable(t, db)

	items := make([]TestModel, 250)
	for i := range items {
		items[i] = TestModel{
			Name:   "bulk",
			Email:  "bulk" + string(rune('a'+i/26)) + string(rune('a'+i%26)) + "@x.com",
			Amount: i,
		}
	}

	n, err := BatchInsert(ctx, db, items, 100)
	if err != nil {
		t.Fatalf("BatchInsert failed: %v", err)
	}
	if n != 250 {
		t.Errorf("Expected 250 inserted, got %d", n)
	}
}

func TestIntegration_InsertReturning(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	ctx := createTestTable(t, db)

	items := []TestModel{
		{Name: "a", Email: "a@x.com"},
		{Name: "b", Email: "b@x.com"},
	}

	if err := InsertReturning(ctx, db, &items); err != nil {
		t.Fatalf("InsertReturning failed: %v", err)
	}

	for i, item := range items {
		if item.ID == 0 {
			t.Errorf("Expected generated ID at index %d", i)
		}
	}
	if items[0].ID == items[1].ID {
		t.Error("Expected distinct generated IDs")
	}
}
