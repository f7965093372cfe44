package storekit

import (
	"context"
	"fmt"
)

// BatchSize is the default chunk size for batch operations.
const BatchSize = 100

// BatchError reports a batch that stopped partway. Results holds the
// per-row affected counts observed before the failure and Index is the
// position of the failing parameter row. Whether the counted rows stay
// applied depends on the ambient transaction: inside a caller-owned
// transaction the caller decides, otherwise the implicit batch
// transaction has been rolled back and nothing persisted.
type BatchError struct {
	Index   int
	Results []int64
	Cause   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("storekit: batch failed at row %d after %d rows: %v", e.Index, len(e.Results), e.Cause)
}

func (e *BatchError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for ErrBatchFailure matching
func (e *BatchError) Is(target error) bool {
	return target == ErrBatchFailure
}

// ExecBatch executes one parameterized statement template once per
// parameter row and returns the affected-row count for each. Rows run
// in order on a single connection. When idb is an open transaction the
// rows join it; when idb is a pool the batch runs in a transaction of
// its own, so a failure undoes the whole batch. On failure the returned
// error is a *BatchError carrying the counts collected before the
// failing row.
//
// Usage:
//
//	counts, err := storekit.ExecBatch(ctx, db,
//	    "INSERT INTO customer (name, email, phone_number) VALUES (?, ?, ?)",
//	    [][]any{{"A", "a@x.com", "111"}, {"B", "b@x.com", "222"}})
func ExecBatch(ctx context.Context, idb IDB, query string, rows [][]any) ([]int64, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	if tx, ok := idb.(*Tx); ok {
		return execBatchOn(ctx, tx, query, rows)
	}

	db, ok := idb.(*DB)
	if !ok {
		return execBatchOn(ctx, idb, query, rows)
	}

	var results []int64
	err := db.Transaction(ctx, func(tx *Tx) error {
		var batchErr error
		results, batchErr = execBatchOn(ctx, tx, query, rows)
		return batchErr
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func execBatchOn(ctx context.Context, idb IDB, query string, rows [][]any) ([]int64, error) {
	results := make([]int64, 0, len(rows))
	for i, args := range rows {
		res, err := idb.ExecContext(ctx, query, args...)
		if err != nil {
			return results, &BatchError{
				Index:   i,
				Results: results,
				Cause:   wrapError(err, "ExecBatch"),
			}
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return results, &BatchError{
				Index:   i,
				Results: results,
				Cause:   wrapError(err, "ExecBatch"),
			}
		}
		results = append(results, affected)
	}
	return results, nil
}

// BatchInsert inserts records in chunks to keep statements below
// PostgreSQL parameter limits. Returns the total number of rows affected.
//
// Usage:
//
//	products := []Product{{Name: "A"}, {Name: "B"}, ...}
//	count, err := storekit.BatchInsert(ctx, db, products, 100)
func BatchInsert[T any](ctx context.Context, idb IDB, items []T, batchSize int) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	if batchSize <= 0 {
		batchSize = BatchSize
	}

	var totalRows int64

	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}

		batch := items[i:end]
		result, err := idb.NewInsert().Model(&batch).Exec(ctx)
		if err != nil {
			return totalRows, wrapError(err, "BatchInsert")
		}

		rows, _ := result.RowsAffected()
		totalRows += rows
	}

	return totalRows, nil
}

// InsertReturning inserts records and scans generated values (keys,
// defaults) back into them in one statement.
//
// Usage:
//
//	customers := []Customer{{Name: "A"}, {Name: "B"}}
//	err := storekit.InsertReturning(ctx, db, &customers)
//	// customers now have IDs filled in
func InsertReturning[T any](ctx context.Context, idb IDB, items *[]T) error {
	if len(*items) == 0 {
		return nil
	}

	_, err := idb.NewInsert().Model(items).Returning("*").Exec(ctx)
	if err != nil {
		return wrapError(err, "InsertReturning")
	}

	return nil
}
