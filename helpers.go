package storekit

import (
	"context"

	"github.com/uptrace/bun"
)

// FindByPK finds a record by its primary key (works with composite PKs).
// The model's key fields must be set; remaining fields are filled in.
func FindByPK[T any](ctx context.Context, db IDB, model *T) error {
	err := db.NewSelect().
		Model(model).
		WherePK().
		Scan(ctx)

	if err != nil {
		return wrapError(err, "FindByPK")
	}

	return nil
}

// FindOne finds a single record matching the query
func FindOne[T any](ctx context.Context, db IDB, query func(q *bun.SelectQuery) *bun.SelectQuery) (*T, error) {
	model := new(T)

	q := db.NewSelect().Model(model)
	if query != nil {
		q = query(q)
	}

	err := q.Limit(1).Scan(ctx)
	if err != nil {
		return nil, wrapError(err, "FindOne")
	}

	return model, nil
}

// FindAll finds all records matching the query
func FindAll[T any](ctx context.Context, db IDB, query func(q *bun.SelectQuery) *bun.SelectQuery) ([]T, error) {
	var models []T

	q := db.NewSelect().Model(&models)
	if query != nil {
		q = query(q)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, wrapError(err, "FindAll")
	}

	return models, nil
}

// Create inserts a new record
func Create[T any](ctx context.Context, db IDB, model *T) error {
	_, err := db.NewInsert().
		Model(model).
		Exec(ctx)

	if err != nil {
		return wrapError(err, "Create")
	}

	return nil
}

// CreateReturning inserts a new record and scans store-generated values
// (keys, defaults) back into it.
func CreateReturning[T any](ctx context.Context, db IDB, model *T) error {
	_, err := db.NewInsert().
		Model(model).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return wrapError(err, "CreateReturning")
	}

	return nil
}

// Update updates an existing record (by primary key)
func Update[T any](ctx context.Context, db IDB, model *T) error {
	result, err := db.NewUpdate().
		Model(model).
		WherePK().
		Exec(ctx)

	if err != nil {
		return wrapError(err, "Update")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return &Error{
			Code:    CodeNotFound,
			Message: "record not found for update",
			Op:      "Update",
		}
	}

	return nil
}

// Delete deletes a record by primary key
func Delete[T any](ctx context.Context, db IDB, model *T) error {
	result, err := db.NewDelete().
		Model(model).
		WherePK().
		Exec(ctx)

	if err != nil {
		return wrapError(err, "Delete")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return &Error{
			Code:    CodeNotFound,
			Message: "record not found for deletion",
			Op:      "Delete",
		}
	}

	return nil
}

// DeleteWhere deletes records matching the query and returns how many
// rows were removed.
func DeleteWhere[T any](ctx context.Context, db IDB, query func(q *bun.DeleteQuery) *bun.DeleteQuery) (int64, error) {
	model := new(T)

	q := db.NewDelete().Model(model)
	if query != nil {
		q = query(q)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return 0, wrapError(err, "DeleteWhere")
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}

// Exists checks if a record exists matching the query
func Exists[T any](ctx context.Context, db IDB, query func(q *bun.SelectQuery) *bun.SelectQuery) (bool, error) {
	model := new(T)

	q := db.NewSelect().Model(model)
	if query != nil {
		q = query(q)
	}

	exists, err := q.Exists(ctx)
	if err != nil {
		return false, wrapError(err, "Exists")
	}

	return exists, nil
}

// Count counts records matching the query
func Count[T any](ctx context.Context, db IDB, query func(q *bun.SelectQuery) *bun.SelectQuery) (int, error) {
	model := new(T)

	q := db.NewSelect().Model(model)
	if query != nil {
		q = query(q)
	}

	count, err := q.Count(ctx)
	if err != nil {
		return 0, wrapError(err, "Count")
	}

	return count, nil
}

// RawOne executes a raw SQL query and scans a single result row
func RawOne[T any](ctx context.Context, db IDB, query string, args ...any) (*T, error) {
	model := new(T)
	err := db.NewRaw(query, args...).Scan(ctx, model)
	if err != nil {
		return nil, wrapError(err, "RawOne")
	}
	return model, nil
}
