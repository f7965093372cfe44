package storekit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorCode represents a database error classification
type ErrorCode string

const (
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeDuplicate        ErrorCode = "DUPLICATE"
	CodeForeignKey       ErrorCode = "FOREIGN_KEY"
	CodeCheckViolation   ErrorCode = "CHECK_VIOLATION"
	CodeNotNullViolation ErrorCode = "NOT_NULL"
	CodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	CodeTimeout          ErrorCode = "TIMEOUT"
	CodeSerialization    ErrorCode = "SERIALIZATION"
	CodeDeadlock         ErrorCode = "DEADLOCK"
	CodeBatchFailure     ErrorCode = "BATCH_FAILURE"
	CodeUnknown          ErrorCode = "UNKNOWN"
)

// Sentinel errors for quick checks
var (
	ErrNotFound         = errors.New("storekit: record not found")
	ErrDuplicate        = errors.New("storekit: duplicate key violation")
	ErrForeignKey       = errors.New("storekit: foreign key violation")
	ErrCheckViolation   = errors.New("storekit: check constraint violation")
	ErrNotNullViolation = errors.New("storekit: not null violation")
	ErrConnection       = errors.New("storekit: connection failed")
	ErrTimeout          = errors.New("storekit: operation timeout")
	ErrSerialization    = errors.New("storekit: serialization failure")
	ErrDeadlock         = errors.New("storekit: deadlock detected")
	ErrBatchFailure     = errors.New("storekit: batch partially failed")
)

// Error is a rich database error with context
type Error struct {
	Code       ErrorCode // Error classification
	Message    string    // Human-readable message
	Op         string    // Operation that failed (e.g., "FindByID", "Create")
	Table      string    // Table name if known
	Column     string    // Column name if known
	Constraint string    // Constraint name if applicable
	Detail     string    // Additional detail from PostgreSQL
	Hint       string    // Hint from PostgreSQL
	Query      string    // Query that failed (may be empty for security)
	Cause      error     // Underlying error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("storekit: %s", e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("storekit.%s: %s", e.Op, e.Message)
	}
	if e.Table != "" {
		msg += fmt.Sprintf(" (table: %s)", e.Table)
	}
	if e.Constraint != "" {
		msg += fmt.Sprintf(" (constraint: %s)", e.Constraint)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for sentinel error matching
func (e *Error) Is(target error) bool {
	switch e.Code {
	case CodeNotFound:
		return target == ErrNotFound
	case CodeDuplicate:
		return target == ErrDuplicate
	case CodeForeignKey:
		return target == ErrForeignKey
	case CodeCheckViolation:
		return target == ErrCheckViolation
	case CodeNotNullViolation:
		return target == ErrNotNullViolation
	case CodeConnectionFailed:
		return target == ErrConnection
	case CodeTimeout:
		return target == ErrTimeout
	case CodeSerialization:
		return target == ErrSerialization
	case CodeDeadlock:
		return target == ErrDeadlock
	case CodeBatchFailure:
		return target == ErrBatchFailure
	}
	return false
}

// wrapError converts a raw error to a rich Error
func wrapError(err error, op string) error {
	if err == nil {
		return nil
	}

	// Already wrapped
	var kitErr *Error
	if errors.As(err, &kitErr) {
		return err
	}

	// Check for "no rows" error
	if errors.Is(err, sql.ErrNoRows) {
		return &Error{
			Code:    CodeNotFound,
			Message: "record not found",
			Op:      op,
			Cause:   err,
		}
	}

	// PostgreSQL specific errors. pgx reports them as *pgconn.PgError;
	// pgdriver, which Open uses, reports them as a value struct exposing
	// the protocol error fields through Field. Both carry the SQLSTATE,
	// so classification is shared.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return wrapPgError(pgErr, op)
	}
	var srvErr interface{ Field(k byte) string }
	if errors.As(err, &srvErr) {
		return wrapServerError(srvErr, err, op)
	}

	// Network failures (connection refused, dial timeout). These carry
	// no SQLSTATE; they surface when the pool establishes a connection.
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Code:    CodeTimeout,
			Message: "operation timed out",
			Op:      op,
			Cause:   err,
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		code := CodeConnectionFailed
		msg := "database connection failed"
		if netErr.Timeout() {
			code = CodeTimeout
			msg = "database connection timed out"
		}
		return &Error{
			Code:    code,
			Message: msg,
			Op:      op,
			Cause:   err,
		}
	}

	// Generic wrapping
	return &Error{
		Code:    CodeUnknown,
		Message: err.Error(),
		Op:      op,
		Cause:   err,
	}
}

// classifySQLState maps a PostgreSQL SQLSTATE to an error code and a
// stable message. Unknown states get CodeUnknown and an empty message,
// in which case the caller keeps the server's own message.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
func classifySQLState(sqlstate string) (ErrorCode, string) {
	switch sqlstate {
	case "23505": // unique_violation
		return CodeDuplicate, "duplicate key value violates unique constraint"
	case "23503": // foreign_key_violation
		return CodeForeignKey, "foreign key constraint violation"
	case "23502": // not_null_violation
		return CodeNotNullViolation, "null value in column violates not-null constraint"
	case "23514": // check_violation
		return CodeCheckViolation, "check constraint violation"
	case "40001": // serialization_failure
		return CodeSerialization, "serialization failure, retry transaction"
	case "40P01": // deadlock_detected
		return CodeDeadlock, "deadlock detected"
	case "57014": // query_canceled (timeout)
		return CodeTimeout, "query was cancelled due to timeout"
	case "08000", "08003", "08006": // connection errors
		return CodeConnectionFailed, "database connection failed"
	default:
		return CodeUnknown, ""
	}
}

// wrapPgError converts pgx PostgreSQL errors to rich errors
func wrapPgError(pgErr *pgconn.PgError, op string) *Error {
	code, msg := classifySQLState(pgErr.Code)
	if msg == "" {
		msg = pgErr.Message
	}
	return &Error{
		Code:       code,
		Message:    msg,
		Op:         op,
		Table:      pgErr.TableName,
		Column:     pgErr.ColumnName,
		Constraint: pgErr.ConstraintName,
		Detail:     pgErr.Detail,
		Hint:       pgErr.Hint,
		Cause:      pgErr,
	}
}

// wrapServerError converts a wire-protocol server error (pgdriver's
// shape) to a rich error using the protocol error fields.
// See: https://www.postgresql.org/docs/current/protocol-error-fields.html
func wrapServerError(srv interface{ Field(k byte) string }, cause error, op string) *Error {
	code, msg := classifySQLState(srv.Field('C'))
	if msg == "" {
		msg = srv.Field('M')
	}
	return &Error{
		Code:       code,
		Message:    msg,
		Op:         op,
		Table:      srv.Field('t'),
		Column:     srv.Field('c'),
		Constraint: srv.Field('n'),
		Detail:     srv.Field('D'),
		Hint:       srv.Field('H'),
		Cause:      cause,
	}
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicate checks if error is a duplicate key error
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsForeignKey checks if error is a foreign key error
func IsForeignKey(err error) bool {
	return errors.Is(err, ErrForeignKey)
}

// IsCheckViolation checks if error is a check constraint error
func IsCheckViolation(err error) bool {
	return errors.Is(err, ErrCheckViolation)
}

// IsNotNullViolation checks if error is a not null violation error
func IsNotNullViolation(err error) bool {
	return errors.Is(err, ErrNotNullViolation)
}

// IsConnection checks if error is a connection error
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsTimeout checks if error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsBatchFailure checks if error is a partial batch failure
func IsBatchFailure(err error) bool {
	return errors.Is(err, ErrBatchFailure)
}

// IsRetryable checks if the error is retryable (serialization, deadlock)
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSerialization) || errors.Is(err, ErrDeadlock)
}

// GetErrorCode extracts the error code if it's a storekit error
func GetErrorCode(err error) (ErrorCode, bool) {
	var kitErr *Error
	if errors.As(err, &kitErr) {
		return kitErr.Code, true
	}
	return "", false
}

// GetConstraint extracts the constraint name if available
func GetConstraint(err error) (string, bool) {
	var kitErr *Error
	if errors.As(err, &kitErr) && kitErr.Constraint != "" {
		return kitErr.Constraint, true
	}
	return "", false
}

// GetTable extracts the table name if available
func GetTable(err error) (string, bool) {
	var kitErr *Error
	if errors.As(err, &kitErr) && kitErr.Table != "" {
		return kitErr.Table, true
	}
	return "", false
}

// GetDetail extracts the error detail if available
func GetDetail(err error) (string, bool) {
	var kitErr *Error
	if errors.As(err, &kitErr) && kitErr.Detail != "" {
		return kitErr.Detail, true
	}
	return "", false
}
