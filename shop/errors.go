package shop

import (
	"errors"
	"fmt"

	"github.com/fernandezvara/storekit"
)

// Kind classifies a shop error for callers that branch on outcome
// rather than on the underlying SQLSTATE.
type Kind string

const (
	KindInvalidInput         Kind = "INVALID_INPUT"
	KindConflict             Kind = "CONFLICT"
	KindNotFound             Kind = "NOT_FOUND"
	KindReferentialViolation Kind = "REFERENTIAL_VIOLATION"
	KindBatchPartialFailure  Kind = "BATCH_PARTIAL_FAILURE"
	KindStoreUnavailable     Kind = "STORE_UNAVAILABLE"
)

// Error is the error type returned by the shop service layer.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("shop: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("shop: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, or KindStoreUnavailable when err is
// not a shop error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreUnavailable
}

func IsInvalidInput(err error) bool         { return KindOf(err) == KindInvalidInput }
func IsConflict(err error) bool             { return KindOf(err) == KindConflict }
func IsNotFound(err error) bool             { return KindOf(err) == KindNotFound }
func IsReferentialViolation(err error) bool { return KindOf(err) == KindReferentialViolation }
func IsBatchPartialFailure(err error) bool  { return KindOf(err) == KindBatchPartialFailure }

// translate maps a storekit error to the shop taxonomy. subject names
// the entity being operated on for the message.
func translate(err error, subject string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case storekit.IsBatchFailure(err):
		return &Error{Kind: KindBatchPartialFailure, Message: subject + " batch failed", Cause: err}
	case storekit.IsDuplicate(err):
		return &Error{Kind: KindConflict, Message: subject + " already exists", Cause: err}
	case storekit.IsForeignKey(err):
		return &Error{Kind: KindReferentialViolation, Message: subject + " references a missing or still referenced row", Cause: err}
	case storekit.IsNotFound(err):
		return &Error{Kind: KindNotFound, Message: subject + " not found", Cause: err}
	case storekit.IsCheckViolation(err), storekit.IsNotNullViolation(err):
		return &Error{Kind: KindInvalidInput, Message: subject + " rejected by schema constraint", Cause: err}
	default:
		return &Error{Kind: KindStoreUnavailable, Message: subject + " unavailable", Cause: err}
	}
}
