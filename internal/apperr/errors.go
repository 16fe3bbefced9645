// Package apperr holds the sentinel errors shared by the store, the facade
// and the adapters.
package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrCapacityExceeded   = errors.New("note capacity exceeded")
	ErrTypeMismatch       = errors.New("content type does not match note type")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidCursor      = errors.New("invalid cursor")

	// ErrStorage marks failures of the underlying database. They are
	// transient from the caller's point of view.
	ErrStorage = errors.New("storage failure")
)

// IsDomain reports whether err is one of the recoverable domain outcomes as
// opposed to a storage failure.
func IsDomain(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrTypeMismatch) ||
		errors.Is(err, ErrInvariantViolation) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInvalidCursor)
}

// Kind returns a short stable label for err, used in metrics and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, ErrInvariantViolation):
		return "invariant"
	case errors.Is(err, ErrInvalidCursor):
		return "invalid_cursor"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	}
	return "storage"
}
