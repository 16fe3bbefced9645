package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/notesd/internal/apperr"
)

// wrap prefixes a driver error with the failing operation. Constraint
// violations caused by caller input are reported as apperr.ErrInvalidArgument.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("store: %s: %w: %v", op, apperr.ErrInvalidArgument, err)
	}
	return fmt.Errorf("store: %s: %w", op, err)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
