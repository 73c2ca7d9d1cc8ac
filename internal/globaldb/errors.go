package globaldb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/syntropynet/globaldb/pkg/globaldb"
)

func sqliteError(err error) (sqlite3.Error, bool) {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		return sqlErr, true
	}
	var sqlErrPtr *sqlite3.Error
	if errors.As(err, &sqlErrPtr) && sqlErrPtr != nil {
		return *sqlErrPtr, true
	}
	return sqlite3.Error{}, false
}

func isBusyError(err error) bool {
	sqlErr, ok := sqliteError(err)
	return ok && (sqlErr.Code == sqlite3.ErrBusy || sqlErr.Code == sqlite3.ErrLocked)
}

func isIntegrityError(err error) bool {
	sqlErr, ok := sqliteError(err)
	return ok && sqlErr.Code == sqlite3.ErrConstraint
}

func isForeignKeyError(err error) bool {
	sqlErr, ok := sqliteError(err)
	return ok && sqlErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

func isUniqueError(err error) bool {
	sqlErr, ok := sqliteError(err)
	if !ok {
		return false
	}
	return sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqlErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// constraintName extracts the failing constraint from messages like
// "UNIQUE constraint failed: assets.identifier".
func constraintName(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, "constraint failed"); idx >= 0 {
		if rest := strings.TrimLeft(msg[idx+len("constraint failed"):], ": "); rest != "" {
			return rest
		}
		return strings.TrimSpace(msg[:idx]) + " constraint"
	}
	return msg
}

// wrapWriteError turns a raw driver error of an insert into a domain error.
func wrapWriteError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case isUniqueError(err):
		return fmt.Errorf("%w: %s: %s", globaldb.ErrAssetExists, what, constraintName(err))
	case isIntegrityError(err):
		return fmt.Errorf("%w: %s: %s", globaldb.ErrInput, what, constraintName(err))
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// wrapDeleteError maps foreign key violations of a delete to ErrAssetReferenced.
func wrapDeleteError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case isForeignKeyError(err):
		return fmt.Errorf("%w: %s", globaldb.ErrAssetReferenced, what)
	case isIntegrityError(err):
		return fmt.Errorf("%w: %s: %s", globaldb.ErrInput, what, constraintName(err))
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
