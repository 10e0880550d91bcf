// Package dberr bridges low-level pgx/Postgres errors into the pipeline's
// [apperr.AppError] taxonomy, classifying SQLSTATEs via [pgerrcode] so
// callers can tell a constraint violation from a transient connection
// failure without string-matching driver errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/flibusta-go/libupdater/internal/platform/apperr"
)

// Wrap classifies a database error encountered while running action
// (e.g. "author.before", "book_author.apply") and returns it as a
// [*apperr.AppError] with code [apperr.CodeDBError]. Returns nil if err is nil.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.DBError(action+": no matching row", err)
	}
	if code, ok := sqlState(err); ok {
		return apperr.DBError(action+": "+describeSQLState(code), err)
	}
	return apperr.DBError(action, err)
}

// sqlState extracts the Postgres SQLSTATE code from err, if any.
func sqlState(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	return "", false
}

// describeSQLState gives a short human label for the common codes this
// pipeline can plausibly hit (unique/foreign-key races between concurrent
// tasks touching overlapping rows, and connection-level failures).
func describeSQLState(code string) string {
	switch code {
	case pgerrcode.UniqueViolation:
		return "unique constraint violation"
	case pgerrcode.ForeignKeyViolation:
		return "foreign key violation"
	case pgerrcode.DeadlockDetected:
		return "deadlock detected"
	case pgerrcode.ConnectionException, pgerrcode.ConnectionDoesNotExist, pgerrcode.ConnectionFailure:
		return "connection failure"
	default:
		return "sqlstate " + code
	}
}
