package tournamentdb

import (
	"errors"
	"strings"

	"github.com/uptrace/bun/driver/pgdriver"
)

// Sentinel errors for the repository layer.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoRowsAffected indicates an UPDATE/DELETE matched no rows. For
	// compare-and-set round updates it means another writer won.
	ErrNoRowsAffected = errors.New("no rows affected")

	// ErrDuplicate indicates an INSERT hit a unique index.
	ErrDuplicate = errors.New("duplicate key")
)

// uniqueViolation reports whether err is a unique constraint failure from
// Postgres (SQLSTATE 23505) or SQLite.
func uniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
