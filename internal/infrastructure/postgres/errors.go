package postgres

import (
	"errors"

	"photoshare/backend/internal/apperror"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Reclassify maps raw PostgreSQL failures that escaped a repository onto
// request-level failure kinds.
func Reclassify(err error) (apperror.Kind, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, false
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return apperror.Conflict, true
	case pgerrcode.InvalidTextRepresentation,
		pgerrcode.CheckViolation,
		pgerrcode.StringDataRightTruncationDataException,
		pgerrcode.NotNullViolation,
		pgerrcode.ForeignKeyViolation:
		return apperror.BadInput, true
	}
	return 0, false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
