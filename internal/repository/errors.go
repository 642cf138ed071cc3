package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/teamboard/teamboard/pkg/util/errorutil"
)

const uniqueViolation = "23505"

// ErrDuplicate reports a write that would break a uniqueness constraint.
var ErrDuplicate = apperrors.NewConflict("record already exists", nil)

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
