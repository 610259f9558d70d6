package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/objectdetect/internal/domain"
)

// sqlStates maps the SQLSTATE codes the result store can raise to domain errors.
var sqlStates = map[string]error{
	"23505": domain.ErrConflict,   // unique_violation
	"23503": domain.ErrNotFound,   // foreign_key_violation
	"23502": domain.ErrValidation, // not_null_violation
	"23514": domain.ErrValidation, // check_violation
	"22P02": domain.ErrValidation, // invalid_text_representation
}

// MapError converts pgx errors to domain errors and names the record as
// "{entity} {id}". Context errors and unknown codes keep their chain.
func MapError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}
	ref := entity + " " + id.String()

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", ref, err)
	}
	if pgxscan.NotFound(err) {
		return fmt.Errorf("%s: %w", ref, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if target, ok := sqlStates[pgErr.Code]; ok {
			if pgErr.ConstraintName != "" {
				return fmt.Errorf("%s: constraint %s: %w", ref, pgErr.ConstraintName, target)
			}
			return fmt.Errorf("%s: %w", ref, target)
		}
	}

	return fmt.Errorf("%s: %w", ref, err)
}
