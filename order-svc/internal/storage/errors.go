package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"quiosco/order-svc/internal/domain"

	"github.com/lib/pq"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// translateError tags driver errors with the domain sentinels so callers never
// inspect SQLSTATE codes themselves. The driver error stays in the chain.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %w", domain.ErrDuplicate, err)
		case foreignKeyViolation:
			return fmt.Errorf("%w: %w", domain.ErrForeignKey, err)
		}
	}
	return err
}
