package sqlite

import (
	"database/sql"
	"errors"

	"github.com/rpggio/expressup/internal/repository"
)

// notFound maps sql.ErrNoRows to repository.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}
