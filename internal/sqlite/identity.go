package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/expressup/internal/domain/identity"
	"github.com/rpggio/expressup/internal/repository"
)

var _ identity.Repository = (*IdentityRepository)(nil)

// IdentityRepository implements identity.Repository for SQLite
type IdentityRepository struct {
	db *DB
}

// NewIdentityRepository creates a new IdentityRepository
func NewIdentityRepository(db *DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Get returns the identity stored for site
func (r *IdentityRepository) Get(ctx context.Context, site string) (*identity.Identity, error) {
	query := `
		SELECT site, user_login, cookie_name, cookie_value, cookie_expires, updated_at
		FROM identities
		WHERE site = ?
	`

	var id identity.Identity
	var expires sql.NullTime
	err := r.db.QueryRowContext(ctx, query, site).Scan(
		&id.Site,
		&id.UserLogin,
		&id.CookieName,
		&id.CookieValue,
		&expires,
		&id.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", notFound(err))
	}
	if expires.Valid {
		id.CookieExpires = expires.Time.UTC()
	}
	return &id, nil
}

// Save inserts or replaces the identity for its site
func (r *IdentityRepository) Save(ctx context.Context, id *identity.Identity) error {
	if id == nil || id.Site == "" {
		return repository.ErrInvalidInput
	}
	updatedAt := id.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	var expires sql.NullTime
	if !id.CookieExpires.IsZero() {
		expires = sql.NullTime{Time: id.CookieExpires.UTC(), Valid: true}
	}

	query := `
		INSERT INTO identities (site, user_login, cookie_name, cookie_value, cookie_expires, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(site) DO UPDATE SET
			user_login = excluded.user_login,
			cookie_name = excluded.cookie_name,
			cookie_value = excluded.cookie_value,
			cookie_expires = excluded.cookie_expires,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		id.Site,
		id.UserLogin,
		id.CookieName,
		id.CookieValue,
		expires,
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	id.UpdatedAt = updatedAt
	return nil
}

// Delete removes the identity for site
func (r *IdentityRepository) Delete(ctx context.Context, site string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM identities WHERE site = ?`, site)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
