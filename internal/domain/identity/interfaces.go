package identity

import "context"

// Repository persists one identity per site.
type Repository interface {
	Get(ctx context.Context, site string) (*Identity, error)
	Save(ctx context.Context, id *Identity) error
	Delete(ctx context.Context, site string) error
}
