package catalog

import "context"

// Repository defines the interface for product data storage.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	// DecrementStock atomically subtracts qty from the product's stock.
	// Returns ErrNotFound when the id has no row.
	DecrementStock(ctx context.Context, id string, qty int) error
	ReplaceAll(ctx context.Context, products []*Product) error
}
