package order

import "context"

// Repository defines the interface for order data storage.
type Repository interface {
	// Create inserts the order. A second insert with the same checkout
	// session id fails with ErrDuplicateSession.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
}
