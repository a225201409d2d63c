package order

import "context"

// Service defines the admin-facing read surface over stored orders.
// Order creation happens only in the webhook reconciler.
type Service interface {
	ListOrders(ctx context.Context) ([]*Order, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) ListOrders(ctx context.Context) ([]*Order, error) {
	return s.repo.List(ctx)
}

func (s *service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}
