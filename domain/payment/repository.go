package payment

import "context"

// Repository Payment repository interface
type Repository interface {
	// Save inserts or updates with an optimistic version check.
	Save(ctx context.Context, payment *Payment) error

	FindByID(ctx context.Context, id string) (*Payment, error)
	// FindByIDForUpdate holds the payment against other writers until the
	// unit of work in ctx ends.
	FindByIDForUpdate(ctx context.Context, id string) (*Payment, error)

	// FindByOrderID returns every payment attempt of the order, oldest first.
	FindByOrderID(ctx context.Context, orderID string) ([]*Payment, error)
}
