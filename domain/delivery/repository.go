package delivery

import "context"

// Repository Delivery repository interface
type Repository interface {
	// Save inserts or updates with an optimistic version check.
	Save(ctx context.Context, delivery *Delivery) error

	FindByID(ctx context.Context, id string) (*Delivery, error)

	// FindByOrderID returns a NotFoundError for orders without a delivery.
	FindByOrderID(ctx context.Context, orderID string) (*Delivery, error)
}
