package order

import (
	"context"

	"savoria/domain/shared"
)

// Repository Order repository interface
type Repository interface {
	// Save inserts a new order or updates an existing one with an optimistic
	// version check. Pending tracking entries are inserted, never updated.
	// Returns a ConflictError when the stored version moved since load.
	Save(ctx context.Context, order *Order) error

	// FindByID returns a NotFoundError when the order does not exist.
	FindByID(ctx context.Context, id string) (*Order, error)

	// FindByCustomerID lists a customer's orders, newest first.
	FindByCustomerID(ctx context.Context, customerID string) ([]*Order, error)

	// FindBySpecification lists matching orders newest first, at most limit
	// of them when limit is positive.
	FindBySpecification(ctx context.Context, spec shared.Specification[*Order], limit int) ([]*Order, error)

	// ListTracking returns the order's timeline newest first.
	ListTracking(ctx context.Context, orderID string) ([]TrackingEntry, error)
}
