/*
Package order errors.

Every error returned by the order aggregate is a *shared.DomainError, so the
generic class (shared.ErrInvalidState, shared.ErrInvalidInput, ...) always
matches errors.Is. The sentinels below are attached as the reason where a
caller may want to react to the specific case.

Stack capture:
  - the constructors call shared.CaptureStack(3) through shared.NewXxxError
  - the stack starts at the aggregate method that rejected the operation
*/
package order

import (
	"errors"

	"savoria/domain/shared"
)

var (
	// ErrPriceFrozen items or pricing changed after the order left PENDING.
	ErrPriceFrozen = errors.New("order price is frozen once confirmed")

	ErrEmptyOrderItems = errors.New("order must have at least one item")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrItemNotFound    = errors.New("order item not found")

	// ErrCashOnDeliveryNotAllowed cash on delivery is only offered for delivery orders.
	ErrCashOnDeliveryNotAllowed = errors.New("cash on delivery requires a delivery order")

	// ErrNotCancellable cancel requested outside PENDING/CONFIRMED.
	ErrNotCancellable = errors.New("order can only be cancelled while pending or confirmed")
)

const entityName = "order"

func NewOrderNotFoundError(orderID string) error {
	return shared.NewNotFoundError(entityName, orderID)
}

func NewConcurrentModificationError(orderID string) error {
	return shared.NewConflictError(entityName, orderID)
}

func newInvalidTransitionError(o *Order, target Status) error {
	return shared.NewInvalidTransitionError(entityName, o.id, string(o.status), string(target))
}

func newInvalidStateError(o *Order, operation string) error {
	return shared.NewInvalidStateError(entityName, o.id, string(o.status), operation)
}

func newPriceFrozenError(o *Order, operation string) error {
	return shared.WithReason(shared.NewInvalidStateError(entityName, o.id, string(o.status), operation), ErrPriceFrozen)
}

func newValidationError(field string, reason error) error {
	return shared.WithReason(shared.NewValidationError(entityName, field, reason.Error()), reason)
}
