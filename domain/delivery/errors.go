package delivery

import (
	"errors"

	"savoria/domain/shared"
)

var (
	ErrDriverAlreadyAssigned = errors.New("delivery already has a driver")
	ErrNoDriverAssigned      = errors.New("delivery has no driver")
	ErrDriverUnavailable     = errors.New("driver is not available")
	ErrNotCashOnDelivery     = errors.New("delivery is not cash on delivery")
	ErrCashAlreadyConfirmed  = errors.New("cash collection already confirmed")
)

const entityName = "delivery"

func NewDeliveryNotFoundError(id string) error {
	return shared.NewNotFoundError(entityName, id)
}

func NewConcurrentModificationError(id string) error {
	return shared.NewConflictError(entityName, id)
}

// NewDriverUnavailableError is raised by the orchestrator after consulting the driver directory.
func NewDriverUnavailableError(driverID string) error {
	return shared.WithReason(shared.NewInvalidStateError("driver", driverID, "UNAVAILABLE", "assign"), ErrDriverUnavailable)
}

func newInvalidStateError(d *Delivery, operation string) error {
	return shared.NewInvalidStateError(entityName, d.id, string(d.status), operation)
}

func newInvalidTransitionError(d *Delivery, target Status) error {
	return shared.NewInvalidTransitionError(entityName, d.id, string(d.status), string(target))
}
