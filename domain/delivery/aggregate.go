/*
Package delivery Delivery sub-state of a delivery order.

A Delivery exists exactly when its order is of type DELIVERY. It owns the
driver assignment, the delivery status and, for cash on delivery orders, the
cash collection record. It is never deleted: a cancelled order leaves its
delivery in CANCELLED.
*/
package delivery

import (
	"fmt"
	"strings"
	"time"

	"savoria/domain/order"
	"savoria/domain/shared"

	"github.com/google/uuid"
)

// DriverSnapshot is copied onto the delivery at assignment time for display.
// It is intentionally not refreshed when the driver record changes later.
type DriverSnapshot struct {
	ID      string
	Name    string
	Phone   string
	Vehicle string
}

// Delivery aggregate root
type Delivery struct {
	id             string
	orderID        string
	status         Status
	driver         *DriverSnapshot
	fee            shared.Money
	address        string
	cashOnDelivery bool

	assignedAt  *time.Time
	pickedUpAt  *time.Time
	deliveredAt *time.Time

	cashAmount      shared.Money
	cashConfirmed   bool
	cashCollectedAt *time.Time

	version   int
	createdAt time.Time
	updatedAt time.Time

	events []shared.DomainEvent
	isNew  bool
}

// New creates the PENDING delivery of a freshly placed delivery order.
func New(orderID, address string, fee shared.Money, cashOnDelivery bool) (*Delivery, error) {
	if orderID == "" {
		return nil, shared.NewValidationError(entityName, "order_id", "order is required")
	}
	if strings.TrimSpace(address) == "" {
		return nil, shared.NewValidationError(entityName, "address", "delivery address is required")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate delivery ID: %w", err)
	}

	now := time.Now()
	return &Delivery{
		id:             id.String(),
		orderID:        orderID,
		status:         StatusPending,
		fee:            fee,
		address:        address,
		cashOnDelivery: cashOnDelivery,
		cashAmount:     shared.Zero,
		createdAt:      now,
		updatedAt:      now,
		isNew:          true,
	}, nil
}

// ============================================================================
// ReconstructionDTO - For Repository Layer Use Only
// ============================================================================

type ReconstructionDTO struct {
	ID              string
	OrderID         string
	Status          Status
	Driver          *DriverSnapshot
	Fee             shared.Money
	Address         string
	CashOnDelivery  bool
	AssignedAt      *time.Time
	PickedUpAt      *time.Time
	DeliveredAt     *time.Time
	CashAmount      shared.Money
	CashConfirmed   bool
	CashCollectedAt *time.Time
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func RebuildFromDTO(dto ReconstructionDTO) *Delivery {
	var driver *DriverSnapshot
	if dto.Driver != nil {
		d := *dto.Driver
		driver = &d
	}
	return &Delivery{
		id:              dto.ID,
		orderID:         dto.OrderID,
		status:          dto.Status,
		driver:          driver,
		fee:             dto.Fee,
		address:         dto.Address,
		cashOnDelivery:  dto.CashOnDelivery,
		assignedAt:      dto.AssignedAt,
		pickedUpAt:      dto.PickedUpAt,
		deliveredAt:     dto.DeliveredAt,
		cashAmount:      dto.CashAmount,
		cashConfirmed:   dto.CashConfirmed,
		cashCollectedAt: dto.CashCollectedAt,
		version:         dto.Version,
		createdAt:       dto.CreatedAt,
		updatedAt:       dto.UpdatedAt,
	}
}

func (d *Delivery) ToDTO() ReconstructionDTO {
	return ReconstructionDTO{
		ID:              d.id,
		OrderID:         d.orderID,
		Status:          d.status,
		Driver:          d.Driver(),
		Fee:             d.fee,
		Address:         d.address,
		CashOnDelivery:  d.cashOnDelivery,
		AssignedAt:      copyTime(d.assignedAt),
		PickedUpAt:      copyTime(d.pickedUpAt),
		DeliveredAt:     copyTime(d.deliveredAt),
		CashAmount:      d.cashAmount,
		CashConfirmed:   d.cashConfirmed,
		CashCollectedAt: copyTime(d.cashCollectedAt),
		Version:         d.version,
		CreatedAt:       d.createdAt,
		UpdatedAt:       d.updatedAt,
	}
}

// ============================================================================
// Behaviour
// ============================================================================

// SyncWithOrder applies the delivery status implied by an order status change.
// It only moves the delivery forward along the main path; CANCELLED always applies
// unless the delivery already finished. Returns whether anything changed.
func (d *Delivery) SyncWithOrder(s order.Status) (bool, error) {
	target, ok := StatusForOrder(s)
	if !ok || target == d.status {
		return false, nil
	}

	if target == StatusCancelled {
		if d.status.IsTerminal() {
			return false, newInvalidStateError(d, "cancel")
		}
		d.setStatus(target, "order "+string(s))
		return true, nil
	}

	current, onPath := progress[d.status]
	if !onPath || progress[target] <= current {
		return false, nil
	}
	d.setStatus(target, "order "+string(s))
	return true, nil
}

// AssignDriver is legal while no driver is assigned and the delivery has not been picked up.
func (d *Delivery) AssignDriver(driver DriverSnapshot) error {
	if driver.ID == "" {
		return shared.NewValidationError(entityName, "driver_id", "driver is required")
	}
	if d.driver != nil {
		return shared.WithReason(newInvalidStateError(d, "assign driver to"), ErrDriverAlreadyAssigned)
	}
	if d.status != StatusPending && d.status != StatusAssigned {
		return newInvalidStateError(d, "assign driver to")
	}

	now := time.Now()
	snapshot := driver
	d.driver = &snapshot
	d.assignedAt = &now
	if d.status == StatusPending {
		d.setStatus(StatusAssigned, "driver "+driver.ID)
	} else {
		d.updatedAt = now
	}
	d.events = append(d.events, newDriverAssignedEvent(d.id, d.orderID, driver.ID, now))
	return nil
}

// Unassign reverts the delivery to PENDING and returns the id of the freed driver.
func (d *Delivery) Unassign() (string, error) {
	if d.driver == nil {
		return "", shared.WithReason(newInvalidStateError(d, "unassign driver from"), ErrNoDriverAssigned)
	}
	if !CanTransition(d.status, StatusPending) {
		return "", newInvalidStateError(d, "unassign driver from")
	}

	driverID := d.driver.ID
	d.driver = nil
	d.assignedAt = nil
	d.setStatus(StatusPending, "driver "+driverID+" unassigned")
	return driverID, nil
}

// Advance applies a driver reported status.
// PENDING, ASSIGNED and CANCELLED are reached through Unassign, AssignDriver and SyncWithOrder.
func (d *Delivery) Advance(target Status) error {
	if !target.IsValid() {
		return shared.NewValidationError(entityName, "status", "unknown delivery status: "+string(target))
	}
	switch target {
	case StatusPending, StatusAssigned, StatusCancelled:
		return newInvalidTransitionError(d, target)
	}
	if !CanTransition(d.status, target) {
		return newInvalidTransitionError(d, target)
	}
	if target == StatusPickedUp && d.driver == nil {
		return shared.WithReason(newInvalidStateError(d, "pick up"), ErrNoDriverAssigned)
	}
	d.setStatus(target, "driver update")
	return nil
}

// ConfirmCashCollection is legal for cash on delivery orders once the driver has arrived.
func (d *Delivery) ConfirmCashCollection(amount shared.Money) error {
	if !amount.IsPositive() {
		return shared.NewValidationError(entityName, "amount", "collected amount must be positive")
	}
	if !d.cashOnDelivery {
		return shared.WithReason(newInvalidStateError(d, "confirm cash collection for"), ErrNotCashOnDelivery)
	}
	if d.status != StatusArrived && d.status != StatusDelivered {
		return newInvalidStateError(d, "confirm cash collection for")
	}
	if d.cashConfirmed {
		return shared.WithReason(newInvalidStateError(d, "confirm cash collection for"), ErrCashAlreadyConfirmed)
	}

	now := time.Now()
	d.cashAmount = amount
	d.cashConfirmed = true
	d.cashCollectedAt = &now
	d.updatedAt = now
	d.events = append(d.events, newCashCollectedEvent(d.id, d.orderID, amount, now))
	return nil
}

// NeverDispatched reports whether no driver ever left with the order.
// Cancelled deliveries keep their driver snapshot, so this stays meaningful after cancellation.
func (d *Delivery) NeverDispatched() bool {
	return d.driver == nil && d.assignedAt == nil && d.pickedUpAt == nil
}

func (d *Delivery) setStatus(target Status, reason string) {
	from := d.status
	now := time.Now()
	d.status = target
	d.updatedAt = now
	switch target {
	case StatusPickedUp:
		if d.pickedUpAt == nil {
			d.pickedUpAt = &now
		}
	case StatusDelivered:
		d.deliveredAt = &now
	}
	d.events = append(d.events, newStatusChangedEvent(d.id, d.orderID, from, target, reason, now))
}

// IncrementVersionForSave is called by the repository after a successful save.
func (d *Delivery) IncrementVersionForSave() { d.version++ }

func (d *Delivery) IsNew() bool         { return d.isNew }
func (d *Delivery) ClearDirtyTracking() { d.isNew = false }

func (d *Delivery) PullEvents() []shared.DomainEvent {
	events := d.events
	d.events = nil
	return events
}

// ============================================================================
// Getters
// ============================================================================

func (d *Delivery) ID() string                  { return d.id }
func (d *Delivery) OrderID() string             { return d.orderID }
func (d *Delivery) Status() Status              { return d.status }
func (d *Delivery) Fee() shared.Money           { return d.fee }
func (d *Delivery) Address() string             { return d.address }
func (d *Delivery) CashOnDelivery() bool        { return d.cashOnDelivery }
func (d *Delivery) CashAmount() shared.Money    { return d.cashAmount }
func (d *Delivery) CashConfirmed() bool         { return d.cashConfirmed }
func (d *Delivery) Version() int                { return d.version }
func (d *Delivery) CreatedAt() time.Time        { return d.createdAt }
func (d *Delivery) UpdatedAt() time.Time        { return d.updatedAt }
func (d *Delivery) AssignedAt() *time.Time      { return copyTime(d.assignedAt) }
func (d *Delivery) PickedUpAt() *time.Time      { return copyTime(d.pickedUpAt) }
func (d *Delivery) DeliveredAt() *time.Time     { return copyTime(d.deliveredAt) }
func (d *Delivery) CashCollectedAt() *time.Time { return copyTime(d.cashCollectedAt) }

// DriverID is empty when no driver is assigned.
func (d *Delivery) DriverID() string {
	if d.driver == nil {
		return ""
	}
	return d.driver.ID
}

// Driver returns a copy of the driver snapshot, or nil.
func (d *Delivery) Driver() *DriverSnapshot {
	if d.driver == nil {
		return nil
	}
	c := *d.driver
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

var _ shared.AggregateRoot = (*Delivery)(nil)
