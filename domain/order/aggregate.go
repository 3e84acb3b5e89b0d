/*
Package order Order subdomain

The Order aggregate owns:
- the order status machine (see status.go for the reachability table)
- line items with price snapshots and the derived totals
- the order level payment status
- the append-only tracking timeline

Delivery and payment records are separate aggregates. The fulfillment
orchestrator loads all of them inside one unit of work and calls the named
behaviour methods below; entities never reach into each other.

Principles:
1. All fields are private, behavior exposed through methods
2. Every state change appends exactly the tracking entries it implies
3. Version is managed by persistence (IncrementVersionForSave)
*/
package order

import (
	"fmt"
	"strings"
	"time"

	"savoria/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order aggregate root
type Order struct {
	id            string
	customerID    string
	orderType     Type
	status        Status
	paymentMethod PaymentMethod
	paymentStatus PaymentStatus
	items         []OrderItem

	taxRate     decimal.Decimal
	subtotal    shared.Money
	tax         shared.Money
	deliveryFee shared.Money
	total       shared.Money

	deliveryAddress       string
	notes                 string
	estimatedDeliveryTime *time.Time
	actualDeliveryTime    *time.Time

	version   int // Optimistic lock version number
	createdAt time.Time
	updatedAt time.Time

	events []shared.DomainEvent

	// Dirty tracking since load
	addedItems   []OrderItem
	removedItems []OrderItem
	newTracking  []TrackingEntry
	isNew        bool
}

// OrderItem line item inside the aggregate, reachable only through Order.
type OrderItem struct {
	id         string
	menuItemID string
	name       string
	quantity   int
	unitPrice  shared.Money
	lineTotal  shared.Money
}

// LineRequest a line to add, priced by the caller from the menu at request time.
type LineRequest struct {
	MenuItemID string
	Name       string
	Quantity   int
	UnitPrice  shared.Money
}

// PlaceParams Create order options
type PlaceParams struct {
	CustomerID            string
	Type                  Type
	PaymentMethod         PaymentMethod
	Items                 []LineRequest
	DeliveryAddress       string
	Notes                 string
	EstimatedDeliveryTime *time.Time
	Pricing               PricingPolicy
	Actor                 shared.Actor
}

// ============================================================================
// Factory
// ============================================================================

// Place creates a PENDING order, prices it and records the first tracking entry.
func Place(p PlaceParams) (*Order, error) {
	if strings.TrimSpace(p.CustomerID) == "" {
		return nil, shared.NewValidationError(entityName, "customer_id", "customer is required")
	}
	if !p.Type.IsValid() {
		return nil, shared.NewValidationError(entityName, "order_type", "unknown order type: "+string(p.Type))
	}
	if !p.PaymentMethod.IsValid() {
		return nil, shared.NewValidationError(entityName, "payment_method", "unknown payment method: "+string(p.PaymentMethod))
	}
	if p.PaymentMethod == PaymentCashOnDelivery && p.Type != TypeDelivery {
		return nil, newValidationError("payment_method", ErrCashOnDeliveryNotAllowed)
	}
	if p.Type == TypeDelivery && strings.TrimSpace(p.DeliveryAddress) == "" {
		return nil, shared.NewValidationError(entityName, "delivery_address", "delivery address is required for delivery orders")
	}
	if len(p.Items) == 0 {
		return nil, newValidationError("items", ErrEmptyOrderItems)
	}
	if p.Pricing.TaxRate.IsNegative() || p.Pricing.DeliveryFee.IsNegative() {
		return nil, shared.NewValidationError(entityName, "pricing", "tax rate and delivery fee must not be negative")
	}

	orderID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate order ID: %w", err)
	}

	items := make([]OrderItem, 0, len(p.Items))
	for _, req := range p.Items {
		item, err := newOrderItem(req)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	now := time.Now()
	o := &Order{
		id:                    orderID.String(),
		customerID:            p.CustomerID,
		orderType:             p.Type,
		status:                StatusPending,
		paymentMethod:         p.PaymentMethod,
		paymentStatus:         PaymentStatusPending,
		items:                 items,
		taxRate:               p.Pricing.TaxRate,
		deliveryFee:           p.Pricing.DeliveryFee,
		deliveryAddress:       p.DeliveryAddress,
		notes:                 p.Notes,
		estimatedDeliveryTime: p.EstimatedDeliveryTime,
		createdAt:             now,
		updatedAt:             now,
		isNew:                 true,
	}
	o.recalculate()

	if err := o.appendTracking(string(StatusPending), statusTitle(StatusPending),
		fmt.Sprintf("%s order for %s", strings.ToLower(string(o.orderType)), o.total), true, p.Actor); err != nil {
		return nil, err
	}
	o.events = append(o.events, newOrderPlacedEvent(o))

	return o, nil
}

func newOrderItem(req LineRequest) (OrderItem, error) {
	if req.MenuItemID == "" {
		return OrderItem{}, shared.NewValidationError(entityName, "menu_item_id", "menu item is required")
	}
	if req.Quantity <= 0 {
		return OrderItem{}, newValidationError("quantity", ErrInvalidQuantity)
	}
	if req.UnitPrice.IsNegative() {
		return OrderItem{}, shared.NewValidationError(entityName, "unit_price", "unit price must not be negative")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return OrderItem{}, fmt.Errorf("failed to generate order item ID: %w", err)
	}
	return OrderItem{
		id:         id.String(),
		menuItemID: req.MenuItemID,
		name:       req.Name,
		quantity:   req.Quantity,
		unitPrice:  req.UnitPrice,
		lineTotal:  req.UnitPrice.MulInt(req.Quantity),
	}, nil
}

// ============================================================================
// ReconstructionDTO - For Repository Layer Use Only
// ============================================================================

type ReconstructionDTO struct {
	ID                    string
	CustomerID            string
	Type                  Type
	Status                Status
	PaymentMethod         PaymentMethod
	PaymentStatus         PaymentStatus
	Items                 []OrderItem
	TaxRate               decimal.Decimal
	Subtotal              shared.Money
	Tax                   shared.Money
	DeliveryFee           shared.Money
	Total                 shared.Money
	DeliveryAddress       string
	Notes                 string
	EstimatedDeliveryTime *time.Time
	ActualDeliveryTime    *time.Time
	Version               int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// RebuildFromDTO reconstructs an Order loaded from storage.
// ⚠️ Note: only repository implementations should call this.
func RebuildFromDTO(dto ReconstructionDTO) *Order {
	return &Order{
		id:                    dto.ID,
		customerID:            dto.CustomerID,
		orderType:             dto.Type,
		status:                dto.Status,
		paymentMethod:         dto.PaymentMethod,
		paymentStatus:         dto.PaymentStatus,
		items:                 dto.Items,
		taxRate:               dto.TaxRate,
		subtotal:              dto.Subtotal,
		tax:                   dto.Tax,
		deliveryFee:           dto.DeliveryFee,
		total:                 dto.Total,
		deliveryAddress:       dto.DeliveryAddress,
		notes:                 dto.Notes,
		estimatedDeliveryTime: dto.EstimatedDeliveryTime,
		actualDeliveryTime:    dto.ActualDeliveryTime,
		version:               dto.Version,
		createdAt:             dto.CreatedAt,
		updatedAt:             dto.UpdatedAt,
		isNew:                 false,
	}
}

// ToDTO is the inverse of RebuildFromDTO, used by repositories and snapshots.
func (o *Order) ToDTO() ReconstructionDTO {
	return ReconstructionDTO{
		ID:                    o.id,
		CustomerID:            o.customerID,
		Type:                  o.orderType,
		Status:                o.status,
		PaymentMethod:         o.paymentMethod,
		PaymentStatus:         o.paymentStatus,
		Items:                 o.Items(),
		TaxRate:               o.taxRate,
		Subtotal:              o.subtotal,
		Tax:                   o.tax,
		DeliveryFee:           o.deliveryFee,
		Total:                 o.total,
		DeliveryAddress:       o.deliveryAddress,
		Notes:                 o.notes,
		EstimatedDeliveryTime: copyTime(o.estimatedDeliveryTime),
		ActualDeliveryTime:    copyTime(o.actualDeliveryTime),
		Version:               o.version,
		CreatedAt:             o.createdAt,
		UpdatedAt:             o.updatedAt,
	}
}

type ItemReconstructionDTO struct {
	ID         string
	MenuItemID string
	Name       string
	Quantity   int
	UnitPrice  shared.Money
	LineTotal  shared.Money
}

func RebuildItemFromDTO(dto ItemReconstructionDTO) OrderItem {
	return OrderItem{
		id:         dto.ID,
		menuItemID: dto.MenuItemID,
		name:       dto.Name,
		quantity:   dto.Quantity,
		unitPrice:  dto.UnitPrice,
		lineTotal:  dto.LineTotal,
	}
}

// ============================================================================
// Items and pricing - PENDING only
// ============================================================================

// AddItem adds a line while the order is still PENDING.
func (o *Order) AddItem(req LineRequest, actor shared.Actor) (OrderItem, error) {
	if o.status != StatusPending {
		return OrderItem{}, newPriceFrozenError(o, "add item to")
	}

	item, err := newOrderItem(req)
	if err != nil {
		return OrderItem{}, err
	}

	o.items = append(o.items, item)
	if !o.isNew {
		o.addedItems = append(o.addedItems, item)
	}
	o.recalculate()

	desc := fmt.Sprintf("added %d x %s, new total %s", item.quantity, item.name, o.total)
	if err := o.appendTracking(TrackingItemsChanged, "Items updated", desc, true, actor); err != nil {
		return OrderItem{}, err
	}
	return item, nil
}

// RemoveItem removes a line while the order is still PENDING. The last line cannot be removed.
func (o *Order) RemoveItem(itemID string, actor shared.Actor) error {
	if o.status != StatusPending {
		return newPriceFrozenError(o, "remove item from")
	}

	idx := -1
	for i, item := range o.items {
		if item.id == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return shared.WithReason(shared.NewNotFoundError("order item", itemID), ErrItemNotFound)
	}
	if len(o.items) == 1 {
		return newValidationError("items", ErrEmptyOrderItems)
	}

	removed := o.items[idx]
	o.items = append(o.items[:idx:idx], o.items[idx+1:]...)

	if !o.isNew {
		// added then removed in the same session never reaches storage
		wasAdded := false
		for i, added := range o.addedItems {
			if added.id == itemID {
				o.addedItems = append(o.addedItems[:i:i], o.addedItems[i+1:]...)
				wasAdded = true
				break
			}
		}
		if !wasAdded {
			o.removedItems = append(o.removedItems, removed)
		}
	}
	o.recalculate()

	desc := fmt.Sprintf("removed %s, new total %s", removed.name, o.total)
	return o.appendTracking(TrackingItemsChanged, "Items updated", desc, true, actor)
}

// Reprice applies a new pricing policy. Prices freeze once the order leaves PENDING.
func (o *Order) Reprice(policy PricingPolicy) error {
	if o.status != StatusPending {
		return newPriceFrozenError(o, "reprice")
	}
	o.taxRate = policy.TaxRate
	o.deliveryFee = policy.DeliveryFee
	o.recalculate()
	return nil
}

// RefreshTotals recomputes the derived amounts before persistence.
// Frozen orders keep the amounts they were confirmed with.
func (o *Order) RefreshTotals() {
	if o.status == StatusPending {
		o.recalculate()
	}
}

func (o *Order) recalculate() {
	lines := make([]PricedLine, len(o.items))
	for i, item := range o.items {
		lines[i] = PricedLine{UnitPrice: item.unitPrice, Quantity: item.quantity}
	}
	t := CalculateTotals(lines, o.orderType, o.taxRate, o.deliveryFee)
	o.subtotal = t.Subtotal
	o.tax = t.Tax
	o.total = t.Total
	if o.orderType == TypeDelivery {
		o.deliveryFee = t.DeliveryFee
	} else {
		o.deliveryFee = shared.Zero
	}
	o.updatedAt = time.Now()
}

// ============================================================================
// Status machine
// ============================================================================

// CanBeCancelled reports whether Cancel would succeed. It has no side effects.
func (o *Order) CanBeCancelled() bool {
	return o.status == StatusPending || o.status == StatusConfirmed
}

func (o *Order) CanTransitionTo(target Status) bool {
	return CanTransition(o.orderType, o.status, target)
}

// TransitionTo moves the order along the reachability table.
// CANCELLED is delegated to Cancel; REFUNDED is only reachable through ApplyRefund.
func (o *Order) TransitionTo(target Status, actor shared.Actor) error {
	if !target.IsValid() {
		return shared.NewValidationError(entityName, "status", "unknown order status: "+string(target))
	}
	if !o.CanTransitionTo(target) {
		return newInvalidTransitionError(o, target)
	}
	if target == StatusCancelled {
		return o.Cancel("cancelled by status update", actor)
	}
	return o.setStatus(target, "", actor)
}

// Cancel is legal only in PENDING or CONFIRMED.
func (o *Order) Cancel(reason string, actor shared.Actor) error {
	if !o.CanBeCancelled() {
		return shared.WithReason(newInvalidStateError(o, "cancel"), ErrNotCancellable)
	}

	now := time.Now()
	o.status = StatusCancelled
	o.updatedAt = now

	desc := reason
	if desc == "" {
		desc = "no reason given"
	}
	if err := o.appendTracking(string(StatusCancelled), statusTitle(StatusCancelled), desc, true, actor); err != nil {
		return err
	}
	o.events = append(o.events, newOrderCancelledEvent(o.id, reason, actor.Label(), now))
	return nil
}

func (o *Order) setStatus(target Status, description string, actor shared.Actor) error {
	from := o.status
	now := time.Now()
	o.status = target
	o.updatedAt = now
	if target == StatusDelivered {
		o.actualDeliveryTime = &now
	}

	if description == "" {
		description = fmt.Sprintf("status changed from %s to %s", from, target)
	}
	if err := o.appendTracking(string(target), statusTitle(target), description, true, actor); err != nil {
		return err
	}
	o.events = append(o.events, newStatusChangedEvent(o.id, from, target, actor.Label(), now))
	return nil
}

// ============================================================================
// Delivery side effects
// ============================================================================

// CanAcceptDriver drivers are assigned once the kitchen has the order and before it is ready.
func (o *Order) CanAcceptDriver() bool {
	return o.orderType == TypeDelivery && (o.status == StatusConfirmed || o.status == StatusPreparing)
}

func (o *Order) RecordDriverAssigned(driverName string, actor shared.Actor) error {
	if !o.CanAcceptDriver() {
		return newInvalidStateError(o, "assign driver to")
	}
	return o.appendTracking(TrackingDriverAssigned, "Driver assigned", driverName+" will deliver your order", true, actor)
}

// RecordDriverUnassigned reverts the order to CONFIRMED.
func (o *Order) RecordDriverUnassigned(actor shared.Actor) error {
	if !o.CanAcceptDriver() {
		return newInvalidStateError(o, "unassign driver from")
	}
	if err := o.appendTracking(TrackingDriverUnassigned, "Driver unassigned", "waiting for a new driver", false, actor); err != nil {
		return err
	}
	if o.status != StatusConfirmed {
		return o.setStatus(StatusConfirmed, "driver unassigned, order back to confirmed", actor)
	}
	return nil
}

// RecordDeliveryProgress adds a tracking entry for a driver reported delivery status
// that does not change the order status itself.
func (o *Order) RecordDeliveryProgress(code, title, description string, completed bool, actor shared.Actor) error {
	if o.orderType != TypeDelivery {
		return newInvalidStateError(o, "record delivery progress for")
	}
	return o.appendTracking(code, title, description, completed, actor)
}

// ============================================================================
// Payment side effects
// ============================================================================

func (o *Order) acceptsPayment() bool {
	return o.status != StatusCancelled && o.status != StatusRefunded
}

func (o *Order) isPaidOrRefunded() bool {
	switch o.paymentStatus {
	case PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusPartiallyRefunded:
		return true
	}
	return false
}

// RecordSlipSubmitted a previously failed payment goes back to PENDING with the new slip.
func (o *Order) RecordSlipSubmitted(paymentID string, actor shared.Actor) error {
	if o.paymentMethod != PaymentCardSlip || !o.acceptsPayment() || o.isPaidOrRefunded() {
		return newInvalidStateError(o, "submit payment slip for")
	}
	o.paymentStatus = PaymentStatusPending
	o.updatedAt = time.Now()
	return o.appendTracking(TrackingSlipSubmitted, "Payment slip received", "slip "+paymentID+" is waiting for review", false, actor)
}

// ConfirmPayment marks the order PAID and confirms a PENDING order.
func (o *Order) ConfirmPayment(note string, actor shared.Actor) error {
	if !o.acceptsPayment() || o.isPaidOrRefunded() {
		return newInvalidStateError(o, "confirm payment for")
	}
	o.setPaymentStatus(PaymentStatusPaid)

	desc := "payment confirmed"
	if note != "" {
		desc += ": " + note
	}
	if err := o.appendTracking(TrackingPaymentConfirmed, "Payment confirmed", desc, true, actor); err != nil {
		return err
	}
	if o.status == StatusPending {
		return o.setStatus(StatusConfirmed, "confirmed after payment", actor)
	}
	return nil
}

func (o *Order) FailPayment(reason string, actor shared.Actor) error {
	if o.isPaidOrRefunded() {
		return newInvalidStateError(o, "fail payment for")
	}
	o.setPaymentStatus(PaymentStatusFailed)
	return o.appendTracking(TrackingPaymentFailed, "Payment rejected", reason, false, actor)
}

// MarkCashCollected completes a cash on delivery order's payment.
func (o *Order) MarkCashCollected(amount shared.Money, actor shared.Actor) error {
	if o.paymentMethod != PaymentCashOnDelivery || !o.acceptsPayment() || o.isPaidOrRefunded() {
		return newInvalidStateError(o, "collect cash for")
	}
	o.setPaymentStatus(PaymentStatusPaid)
	return o.appendTracking(TrackingCashCollected, "Cash collected", "driver collected "+amount.String(), true, actor)
}

// ApplyRefund records a refund already issued by the gateway.
// A full refund moves the order to REFUNDED from any status.
func (o *Order) ApplyRefund(amount shared.Money, full bool, reason string, actor shared.Actor) error {
	if o.paymentStatus != PaymentStatusPaid {
		return newInvalidStateError(o, "refund")
	}

	now := time.Now()
	desc := fmt.Sprintf("refunded %s", amount)
	if reason != "" {
		desc += ": " + reason
	}

	if !full {
		o.setPaymentStatus(PaymentStatusPartiallyRefunded)
		if err := o.appendTracking(TrackingPartialRefund, "Partial refund issued", desc, true, actor); err != nil {
			return err
		}
		o.events = append(o.events, newOrderRefundedEvent(o.id, amount, false, now))
		return nil
	}

	o.setPaymentStatus(PaymentStatusRefunded)
	if err := o.setStatus(StatusRefunded, desc, actor); err != nil {
		return err
	}
	o.events = append(o.events, newOrderRefundedEvent(o.id, amount, true, now))
	return nil
}

func (o *Order) setPaymentStatus(s PaymentStatus) {
	now := time.Now()
	o.paymentStatus = s
	o.updatedAt = now
	o.events = append(o.events, newPaymentUpdatedEvent(o.id, s, now))
}

// ============================================================================
// Tracking timeline
// ============================================================================

// appendTracking is the only write path to the timeline.
func (o *Order) appendTracking(code, title, description string, completed bool, actor shared.Actor) error {
	entry, err := newTrackingEntry(o.id, code, title, description, completed, actor.Label(), time.Now())
	if err != nil {
		return err
	}
	o.newTracking = append(o.newTracking, entry)
	return nil
}

// NewTracking returns entries appended since load, oldest first. Repositories insert these.
func (o *Order) NewTracking() []TrackingEntry {
	entries := make([]TrackingEntry, len(o.newTracking))
	copy(entries, o.newTracking)
	return entries
}

// ============================================================================
// Versioning, dirty tracking, events
// ============================================================================

// IncrementVersionForSave is called by the repository after a successful save.
func (o *Order) IncrementVersionForSave() {
	o.version++
}

func (o *Order) IsNew() bool { return o.isNew }

func (o *Order) AddedItems() []OrderItem {
	items := make([]OrderItem, len(o.addedItems))
	copy(items, o.addedItems)
	return items
}

func (o *Order) RemovedItems() []OrderItem {
	items := make([]OrderItem, len(o.removedItems))
	copy(items, o.removedItems)
	return items
}

// ClearDirtyTracking is called after persisting changes successfully.
func (o *Order) ClearDirtyTracking() {
	o.addedItems = nil
	o.removedItems = nil
	o.newTracking = nil
	o.isNew = false
}

// PullEvents returns and clears the recorded events. The UoW stores them in the outbox.
func (o *Order) PullEvents() []shared.DomainEvent {
	events := o.events
	o.events = nil
	return events
}

// ============================================================================
// Getters
// ============================================================================

func (o *Order) ID() string                   { return o.id }
func (o *Order) CustomerID() string           { return o.customerID }
func (o *Order) Type() Type                   { return o.orderType }
func (o *Order) Status() Status               { return o.status }
func (o *Order) PaymentMethod() PaymentMethod { return o.paymentMethod }
func (o *Order) PaymentStatus() PaymentStatus { return o.paymentStatus }
func (o *Order) TaxRate() decimal.Decimal     { return o.taxRate }
func (o *Order) Subtotal() shared.Money       { return o.subtotal }
func (o *Order) Tax() shared.Money            { return o.tax }
func (o *Order) DeliveryFee() shared.Money    { return o.deliveryFee }
func (o *Order) Total() shared.Money          { return o.total }
func (o *Order) DeliveryAddress() string      { return o.deliveryAddress }
func (o *Order) Notes() string                { return o.notes }
func (o *Order) Version() int                 { return o.version }
func (o *Order) CreatedAt() time.Time         { return o.createdAt }
func (o *Order) UpdatedAt() time.Time         { return o.updatedAt }

func (o *Order) EstimatedDeliveryTime() *time.Time { return copyTime(o.estimatedDeliveryTime) }
func (o *Order) ActualDeliveryTime() *time.Time    { return copyTime(o.actualDeliveryTime) }

func (o *Order) Totals() Totals {
	return Totals{Subtotal: o.subtotal, Tax: o.tax, DeliveryFee: o.deliveryFee, Total: o.total}
}

// Items returns a copy of the order lines.
func (o *Order) Items() []OrderItem {
	items := make([]OrderItem, len(o.items))
	copy(items, o.items)
	return items
}

func (item OrderItem) ID() string              { return item.id }
func (item OrderItem) MenuItemID() string      { return item.menuItemID }
func (item OrderItem) Name() string            { return item.name }
func (item OrderItem) Quantity() int           { return item.quantity }
func (item OrderItem) UnitPrice() shared.Money { return item.unitPrice }
func (item OrderItem) LineTotal() shared.Money { return item.lineTotal }

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

var _ shared.AggregateRoot = (*Order)(nil)
