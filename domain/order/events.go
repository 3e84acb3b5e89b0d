package order

import (
	"time"

	"savoria/domain/shared"
)

const (
	EventOrderPlaced         = "order.placed"
	EventOrderStatusChanged  = "order.status_changed"
	EventOrderCancelled      = "order.cancelled"
	EventOrderPaymentUpdated = "order.payment_updated"
	EventOrderRefunded       = "order.refunded"
)

func newOrderPlacedEvent(o *Order) shared.DomainEvent {
	return shared.NewEvent(EventOrderPlaced, o.id, o.createdAt, map[string]any{
		"customer_id":    o.customerID,
		"order_type":     string(o.orderType),
		"payment_method": string(o.paymentMethod),
		"total":          o.total.String(),
	})
}

func newStatusChangedEvent(orderID string, from, to Status, actor string, at time.Time) shared.DomainEvent {
	return shared.NewEvent(EventOrderStatusChanged, orderID, at, map[string]any{
		"from":  string(from),
		"to":    string(to),
		"actor": actor,
	})
}

func newOrderCancelledEvent(orderID, reason, actor string, at time.Time) shared.DomainEvent {
	return shared.NewEvent(EventOrderCancelled, orderID, at, map[string]any{
		"reason": reason,
		"actor":  actor,
	})
}

func newPaymentUpdatedEvent(orderID string, status PaymentStatus, at time.Time) shared.DomainEvent {
	return shared.NewEvent(EventOrderPaymentUpdated, orderID, at, map[string]any{
		"payment_status": string(status),
	})
}

func newOrderRefundedEvent(orderID string, amount shared.Money, full bool, at time.Time) shared.DomainEvent {
	return shared.NewEvent(EventOrderRefunded, orderID, at, map[string]any{
		"amount": amount.String(),
		"full":   full,
	})
}
