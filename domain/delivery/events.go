package delivery

import (
	"time"

	"savoria/domain/shared"
)

const (
	EventDriverAssigned = "delivery.driver_assigned"
	EventStatusChanged  = "delivery.status_changed"
	EventCashCollected  = "delivery.cash_collected"
)

func newDriverAssignedEvent(deliveryID, orderID, driverID string, at time.Time) shared.DomainEvent {
	return shared.NewEvent(EventDriverAssigned, deliveryID, at, map[string]any{
		"order_id":  orderID,
		"driver_id": driverID,
	})
}

func newStatusChangedEvent(deliveryID, orderID string, from, to Status, reason string, at time.Time) shared.DomainEvent {
	return shared.NewEvent(EventStatusChanged, deliveryID, at, map[string]any{
		"order_id": orderID,
		"from":     string(from),
		"to":       string(to),
		"reason":   reason,
	})
}

func newCashCollectedEvent(deliveryID, orderID string, amount shared.Money, at time.Time) shared.DomainEvent {
	return shared.NewEvent(EventCashCollected, deliveryID, at, map[string]any{
		"order_id": orderID,
		"amount":   amount.String(),
	})
}
