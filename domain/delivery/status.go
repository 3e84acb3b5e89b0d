package delivery

import "savoria/domain/order"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAssigned  Status = "ASSIGNED"
	StatusPickedUp  Status = "PICKED_UP"
	StatusInTransit Status = "IN_TRANSIT"
	StatusArrived   Status = "ARRIVED"
	StatusDelivered Status = "DELIVERED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusReturned  Status = "RETURNED"
)

// transitions covers driver and staff actions on the delivery itself.
// Order driven changes go through SyncWithOrder instead.
var transitions = map[Status][]Status{
	StatusPending:   {StatusAssigned, StatusCancelled},
	StatusAssigned:  {StatusPickedUp, StatusPending, StatusCancelled},
	StatusPickedUp:  {StatusInTransit, StatusFailed, StatusReturned},
	StatusInTransit: {StatusArrived, StatusDelivered, StatusFailed, StatusReturned},
	StatusArrived:   {StatusDelivered, StatusFailed, StatusReturned},
	StatusFailed:    {StatusReturned},
}

// progress ranks the main path; side exits have no rank.
var progress = map[Status]int{
	StatusPending:   0,
	StatusAssigned:  1,
	StatusPickedUp:  2,
	StatusInTransit: 3,
	StatusArrived:   4,
	StatusDelivered: 5,
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// orderMapping is the delivery status implied by each order status.
var orderMapping = map[order.Status]Status{
	order.StatusPending:        StatusPending,
	order.StatusConfirmed:      StatusPending,
	order.StatusPreparing:      StatusAssigned,
	order.StatusReadyForPickup: StatusPickedUp,
	order.StatusOutForDelivery: StatusInTransit,
	order.StatusDelivered:      StatusDelivered,
	order.StatusCancelled:      StatusCancelled,
}

// StatusForOrder maps an order status to the delivery status it implies.
// REFUNDED implies nothing.
func StatusForOrder(s order.Status) (Status, bool) {
	d, ok := orderMapping[s]
	return d, ok
}

func (s Status) IsValid() bool {
	_, onPath := progress[s]
	return onPath || s == StatusFailed || s == StatusCancelled || s == StatusReturned
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusReturned
}

// ReleasesDriver statuses after which the driver is free for another delivery.
func (s Status) ReleasesDriver() bool {
	return s.IsTerminal() || s == StatusFailed
}

func (s Status) String() string { return string(s) }
