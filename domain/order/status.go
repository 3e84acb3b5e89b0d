package order

// Status Order status enum
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusConfirmed      Status = "CONFIRMED"
	StatusPreparing      Status = "PREPARING"
	StatusReadyForPickup Status = "READY_FOR_PICKUP"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
	StatusRefunded       Status = "REFUNDED"
)

// Type decides whether a delivery exists and whether a delivery fee applies.
type Type string

const (
	TypeDelivery Type = "DELIVERY"
	TypePickup   Type = "PICKUP"
	TypeDineIn   Type = "DINE_IN"
)

type PaymentMethod string

const (
	PaymentCardSlip       PaymentMethod = "CARD_SLIP"
	PaymentGateway        PaymentMethod = "GATEWAY"
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

// PaymentStatus is the order level summary of its payments.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "PENDING"
	PaymentStatusPaid              PaymentStatus = "PAID"
	PaymentStatusFailed            PaymentStatus = "FAILED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

// transitions is the reachability table for UpdateStatus.
// REFUNDED is absent on purpose: only a full refund sets it.
// READY_FOR_PICKUP fans out by order type, see nextAllowed.
var transitions = map[Status][]Status{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusReadyForPickup},
	StatusReadyForPickup: {StatusOutForDelivery, StatusDelivered},
	StatusOutForDelivery: {StatusDelivered},
}

func nextAllowed(from Status, orderType Type) []Status {
	if from == StatusReadyForPickup {
		if orderType == TypeDelivery {
			return []Status{StatusOutForDelivery}
		}
		return []Status{StatusDelivered}
	}
	return transitions[from]
}

// CanTransition reports whether to is directly reachable from from for an order of the given type.
func CanTransition(orderType Type, from, to Status) bool {
	for _, s := range nextAllowed(from, orderType) {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReadyForPickup,
		StatusOutForDelivery, StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// IsTerminal DELIVERED, CANCELLED and REFUNDED accept no further status updates.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRefunded
}

func (t Type) IsValid() bool {
	return t == TypeDelivery || t == TypePickup || t == TypeDineIn
}

func (m PaymentMethod) IsValid() bool {
	return m == PaymentCardSlip || m == PaymentGateway || m == PaymentCashOnDelivery
}

func (s Status) String() string        { return string(s) }
func (t Type) String() string          { return string(t) }
func (m PaymentMethod) String() string { return string(m) }
func (p PaymentStatus) String() string { return string(p) }
