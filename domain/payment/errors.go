package payment

import (
	"errors"

	"savoria/domain/shared"
)

var (
	// ErrSlipAlreadyDecided confirm or reject on a slip that was already confirmed or rejected.
	ErrSlipAlreadyDecided = errors.New("payment slip has already been decided")

	// ErrSlipOutstanding a new slip while another one is waiting or the order is paid.
	ErrSlipOutstanding = errors.New("order already has an outstanding or accepted payment")

	ErrNotRefundable       = errors.New("only completed payments can be refunded")
	ErrRefundExceedsAmount = errors.New("refund exceeds the original payment amount")

	// ErrNoCompletedPayment refund requested for an order nobody has paid yet.
	ErrNoCompletedPayment = errors.New("order has no completed payment")

	// ErrDeliveryDispatched delivery fee refund after a driver was involved.
	ErrDeliveryDispatched = errors.New("delivery fee is only refundable for cancelled orders never dispatched")
)

const entityName = "payment"

func NewPaymentNotFoundError(id string) error {
	return shared.NewNotFoundError(entityName, id)
}

func NewConcurrentModificationError(id string) error {
	return shared.NewConflictError(entityName, id)
}

func newInvalidStateError(p *Payment, operation string) error {
	return shared.NewInvalidStateError(entityName, p.id, string(p.status), operation)
}

func newInvalidSlipStateError(p *Payment, operation string) error {
	current := "NO_SLIP"
	if p.slip != nil {
		current = string(p.slip.Status)
	}
	return shared.NewInvalidStateError("payment slip", p.id, current, operation)
}
