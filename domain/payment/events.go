package payment

import (
	"savoria/domain/shared"
)

const (
	EventSlipSubmitted    = "payment.slip_submitted"
	EventSlipConfirmed    = "payment.slip_confirmed"
	EventSlipRejected     = "payment.slip_rejected"
	EventPaymentCompleted = "payment.completed"
	EventPaymentRefunded  = "payment.refunded"
)

func newSlipSubmittedEvent(p *Payment) shared.DomainEvent {
	return shared.NewEvent(EventSlipSubmitted, p.id, p.createdAt, map[string]any{
		"order_id": p.orderID,
		"amount":   p.amount.String(),
	})
}

func newSlipDecidedEvent(p *Payment, name, reason string) shared.DomainEvent {
	payload := map[string]any{
		"order_id":    p.orderID,
		"reviewed_by": p.slip.ReviewedBy,
	}
	if reason != "" {
		payload["reason"] = reason
	}
	return shared.NewEvent(name, p.id, p.updatedAt, payload)
}

func newPaymentCompletedEvent(p *Payment) shared.DomainEvent {
	return shared.NewEvent(EventPaymentCompleted, p.id, p.updatedAt, map[string]any{
		"order_id": p.orderID,
		"method":   string(p.method),
		"amount":   p.amount.String(),
	})
}

func newRefundedEvent(p *Payment) shared.DomainEvent {
	return shared.NewEvent(EventPaymentRefunded, p.id, p.updatedAt, map[string]any{
		"order_id": p.orderID,
		"amount":   p.refundAmount.String(),
		"status":   string(p.status),
	})
}
