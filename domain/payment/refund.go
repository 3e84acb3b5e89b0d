package payment

import (
	"savoria/domain/order"
	"savoria/domain/shared"

	"github.com/shopspring/decimal"
)

type RefundType string

const (
	RefundFull               RefundType = "FULL"
	RefundPartialDeliveryFee RefundType = "PARTIAL_DELIVERY_FEE"
	RefundProportional       RefundType = "PROPORTIONAL"
)

func (t RefundType) IsValid() bool {
	return t == RefundFull || t == RefundPartialDeliveryFee || t == RefundProportional
}

// proportionalRates share of the payment returned, keyed by how far the order got.
var proportionalRates = map[order.Status]decimal.Decimal{
	order.StatusPending:        decimal.NewFromInt(1),
	order.StatusConfirmed:      decimal.NewFromInt(1),
	order.StatusPreparing:      decimal.RequireFromString("0.75"),
	order.StatusReadyForPickup: decimal.RequireFromString("0.50"),
	order.StatusOutForDelivery: decimal.RequireFromString("0.25"),
}

// ProportionalRate is 0 for DELIVERED and every status not listed above, CANCELLED included.
func ProportionalRate(s order.Status) decimal.Decimal {
	if r, ok := proportionalRates[s]; ok {
		return r
	}
	return decimal.Zero
}

// RefundBasis is everything the calculator needs to know about an order.
type RefundBasis struct {
	OrderID     string
	OrderStatus order.Status
	DeliveryFee shared.Money

	// Payment is the order's completed payment.
	Payment *Payment

	// HasDelivery and NeverDispatched describe the delivery, when there is one.
	HasDelivery     bool
	NeverDispatched bool
}

// CalculateRefundAmount derives the amount to refund for the given refund type.
func CalculateRefundAmount(t RefundType, b RefundBasis) (shared.Money, error) {
	if !t.IsValid() {
		return shared.Money{}, shared.NewValidationError(entityName, "refund_type", "unknown refund type: "+string(t))
	}
	if b.Payment == nil {
		return shared.Money{}, shared.WithReason(
			shared.NewInvalidStateError("order", b.OrderID, string(b.OrderStatus), "refund"), ErrNoCompletedPayment)
	}

	amount := b.Payment.Amount()
	switch t {
	case RefundFull:
		return amount, nil

	case RefundPartialDeliveryFee:
		if b.OrderStatus != order.StatusCancelled || !b.HasDelivery || !b.NeverDispatched {
			return shared.Money{}, shared.WithReason(
				shared.NewInvalidStateError("order", b.OrderID, string(b.OrderStatus), "refund delivery fee of"), ErrDeliveryDispatched)
		}
		if b.DeliveryFee.GreaterThan(amount) {
			return amount, nil
		}
		return b.DeliveryFee, nil

	default:
		return amount.MulRate(ProportionalRate(b.OrderStatus)), nil
	}
}

// CompletedPayment returns the most recent COMPLETED payment, or nil.
// payments are expected oldest first, as returned by Repository.FindByOrderID.
func CompletedPayment(payments []*Payment) *Payment {
	for i := len(payments) - 1; i >= 0; i-- {
		if payments[i].Status() == StatusCompleted {
			return payments[i]
		}
	}
	return nil
}

// OutstandingSlip returns the payment that blocks a new slip upload, or nil.
func OutstandingSlip(payments []*Payment) *Payment {
	for i := len(payments) - 1; i >= 0; i-- {
		if payments[i].BlocksNewSlip() {
			return payments[i]
		}
	}
	return nil
}
