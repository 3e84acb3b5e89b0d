package fulfillment

import (
	"context"
	"strings"

	"savoria/domain/directory"
	"savoria/domain/order"
	"savoria/domain/payment"
	"savoria/domain/shared"
	"savoria/pkg/logger"

	"go.uber.org/zap"
)

// CalculateRefundAmount quotes a refund of the given type against the
// order's completed payment. Nothing is changed.
func (s *Service) CalculateRefundAmount(ctx context.Context, orderID string, refundType payment.RefundType) (*RefundQuote, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	p, amount, err := s.quote(ctx, o, refundType)
	if err != nil {
		return nil, err
	}
	return &RefundQuote{
		OrderID:       o.ID(),
		PaymentID:     p.ID(),
		RefundType:    string(refundType),
		PaymentAmount: p.Amount().String(),
		Amount:        amount.String(),
	}, nil
}

func (s *Service) quote(ctx context.Context, o *order.Order, refundType payment.RefundType) (*payment.Payment, shared.Money, error) {
	payments, err := s.payments.FindByOrderID(ctx, o.ID())
	if err != nil {
		return nil, shared.Money{}, err
	}
	d, err := s.loadDelivery(ctx, o)
	if err != nil {
		return nil, shared.Money{}, err
	}

	basis := payment.RefundBasis{
		OrderID:     o.ID(),
		OrderStatus: o.Status(),
		DeliveryFee: o.DeliveryFee(),
		Payment:     payment.CompletedPayment(payments),
		HasDelivery: d != nil,
	}
	if d != nil {
		basis.NeverDispatched = d.NeverDispatched()
	}
	amount, err := payment.CalculateRefundAmount(refundType, basis)
	if err != nil {
		return nil, shared.Money{}, err
	}
	return basis.Payment, amount, nil
}

// ProcessRefund refunds amount of a COMPLETED payment through the gateway.
// A full refund also moves the order to REFUNDED. The unit of work is never
// retried and the gateway gets an idempotency key, so a caller repeating a
// failed request cannot refund twice.
func (s *Service) ProcessRefund(ctx context.Context, actor shared.Actor, paymentID string, amount shared.Money, reason string) (*PaymentView, error) {
	return s.refund(ctx, actor, paymentID, reason, func(context.Context, *payment.Payment) (shared.Money, error) {
		return amount, nil
	})
}

// ProcessFullRefund is ProcessRefund for the whole payment amount.
func (s *Service) ProcessFullRefund(ctx context.Context, actor shared.Actor, paymentID, reason string) (*PaymentView, error) {
	return s.refund(ctx, actor, paymentID, reason, func(_ context.Context, p *payment.Payment) (shared.Money, error) {
		return p.Amount(), nil
	})
}

// RequestRefund accepts either a refund type, computed against the payment's
// order, or an explicit amount. Exactly one must be given.
func (s *Service) RequestRefund(ctx context.Context, actor shared.Actor, paymentID string, req RefundRequest) (*PaymentView, error) {
	refundType := payment.RefundType(strings.ToUpper(strings.TrimSpace(req.Type)))
	rawAmount := strings.TrimSpace(req.Amount)

	switch {
	case refundType == "" && rawAmount == "":
		return nil, shared.NewValidationError("payment", "refund_type", "either refund_type or amount is required")
	case refundType != "" && rawAmount != "":
		return nil, shared.NewValidationError("payment", "refund_type", "refund_type and amount are mutually exclusive")
	case rawAmount != "":
		amount, err := shared.NewMoney(rawAmount)
		if err != nil {
			return nil, err
		}
		return s.ProcessRefund(ctx, actor, paymentID, amount, req.Reason)
	case !refundType.IsValid():
		return nil, shared.NewValidationError("payment", "refund_type", "unknown refund type: "+string(refundType))
	}

	return s.refund(ctx, actor, paymentID, req.Reason, func(ctx context.Context, p *payment.Payment) (shared.Money, error) {
		o, err := s.orders.FindByID(ctx, p.OrderID())
		if err != nil {
			return shared.Money{}, err
		}
		quoted, amount, err := s.quote(ctx, o, refundType)
		if err != nil {
			return shared.Money{}, err
		}
		if quoted.ID() != p.ID() {
			return shared.Money{}, shared.WithReason(
				shared.NewInvalidStateError("payment", p.ID(), string(p.Status()), "refund"), payment.ErrNotRefundable)
		}
		if !amount.IsPositive() {
			return shared.Money{}, shared.NewValidationError("payment", "amount",
				"nothing to refund for "+string(refundType)+" in order status "+string(o.Status()))
		}
		return amount, nil
	})
}

// refund validates everything before calling the gateway so that a rejected
// request never reaches it, and writes nothing when the gateway fails.
func (s *Service) refund(ctx context.Context, actor shared.Actor, paymentID, reason string,
	amountFor func(ctx context.Context, p *payment.Payment) (shared.Money, error)) (*PaymentView, error) {
	var p *payment.Payment
	err := s.execute(shared.WithoutRetry(ctx), "process_refund", actor, func(ctx context.Context, uow shared.UnitOfWork) error {
		var err error
		if p, err = s.payments.FindByIDForUpdate(ctx, paymentID); err != nil {
			return err
		}
		amount, err := amountFor(ctx, p)
		if err != nil {
			return err
		}
		if err := p.ValidateRefund(amount); err != nil {
			return err
		}
		o, err := s.orders.FindByID(ctx, p.OrderID())
		if err != nil {
			return err
		}
		if o.PaymentStatus() != order.PaymentStatusPaid {
			return shared.NewInvalidStateError("order", o.ID(), string(o.PaymentStatus()), "refund")
		}

		result, err := s.gateway.Refund(ctx, directory.RefundRequest{
			PaymentID:      p.ID(),
			OrderID:        o.ID(),
			Amount:         amount,
			Reason:         reason,
			GatewayRef:     p.Reference(),
			IdempotencyKey: p.IdempotencyKey(amount),
		})
		if err != nil {
			return shared.NewGatewayError("payment", p.ID(), err)
		}

		full, err := p.ApplyRefund(amount, reason, result.Reference)
		if err != nil {
			return err
		}
		if err := o.ApplyRefund(amount, full, reason, actor); err != nil {
			return err
		}
		if err := s.save(ctx, uow, o, nil, p); err != nil {
			return err
		}

		logger.FromContext(ctx).Info("Refund issued",
			zap.String("payment_id", p.ID()),
			zap.String("order_id", o.ID()),
			zap.String("amount", amount.String()),
			zap.Bool("full", full),
			zap.String("gateway_ref", result.Reference),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toPaymentView(p), nil
}
