package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"savoria/domain/directory"
	"savoria/domain/order"
	"savoria/domain/payment"
	"savoria/domain/shared"

	"github.com/google/uuid"
)

// SubmitPaymentSlip stores the uploaded file first and then records the slip.
// A file stored for a submission that fails afterwards is left orphaned.
func (s *Service) SubmitPaymentSlip(ctx context.Context, actor shared.Actor, req SubmitSlipRequest) (*PaymentView, error) {
	o, err := s.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSlipAccepted(ctx, o); err != nil {
		return nil, err
	}

	key, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate slip key: %w", err)
	}
	fileRef, err := s.files.Store(ctx, "slips/"+o.ID()+"/"+key.String(), req.File)
	if err != nil {
		if errors.Is(err, directory.ErrUploadRejected) {
			return nil, shared.NewValidationError("payment", "file", err.Error())
		}
		return nil, fmt.Errorf("store payment slip: %w", err)
	}

	var p *payment.Payment
	err = s.execute(ctx, "submit_payment_slip", actor, func(ctx context.Context, uow shared.UnitOfWork) error {
		o, err := s.orders.FindByID(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if err := s.checkSlipAccepted(ctx, o); err != nil {
			return err
		}

		p, err = payment.NewSlipPayment(payment.SlipSubmission{
			OrderID:        o.ID(),
			SubmittedBy:    actor.Label(),
			Amount:         o.Total(),
			FileRef:        fileRef,
			BankName:       req.BankName,
			TransactionRef: req.TransactionRef,
			Notes:          req.Notes,
		})
		if err != nil {
			return err
		}
		if err := o.RecordSlipSubmitted(p.ID(), actor); err != nil {
			return err
		}
		return s.save(ctx, uow, o, nil, p)
	})
	if err != nil {
		return nil, err
	}
	return toPaymentView(p), nil
}

// checkSlipAccepted rejects slips for orders that are not paid by slip or
// already have a slip waiting or accepted.
func (s *Service) checkSlipAccepted(ctx context.Context, o *order.Order) error {
	if o.PaymentMethod() != order.PaymentCardSlip {
		return shared.NewInvalidStateError("order", o.ID(), string(o.PaymentMethod()), "submit payment slip for")
	}
	if o.Status() == order.StatusCancelled || o.Status() == order.StatusRefunded {
		return shared.NewInvalidStateError("order", o.ID(), string(o.Status()), "submit payment slip for")
	}
	payments, err := s.payments.FindByOrderID(ctx, o.ID())
	if err != nil {
		return err
	}
	if blocking := payment.OutstandingSlip(payments); blocking != nil {
		return shared.WithReason(
			shared.NewInvalidStateError("payment", blocking.ID(), string(blocking.Status()), "submit another slip for the order of"),
			payment.ErrSlipOutstanding)
	}
	return nil
}

// StartSlipReview marks a slip as being looked at by staff.
func (s *Service) StartSlipReview(ctx context.Context, actor shared.Actor, paymentID string) (*PaymentView, error) {
	if err := requireStaff(actor, "review payment slips"); err != nil {
		return nil, err
	}
	var p *payment.Payment
	err := s.execute(ctx, "start_slip_review", actor, func(ctx context.Context, uow shared.UnitOfWork) error {
		var err error
		if p, err = s.payments.FindByID(ctx, paymentID); err != nil {
			return err
		}
		if err := p.StartReview(actor); err != nil {
			return err
		}
		return s.save(ctx, uow, nil, nil, p)
	})
	if err != nil {
		return nil, err
	}
	return toPaymentView(p), nil
}

// ConfirmPaymentSlip accepts the slip, marks the order PAID and confirms a
// PENDING order.
func (s *Service) ConfirmPaymentSlip(ctx context.Context, actor shared.Actor, paymentID, notes string) (*PaymentView, error) {
	if err := requireStaff(actor, "confirm payment slips"); err != nil {
		return nil, err
	}
	var p *payment.Payment
	err := s.execute(ctx, "confirm_payment_slip", actor, func(ctx context.Context, uow shared.UnitOfWork) error {
		var err error
		if p, err = s.payments.FindByID(ctx, paymentID); err != nil {
			return err
		}
		o, err := s.orders.FindByID(ctx, p.OrderID())
		if err != nil {
			return err
		}

		if err := p.ConfirmSlip(actor, notes); err != nil {
			return err
		}
		if err := o.ConfirmPayment(notes, actor); err != nil {
			return err
		}
		d, err := s.syncDelivery(ctx, o)
		if err != nil {
			return err
		}
		return s.save(ctx, uow, o, d, p)
	})
	if err != nil {
		return nil, err
	}
	return toPaymentView(p), nil
}

// RejectPaymentSlip refuses the slip and marks the order's payment FAILED.
// The customer may upload a new slip afterwards.
func (s *Service) RejectPaymentSlip(ctx context.Context, actor shared.Actor, paymentID, reason, notes string) (*PaymentView, error) {
	if err := requireStaff(actor, "reject payment slips"); err != nil {
		return nil, err
	}
	var p *payment.Payment
	err := s.execute(ctx, "reject_payment_slip", actor, func(ctx context.Context, uow shared.UnitOfWork) error {
		var err error
		if p, err = s.payments.FindByID(ctx, paymentID); err != nil {
			return err
		}
		o, err := s.orders.FindByID(ctx, p.OrderID())
		if err != nil {
			return err
		}

		if err := p.RejectSlip(actor, reason, notes); err != nil {
			return err
		}
		if err := o.FailPayment(reason, actor); err != nil {
			return err
		}
		return s.save(ctx, uow, o, nil, p)
	})
	if err != nil {
		return nil, err
	}
	return toPaymentView(p), nil
}

// RecordGatewayPayment records a capture the external gateway already made
// for a GATEWAY order and marks the order PAID.
func (s *Service) RecordGatewayPayment(ctx context.Context, actor shared.Actor, orderID, reference string) (*PaymentView, error) {
	var p *payment.Payment
	err := s.execute(ctx, "record_gateway_payment", actor, func(ctx context.Context, uow shared.UnitOfWork) error {
		o, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.PaymentMethod() != order.PaymentGateway {
			return shared.NewInvalidStateError("order", o.ID(), string(o.PaymentMethod()), "record gateway payment for")
		}

		if p, err = payment.NewGatewayPayment(o.ID(), actor.Label(), o.Total(), strings.TrimSpace(reference)); err != nil {
			return err
		}
		if err := o.ConfirmPayment("gateway capture "+p.Reference(), actor); err != nil {
			return err
		}
		d, err := s.syncDelivery(ctx, o)
		if err != nil {
			return err
		}
		return s.save(ctx, uow, o, d, p)
	})
	if err != nil {
		return nil, err
	}
	return toPaymentView(p), nil
}

func requireStaff(actor shared.Actor, operation string) error {
	if actor.IsStaff() {
		return nil
	}
	return shared.NewValidationError("actor", "actor", fmt.Sprintf("only staff may %s", operation))
}
