package fulfillment

import (
	"context"
	"strings"

	"savoria/domain/delivery"
	"savoria/domain/order"
	"savoria/domain/payment"
	"savoria/domain/shared"
)

// AssignDriver claims an available driver for the delivery.
// The availability flip commits with the assignment; a driver claimed by a
// concurrent request fails the later one.
func (s *Service) AssignDriver(ctx context.Context, actor shared.Actor, deliveryID, driverID string) (*DeliveryView, error) {
	if strings.TrimSpace(driverID) == "" {
		return nil, shared.NewValidationError("delivery", "driver_id", "driver is required")
	}

	var d *delivery.Delivery
	err := s.execute(ctx, "assign_driver", actor, func(ctx context.Context, uow shared.UnitOfWork) error {
		var err error
		if d, err = s.deliveries.FindByID(ctx, deliveryID); err != nil {
			return err
		}
		o, err := s.orders.FindByID(ctx, d.OrderID())
		if err != nil {
			return err
		}

		driver, err := s.drivers.GetDriver(ctx, driverID)
		if err != nil {
			return err
		}
		if !driver.Available {
			return delivery.NewDriverUnavailableError(driverID)
		}

		if err := o.RecordDriverAssigned(driver.Name, actor); err != nil {
			return err
		}
		if err := d.AssignDriver(delivery.DriverSnapshot{
			ID:      driver.ID,
			Name:    driver.Name,
			Phone:   driver.Phone,
			Vehicle: driver.Vehicle,
		}); err != nil {
			return err
		}
		if err := s.drivers.SetAvailability(ctx, driverID, false); err != nil {
			return err
		}
		return s.save(ctx, uow, o, d)
	})
	if err != nil {
		return nil, err
	}
	return toDeliveryView(d), nil
}

// UnassignDriver frees the driver, reverts the delivery to PENDING and the
// order to CONFIRMED.
func (s *Service) UnassignDriver(ctx context.Context, actor shared.Actor, deliveryID string) (*DeliveryView, error) {
	var d *delivery.Delivery
	err := s.execute(ctx, "unassign_driver", actor, func(ctx context.Context, uow shared.UnitOfWork) error {
		var err error
		if d, err = s.deliveries.FindByID(ctx, deliveryID); err != nil {
			return err
		}
		o, err := s.orders.FindByID(ctx, d.OrderID())
		if err != nil {
			return err
		}

		driverID, err := d.Unassign()
		if err != nil {
			return err
		}
		if err := o.RecordDriverUnassigned(actor); err != nil {
			return err
		}
		if err := s.drivers.SetAvailability(ctx, driverID, true); err != nil {
			return err
		}
		return s.save(ctx, uow, o, d)
	})
	if err != nil {
		return nil, err
	}
	return toDeliveryView(d), nil
}

// orderPathFor lists the order statuses a driver reported delivery status
// implies, in the order they are reached.
var orderPathFor = map[delivery.Status][]order.Status{
	delivery.StatusInTransit: {order.StatusOutForDelivery},
	delivery.StatusDelivered: {order.StatusOutForDelivery, order.StatusDelivered},
}

var progressTitles = map[delivery.Status]string{
	delivery.StatusPickedUp: "Picked up",
	delivery.StatusArrived:  "Driver arrived",
	delivery.StatusFailed:   "Delivery failed",
	delivery.StatusReturned: "Returned to restaurant",
}

// UpdateDeliveryStatus applies a driver reported status. IN_TRANSIT and
// DELIVERED move the order too when its table allows. Anything that leaves
// the order where it is adds a tracking entry instead.
func (s *Service) UpdateDeliveryStatus(ctx context.Context, actor shared.Actor, deliveryID string, target delivery.Status) (*DeliveryView, error) {
	var d *delivery.Delivery
	err := s.execute(ctx, "update_delivery_status", actor, func(ctx context.Context, uow shared.UnitOfWork) error {
		var err error
		if d, err = s.deliveries.FindByID(ctx, deliveryID); err != nil {
			return err
		}
		o, err := s.orders.FindByID(ctx, d.OrderID())
		if err != nil {
			return err
		}

		if err := d.Advance(target); err != nil {
			return err
		}

		moved := false
		for _, next := range orderPathFor[target] {
			if !o.CanTransitionTo(next) {
				continue
			}
			if err := o.TransitionTo(next, actor); err != nil {
				return err
			}
			moved = true
		}
		if !moved {
			title := progressTitles[target]
			if title == "" {
				title = "Delivery " + strings.ToLower(strings.ReplaceAll(string(target), "_", " "))
			}
			completed := target != delivery.StatusFailed && target != delivery.StatusReturned
			if err := o.RecordDeliveryProgress("DELIVERY_"+string(target), title, "driver reported "+string(target), completed, actor); err != nil {
				return err
			}
		}

		if err := s.releaseDriver(ctx, d); err != nil {
			return err
		}
		return s.save(ctx, uow, o, d)
	})
	if err != nil {
		return nil, err
	}
	return toDeliveryView(d), nil
}

// ConfirmCashCollection records the cash the driver collected and marks the
// order PAID.
func (s *Service) ConfirmCashCollection(ctx context.Context, actor shared.Actor, deliveryID string, amount shared.Money) (*DeliveryView, error) {
	var d *delivery.Delivery
	err := s.execute(ctx, "confirm_cash_collection", actor, func(ctx context.Context, uow shared.UnitOfWork) error {
		var err error
		if d, err = s.deliveries.FindByID(ctx, deliveryID); err != nil {
			return err
		}
		o, err := s.orders.FindByID(ctx, d.OrderID())
		if err != nil {
			return err
		}

		if err := d.ConfirmCashCollection(amount); err != nil {
			return err
		}
		if err := o.MarkCashCollected(amount, actor); err != nil {
			return err
		}

		p, err := s.pendingCashPayment(ctx, o)
		if err != nil {
			return err
		}
		if err := p.CompleteCashCollection(amount); err != nil {
			return err
		}
		return s.save(ctx, uow, o, d, p)
	})
	if err != nil {
		return nil, err
	}
	return toDeliveryView(d), nil
}

// pendingCashPayment finds the payment created with the order, or starts one
// for orders placed before cash payments were recorded up front.
func (s *Service) pendingCashPayment(ctx context.Context, o *order.Order) (*payment.Payment, error) {
	payments, err := s.payments.FindByOrderID(ctx, o.ID())
	if err != nil {
		return nil, err
	}
	for i := len(payments) - 1; i >= 0; i-- {
		p := payments[i]
		if p.Method() == payment.MethodCashOnDelivery && p.Status() == payment.StatusPending {
			return p, nil
		}
	}
	return payment.NewCashOnDeliveryPayment(o.ID(), o.CustomerID(), o.Total())
}
