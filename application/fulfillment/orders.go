package fulfillment

import (
	"context"
	"strings"

	"savoria/domain/delivery"
	"savoria/domain/order"
	"savoria/domain/payment"
	"savoria/domain/shared"
	"savoria/pkg/logger"

	"go.uber.org/zap"
)

// CreateOrder prices the lines from the menu and places a PENDING order.
// Delivery orders get their PENDING delivery, cash on delivery orders their
// PENDING cash payment, in the same unit of work.
func (s *Service) CreateOrder(ctx context.Context, actor shared.Actor, req CreateOrderRequest) (*OrderView, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	if actor.Kind == shared.ActorCustomer || customerID == "" {
		customerID = actor.ID
	}

	var (
		o *order.Order
		d *delivery.Delivery
		p *payment.Payment
	)
	err := s.execute(ctx, "create_order", actor, func(ctx context.Context, uow shared.UnitOfWork) error {
		lines, err := s.priceLines(ctx, req.Items)
		if err != nil {
			return err
		}

		o, err = order.Place(order.PlaceParams{
			CustomerID:            customerID,
			Type:                  order.Type(req.Type),
			PaymentMethod:         order.PaymentMethod(req.PaymentMethod),
			Items:                 lines,
			DeliveryAddress:       req.DeliveryAddress,
			Notes:                 req.Notes,
			EstimatedDeliveryTime: req.EstimatedDeliveryTime,
			Pricing:               s.pricing,
			Actor:                 actor,
		})
		if err != nil {
			return err
		}

		if o.Type() == order.TypeDelivery {
			cod := o.PaymentMethod() == order.PaymentCashOnDelivery
			if d, err = delivery.New(o.ID(), o.DeliveryAddress(), o.DeliveryFee(), cod); err != nil {
				return err
			}
			if cod {
				if p, err = payment.NewCashOnDeliveryPayment(o.ID(), customerID, o.Total()); err != nil {
					return err
				}
			}
		}

		if p != nil {
			return s.save(ctx, uow, o, d, p)
		}
		return s.save(ctx, uow, o, d)
	})
	if err != nil {
		return nil, err
	}

	var payments []*payment.Payment
	if p != nil {
		payments = append(payments, p)
	}
	return toOrderView(o, d, payments), nil
}

func (s *Service) priceLines(ctx context.Context, items []LineItemRequest) ([]order.LineRequest, error) {
	lines := make([]order.LineRequest, 0, len(items))
	for _, item := range items {
		line, err := s.priceLine(ctx, item)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// priceLine snapshots the menu's effective price at request time.
func (s *Service) priceLine(ctx context.Context, item LineItemRequest) (order.LineRequest, error) {
	if strings.TrimSpace(item.MenuItemID) == "" {
		return order.LineRequest{}, shared.NewValidationError("order", "menu_item_id", "menu item is required")
	}
	menuItem, err := s.menu.GetMenuItem(ctx, item.MenuItemID)
	if err != nil {
		return order.LineRequest{}, err
	}
	if !menuItem.Available {
		return order.LineRequest{}, shared.NewValidationError("order", "menu_item_id", "menu item is not available: "+menuItem.ID)
	}
	return order.LineRequest{
		MenuItemID: menuItem.ID,
		Name:       menuItem.Name,
		Quantity:   item.Quantity,
		UnitPrice:  order.EffectivePrice(menuItem.Price, menuItem.DiscountPercentage),
	}, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*OrderView, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.orderView(ctx, o)
}

// ListCustomerOrders newest first.
func (s *Service) ListCustomerOrders(ctx context.Context, customerID string) ([]*OrderView, error) {
	orders, err := s.orders.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	views := make([]*OrderView, 0, len(orders))
	for _, o := range orders {
		view, err := s.orderView(ctx, o)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// ListOrders searches orders newest first. Staff may filter freely; any
// other actor only ever sees their own orders.
func (s *Service) ListOrders(ctx context.Context, actor shared.Actor, filter OrderFilter) ([]*OrderView, error) {
	if !actor.IsStaff() {
		if actor.ID == "" {
			return nil, shared.NewValidationError("order", "customer_id", "an identified actor is required to list orders")
		}
		filter.CustomerID = actor.ID
	}

	specs := make([]shared.Specification[*order.Order], 0, 4)
	if id := strings.TrimSpace(filter.CustomerID); id != "" {
		specs = append(specs, order.NewByCustomerSpecification(id))
	}
	if filter.Status != "" {
		status := order.Status(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewValidationError("order", "status", "unknown status "+filter.Status)
		}
		specs = append(specs, order.NewByStatusSpecification(status))
	}
	if filter.Type != "" {
		orderType := order.Type(filter.Type)
		if !orderType.IsValid() {
			return nil, shared.NewValidationError("order", "order_type", "unknown order type "+filter.Type)
		}
		specs = append(specs, order.NewByTypeSpecification(orderType))
	}
	if !filter.From.IsZero() || !filter.To.IsZero() {
		if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
			return nil, shared.NewValidationError("order", "to", "range ends before it starts")
		}
		specs = append(specs, order.NewCreatedBetweenSpecification(filter.From, filter.To))
	}

	limit := filter.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	orders, err := s.orders.FindBySpecification(ctx, shared.And(specs...), limit)
	if err != nil {
		return nil, err
	}

	views := make([]*OrderView, 0, len(orders))
	for _, o := range orders {
		view, err := s.orderView(ctx, o)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) orderView(ctx context.Context, o *order.Order) (*OrderView, error) {
	d, err := s.loadDelivery(ctx, o)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.FindByOrderID(ctx, o.ID())
	if err != nil {
		return nil, err
	}
	return toOrderView(o, d, payments), nil
}

// AddItem adds a menu line to a PENDING order and reprices it.
func (s *Service) AddItem(ctx context.Context, actor shared.Actor, orderID string, item LineItemRequest) (*OrderView, error) {
	var view *OrderView
	err := s.execute(ctx, "add_item", actor, func(ctx context.Context, uow shared.UnitOfWork) error {
		o, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		line, err := s.priceLine(ctx, item)
		if err != nil {
			return err
		}
		if _, err := o.AddItem(line, actor); err != nil {
			return err
		}
		if err := s.repriceCashPayment(ctx, uow, o); err != nil {
			return err
		}
		if err := s.save(ctx, uow, o, nil); err != nil {
			return err
		}
		view, err = s.orderView(ctx, o)
		return err
	})
	return view, err
}

// RemoveItem removes a line from a PENDING order and reprices it.
func (s *Service) RemoveItem(ctx context.Context, actor shared.Actor, orderID, itemID string) (*OrderView, error) {
	var view *OrderView
	err := s.execute(ctx, "remove_item", actor, func(ctx context.Context, uow shared.UnitOfWork) error {
		o, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.RemoveItem(itemID, actor); err != nil {
			return err
		}
		if err := s.repriceCashPayment(ctx, uow, o); err != nil {
			return err
		}
		if err := s.save(ctx, uow, o, nil); err != nil {
			return err
		}
		view, err = s.orderView(ctx, o)
		return err
	})
	return view, err
}

// repriceCashPayment keeps the expected cash amount of a cash on delivery
// order in line with its total.
func (s *Service) repriceCashPayment(ctx context.Context, uow shared.UnitOfWork, o *order.Order) error {
	if o.PaymentMethod() != order.PaymentCashOnDelivery {
		return nil
	}
	payments, err := s.payments.FindByOrderID(ctx, o.ID())
	if err != nil {
		return err
	}
	for _, p := range payments {
		if p.Method() == payment.MethodCashOnDelivery && p.Status() == payment.StatusPending && !p.Amount().Equals(o.Total()) {
			if err := p.UpdateExpectedCash(o.Total()); err != nil {
				return err
			}
			return s.save(ctx, uow, nil, nil, p)
		}
	}
	return nil
}

// UpdateStatus moves the order along its reachability table and brings the
// delivery along with it.
func (s *Service) UpdateStatus(ctx context.Context, actor shared.Actor, orderID string, target order.Status) (*OrderView, error) {
	var view *OrderView
	err := s.execute(ctx, "update_status", actor, func(ctx context.Context, uow shared.UnitOfWork) error {
		o, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		from := o.Status()
		if err := o.TransitionTo(target, actor); err != nil {
			return err
		}

		d, err := s.syncDelivery(ctx, o)
		if err != nil {
			return err
		}
		if err := s.save(ctx, uow, o, d); err != nil {
			return err
		}

		logger.FromContext(ctx).Info("Order status changed",
			zap.String("order_id", o.ID()),
			zap.String("from", string(from)),
			zap.String("to", string(o.Status())),
		)
		view, err = s.orderView(ctx, o)
		return err
	})
	return view, err
}

// CancelOrder is legal only while the order is PENDING or CONFIRMED.
func (s *Service) CancelOrder(ctx context.Context, actor shared.Actor, orderID, reason string) (*OrderView, error) {
	var view *OrderView
	err := s.execute(ctx, "cancel_order", actor, func(ctx context.Context, uow shared.UnitOfWork) error {
		o, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.Cancel(reason, actor); err != nil {
			return err
		}

		d, err := s.syncDelivery(ctx, o)
		if err != nil {
			return err
		}
		if err := s.save(ctx, uow, o, d); err != nil {
			return err
		}
		view, err = s.orderView(ctx, o)
		return err
	})
	return view, err
}

// syncDelivery applies the order's new status to its delivery, if any, and
// frees the driver when the delivery is over. Returns nil when nothing changed.
func (s *Service) syncDelivery(ctx context.Context, o *order.Order) (*delivery.Delivery, error) {
	d, err := s.loadDelivery(ctx, o)
	if err != nil || d == nil {
		return nil, err
	}
	changed, err := d.SyncWithOrder(o.Status())
	if err != nil || !changed {
		return nil, err
	}
	if err := s.releaseDriver(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetTracking returns the order's timeline newest first.
func (s *Service) GetTracking(ctx context.Context, orderID string) ([]TrackingView, error) {
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	entries, err := s.orders.ListTracking(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toTrackingViews(entries), nil
}
