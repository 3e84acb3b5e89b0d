/*
Package fulfillment Application Layer - order fulfillment and payment reconciliation

The Service is the single place where the order, delivery and payment state
machines are driven together. Every public method:
 1. takes the acting identity explicitly
 2. runs as one unit of work, so order, delivery, payment and tracking
    writes commit together or not at all
 3. returns a view DTO, never an aggregate

Aggregates record their own events; the unit of work moves them into the
outbox before commit. The service never publishes anything itself.
*/
package fulfillment

import (
	"context"
	"errors"

	"savoria/domain/delivery"
	"savoria/domain/directory"
	"savoria/domain/order"
	"savoria/domain/payment"
	"savoria/domain/shared"
	"savoria/pkg/logger"

	"go.uber.org/zap"
)

// Dependencies wires the service. Every field is required.
type Dependencies struct {
	Orders     order.Repository
	Deliveries delivery.Repository
	Payments   payment.Repository
	Menu       directory.MenuCatalog
	Drivers    directory.DriverDirectory
	Gateway    directory.RefundGateway
	Files      directory.FileStore
	UoW        shared.UnitOfWorkFactory
	Pricing    order.PricingPolicy
}

// Service coordinates the fulfillment workflows.
type Service struct {
	orders     order.Repository
	deliveries delivery.Repository
	payments   payment.Repository
	menu       directory.MenuCatalog
	drivers    directory.DriverDirectory
	gateway    directory.RefundGateway
	files      directory.FileStore
	uowFactory shared.UnitOfWorkFactory
	pricing    order.PricingPolicy
}

func NewService(deps Dependencies) (*Service, error) {
	switch {
	case deps.Orders == nil, deps.Deliveries == nil, deps.Payments == nil:
		return nil, errors.New("fulfillment: repositories are required")
	case deps.Menu == nil, deps.Drivers == nil:
		return nil, errors.New("fulfillment: menu and driver directories are required")
	case deps.Gateway == nil:
		return nil, errors.New("fulfillment: refund gateway is required")
	case deps.Files == nil:
		return nil, errors.New("fulfillment: file store is required")
	case deps.UoW == nil:
		return nil, errors.New("fulfillment: unit of work factory is required")
	}
	if deps.Pricing.TaxRate.IsNegative() || deps.Pricing.DeliveryFee.IsNegative() {
		return nil, errors.New("fulfillment: pricing must not be negative")
	}

	return &Service{
		orders:     deps.Orders,
		deliveries: deps.Deliveries,
		payments:   deps.Payments,
		menu:       deps.Menu,
		drivers:    deps.Drivers,
		gateway:    deps.Gateway,
		files:      deps.Files,
		uowFactory: deps.UoW,
		pricing:    deps.Pricing,
	}, nil
}

// execute runs fn in a fresh unit of work and logs the outcome.
func (s *Service) execute(ctx context.Context, operation string, actor shared.Actor,
	fn func(ctx context.Context, uow shared.UnitOfWork) error) error {
	uow := s.uowFactory.New()
	err := uow.Execute(ctx, func(ctx context.Context) error {
		return fn(ctx, uow)
	})

	log := logger.FromContext(ctx).With(zap.String("operation", operation), zap.String("actor", actor.Label()))
	if err != nil {
		log.Warn("Operation rejected", zap.Error(err))
		return err
	}
	log.Info("Operation committed")
	return nil
}

// loadDelivery returns nil without error when the order has no delivery.
func (s *Service) loadDelivery(ctx context.Context, o *order.Order) (*delivery.Delivery, error) {
	if o.Type() != order.TypeDelivery {
		return nil, nil
	}
	d, err := s.deliveries.FindByOrderID(ctx, o.ID())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

// releaseDriver frees the delivery's driver once the delivery no longer needs one.
func (s *Service) releaseDriver(ctx context.Context, d *delivery.Delivery) error {
	if d == nil || d.DriverID() == "" || !d.Status().ReleasesDriver() {
		return nil
	}
	return s.drivers.SetAvailability(ctx, d.DriverID(), true)
}

type persistable interface {
	shared.AggregateRoot
	IsNew() bool
}

func register(uow shared.UnitOfWork, agg persistable) {
	if agg.IsNew() {
		uow.RegisterNew(agg)
	} else {
		uow.RegisterDirty(agg)
	}
}

// save persists whatever was touched, order first. Nil aggregates are skipped.
func (s *Service) save(ctx context.Context, uow shared.UnitOfWork, o *order.Order, d *delivery.Delivery, payments ...*payment.Payment) error {
	if o != nil {
		register(uow, o)
		if err := s.orders.Save(ctx, o); err != nil {
			return err
		}
	}
	if d != nil {
		register(uow, d)
		if err := s.deliveries.Save(ctx, d); err != nil {
			return err
		}
	}
	for _, p := range payments {
		register(uow, p)
		if err := s.payments.Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
