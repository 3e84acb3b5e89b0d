package fulfillment

import (
	"context"
	"testing"

	"savoria/domain/delivery"
	"savoria/domain/order"
	"savoria/domain/payment"
	"savoria/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignDriver(t *testing.T) {
	f := newFixture(t)
	view := f.createOrder(t, order.TypeDelivery, order.PaymentGateway)

	_, err := f.svc.AssignDriver(context.Background(), admin, view.Delivery.ID, "drv-1")
	require.ErrorIs(t, err, shared.ErrInvalidState, "pending orders take no driver")

	f.advance(t, view.ID, order.StatusConfirmed)

	d, err := f.svc.AssignDriver(context.Background(), admin, view.Delivery.ID, "drv-1")
	require.NoError(t, err)
	assert.Equal(t, string(delivery.StatusAssigned), d.Status)
	require.NotNil(t, d.Driver)
	assert.Equal(t, "Somchai", d.Driver.Name)
	assert.Equal(t, "0800000001", d.Driver.Phone)
	assert.NotNil(t, d.AssignedAt)
	assert.False(t, f.driverAvailable(t, "drv-1"))

	_, err = f.svc.AssignDriver(context.Background(), admin, view.Delivery.ID, "drv-2")
	assert.ErrorIs(t, err, delivery.ErrDriverAlreadyAssigned)
	assert.True(t, f.driverAvailable(t, "drv-2"), "failed assignment must not claim the driver")

	tracking, err := f.svc.GetTracking(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TrackingDriverAssigned, tracking[0].StatusCode)
}

func TestAssignDriver_DriverNotAvailable(t *testing.T) {
	f := newFixture(t)
	first := f.createOrder(t, order.TypeDelivery, order.PaymentGateway)
	second := f.createOrder(t, order.TypeDelivery, order.PaymentGateway)
	f.advance(t, first.ID, order.StatusConfirmed)
	f.advance(t, second.ID, order.StatusConfirmed)

	_, err := f.svc.AssignDriver(context.Background(), admin, first.Delivery.ID, "drv-3")
	assert.ErrorIs(t, err, delivery.ErrDriverUnavailable)

	_, err = f.svc.AssignDriver(context.Background(), admin, first.Delivery.ID, "drv-1")
	require.NoError(t, err)

	before := f.snapshot(t, second.ID)
	_, err = f.svc.AssignDriver(context.Background(), admin, second.Delivery.ID, "drv-1")
	assert.ErrorIs(t, err, delivery.ErrDriverUnavailable)
	assert.Equal(t, before, f.snapshot(t, second.ID))

	_, err = f.svc.AssignDriver(context.Background(), admin, second.Delivery.ID, "ghost")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.svc.AssignDriver(context.Background(), admin, second.Delivery.ID, " ")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestUnassignDriver_RevertsOrderToConfirmed(t *testing.T) {
	f := newFixture(t)
	view := f.createOrder(t, order.TypeDelivery, order.PaymentGateway)
	f.advance(t, view.ID, order.StatusConfirmed)
	_, err := f.svc.AssignDriver(context.Background(), admin, view.Delivery.ID, "drv-1")
	require.NoError(t, err)
	f.advance(t, view.ID, order.StatusPreparing)

	d, err := f.svc.UnassignDriver(context.Background(), admin, view.Delivery.ID)

	require.NoError(t, err)
	assert.Equal(t, string(delivery.StatusPending), d.Status)
	assert.Nil(t, d.Driver)
	assert.True(t, f.driverAvailable(t, "drv-1"))

	o, err := f.svc.GetOrder(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", o.Status)

	_, err = f.svc.UnassignDriver(context.Background(), admin, view.Delivery.ID)
	assert.ErrorIs(t, err, delivery.ErrNoDriverAssigned)
}

// outForDelivery drives a delivery order with drv-1 to OUT_FOR_DELIVERY.
func (f *fixture) outForDelivery(t *testing.T, method order.PaymentMethod) *OrderView {
	t.Helper()
	view := f.createOrder(t, order.TypeDelivery, method)
	f.advance(t, view.ID, order.StatusConfirmed)
	_, err := f.svc.AssignDriver(context.Background(), admin, view.Delivery.ID, "drv-1")
	require.NoError(t, err)
	return f.advance(t, view.ID, order.StatusPreparing, order.StatusReadyForPickup, order.StatusOutForDelivery)
}

func TestUpdateDeliveryStatus_ArrivedAddsTrackingOnly(t *testing.T) {
	f := newFixture(t)
	view := f.outForDelivery(t, order.PaymentGateway)
	before, err := f.svc.GetTracking(context.Background(), view.ID)
	require.NoError(t, err)

	d, err := f.svc.UpdateDeliveryStatus(context.Background(), driverActor, view.Delivery.ID, delivery.StatusArrived)

	require.NoError(t, err)
	assert.Equal(t, string(delivery.StatusArrived), d.Status)

	o, err := f.svc.GetOrder(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, "OUT_FOR_DELIVERY", o.Status)

	after, err := f.svc.GetTracking(context.Background(), view.ID)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)
	assert.Equal(t, "DELIVERY_ARRIVED", after[0].StatusCode)
	assert.Equal(t, driverActor.Label(), after[0].Actor)
	assert.False(t, f.driverAvailable(t, "drv-1"))
}

func TestUpdateDeliveryStatus_DeliveredCompletesOrderAndFreesDriver(t *testing.T) {
	f := newFixture(t)
	view := f.outForDelivery(t, order.PaymentGateway)

	d, err := f.svc.UpdateDeliveryStatus(context.Background(), driverActor, view.Delivery.ID, delivery.StatusDelivered)

	require.NoError(t, err)
	assert.Equal(t, string(delivery.StatusDelivered), d.Status)
	assert.NotNil(t, d.DeliveredAt)
	assert.True(t, f.driverAvailable(t, "drv-1"))

	o, err := f.svc.GetOrder(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", o.Status)
	assert.NotNil(t, o.ActualDeliveryTime)
}

func TestUpdateDeliveryStatus_FailedAndReturned(t *testing.T) {
	f := newFixture(t)
	view := f.outForDelivery(t, order.PaymentGateway)

	_, err := f.svc.UpdateDeliveryStatus(context.Background(), driverActor, view.Delivery.ID, delivery.StatusFailed)
	require.NoError(t, err)
	assert.True(t, f.driverAvailable(t, "drv-1"))

	d, err := f.svc.UpdateDeliveryStatus(context.Background(), driverActor, view.Delivery.ID, delivery.StatusReturned)
	require.NoError(t, err)
	assert.Equal(t, string(delivery.StatusReturned), d.Status)
	assert.True(t, f.driverAvailable(t, "drv-1"))

	tracking, err := f.svc.GetTracking(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, "DELIVERY_RETURNED", tracking[0].StatusCode)
	assert.False(t, tracking[0].Completed)
	assert.Equal(t, "DELIVERY_FAILED", tracking[1].StatusCode)
}

func TestUpdateDeliveryStatus_Rejections(t *testing.T) {
	f := newFixture(t)
	view := f.createOrder(t, order.TypeDelivery, order.PaymentGateway)
	f.advance(t, view.ID, order.StatusConfirmed, order.StatusPreparing)
	before := f.snapshot(t, view.ID)

	_, err := f.svc.UpdateDeliveryStatus(context.Background(), driverActor, view.Delivery.ID, delivery.StatusPickedUp)
	assert.ErrorIs(t, err, delivery.ErrNoDriverAssigned)

	_, err = f.svc.UpdateDeliveryStatus(context.Background(), driverActor, view.Delivery.ID, delivery.StatusDelivered)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	_, err = f.svc.UpdateDeliveryStatus(context.Background(), driverActor, view.Delivery.ID, delivery.StatusCancelled)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	_, err = f.svc.UpdateDeliveryStatus(context.Background(), driverActor, "missing", delivery.StatusArrived)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.Equal(t, before, f.snapshot(t, view.ID))
}

func TestConfirmCashCollection(t *testing.T) {
	f := newFixture(t)
	view := f.outForDelivery(t, order.PaymentCashOnDelivery)

	_, err := f.svc.ConfirmCashCollection(context.Background(), driverActor, view.Delivery.ID, shared.MustMoney("550.00"))
	require.ErrorIs(t, err, shared.ErrInvalidState, "cash is collected only once the driver has arrived")

	_, err = f.svc.UpdateDeliveryStatus(context.Background(), driverActor, view.Delivery.ID, delivery.StatusArrived)
	require.NoError(t, err)

	d, err := f.svc.ConfirmCashCollection(context.Background(), driverActor, view.Delivery.ID, shared.MustMoney("550.00"))

	require.NoError(t, err)
	assert.True(t, d.CashConfirmed)
	assert.Equal(t, "550.00", d.CashAmount)
	assert.NotNil(t, d.CashCollectedAt)

	o, err := f.svc.GetOrder(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, "PAID", o.PaymentStatus)
	require.Len(t, o.Payments, 1)
	assert.Equal(t, string(payment.StatusCompleted), o.Payments[0].Status)
	assert.Equal(t, "550.00", o.Payments[0].Amount)

	_, err = f.svc.ConfirmCashCollection(context.Background(), driverActor, view.Delivery.ID, shared.MustMoney("550.00"))
	assert.ErrorIs(t, err, delivery.ErrCashAlreadyConfirmed)
}

func TestConfirmCashCollection_NotCashOnDelivery(t *testing.T) {
	f := newFixture(t)
	view := f.outForDelivery(t, order.PaymentGateway)
	_, err := f.svc.UpdateDeliveryStatus(context.Background(), driverActor, view.Delivery.ID, delivery.StatusArrived)
	require.NoError(t, err)

	_, err = f.svc.ConfirmCashCollection(context.Background(), driverActor, view.Delivery.ID, shared.MustMoney("100.00"))
	assert.ErrorIs(t, err, delivery.ErrNotCashOnDelivery)

	_, err = f.svc.ConfirmCashCollection(context.Background(), driverActor, view.Delivery.ID, shared.Zero)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
