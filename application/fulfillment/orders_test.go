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

func TestCreateOrder_DeliveryCashOnDelivery(t *testing.T) {
	f := newFixture(t)

	view := f.createOrder(t, order.TypeDelivery, order.PaymentCashOnDelivery)

	assert.Equal(t, "PENDING", view.Status)
	assert.Equal(t, "PENDING", view.PaymentStatus)
	assert.Equal(t, customer.ID, view.CustomerID)
	assert.Equal(t, "1000.00", view.Subtotal)
	assert.Equal(t, "400.00", view.DeliveryFee)
	assert.Equal(t, "140.00", view.Tax)
	assert.Equal(t, "1540.00", view.Total)

	require.NotNil(t, view.Delivery)
	assert.Equal(t, string(delivery.StatusPending), view.Delivery.Status)
	assert.True(t, view.Delivery.CashOnDelivery)
	assert.Nil(t, view.Delivery.Driver)

	require.Len(t, view.Payments, 1)
	assert.Equal(t, string(payment.MethodCashOnDelivery), view.Payments[0].Method)
	assert.Equal(t, string(payment.StatusPending), view.Payments[0].Status)
	assert.Equal(t, "1540.00", view.Payments[0].Amount)

	tracking, err := f.svc.GetTracking(context.Background(), view.ID)
	require.NoError(t, err)
	require.Len(t, tracking, 1)
	assert.Equal(t, "PENDING", tracking[0].StatusCode)

	var placed int
	for _, e := range f.store.Events() {
		if e.EventType == order.EventOrderPlaced && e.AggregateID == view.ID {
			placed++
		}
	}
	assert.Equal(t, 1, placed)
}

func TestCreateOrder_PickupUsesDiscountedMenuPrice(t *testing.T) {
	f := newFixture(t)

	view := f.createOrder(t, order.TypePickup, order.PaymentCardSlip, LineItemRequest{MenuItemID: "m2", Quantity: 2})

	require.Len(t, view.Items, 1)
	assert.Equal(t, "450.00", view.Items[0].UnitPrice)
	assert.Equal(t, "900.00", view.Items[0].LineTotal)
	assert.Equal(t, "0.00", view.DeliveryFee)
	assert.Equal(t, "90.00", view.Tax)
	assert.Equal(t, "990.00", view.Total)
	assert.Nil(t, view.Delivery)
	assert.Empty(t, view.Payments)
}

func TestCreateOrder_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateOrderRequest
		wantErr error
	}{
		{
			name:    "unavailable menu item",
			req:     CreateOrderRequest{Type: "PICKUP", PaymentMethod: "CARD_SLIP", Items: []LineItemRequest{{MenuItemID: "m3", Quantity: 1}}},
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "unknown menu item",
			req:     CreateOrderRequest{Type: "PICKUP", PaymentMethod: "CARD_SLIP", Items: []LineItemRequest{{MenuItemID: "nope", Quantity: 1}}},
			wantErr: shared.ErrNotFound,
		},
		{
			name:    "no items",
			req:     CreateOrderRequest{Type: "PICKUP", PaymentMethod: "CARD_SLIP"},
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "zero quantity",
			req:     CreateOrderRequest{Type: "PICKUP", PaymentMethod: "CARD_SLIP", Items: []LineItemRequest{{MenuItemID: "m1", Quantity: 0}}},
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "cash on delivery for pickup",
			req:     CreateOrderRequest{Type: "PICKUP", PaymentMethod: "CASH_ON_DELIVERY", Items: padThai4},
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "delivery without address",
			req:     CreateOrderRequest{Type: "DELIVERY", PaymentMethod: "GATEWAY", Items: padThai4},
			wantErr: shared.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.CreateOrder(context.Background(), customer, tt.req)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.store.Events())
		})
	}
}

func TestCreateOrder_CustomerCannotOrderForSomeoneElse(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.CreateOrder(context.Background(), customer, CreateOrderRequest{
		CustomerID:    "someone-else",
		Type:          "DINE_IN",
		PaymentMethod: "GATEWAY",
		Items:         padThai4,
	})

	require.NoError(t, err)
	assert.Equal(t, customer.ID, view.CustomerID)

	staffView, err := f.svc.CreateOrder(context.Background(), admin, CreateOrderRequest{
		CustomerID:    "walk-in-7",
		Type:          "DINE_IN",
		PaymentMethod: "GATEWAY",
		Items:         padThai4,
	})
	require.NoError(t, err)
	assert.Equal(t, "walk-in-7", staffView.CustomerID)
}

func TestUpdateStatus_OutForDeliveryMovesDeliveryInTransit(t *testing.T) {
	f := newFixture(t)
	view := f.createOrder(t, order.TypeDelivery, order.PaymentGateway)

	f.advance(t, view.ID, order.StatusConfirmed, order.StatusPreparing, order.StatusReadyForPickup)
	before, err := f.svc.GetTracking(context.Background(), view.ID)
	require.NoError(t, err)

	updated := f.advance(t, view.ID, order.StatusOutForDelivery)

	assert.Equal(t, "OUT_FOR_DELIVERY", updated.Status)
	require.NotNil(t, updated.Delivery)
	assert.Equal(t, string(delivery.StatusInTransit), updated.Delivery.Status)
	assert.NotNil(t, updated.Delivery.PickedUpAt)

	after, err := f.svc.GetTracking(context.Background(), view.ID)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)
	assert.Equal(t, "OUT_FOR_DELIVERY", after[0].StatusCode)
}

func TestUpdateStatus_PickupGoesStraightToDelivered(t *testing.T) {
	f := newFixture(t)
	view := f.createOrder(t, order.TypePickup, order.PaymentGateway)

	f.advance(t, view.ID, order.StatusConfirmed, order.StatusPreparing, order.StatusReadyForPickup)

	_, err := f.svc.UpdateStatus(context.Background(), admin, view.ID, order.StatusOutForDelivery)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	done := f.advance(t, view.ID, order.StatusDelivered)
	assert.Equal(t, "DELIVERED", done.Status)
	assert.NotNil(t, done.ActualDeliveryTime)
}

func TestUpdateStatus_IllegalTransitionChangesNothing(t *testing.T) {
	f := newFixture(t)
	view := f.createOrder(t, order.TypeDelivery, order.PaymentGateway)
	before := f.snapshot(t, view.ID)

	_, err := f.svc.UpdateStatus(context.Background(), admin, view.ID, order.StatusDelivered)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(context.Background(), admin, view.ID, order.StatusRefunded)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(context.Background(), admin, view.ID, order.Status("SHIPPED"))
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	assert.Equal(t, before, f.snapshot(t, view.ID))
}

func TestUpdateStatus_TerminalStatusesAcceptNothing(t *testing.T) {
	f := newFixture(t)

	cancelled := f.createOrder(t, order.TypeDelivery, order.PaymentGateway)
	_, err := f.svc.CancelOrder(context.Background(), customer, cancelled.ID, "changed my mind")
	require.NoError(t, err)

	delivered := f.createOrder(t, order.TypeDineIn, order.PaymentGateway)
	f.advance(t, delivered.ID, order.StatusConfirmed, order.StatusPreparing, order.StatusReadyForPickup, order.StatusDelivered)

	all := []order.Status{
		order.StatusPending, order.StatusConfirmed, order.StatusPreparing, order.StatusReadyForPickup,
		order.StatusOutForDelivery, order.StatusDelivered, order.StatusCancelled, order.StatusRefunded,
	}
	for _, id := range []string{cancelled.ID, delivered.ID} {
		for _, target := range all {
			_, err := f.svc.UpdateStatus(context.Background(), admin, id, target)
			assert.ErrorIs(t, err, shared.ErrInvalidTransition, "order %s to %s", id, target)
		}
	}
}

func TestCancelOrder(t *testing.T) {
	t.Run("pending and confirmed orders cancel with their delivery", func(t *testing.T) {
		f := newFixture(t)
		pending := f.createOrder(t, order.TypeDelivery, order.PaymentGateway)
		confirmed := f.createOrder(t, order.TypeDelivery, order.PaymentGateway)
		f.advance(t, confirmed.ID, order.StatusConfirmed)

		for _, id := range []string{pending.ID, confirmed.ID} {
			view, err := f.svc.CancelOrder(context.Background(), customer, id, "too slow")
			require.NoError(t, err)
			assert.Equal(t, "CANCELLED", view.Status)
			require.NotNil(t, view.Delivery)
			assert.Equal(t, string(delivery.StatusCancelled), view.Delivery.Status)
		}
	})

	t.Run("cancelling frees the assigned driver", func(t *testing.T) {
		f := newFixture(t)
		view := f.createOrder(t, order.TypeDelivery, order.PaymentGateway)
		f.advance(t, view.ID, order.StatusConfirmed)
		_, err := f.svc.AssignDriver(context.Background(), admin, view.Delivery.ID, "drv-1")
		require.NoError(t, err)
		require.False(t, f.driverAvailable(t, "drv-1"))

		_, err = f.svc.CancelOrder(context.Background(), admin, view.ID, "kitchen closed")
		require.NoError(t, err)

		assert.True(t, f.driverAvailable(t, "drv-1"))
	})

	t.Run("orders past confirmed cannot be cancelled", func(t *testing.T) {
		f := newFixture(t)
		view := f.createOrder(t, order.TypeDelivery, order.PaymentGateway)
		f.advance(t, view.ID, order.StatusConfirmed, order.StatusPreparing)
		before := f.snapshot(t, view.ID)

		_, err := f.svc.CancelOrder(context.Background(), customer, view.ID, "")

		require.ErrorIs(t, err, shared.ErrInvalidState)
		assert.ErrorIs(t, err, order.ErrNotCancellable)
		assert.Equal(t, before, f.snapshot(t, view.ID))
	})
}

func TestAddAndRemoveItem(t *testing.T) {
	f := newFixture(t)
	view := f.createOrder(t, order.TypeDelivery, order.PaymentCashOnDelivery)

	added, err := f.svc.AddItem(context.Background(), customer, view.ID, LineItemRequest{MenuItemID: "m2", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "1450.00", added.Subtotal)
	assert.Equal(t, "2035.00", added.Total)
	require.Len(t, added.Payments, 1)
	assert.Equal(t, "2035.00", added.Payments[0].Amount)

	var curryID string
	for _, item := range added.Items {
		if item.MenuItemID == "m2" {
			curryID = item.ID
		}
	}
	require.NotEmpty(t, curryID)

	removed, err := f.svc.RemoveItem(context.Background(), customer, view.ID, curryID)
	require.NoError(t, err)
	assert.Equal(t, "1540.00", removed.Total)
	assert.Equal(t, "1540.00", removed.Payments[0].Amount)

	f.advance(t, view.ID, order.StatusConfirmed)
	_, err = f.svc.AddItem(context.Background(), customer, view.ID, LineItemRequest{MenuItemID: "m1", Quantity: 1})
	require.ErrorIs(t, err, shared.ErrInvalidState)
	assert.ErrorIs(t, err, order.ErrPriceFrozen)
}

func TestGetOrderAndTracking_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.svc.GetTracking(context.Background(), "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListCustomerOrders(t *testing.T) {
	f := newFixture(t)
	first := f.createOrder(t, order.TypePickup, order.PaymentGateway)
	second := f.createOrder(t, order.TypeDelivery, order.PaymentCashOnDelivery)

	views, err := f.svc.ListCustomerOrders(context.Background(), customer.ID)

	require.NoError(t, err)
	require.Len(t, views, 2)
	ids := []string{views[0].ID, views[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	pickup := f.createOrder(t, order.TypePickup, order.PaymentGateway)
	dispatched := f.createOrder(t, order.TypeDelivery, order.PaymentCashOnDelivery)
	f.advance(t, dispatched.ID, order.StatusConfirmed)

	other, err := f.svc.CreateOrder(context.Background(), admin, CreateOrderRequest{
		CustomerID:    "cust-2",
		Type:          string(order.TypeDineIn),
		PaymentMethod: string(order.PaymentGateway),
		Items:         padThai4,
	})
	require.NoError(t, err)

	t.Run("staff filter by status", func(t *testing.T) {
		views, err := f.svc.ListOrders(context.Background(), admin, OrderFilter{Status: "CONFIRMED"})
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, dispatched.ID, views[0].ID)
	})

	t.Run("staff filter by customer and type", func(t *testing.T) {
		views, err := f.svc.ListOrders(context.Background(), admin, OrderFilter{CustomerID: "cust-2", Type: "DINE_IN"})
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, other.ID, views[0].ID)
	})

	t.Run("customers only see their own orders", func(t *testing.T) {
		views, err := f.svc.ListOrders(context.Background(), customer, OrderFilter{CustomerID: "cust-2"})
		require.NoError(t, err)
		ids := make([]string, len(views))
		for i, v := range views {
			ids[i] = v.ID
		}
		assert.ElementsMatch(t, []string{pickup.ID, dispatched.ID}, ids)
	})

	t.Run("limit", func(t *testing.T) {
		views, err := f.svc.ListOrders(context.Background(), admin, OrderFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, views, 2)
	})

	t.Run("rejections", func(t *testing.T) {
		_, err := f.svc.ListOrders(context.Background(), admin, OrderFilter{Status: "LOST"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = f.svc.ListOrders(context.Background(), shared.Actor{Kind: shared.ActorCustomer}, OrderFilter{})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}
