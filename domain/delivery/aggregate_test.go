package delivery

import (
	"errors"
	"testing"

	"savoria/domain/order"
	"savoria/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dan = DriverSnapshot{ID: "drv-1", Name: "Dan", Phone: "555-0101", Vehicle: "scooter"}

func newDelivery(t *testing.T, cod bool) *Delivery {
	t.Helper()
	d, err := New("order-1", "1 Main St", shared.MustMoney("400.00"), cod)
	require.NoError(t, err)
	return d
}

func TestStatusForOrder(t *testing.T) {
	tests := []struct {
		in   order.Status
		want Status
	}{
		{order.StatusPending, StatusPending},
		{order.StatusConfirmed, StatusPending},
		{order.StatusPreparing, StatusAssigned},
		{order.StatusReadyForPickup, StatusPickedUp},
		{order.StatusOutForDelivery, StatusInTransit},
		{order.StatusDelivered, StatusDelivered},
		{order.StatusCancelled, StatusCancelled},
	}
	for _, tt := range tests {
		got, ok := StatusForOrder(tt.in)
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "order %s", tt.in)
	}

	_, ok := StatusForOrder(order.StatusRefunded)
	assert.False(t, ok)
}

func TestSyncWithOrderFollowsMainPath(t *testing.T) {
	d := newDelivery(t, false)

	steps := []struct {
		orderStatus order.Status
		want        Status
		changed     bool
	}{
		{order.StatusConfirmed, StatusPending, false},
		{order.StatusPreparing, StatusAssigned, true},
		{order.StatusReadyForPickup, StatusPickedUp, true},
		{order.StatusOutForDelivery, StatusInTransit, true},
		{order.StatusDelivered, StatusDelivered, true},
	}
	for _, s := range steps {
		changed, err := d.SyncWithOrder(s.orderStatus)
		require.NoError(t, err)
		assert.Equal(t, s.changed, changed, "order %s", s.orderStatus)
		assert.Equal(t, s.want, d.Status())
	}
	assert.NotNil(t, d.PickedUpAt())
	assert.NotNil(t, d.DeliveredAt())
}

func TestSyncWithOrderNeverMovesBackwards(t *testing.T) {
	d := newDelivery(t, false)
	require.NoError(t, d.AssignDriver(dan))
	require.NoError(t, d.Advance(StatusPickedUp))
	require.NoError(t, d.Advance(StatusInTransit))
	require.NoError(t, d.Advance(StatusArrived))

	changed, err := d.SyncWithOrder(order.StatusOutForDelivery)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, StatusArrived, d.Status())
}

func TestSyncCancelledAlwaysApplies(t *testing.T) {
	d := newDelivery(t, false)
	require.NoError(t, d.AssignDriver(dan))

	changed, err := d.SyncWithOrder(order.StatusCancelled)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusCancelled, d.Status())
	assert.Equal(t, "drv-1", d.DriverID(), "snapshot is kept for history")
	assert.False(t, d.NeverDispatched())
}

func TestAssignDriverSnapshotsDriver(t *testing.T) {
	d := newDelivery(t, false)
	require.NoError(t, d.AssignDriver(dan))

	assert.Equal(t, StatusAssigned, d.Status())
	assert.NotNil(t, d.AssignedAt())
	assert.Equal(t, dan, *d.Driver())

	err := d.AssignDriver(DriverSnapshot{ID: "drv-2"})
	assert.True(t, errors.Is(err, ErrDriverAlreadyAssigned))
}

func TestAssignDriverWhenSyncedToAssigned(t *testing.T) {
	d := newDelivery(t, false)
	_, err := d.SyncWithOrder(order.StatusPreparing)
	require.NoError(t, err)

	require.NoError(t, d.AssignDriver(dan))
	assert.Equal(t, StatusAssigned, d.Status())
}

func TestUnassign(t *testing.T) {
	d := newDelivery(t, false)
	_, err := d.Unassign()
	assert.True(t, errors.Is(err, ErrNoDriverAssigned))

	require.NoError(t, d.AssignDriver(dan))
	driverID, err := d.Unassign()
	require.NoError(t, err)
	assert.Equal(t, "drv-1", driverID)
	assert.Equal(t, StatusPending, d.Status())
	assert.Nil(t, d.Driver())
	assert.True(t, d.NeverDispatched())

	require.NoError(t, d.AssignDriver(dan))
	require.NoError(t, d.Advance(StatusPickedUp))
	_, err = d.Unassign()
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestAdvanceRejectsIllegalTransitions(t *testing.T) {
	d := newDelivery(t, false)

	err := d.Advance(StatusPickedUp)
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition), "PENDING cannot be picked up")

	require.NoError(t, d.AssignDriver(dan))
	assert.True(t, errors.Is(d.Advance(StatusDelivered), shared.ErrInvalidTransition))
	assert.True(t, errors.Is(d.Advance(StatusCancelled), shared.ErrInvalidTransition))
	assert.True(t, errors.Is(d.Advance("TELEPORTED"), shared.ErrInvalidInput))

	require.NoError(t, d.Advance(StatusPickedUp))
	require.NoError(t, d.Advance(StatusFailed))
	require.NoError(t, d.Advance(StatusReturned))
	assert.True(t, d.Status().IsTerminal())
}

func TestConfirmCashCollection(t *testing.T) {
	d := newDelivery(t, true)
	amount := shared.MustMoney("550.00")

	err := d.ConfirmCashCollection(amount)
	assert.True(t, errors.Is(err, shared.ErrInvalidState), "not arrived yet")

	require.NoError(t, d.AssignDriver(dan))
	require.NoError(t, d.Advance(StatusPickedUp))
	require.NoError(t, d.Advance(StatusInTransit))
	require.NoError(t, d.Advance(StatusArrived))

	assert.True(t, errors.Is(d.ConfirmCashCollection(shared.Zero), shared.ErrInvalidInput))
	require.NoError(t, d.ConfirmCashCollection(amount))
	assert.True(t, d.CashConfirmed())
	assert.True(t, d.CashAmount().Equals(amount))
	assert.NotNil(t, d.CashCollectedAt())

	assert.True(t, errors.Is(d.ConfirmCashCollection(amount), ErrCashAlreadyConfirmed))
}

func TestConfirmCashCollectionRequiresCashOnDelivery(t *testing.T) {
	d := newDelivery(t, false)
	require.NoError(t, d.AssignDriver(dan))
	require.NoError(t, d.Advance(StatusPickedUp))
	require.NoError(t, d.Advance(StatusInTransit))
	require.NoError(t, d.Advance(StatusDelivered))

	err := d.ConfirmCashCollection(shared.MustMoney("1"))
	assert.True(t, errors.Is(err, ErrNotCashOnDelivery))
}

func TestReleasesDriver(t *testing.T) {
	for _, s := range []Status{StatusDelivered, StatusCancelled, StatusReturned, StatusFailed} {
		assert.True(t, s.ReleasesDriver(), s)
	}
	for _, s := range []Status{StatusPending, StatusAssigned, StatusPickedUp, StatusInTransit, StatusArrived} {
		assert.False(t, s.ReleasesDriver(), s)
	}
}
