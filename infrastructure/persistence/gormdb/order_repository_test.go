package gormdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"savoria/domain/order"
	"savoria/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))

	o := placeOrder(t, order.TypeDelivery, order.PaymentCardSlip)
	require.NoError(t, repo.Save(ctx, o))
	assert.False(t, o.IsNew())
	assert.Empty(t, o.NewTracking())

	loaded, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, o.CustomerID(), loaded.CustomerID())
	assert.Equal(t, order.TypeDelivery, loaded.Type())
	assert.Equal(t, "1000.00", loaded.Subtotal().String())
	assert.Equal(t, "140.00", loaded.Tax().String())
	assert.Equal(t, "400.00", loaded.DeliveryFee().String())
	assert.Equal(t, "1540.00", loaded.Total().String())
	assert.True(t, loaded.TaxRate().Equal(pricing.TaxRate))
	require.Len(t, loaded.Items(), 2)
	assert.Equal(t, "m1", loaded.Items()[0].MenuItemID())
	assert.Equal(t, "500.00", loaded.Items()[0].LineTotal().String())
	assert.Equal(t, 0, loaded.Version())

	tracking, err := repo.ListTracking(ctx, o.ID())
	require.NoError(t, err)
	require.Len(t, tracking, 1)
	assert.Equal(t, string(order.StatusPending), tracking[0].StatusCode())
}

func TestOrderRepositoryUpdateItemsAndTracking(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))

	o := placeOrder(t, order.TypePickup, order.PaymentCardSlip)
	require.NoError(t, repo.Save(ctx, o))

	loaded, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	added, err := loaded.AddItem(order.LineRequest{MenuItemID: "m3", Name: "Mango Rice", Quantity: 1, UnitPrice: shared.MustMoney("120.00")}, customer)
	require.NoError(t, err)
	require.NoError(t, loaded.RemoveItem(loaded.Items()[0].ID(), customer))
	require.NoError(t, loaded.TransitionTo(order.StatusConfirmed, admin))
	require.NoError(t, repo.Save(ctx, loaded))
	assert.Equal(t, 1, loaded.Version())

	again, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, again.Status())
	assert.Equal(t, 1, again.Version())
	require.Len(t, again.Items(), 2)
	ids := []string{again.Items()[0].ID(), again.Items()[1].ID()}
	assert.Contains(t, ids, added.ID())
	assert.Equal(t, loaded.Total().String(), again.Total().String())

	tracking, err := repo.ListTracking(ctx, o.ID())
	require.NoError(t, err)
	require.Len(t, tracking, 4)
	assert.Equal(t, string(order.StatusConfirmed), tracking[0].StatusCode())
	assert.Equal(t, string(order.StatusPending), tracking[3].StatusCode())
	for i := 1; i < len(tracking); i++ {
		assert.False(t, tracking[i].Timestamp().After(tracking[i-1].Timestamp()))
	}
}

func TestOrderRepositoryDetectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))

	o := placeOrder(t, order.TypeDineIn, order.PaymentCardSlip)
	require.NoError(t, repo.Save(ctx, o))

	first, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)

	require.NoError(t, first.TransitionTo(order.StatusConfirmed, admin))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.Cancel("changed my mind", customer))
	err = repo.Save(ctx, second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConflict))

	stored, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, stored.Status())

	tracking, err := repo.ListTracking(ctx, o.ID())
	require.NoError(t, err)
	assert.Len(t, tracking, 2)
}

func TestOrderRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))

	_, err := repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	ghost := order.RebuildFromDTO(order.ReconstructionDTO{ID: "ghost", Status: order.StatusPending, Version: 3})
	assert.ErrorIs(t, repo.Save(ctx, ghost), shared.ErrNotFound)
}

func TestOrderRepositoryFindByCustomer(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))

	first := placeOrder(t, order.TypePickup, order.PaymentCardSlip)
	second := placeOrder(t, order.TypeDelivery, order.PaymentCashOnDelivery)
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	orders, err := repo.FindByCustomerID(ctx, "cust-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Len(t, o.Items(), 2)
	}

	none, err := repo.FindByCustomerID(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

type unsupportedSpec struct{}

func (unsupportedSpec) IsSatisfiedBy(*order.Order) bool { return true }

func TestOrderRepositoryFindBySpecification(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))

	pickup := placeOrder(t, order.TypePickup, order.PaymentCardSlip)
	delivery := placeOrder(t, order.TypeDelivery, order.PaymentCashOnDelivery)
	require.NoError(t, repo.Save(ctx, pickup))
	require.NoError(t, repo.Save(ctx, delivery))

	loaded, err := repo.FindByID(ctx, delivery.ID())
	require.NoError(t, err)
	require.NoError(t, loaded.TransitionTo(order.StatusConfirmed, admin))
	require.NoError(t, repo.Save(ctx, loaded))

	confirmed, err := repo.FindBySpecification(ctx, shared.And(
		order.NewByCustomerSpecification("cust-1"),
		order.NewByStatusSpecification(order.StatusConfirmed),
	), 0)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, delivery.ID(), confirmed[0].ID())

	pickups, err := repo.FindBySpecification(ctx, order.NewByTypeSpecification(order.TypePickup), 0)
	require.NoError(t, err)
	require.Len(t, pickups, 1)
	assert.Equal(t, pickup.ID(), pickups[0].ID())

	limited, err := repo.FindBySpecification(ctx, shared.And[*order.Order](), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	future, err := repo.FindBySpecification(ctx, order.NewCreatedBetweenSpecification(time.Now().Add(time.Hour), time.Time{}), 0)
	require.NoError(t, err)
	assert.Empty(t, future)

	_, err = repo.FindBySpecification(ctx, unsupportedSpec{}, 0)
	assert.Error(t, err)
}
