package gormdb

import (
	"context"
	"path/filepath"
	"testing"

	"savoria/domain/order"
	"savoria/domain/shared"
	"savoria/infrastructure/persistence/gormdb/po"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	admin    = shared.Actor{ID: "admin-1", Name: "Admin", Kind: shared.ActorAdmin}
	customer = shared.Actor{ID: "cust-1", Name: "Cust", Kind: shared.ActorCustomer}
	pricing  = order.PricingPolicy{TaxRate: decimal.RequireFromString("0.10"), DeliveryFee: shared.MustMoney("400.00")}
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	opts := Options{
		Driver:   "sqlite",
		Database: filepath.Join(t.TempDir(), "savoria.db"),
		LogLevel: "silent",
	}
	db, err := opts.Connect()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	ctx := context.Background()
	require.NoError(t, AutoMigrate(ctx, db))
	require.NoError(t, Seed(ctx, db, SeedData{
		MenuItems: []po.MenuItemPO{
			{ID: "m1", Name: "Pad Thai", Price: decimal.RequireFromString("250.00"), Available: true},
			{ID: "m2", Name: "Green Curry", Price: decimal.RequireFromString("500.00"), DiscountPercentage: decimal.NewFromInt(10), Available: true},
		},
		Drivers: []po.DriverPO{
			{ID: "drv-1", Name: "Somchai", Phone: "0800000001", Vehicle: "scooter", Available: true},
			{ID: "drv-2", Name: "Niran", Phone: "0800000002", Vehicle: "car", Available: false},
		},
		Users: []po.UserPO{
			{ID: "admin-1", Username: "admin", FullName: "Admin", Email: "admin@savoria.test", Role: "ADMIN", Active: true},
			{ID: "cust-9", Username: "ghost", Role: "CUSTOMER", Active: false},
		},
	}))
	return db
}

func placeOrder(t *testing.T, orderType order.Type, method order.PaymentMethod) *order.Order {
	t.Helper()
	o, err := order.Place(order.PlaceParams{
		CustomerID:      "cust-1",
		Type:            orderType,
		PaymentMethod:   method,
		DeliveryAddress: "1 Main St",
		Items: []order.LineRequest{
			{MenuItemID: "m1", Name: "Pad Thai", Quantity: 2, UnitPrice: shared.MustMoney("250.00")},
			{MenuItemID: "m2", Name: "Green Curry", Quantity: 1, UnitPrice: shared.MustMoney("500.00")},
		},
		Pricing: pricing,
		Actor:   customer,
	})
	require.NoError(t, err)
	return o
}
