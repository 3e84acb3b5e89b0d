package order

import (
	"testing"

	"savoria/domain/shared"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateTotals(t *testing.T) {
	taxRate := decimal.RequireFromString("0.10")
	fee := shared.MustMoney("400.00")

	tests := []struct {
		name      string
		lines     []PricedLine
		orderType Type
		want      Totals
	}{
		{
			name:      "delivery order gets the fee",
			lines:     []PricedLine{{UnitPrice: shared.MustMoney("250.00"), Quantity: 2}, {UnitPrice: shared.MustMoney("500.00"), Quantity: 1}},
			orderType: TypeDelivery,
			want: Totals{
				Subtotal:    shared.MustMoney("1000.00"),
				Tax:         shared.MustMoney("140.00"),
				DeliveryFee: shared.MustMoney("400.00"),
				Total:       shared.MustMoney("1540.00"),
			},
		},
		{
			name:      "pickup order has no fee",
			lines:     []PricedLine{{UnitPrice: shared.MustMoney("1000.00"), Quantity: 1}},
			orderType: TypePickup,
			want: Totals{
				Subtotal:    shared.MustMoney("1000.00"),
				Tax:         shared.MustMoney("100.00"),
				DeliveryFee: shared.Zero,
				Total:       shared.MustMoney("1100.00"),
			},
		},
		{
			name:      "tax rounds half up",
			lines:     []PricedLine{{UnitPrice: shared.MustMoney("0.05"), Quantity: 1}},
			orderType: TypeDineIn,
			want: Totals{
				Subtotal:    shared.MustMoney("0.05"),
				Tax:         shared.MustMoney("0.01"),
				DeliveryFee: shared.Zero,
				Total:       shared.MustMoney("0.06"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTotals(tt.lines, tt.orderType, taxRate, fee)
			assert.True(t, tt.want.Subtotal.Equals(got.Subtotal), "subtotal %s", got.Subtotal)
			assert.True(t, tt.want.Tax.Equals(got.Tax), "tax %s", got.Tax)
			assert.True(t, tt.want.DeliveryFee.Equals(got.DeliveryFee), "fee %s", got.DeliveryFee)
			assert.True(t, tt.want.Total.Equals(got.Total), "total %s", got.Total)
			assert.True(t, got.Consistent())
		})
	}
}

func TestCalculateTotalsIsIdempotent(t *testing.T) {
	lines := []PricedLine{{UnitPrice: shared.MustMoney("33.33"), Quantity: 3}}
	rate := decimal.RequireFromString("0.075")

	first := CalculateTotals(lines, TypeDelivery, rate, shared.MustMoney("5"))
	second := CalculateTotals(lines, TypeDelivery, rate, shared.MustMoney("5"))
	assert.Equal(t, first, second)
}

func TestEffectivePrice(t *testing.T) {
	assert.Equal(t, "90.00", EffectivePrice(shared.MustMoney("100"), decimal.NewFromInt(10)).String())
	assert.Equal(t, "8.32", EffectivePrice(shared.MustMoney("9.99"), decimal.RequireFromString("16.7")).String())
	assert.Equal(t, "9.99", EffectivePrice(shared.MustMoney("9.99"), decimal.Zero).String())
}
