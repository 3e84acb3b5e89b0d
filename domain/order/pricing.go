package order

import (
	"savoria/domain/shared"

	"github.com/shopspring/decimal"
)

// PricingPolicy is the restaurant wide pricing configuration in effect when an order is priced.
type PricingPolicy struct {
	TaxRate     decimal.Decimal
	DeliveryFee shared.Money
}

// PricedLine is the input of CalculateTotals: a unit price snapshot and a quantity.
type PricedLine struct {
	UnitPrice shared.Money
	Quantity  int
}

// Totals is the result of a pricing run.
// Total always equals Subtotal + Tax + DeliveryFee.
type Totals struct {
	Subtotal    shared.Money
	Tax         shared.Money
	DeliveryFee shared.Money
	Total       shared.Money
}

// EffectivePrice is the list price minus an active percentage discount, rounded half-up to cents.
// A zero or negative discount leaves the price unchanged.
func EffectivePrice(listPrice shared.Money, discountPct decimal.Decimal) shared.Money {
	if !discountPct.IsPositive() {
		return listPrice
	}
	return listPrice.Sub(listPrice.Percent(discountPct))
}

// CalculateTotals is a pure function of its inputs and can be re-run whenever items change.
func CalculateTotals(lines []PricedLine, orderType Type, taxRate decimal.Decimal, deliveryFee shared.Money) Totals {
	subtotal := shared.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.MulInt(l.Quantity))
	}

	fee := shared.Zero
	if orderType == TypeDelivery {
		fee = deliveryFee
	}

	// the delivery fee is a taxable service
	tax := subtotal.Add(fee).MulRate(taxRate)

	return Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: fee,
		Total:       subtotal.Add(tax).Add(fee),
	}
}

func (t Totals) Consistent() bool {
	return t.Total.Equals(t.Subtotal.Add(t.Tax).Add(t.DeliveryFee))
}
