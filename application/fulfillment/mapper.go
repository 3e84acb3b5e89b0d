package fulfillment

import (
	"savoria/domain/delivery"
	"savoria/domain/order"
	"savoria/domain/payment"
)

func toOrderView(o *order.Order, d *delivery.Delivery, payments []*payment.Payment) *OrderView {
	items := o.Items()
	itemViews := make([]OrderItemView, len(items))
	for i, item := range items {
		itemViews[i] = OrderItemView{
			ID:         item.ID(),
			MenuItemID: item.MenuItemID(),
			Name:       item.Name(),
			Quantity:   item.Quantity(),
			UnitPrice:  item.UnitPrice().String(),
			LineTotal:  item.LineTotal().String(),
		}
	}

	paymentViews := make([]PaymentView, len(payments))
	for i, p := range payments {
		paymentViews[i] = *toPaymentView(p)
	}

	view := &OrderView{
		ID:                    o.ID(),
		CustomerID:            o.CustomerID(),
		Type:                  string(o.Type()),
		Status:                string(o.Status()),
		PaymentMethod:         string(o.PaymentMethod()),
		PaymentStatus:         string(o.PaymentStatus()),
		Items:                 itemViews,
		TaxRate:               o.TaxRate().String(),
		Subtotal:              o.Subtotal().String(),
		Tax:                   o.Tax().String(),
		DeliveryFee:           o.DeliveryFee().String(),
		Total:                 o.Total().String(),
		DeliveryAddress:       o.DeliveryAddress(),
		Notes:                 o.Notes(),
		EstimatedDeliveryTime: o.EstimatedDeliveryTime(),
		ActualDeliveryTime:    o.ActualDeliveryTime(),
		Payments:              paymentViews,
		Version:               o.Version(),
		CreatedAt:             o.CreatedAt(),
		UpdatedAt:             o.UpdatedAt(),
	}
	if d != nil {
		view.Delivery = toDeliveryView(d)
	}
	return view
}

func toDeliveryView(d *delivery.Delivery) *DeliveryView {
	view := &DeliveryView{
		ID:              d.ID(),
		OrderID:         d.OrderID(),
		Status:          string(d.Status()),
		Fee:             d.Fee().String(),
		Address:         d.Address(),
		CashOnDelivery:  d.CashOnDelivery(),
		AssignedAt:      d.AssignedAt(),
		PickedUpAt:      d.PickedUpAt(),
		DeliveredAt:     d.DeliveredAt(),
		CashConfirmed:   d.CashConfirmed(),
		CashCollectedAt: d.CashCollectedAt(),
		Version:         d.Version(),
	}
	if d.CashConfirmed() {
		view.CashAmount = d.CashAmount().String()
	}
	if driver := d.Driver(); driver != nil {
		view.Driver = &DriverView{ID: driver.ID, Name: driver.Name, Phone: driver.Phone, Vehicle: driver.Vehicle}
	}
	return view
}

func toPaymentView(p *payment.Payment) *PaymentView {
	view := &PaymentView{
		ID:              p.ID(),
		OrderID:         p.OrderID(),
		SubmittedBy:     p.SubmittedBy(),
		Amount:          p.Amount().String(),
		Method:          string(p.Method()),
		Status:          string(p.Status()),
		Reference:       p.Reference(),
		RefundAmount:    p.RefundAmount().String(),
		RefundReason:    p.RefundReason(),
		RefundReference: p.RefundReference(),
		RefundedAt:      p.RefundedAt(),
		Version:         p.Version(),
		CreatedAt:       p.CreatedAt(),
	}
	if slip := p.Slip(); slip != nil {
		view.Slip = &SlipView{
			FileRef:         slip.FileRef,
			BankName:        slip.BankName,
			TransactionRef:  slip.TransactionRef,
			Status:          string(slip.Status),
			ReviewedBy:      slip.ReviewedBy,
			ReviewedAt:      slip.ReviewedAt,
			RejectionReason: slip.RejectionReason,
			Notes:           slip.Notes,
		}
	}
	return view
}

func toTrackingViews(entries []order.TrackingEntry) []TrackingView {
	views := make([]TrackingView, len(entries))
	for i, e := range entries {
		views[i] = TrackingView{
			ID:          e.ID(),
			StatusCode:  e.StatusCode(),
			Title:       e.Title(),
			Description: e.Description(),
			Completed:   e.Completed(),
			Timestamp:   e.Timestamp(),
			Actor:       e.Actor(),
		}
	}
	return views
}
