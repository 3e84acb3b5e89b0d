package po

import (
	"time"

	"savoria/domain/order"
	"savoria/domain/shared"

	"github.com/shopspring/decimal"
)

// OrderPO Order persistence object
// Only used for database mapping. Items and tracking are separate tables,
// loaded by the repository explicitly; GORM associations are not used.
type OrderPO struct {
	ID                    string          `gorm:"primaryKey;size:64"`
	CustomerID            string          `gorm:"size:64;index;not null"`
	OrderType             string          `gorm:"size:20;not null"`
	Status                string          `gorm:"size:20;index;not null"`
	PaymentMethod         string          `gorm:"size:20;not null"`
	PaymentStatus         string          `gorm:"size:20;not null"`
	TaxRate               decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	Subtotal              decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Tax                   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DeliveryFee           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total                 decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DeliveryAddress       string          `gorm:"size:500"`
	Notes                 string          `gorm:"size:1000"`
	EstimatedDeliveryTime *time.Time
	ActualDeliveryTime    *time.Time
	Version               int       `gorm:"not null;default:0"`
	CreatedAt             time.Time `gorm:"index"`
	UpdatedAt             time.Time
}

func (OrderPO) TableName() string {
	return "orders"
}

type OrderItemPO struct {
	ID         string          `gorm:"primaryKey;size:64"`
	OrderID    string          `gorm:"size:64;index;not null"`
	MenuItemID string          `gorm:"size:64;not null"`
	Name       string          `gorm:"size:255;not null"`
	Quantity   int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (OrderItemPO) TableName() string {
	return "order_items"
}

// OrderTrackingPO rows are inserted, never updated.
type OrderTrackingPO struct {
	ID          string    `gorm:"primaryKey;size:64"`
	OrderID     string    `gorm:"size:64;index:idx_tracking_order_time,priority:1;not null"`
	StatusCode  string    `gorm:"size:40;not null"`
	Title       string    `gorm:"size:255;not null"`
	Description string    `gorm:"size:1000"`
	Completed   bool      `gorm:"not null"`
	Timestamp   time.Time `gorm:"column:recorded_at;index:idx_tracking_order_time,priority:2;not null"`
	Actor       string    `gorm:"size:255"`
}

func (OrderTrackingPO) TableName() string {
	return "order_tracking"
}

func FromOrderDomain(o *order.Order) *OrderPO {
	dto := o.ToDTO()
	return &OrderPO{
		ID:                    dto.ID,
		CustomerID:            dto.CustomerID,
		OrderType:             string(dto.Type),
		Status:                string(dto.Status),
		PaymentMethod:         string(dto.PaymentMethod),
		PaymentStatus:         string(dto.PaymentStatus),
		TaxRate:               dto.TaxRate,
		Subtotal:              dto.Subtotal.Decimal(),
		Tax:                   dto.Tax.Decimal(),
		DeliveryFee:           dto.DeliveryFee.Decimal(),
		Total:                 dto.Total.Decimal(),
		DeliveryAddress:       dto.DeliveryAddress,
		Notes:                 dto.Notes,
		EstimatedDeliveryTime: dto.EstimatedDeliveryTime,
		ActualDeliveryTime:    dto.ActualDeliveryTime,
		Version:               dto.Version,
		CreatedAt:             dto.CreatedAt,
		UpdatedAt:             dto.UpdatedAt,
	}
}

func FromOrderItem(orderID string, item order.OrderItem) OrderItemPO {
	return OrderItemPO{
		ID:         item.ID(),
		OrderID:    orderID,
		MenuItemID: item.MenuItemID(),
		Name:       item.Name(),
		Quantity:   item.Quantity(),
		UnitPrice:  item.UnitPrice().Decimal(),
		LineTotal:  item.LineTotal().Decimal(),
	}
}

func FromTrackingEntry(e order.TrackingEntry) OrderTrackingPO {
	return OrderTrackingPO{
		ID:          e.ID(),
		OrderID:     e.OrderID(),
		StatusCode:  e.StatusCode(),
		Title:       e.Title(),
		Description: e.Description(),
		Completed:   e.Completed(),
		Timestamp:   e.Timestamp(),
		Actor:       e.Actor(),
	}
}

// ToDomain rebuilds the aggregate from its row and item rows.
func (p *OrderPO) ToDomain(itemPOs []OrderItemPO) *order.Order {
	items := make([]order.OrderItem, len(itemPOs))
	for i, it := range itemPOs {
		items[i] = order.RebuildItemFromDTO(order.ItemReconstructionDTO{
			ID:         it.ID,
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  shared.MoneyFromDecimal(it.UnitPrice),
			LineTotal:  shared.MoneyFromDecimal(it.LineTotal),
		})
	}

	return order.RebuildFromDTO(order.ReconstructionDTO{
		ID:                    p.ID,
		CustomerID:            p.CustomerID,
		Type:                  order.Type(p.OrderType),
		Status:                order.Status(p.Status),
		PaymentMethod:         order.PaymentMethod(p.PaymentMethod),
		PaymentStatus:         order.PaymentStatus(p.PaymentStatus),
		Items:                 items,
		TaxRate:               p.TaxRate,
		Subtotal:              shared.MoneyFromDecimal(p.Subtotal),
		Tax:                   shared.MoneyFromDecimal(p.Tax),
		DeliveryFee:           shared.MoneyFromDecimal(p.DeliveryFee),
		Total:                 shared.MoneyFromDecimal(p.Total),
		DeliveryAddress:       p.DeliveryAddress,
		Notes:                 p.Notes,
		EstimatedDeliveryTime: p.EstimatedDeliveryTime,
		ActualDeliveryTime:    p.ActualDeliveryTime,
		Version:               p.Version,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	})
}

func (p *OrderTrackingPO) ToDomain() order.TrackingEntry {
	return order.RebuildTrackingFromDTO(order.TrackingReconstructionDTO{
		ID:          p.ID,
		OrderID:     p.OrderID,
		StatusCode:  p.StatusCode,
		Title:       p.Title,
		Description: p.Description,
		Completed:   p.Completed,
		Timestamp:   p.Timestamp,
		Actor:       p.Actor,
	})
}
