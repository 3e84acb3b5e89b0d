package po

import (
	"time"

	"savoria/domain/delivery"
	"savoria/domain/shared"

	"github.com/shopspring/decimal"
)

// DeliveryPO one row per DELIVERY order. The driver columns are a snapshot
// taken at assignment time.
type DeliveryPO struct {
	ID              string          `gorm:"primaryKey;size:64"`
	OrderID         string          `gorm:"size:64;uniqueIndex;not null"`
	Status          string          `gorm:"size:20;not null"`
	DriverID        *string         `gorm:"size:64;index"`
	DriverName      string          `gorm:"size:255"`
	DriverPhone     string          `gorm:"size:40"`
	DriverVehicle   string          `gorm:"size:100"`
	Fee             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Address         string          `gorm:"size:500;not null"`
	CashOnDelivery  bool            `gorm:"not null"`
	AssignedAt      *time.Time
	PickedUpAt      *time.Time
	DeliveredAt     *time.Time
	CashAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CashConfirmed   bool            `gorm:"not null"`
	CashCollectedAt *time.Time
	Version         int `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (DeliveryPO) TableName() string {
	return "deliveries"
}

func FromDeliveryDomain(d *delivery.Delivery) *DeliveryPO {
	dto := d.ToDTO()
	p := &DeliveryPO{
		ID:              dto.ID,
		OrderID:         dto.OrderID,
		Status:          string(dto.Status),
		Fee:             dto.Fee.Decimal(),
		Address:         dto.Address,
		CashOnDelivery:  dto.CashOnDelivery,
		AssignedAt:      dto.AssignedAt,
		PickedUpAt:      dto.PickedUpAt,
		DeliveredAt:     dto.DeliveredAt,
		CashAmount:      dto.CashAmount.Decimal(),
		CashConfirmed:   dto.CashConfirmed,
		CashCollectedAt: dto.CashCollectedAt,
		Version:         dto.Version,
		CreatedAt:       dto.CreatedAt,
		UpdatedAt:       dto.UpdatedAt,
	}
	if dto.Driver != nil {
		id := dto.Driver.ID
		p.DriverID = &id
		p.DriverName = dto.Driver.Name
		p.DriverPhone = dto.Driver.Phone
		p.DriverVehicle = dto.Driver.Vehicle
	}
	return p
}

func (p *DeliveryPO) ToDomain() *delivery.Delivery {
	var driver *delivery.DriverSnapshot
	if p.DriverID != nil {
		driver = &delivery.DriverSnapshot{
			ID:      *p.DriverID,
			Name:    p.DriverName,
			Phone:   p.DriverPhone,
			Vehicle: p.DriverVehicle,
		}
	}
	return delivery.RebuildFromDTO(delivery.ReconstructionDTO{
		ID:              p.ID,
		OrderID:         p.OrderID,
		Status:          delivery.Status(p.Status),
		Driver:          driver,
		Fee:             shared.MoneyFromDecimal(p.Fee),
		Address:         p.Address,
		CashOnDelivery:  p.CashOnDelivery,
		AssignedAt:      p.AssignedAt,
		PickedUpAt:      p.PickedUpAt,
		DeliveredAt:     p.DeliveredAt,
		CashAmount:      shared.MoneyFromDecimal(p.CashAmount),
		CashConfirmed:   p.CashConfirmed,
		CashCollectedAt: p.CashCollectedAt,
		Version:         p.Version,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	})
}
