package po

import (
	"time"

	"savoria/domain/payment"
	"savoria/domain/shared"

	"github.com/shopspring/decimal"
)

// PaymentPO slip columns are empty for gateway and cash payments.
type PaymentPO struct {
	ID              string          `gorm:"primaryKey;size:64"`
	OrderID         string          `gorm:"size:64;index;not null"`
	SubmittedBy     string          `gorm:"size:64;not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method          string          `gorm:"size:20;not null"`
	Status          string          `gorm:"size:20;not null"`
	Reference       string          `gorm:"size:255"`
	HasSlip         bool            `gorm:"not null"`
	SlipFileRef     string          `gorm:"size:500"`
	SlipBankName    string          `gorm:"size:255"`
	SlipTxRef       string          `gorm:"size:255"`
	SlipStatus      string          `gorm:"size:20"`
	SlipReviewedBy  string          `gorm:"size:255"`
	SlipReviewedAt  *time.Time
	SlipRejection   string          `gorm:"size:1000"`
	SlipNotes       string          `gorm:"size:1000"`
	RefundAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	RefundedAt      *time.Time
	RefundReason    string `gorm:"size:1000"`
	RefundReference string `gorm:"size:255"`
	Version         int    `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (PaymentPO) TableName() string {
	return "payments"
}

func FromPaymentDomain(p *payment.Payment) *PaymentPO {
	dto := p.ToDTO()
	row := &PaymentPO{
		ID:              dto.ID,
		OrderID:         dto.OrderID,
		SubmittedBy:     dto.SubmittedBy,
		Amount:          dto.Amount.Decimal(),
		Method:          string(dto.Method),
		Status:          string(dto.Status),
		Reference:       dto.Reference,
		RefundAmount:    dto.RefundAmount.Decimal(),
		RefundedAt:      dto.RefundedAt,
		RefundReason:    dto.RefundReason,
		RefundReference: dto.RefundReference,
		Version:         dto.Version,
		CreatedAt:       dto.CreatedAt,
		UpdatedAt:       dto.UpdatedAt,
	}
	if s := dto.Slip; s != nil {
		row.HasSlip = true
		row.SlipFileRef = s.FileRef
		row.SlipBankName = s.BankName
		row.SlipTxRef = s.TransactionRef
		row.SlipStatus = string(s.Status)
		row.SlipReviewedBy = s.ReviewedBy
		row.SlipReviewedAt = s.ReviewedAt
		row.SlipRejection = s.RejectionReason
		row.SlipNotes = s.Notes
	}
	return row
}

func (p *PaymentPO) ToDomain() *payment.Payment {
	var slip *payment.Slip
	if p.HasSlip {
		slip = &payment.Slip{
			FileRef:         p.SlipFileRef,
			BankName:        p.SlipBankName,
			TransactionRef:  p.SlipTxRef,
			Status:          payment.SlipStatus(p.SlipStatus),
			ReviewedBy:      p.SlipReviewedBy,
			ReviewedAt:      p.SlipReviewedAt,
			RejectionReason: p.SlipRejection,
			Notes:           p.SlipNotes,
		}
	}
	return payment.RebuildFromDTO(payment.ReconstructionDTO{
		ID:              p.ID,
		OrderID:         p.OrderID,
		SubmittedBy:     p.SubmittedBy,
		Amount:          shared.MoneyFromDecimal(p.Amount),
		Method:          payment.Method(p.Method),
		Status:          payment.Status(p.Status),
		Slip:            slip,
		Reference:       p.Reference,
		RefundAmount:    shared.MoneyFromDecimal(p.RefundAmount),
		RefundedAt:      p.RefundedAt,
		RefundReason:    p.RefundReason,
		RefundReference: p.RefundReference,
		Version:         p.Version,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	})
}
