/*
Package payment Payment attempts of an order and their reconciliation.

A Payment is created when a customer uploads a transfer slip, when a cash on
delivery order is placed, or when an external gateway reports a capture.
Only staff decisions (slip confirm/reject), the driver's cash collection and
refunds mutate it afterwards.

Status flow:

	PENDING -> PROCESSING -> COMPLETED | FAILED
	COMPLETED -> REFUNDED | PARTIALLY_REFUNDED
*/
package payment

import (
	"fmt"
	"strings"
	"time"

	"savoria/domain/shared"

	"github.com/google/uuid"
)

type Method string

const (
	MethodCardSlip       Method = "CARD_SLIP"
	MethodGateway        Method = "GATEWAY"
	MethodCashOnDelivery Method = "CASH_ON_DELIVERY"
)

type Status string

const (
	StatusPending           Status = "PENDING"
	StatusProcessing        Status = "PROCESSING"
	StatusCompleted         Status = "COMPLETED"
	StatusFailed            Status = "FAILED"
	StatusRefunded          Status = "REFUNDED"
	StatusPartiallyRefunded Status = "PARTIALLY_REFUNDED"
)

// SlipStatus is the staff review state of an uploaded slip.
type SlipStatus string

const (
	SlipPending    SlipStatus = "PENDING"
	SlipProcessing SlipStatus = "PROCESSING"
	SlipConfirmed  SlipStatus = "CONFIRMED"
	SlipRejected   SlipStatus = "REJECTED"
)

// Slip holds the details of an uploaded bank transfer slip.
type Slip struct {
	FileRef         string
	BankName        string
	TransactionRef  string
	Status          SlipStatus
	ReviewedBy      string
	ReviewedAt      *time.Time
	RejectionReason string
	Notes           string
}

// Undecided slips can still be confirmed or rejected.
func (s Slip) Undecided() bool {
	return s.Status == SlipPending || s.Status == SlipProcessing
}

// Payment aggregate root
type Payment struct {
	id          string
	orderID     string
	submittedBy string
	amount      shared.Money
	method      Method
	status      Status
	slip        *Slip
	reference   string

	refundAmount    shared.Money
	refundedAt      *time.Time
	refundReason    string
	refundReference string

	version   int
	createdAt time.Time
	updatedAt time.Time

	events []shared.DomainEvent
	isNew  bool
}

// SlipSubmission is what a customer provides when uploading a slip.
type SlipSubmission struct {
	OrderID        string
	SubmittedBy    string
	Amount         shared.Money
	FileRef        string
	BankName       string
	TransactionRef string
	Notes          string
}

func NewSlipPayment(s SlipSubmission) (*Payment, error) {
	if strings.TrimSpace(s.FileRef) == "" {
		return nil, shared.NewValidationError(entityName, "file", "slip file is required")
	}
	p, err := newPayment(s.OrderID, s.SubmittedBy, s.Amount, MethodCardSlip, StatusPending)
	if err != nil {
		return nil, err
	}
	p.slip = &Slip{
		FileRef:        s.FileRef,
		BankName:       s.BankName,
		TransactionRef: s.TransactionRef,
		Status:         SlipPending,
		Notes:          s.Notes,
	}
	p.events = append(p.events, newSlipSubmittedEvent(p))
	return p, nil
}

// NewCashOnDeliveryPayment is created with the order and completed when the driver collects.
func NewCashOnDeliveryPayment(orderID, customerID string, amount shared.Money) (*Payment, error) {
	return newPayment(orderID, customerID, amount, MethodCashOnDelivery, StatusPending)
}

// NewGatewayPayment records a capture an external gateway already completed.
func NewGatewayPayment(orderID, submittedBy string, amount shared.Money, reference string) (*Payment, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, shared.NewValidationError(entityName, "reference", "gateway reference is required")
	}
	p, err := newPayment(orderID, submittedBy, amount, MethodGateway, StatusCompleted)
	if err != nil {
		return nil, err
	}
	p.reference = reference
	p.events = append(p.events, newPaymentCompletedEvent(p))
	return p, nil
}

func newPayment(orderID, submittedBy string, amount shared.Money, method Method, status Status) (*Payment, error) {
	if orderID == "" {
		return nil, shared.NewValidationError(entityName, "order_id", "order is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError(entityName, "amount", "payment amount must be positive")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate payment ID: %w", err)
	}

	now := time.Now()
	return &Payment{
		id:           id.String(),
		orderID:      orderID,
		submittedBy:  submittedBy,
		amount:       amount,
		method:       method,
		status:       status,
		refundAmount: shared.Zero,
		createdAt:    now,
		updatedAt:    now,
		isNew:        true,
	}, nil
}

// ============================================================================
// ReconstructionDTO - For Repository Layer Use Only
// ============================================================================

type ReconstructionDTO struct {
	ID              string
	OrderID         string
	SubmittedBy     string
	Amount          shared.Money
	Method          Method
	Status          Status
	Slip            *Slip
	Reference       string
	RefundAmount    shared.Money
	RefundedAt      *time.Time
	RefundReason    string
	RefundReference string
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func RebuildFromDTO(dto ReconstructionDTO) *Payment {
	return &Payment{
		id:              dto.ID,
		orderID:         dto.OrderID,
		submittedBy:     dto.SubmittedBy,
		amount:          dto.Amount,
		method:          dto.Method,
		status:          dto.Status,
		slip:            copySlip(dto.Slip),
		reference:       dto.Reference,
		refundAmount:    dto.RefundAmount,
		refundedAt:      dto.RefundedAt,
		refundReason:    dto.RefundReason,
		refundReference: dto.RefundReference,
		version:         dto.Version,
		createdAt:       dto.CreatedAt,
		updatedAt:       dto.UpdatedAt,
	}
}

func (p *Payment) ToDTO() ReconstructionDTO {
	return ReconstructionDTO{
		ID:              p.id,
		OrderID:         p.orderID,
		SubmittedBy:     p.submittedBy,
		Amount:          p.amount,
		Method:          p.method,
		Status:          p.status,
		Slip:            copySlip(p.slip),
		Reference:       p.reference,
		RefundAmount:    p.refundAmount,
		RefundedAt:      copyTime(p.refundedAt),
		RefundReason:    p.refundReason,
		RefundReference: p.refundReference,
		Version:         p.version,
		CreatedAt:       p.createdAt,
		UpdatedAt:       p.updatedAt,
	}
}

// ============================================================================
// Slip review
// ============================================================================

// StartReview PENDING -> PROCESSING for both the slip and the payment.
func (p *Payment) StartReview(reviewer shared.Actor) error {
	if p.slip == nil || p.slip.Status != SlipPending {
		return newInvalidSlipStateError(p, "start review of")
	}
	now := time.Now()
	p.slip.Status = SlipProcessing
	p.slip.ReviewedBy = reviewer.Label()
	p.status = StatusProcessing
	p.updatedAt = now
	return nil
}

// ConfirmSlip is legal only while the slip is undecided.
func (p *Payment) ConfirmSlip(admin shared.Actor, notes string) error {
	if p.slip == nil || !p.slip.Undecided() {
		return shared.WithReason(newInvalidSlipStateError(p, "confirm"), ErrSlipAlreadyDecided)
	}

	now := time.Now()
	p.slip.Status = SlipConfirmed
	p.slip.ReviewedBy = admin.Label()
	p.slip.ReviewedAt = &now
	if notes != "" {
		p.slip.Notes = notes
	}
	p.status = StatusCompleted
	p.updatedAt = now
	p.events = append(p.events, newSlipDecidedEvent(p, EventSlipConfirmed, ""))
	return nil
}

// RejectSlip is legal only while the slip is undecided. A reason is required.
func (p *Payment) RejectSlip(admin shared.Actor, reason, notes string) error {
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError(entityName, "reason", "rejection reason is required")
	}
	if p.slip == nil || !p.slip.Undecided() {
		return shared.WithReason(newInvalidSlipStateError(p, "reject"), ErrSlipAlreadyDecided)
	}

	now := time.Now()
	p.slip.Status = SlipRejected
	p.slip.ReviewedBy = admin.Label()
	p.slip.ReviewedAt = &now
	p.slip.RejectionReason = reason
	if notes != "" {
		p.slip.Notes = notes
	}
	p.status = StatusFailed
	p.updatedAt = now
	p.events = append(p.events, newSlipDecidedEvent(p, EventSlipRejected, reason))
	return nil
}

// BlocksNewSlip reports whether this payment prevents another slip upload for the order.
func (p *Payment) BlocksNewSlip() bool {
	switch p.status {
	case StatusPending, StatusProcessing, StatusCompleted, StatusRefunded, StatusPartiallyRefunded:
		return true
	}
	return false
}

// ============================================================================
// Cash on delivery
// ============================================================================

// CompleteCashCollection records the amount the driver actually collected.
func (p *Payment) CompleteCashCollection(amount shared.Money) error {
	if !amount.IsPositive() {
		return shared.NewValidationError(entityName, "amount", "collected amount must be positive")
	}
	if p.method != MethodCashOnDelivery || p.status != StatusPending {
		return newInvalidStateError(p, "collect cash for")
	}
	p.amount = amount
	p.status = StatusCompleted
	p.updatedAt = time.Now()
	p.events = append(p.events, newPaymentCompletedEvent(p))
	return nil
}

// UpdateExpectedCash follows the order total while the order is still being edited.
func (p *Payment) UpdateExpectedCash(amount shared.Money) error {
	if !amount.IsPositive() {
		return shared.NewValidationError(entityName, "amount", "payment amount must be positive")
	}
	if p.method != MethodCashOnDelivery || p.status != StatusPending {
		return newInvalidStateError(p, "reprice")
	}
	p.amount = amount
	p.updatedAt = time.Now()
	return nil
}

// ============================================================================
// Refunds
// ============================================================================

// ValidateRefund checks a refund request without changing anything.
// Checks run in order: positive amount, COMPLETED payment, amount within the original.
func (p *Payment) ValidateRefund(amount shared.Money) error {
	if !amount.IsPositive() {
		return shared.NewValidationError(entityName, "amount", "refund amount must be positive")
	}
	if p.status != StatusCompleted {
		return shared.WithReason(newInvalidStateError(p, "refund"), ErrNotRefundable)
	}
	if amount.GreaterThan(p.amount) {
		return shared.WithReason(
			shared.NewValidationError(entityName, "amount", fmt.Sprintf("refund %s exceeds payment amount %s", amount, p.amount)),
			ErrRefundExceedsAmount)
	}
	return nil
}

// ApplyRefund records a refund the gateway has already accepted.
// Returns true when the whole amount was refunded.
func (p *Payment) ApplyRefund(amount shared.Money, reason, gatewayRef string) (bool, error) {
	if err := p.ValidateRefund(amount); err != nil {
		return false, err
	}

	now := time.Now()
	full := amount.Equals(p.amount)
	p.refundAmount = amount
	p.refundedAt = &now
	p.refundReason = reason
	p.refundReference = gatewayRef
	if full {
		p.status = StatusRefunded
	} else {
		p.status = StatusPartiallyRefunded
	}
	p.updatedAt = now
	p.events = append(p.events, newRefundedEvent(p))
	return full, nil
}

// IdempotencyKey identifies a refund attempt so a repeated call cannot refund twice.
func (p *Payment) IdempotencyKey(amount shared.Money) string {
	return "refund-" + p.id + "-" + amount.String()
}

// ============================================================================
// Persistence helpers
// ============================================================================

func (p *Payment) IncrementVersionForSave() { p.version++ }
func (p *Payment) IsNew() bool              { return p.isNew }
func (p *Payment) ClearDirtyTracking()      { p.isNew = false }

func (p *Payment) PullEvents() []shared.DomainEvent {
	events := p.events
	p.events = nil
	return events
}

// ============================================================================
// Getters
// ============================================================================

func (p *Payment) ID() string                 { return p.id }
func (p *Payment) OrderID() string            { return p.orderID }
func (p *Payment) SubmittedBy() string        { return p.submittedBy }
func (p *Payment) Amount() shared.Money       { return p.amount }
func (p *Payment) Method() Method             { return p.method }
func (p *Payment) Status() Status             { return p.status }
func (p *Payment) Reference() string          { return p.reference }
func (p *Payment) RefundAmount() shared.Money { return p.refundAmount }
func (p *Payment) RefundReason() string       { return p.refundReason }
func (p *Payment) RefundReference() string    { return p.refundReference }
func (p *Payment) RefundedAt() *time.Time     { return copyTime(p.refundedAt) }
func (p *Payment) Version() int               { return p.version }
func (p *Payment) CreatedAt() time.Time       { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time       { return p.updatedAt }

// Slip returns a copy of the slip details, or nil for non slip payments.
func (p *Payment) Slip() *Slip { return copySlip(p.slip) }

func copySlip(s *Slip) *Slip {
	if s == nil {
		return nil
	}
	c := *s
	c.ReviewedAt = copyTime(s.ReviewedAt)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

var _ shared.AggregateRoot = (*Payment)(nil)
