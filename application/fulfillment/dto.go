package fulfillment

import (
	"time"

	"savoria/domain/directory"
)

// ============================================================================
// Requests
// ============================================================================

// CreateOrderRequest is what a customer submits at checkout.
type CreateOrderRequest struct {
	CustomerID            string            `json:"customer_id"`
	Type                  string            `json:"order_type" binding:"required,oneof=DELIVERY PICKUP DINE_IN"`
	PaymentMethod         string            `json:"payment_method" binding:"required,oneof=CARD_SLIP GATEWAY CASH_ON_DELIVERY"`
	Items                 []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	DeliveryAddress       string            `json:"delivery_address"`
	Notes                 string            `json:"notes"`
	EstimatedDeliveryTime *time.Time        `json:"estimated_delivery_time"`
}

// LineItemRequest prices are always taken from the menu, never from the client.
type LineItemRequest struct {
	MenuItemID string `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
}

// MaxListLimit caps ListOrders.
const MaxListLimit = 200

// OrderFilter is bound from the query string of GET /orders. Zero fields do not filter.
type OrderFilter struct {
	CustomerID string    `form:"customer_id"`
	Status     string    `form:"status"`
	Type       string    `form:"order_type"`
	From       time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To         time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit      int       `form:"limit" binding:"omitempty,min=1"`
}

// SubmitSlipRequest carries an uploaded transfer slip.
type SubmitSlipRequest struct {
	OrderID        string
	BankName       string
	TransactionRef string
	Notes          string
	File           directory.Upload
}

// RefundRequest asks for either a computed refund type or an explicit amount.
type RefundRequest struct {
	Type   string `json:"refund_type"`
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

// ============================================================================
// Views
// ============================================================================

type OrderView struct {
	ID                    string          `json:"id"`
	CustomerID            string          `json:"customer_id"`
	Type                  string          `json:"order_type"`
	Status                string          `json:"status"`
	PaymentMethod         string          `json:"payment_method"`
	PaymentStatus         string          `json:"payment_status"`
	Items                 []OrderItemView `json:"items"`
	TaxRate               string          `json:"tax_rate"`
	Subtotal              string          `json:"subtotal"`
	Tax                   string          `json:"tax"`
	DeliveryFee           string          `json:"delivery_fee"`
	Total                 string          `json:"total"`
	DeliveryAddress       string          `json:"delivery_address,omitempty"`
	Notes                 string          `json:"notes,omitempty"`
	EstimatedDeliveryTime *time.Time      `json:"estimated_delivery_time,omitempty"`
	ActualDeliveryTime    *time.Time      `json:"actual_delivery_time,omitempty"`
	Delivery              *DeliveryView   `json:"delivery,omitempty"`
	Payments              []PaymentView   `json:"payments"`
	Version               int             `json:"version"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

type OrderItemView struct {
	ID         string `json:"id"`
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	LineTotal  string `json:"line_total"`
}

type DeliveryView struct {
	ID              string      `json:"id"`
	OrderID         string      `json:"order_id"`
	Status          string      `json:"status"`
	Driver          *DriverView `json:"driver,omitempty"`
	Fee             string      `json:"fee"`
	Address         string      `json:"address"`
	CashOnDelivery  bool        `json:"cash_on_delivery"`
	AssignedAt      *time.Time  `json:"assigned_at,omitempty"`
	PickedUpAt      *time.Time  `json:"picked_up_at,omitempty"`
	DeliveredAt     *time.Time  `json:"delivered_at,omitempty"`
	CashAmount      string      `json:"cash_amount,omitempty"`
	CashConfirmed   bool        `json:"cash_confirmed"`
	CashCollectedAt *time.Time  `json:"cash_collected_at,omitempty"`
	Version         int         `json:"version"`
}

// DriverView is the snapshot taken at assignment, not the live driver record.
type DriverView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Vehicle string `json:"vehicle"`
}

type PaymentView struct {
	ID              string     `json:"id"`
	OrderID         string     `json:"order_id"`
	SubmittedBy     string     `json:"submitted_by"`
	Amount          string     `json:"amount"`
	Method          string     `json:"method"`
	Status          string     `json:"status"`
	Reference       string     `json:"reference,omitempty"`
	Slip            *SlipView  `json:"slip,omitempty"`
	RefundAmount    string     `json:"refund_amount"`
	RefundReason    string     `json:"refund_reason,omitempty"`
	RefundReference string     `json:"refund_reference,omitempty"`
	RefundedAt      *time.Time `json:"refunded_at,omitempty"`
	Version         int        `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
}

type SlipView struct {
	FileRef         string     `json:"file_ref"`
	BankName        string     `json:"bank_name,omitempty"`
	TransactionRef  string     `json:"transaction_ref,omitempty"`
	Status          string     `json:"status"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

type TrackingView struct {
	ID          string    `json:"id"`
	StatusCode  string    `json:"status_code"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Timestamp   time.Time `json:"timestamp"`
	Actor       string    `json:"actor"`
}

// RefundQuote is the result of CalculateRefundAmount.
type RefundQuote struct {
	OrderID       string `json:"order_id"`
	PaymentID     string `json:"payment_id"`
	RefundType    string `json:"refund_type"`
	PaymentAmount string `json:"payment_amount"`
	Amount        string `json:"amount"`
}
