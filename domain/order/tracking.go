package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tracking codes that are not order statuses.
const (
	TrackingDriverAssigned   = "DRIVER_ASSIGNED"
	TrackingDriverUnassigned = "DRIVER_UNASSIGNED"
	TrackingSlipSubmitted    = "PAYMENT_SUBMITTED"
	TrackingPaymentConfirmed = "PAYMENT_CONFIRMED"
	TrackingPaymentFailed    = "PAYMENT_FAILED"
	TrackingCashCollected    = "CASH_COLLECTED"
	TrackingPartialRefund    = "PARTIALLY_REFUNDED"
	TrackingItemsChanged     = "ITEMS_CHANGED"
)

// TrackingEntry is one customer visible line of an order's timeline.
// Entries are created only by Order behaviour methods and are never updated.
type TrackingEntry struct {
	id          string
	orderID     string
	statusCode  string
	title       string
	description string
	completed   bool
	timestamp   time.Time
	actor       string
}

func (t TrackingEntry) ID() string           { return t.id }
func (t TrackingEntry) OrderID() string      { return t.orderID }
func (t TrackingEntry) StatusCode() string   { return t.statusCode }
func (t TrackingEntry) Title() string        { return t.title }
func (t TrackingEntry) Description() string  { return t.description }
func (t TrackingEntry) Completed() bool      { return t.completed }
func (t TrackingEntry) Timestamp() time.Time { return t.timestamp }
func (t TrackingEntry) Actor() string        { return t.actor }

// TrackingReconstructionDTO is for repository implementations only.
type TrackingReconstructionDTO struct {
	ID          string
	OrderID     string
	StatusCode  string
	Title       string
	Description string
	Completed   bool
	Timestamp   time.Time
	Actor       string
}

func RebuildTrackingFromDTO(dto TrackingReconstructionDTO) TrackingEntry {
	return TrackingEntry{
		id:          dto.ID,
		orderID:     dto.OrderID,
		statusCode:  dto.StatusCode,
		title:       dto.Title,
		description: dto.Description,
		completed:   dto.Completed,
		timestamp:   dto.Timestamp,
		actor:       dto.Actor,
	}
}

func newTrackingEntry(orderID, code, title, description string, completed bool, actor string, at time.Time) (TrackingEntry, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return TrackingEntry{}, fmt.Errorf("failed to generate tracking ID: %w", err)
	}
	return TrackingEntry{
		id:          id.String(),
		orderID:     orderID,
		statusCode:  code,
		title:       title,
		description: description,
		completed:   completed,
		timestamp:   at,
		actor:       actor,
	}, nil
}

var statusTitles = map[Status]string{
	StatusPending:        "Order placed",
	StatusConfirmed:      "Order confirmed",
	StatusPreparing:      "Preparing your order",
	StatusReadyForPickup: "Ready for pickup",
	StatusOutForDelivery: "Out for delivery",
	StatusDelivered:      "Delivered",
	StatusCancelled:      "Order cancelled",
	StatusRefunded:       "Order refunded",
}

func statusTitle(s Status) string {
	if title, ok := statusTitles[s]; ok {
		return title
	}
	return string(s)
}
