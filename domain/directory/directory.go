// Package directory declares the collaborators the fulfillment engine consumes
// but does not own: the menu, the driver roster, the refund gateway, slip
// file storage and notification dispatch. User lookup lives in domain/user.
package directory

import (
	"context"
	"errors"
	"io"

	"savoria/domain/shared"

	"github.com/shopspring/decimal"
)

// MenuItem is the pricing view of a menu entry at lookup time.
type MenuItem struct {
	ID                 string
	Name               string
	Price              shared.Money
	DiscountPercentage decimal.Decimal
	Available          bool
}

// MenuCatalog is consulted only while pricing new order lines.
type MenuCatalog interface {
	GetMenuItem(ctx context.Context, id string) (*MenuItem, error)
}

type Driver struct {
	ID        string
	Name      string
	Phone     string
	Vehicle   string
	Available bool
}

// DriverDirectory implementations must honour the transaction carried by ctx
// so that availability changes commit with the delivery they belong to.
type DriverDirectory interface {
	GetDriver(ctx context.Context, id string) (*Driver, error)
	SetAvailability(ctx context.Context, id string, available bool) error
}

// RefundRequest is sent to the payment gateway.
type RefundRequest struct {
	PaymentID      string
	OrderID        string
	Amount         shared.Money
	Reason         string
	GatewayRef     string // original capture reference, empty for slip and cash payments
	IdempotencyKey string
}

type RefundResult struct {
	Reference string
}

// RefundGateway may be slow and may fail. Callers never retry automatically.
type RefundGateway interface {
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}

// Upload is a slip file as received from the client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ErrUploadRejected is wrapped by FileStore errors caused by the file itself
// (empty, too large, wrong type) rather than by the storage backend.
var ErrUploadRejected = errors.New("upload rejected")

// FileStore persists uploaded files and returns a reference the engine stores as-is.
type FileStore interface {
	Store(ctx context.Context, key string, file Upload) (string, error)
}

// Message is a notification derived from an outbox event.
type Message struct {
	ID          string
	Topic       string
	AggregateID string
	Payload     []byte
}

// Publisher dispatches notifications. Delivery is at least once.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}
