package fulfillment

import (
	"context"
	"strings"
	"testing"

	"savoria/domain/directory"
	"savoria/domain/order"
	"savoria/domain/shared"
	"savoria/infrastructure/gateway"
	"savoria/infrastructure/persistence/memory"
	"savoria/infrastructure/persistence/retry"
	"savoria/infrastructure/storage"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var (
	admin       = shared.Actor{ID: "admin-1", Name: "Admin", Kind: shared.ActorAdmin}
	customer    = shared.Actor{ID: "cust-1", Name: "Cust", Kind: shared.ActorCustomer}
	driverActor = shared.Actor{ID: "drv-1", Name: "Somchai", Kind: shared.ActorDriver}
)

type fixture struct {
	svc     *Service
	store   *memory.Store
	gateway *gateway.SimulatedGateway
	fs      afero.Fs
}

func withPricing(taxRate, deliveryFee string) func(*Dependencies) {
	return func(d *Dependencies) {
		d.Pricing = order.PricingPolicy{
			TaxRate:     decimal.RequireFromString(taxRate),
			DeliveryFee: shared.MustMoney(deliveryFee),
		}
	}
}

func newFixture(t *testing.T, opts ...func(*Dependencies)) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.PutMenuItem(directory.MenuItem{ID: "m1", Name: "Pad Thai", Price: shared.MustMoney("250.00"), Available: true})
	store.PutMenuItem(directory.MenuItem{ID: "m2", Name: "Green Curry", Price: shared.MustMoney("500.00"), DiscountPercentage: decimal.NewFromInt(10), Available: true})
	store.PutMenuItem(directory.MenuItem{ID: "m3", Name: "Mango Sticky Rice", Price: shared.MustMoney("120.00"), Available: false})
	store.PutDriver(directory.Driver{ID: "drv-1", Name: "Somchai", Phone: "0800000001", Vehicle: "scooter", Available: true})
	store.PutDriver(directory.Driver{ID: "drv-2", Name: "Niran", Phone: "0800000002", Vehicle: "car", Available: true})
	store.PutDriver(directory.Driver{ID: "drv-3", Name: "Busy", Available: false})

	gw := gateway.NewSimulatedGateway(false)
	fs := afero.NewMemMapFs()

	deps := Dependencies{
		Orders:     memory.NewOrderRepository(store),
		Deliveries: memory.NewDeliveryRepository(store),
		Payments:   memory.NewPaymentRepository(store),
		Menu:       memory.NewMenuCatalog(store),
		Drivers:    memory.NewDriverDirectory(store),
		Gateway:    gw,
		Files:      storage.NewLocalStoreOnFs(fs, "/uploads", storage.Limits{MaxBytes: 1 << 20}),
		UoW:        memory.NewUnitOfWorkFactory(store, retry.DefaultConfig),
		Pricing: order.PricingPolicy{
			TaxRate:     decimal.RequireFromString("0.10"),
			DeliveryFee: shared.MustMoney("400.00"),
		},
	}
	for _, opt := range opts {
		opt(&deps)
	}

	svc, err := NewService(deps)
	require.NoError(t, err)
	return &fixture{svc: svc, store: store, gateway: gw, fs: fs}
}

// padThai4 is a 1000.00 subtotal.
var padThai4 = []LineItemRequest{{MenuItemID: "m1", Quantity: 4}}

func (f *fixture) createOrder(t *testing.T, orderType order.Type, method order.PaymentMethod, items ...LineItemRequest) *OrderView {
	t.Helper()
	if len(items) == 0 {
		items = padThai4
	}
	view, err := f.svc.CreateOrder(context.Background(), customer, CreateOrderRequest{
		Type:            string(orderType),
		PaymentMethod:   string(method),
		Items:           items,
		DeliveryAddress: "99 Sukhumvit Rd",
	})
	require.NoError(t, err)
	return view
}

func (f *fixture) advance(t *testing.T, orderID string, statuses ...order.Status) *OrderView {
	t.Helper()
	var view *OrderView
	for _, s := range statuses {
		var err error
		view, err = f.svc.UpdateStatus(context.Background(), admin, orderID, s)
		require.NoError(t, err, "advance to %s", s)
	}
	return view
}

func (f *fixture) driverAvailable(t *testing.T, id string) bool {
	t.Helper()
	d, err := memory.NewDriverDirectory(f.store).GetDriver(context.Background(), id)
	require.NoError(t, err)
	return d.Available
}

func slipUpload() directory.Upload {
	body := "fake-png"
	return directory.Upload{
		Filename:    "slip.png",
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

// snapshot captures everything a failed operation must leave untouched.
type snapshot struct {
	order    *OrderView
	tracking []TrackingView
	events   int
}

func (f *fixture) snapshot(t *testing.T, orderID string) snapshot {
	t.Helper()
	o, err := f.svc.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	tracking, err := f.svc.GetTracking(context.Background(), orderID)
	require.NoError(t, err)
	return snapshot{order: o, tracking: tracking, events: len(f.store.Events())}
}
