package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"savoria/api"
	"savoria/api/delivery"
	"savoria/api/health"
	apiorder "savoria/api/order"
	"savoria/api/payment"
	apiuser "savoria/api/user"
	"savoria/application/fulfillment"
	"savoria/config"
	"savoria/domain/directory"
	"savoria/domain/order"
	"savoria/domain/shared"
	"savoria/infrastructure/persistence/gormdb"
	"savoria/pkg/logger"

	"go.uber.org/zap"
)

// AppBuilder assembles an App from configuration. The With* methods replace
// a configured provider, mostly for tests and local runs.
type AppBuilder struct {
	cfg       *config.Config
	files     directory.FileStore
	gateway   directory.RefundGateway
	publisher directory.Publisher
}

func NewBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

func (b *AppBuilder) WithFileStore(files directory.FileStore) *AppBuilder {
	b.files = files
	return b
}

func (b *AppBuilder) WithGateway(gw directory.RefundGateway) *AppBuilder {
	b.gateway = gw
	return b
}

func (b *AppBuilder) WithPublisher(p directory.Publisher) *AppBuilder {
	b.publisher = p
	return b
}

// Build connects storage and providers. On error everything opened so far is closed.
func (b *AppBuilder) Build(ctx context.Context) (_ *App, err error) {
	if err := logger.Init(&b.cfg.Log, b.cfg.App.Env); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Starting application",
		zap.String("app", b.cfg.App.Name),
		zap.String("version", b.cfg.App.Version),
		zap.String("env", b.cfg.App.Env),
		zap.String("database", b.cfg.Database.Type))

	app := &App{config: b.cfg}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	if app.backend, err = openBackend(ctx, b.cfg); err != nil {
		return nil, err
	}
	app.closers = append(app.closers, app.backend)

	svc, err := b.buildService(ctx, app)
	if err != nil {
		return nil, err
	}

	if b.cfg.Worker.Enabled && app.backend.db != nil {
		if app.worker, err = b.buildWorker(app); err != nil {
			return nil, err
		}
	}

	controllers := api.Controllers{
		Health:   health.NewController(b.cfg, app.backend.probes...),
		User:     apiuser.NewController(app.backend.users),
		Order:    apiorder.NewController(svc),
		Delivery: delivery.NewController(svc),
		Payment:  payment.NewController(svc, b.cfg.Server.MaxUploadBytes),
	}
	app.router = api.NewRouter(b.cfg, app.backend.users, controllers)
	app.router.SetupRoutes()

	app.server = &http.Server{
		Addr:         ":" + b.cfg.Server.Port,
		Handler:      app.router.GetEngine(),
		ReadTimeout:  b.cfg.Server.ReadTimeout,
		WriteTimeout: b.cfg.Server.WriteTimeout,
	}
	return app, nil
}

func (b *AppBuilder) buildService(ctx context.Context, app *App) (*fulfillment.Service, error) {
	taxRate, err := b.cfg.Pricing.ParsedTaxRate()
	if err != nil {
		return nil, err
	}
	fee, err := b.cfg.Pricing.ParsedDeliveryFee()
	if err != nil {
		return nil, err
	}

	gw := b.gateway
	if gw == nil {
		if gw, err = newGateway(b.cfg.Gateway); err != nil {
			return nil, err
		}
	}

	files := b.files
	if files == nil {
		var closer io.Closer
		if files, closer, err = newFileStore(ctx, b.cfg.Storage, b.cfg.Server.MaxUploadBytes); err != nil {
			return nil, err
		}
		if closer != nil {
			app.closers = append(app.closers, closer)
		}
	}

	return fulfillment.NewService(fulfillment.Dependencies{
		Orders:     app.backend.orders,
		Deliveries: app.backend.deliveries,
		Payments:   app.backend.payments,
		Menu:       app.backend.menu,
		Drivers:    app.backend.drivers,
		Gateway:    gw,
		Files:      files,
		UoW:        app.backend.uow,
		Pricing: order.PricingPolicy{
			TaxRate:     taxRate,
			DeliveryFee: shared.MoneyFromDecimal(fee),
		},
	})
}

// buildWorker runs the outbox relay inside the API process. cmd/worker runs
// the same relay standalone.
func (b *AppBuilder) buildWorker(app *App) (*gormdb.OutboxRelay, error) {
	publisher := b.publisher
	if publisher == nil {
		var err error
		if publisher, err = NewPublisher(b.cfg.Broker); err != nil {
			return nil, err
		}
	}
	app.closers = append(app.closers, publisher)

	return gormdb.NewOutboxRelay(
		gormdb.NewOutboxRepository(app.backend.db),
		publisher,
		gormdb.RelayOptionsFromConfig(b.cfg.Worker),
	)
}
