package cmd

import (
	"context"
	"fmt"
	"io"

	"savoria/config"
	"savoria/domain/directory"
	"savoria/infrastructure/broker"
	"savoria/infrastructure/gateway"
	"savoria/infrastructure/storage"
	"savoria/pkg/logger"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
)

func newGateway(cfg config.GatewayConfig) (directory.RefundGateway, error) {
	simulated := gateway.NewSimulatedGateway(cfg.FailRefunds)
	switch cfg.Provider {
	case "", "simulated":
		logger.Warn("Using the simulated refund gateway; no money moves")
		return simulated, nil
	case "stripe":
		// slips and cash have no Stripe reference and are settled offline
		return gateway.NewStripeGateway(gateway.StripeConfig{
			APIKey:    cfg.StripeKey,
			AccountID: cfg.StripeAccount,
			Fallback:  simulated,
		})
	default:
		return nil, fmt.Errorf("unsupported gateway provider %q", cfg.Provider)
	}
}

// newFileStore returns the store and, for GCS, the client to close on shutdown.
func newFileStore(ctx context.Context, cfg config.StorageConfig, maxBytes int64) (directory.FileStore, io.Closer, error) {
	limits := storage.Limits{MaxBytes: maxBytes}
	switch cfg.Provider {
	case "", "local":
		store, err := storage.NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL, limits)
		return store, nil, err
	case "gcs":
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gcs client: %w", err)
		}
		store, err := storage.NewGCSStore(client, cfg.GCSBucket, cfg.PublicBaseURL, limits)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
}

// NewPublisher picks the notification sink for the outbox worker.
func NewPublisher(cfg config.BrokerConfig) (directory.Publisher, error) {
	switch cfg.Provider {
	case "", "log":
		return broker.NewLogPublisher(logger.Get()), nil
	case "rabbitmq":
		p, err := broker.DialAMQP(cfg.URL, cfg.Exchange)
		if err != nil {
			return nil, err
		}
		logger.Info("Publishing outbox events to RabbitMQ", zap.String("exchange", cfg.Exchange))
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported broker provider %q", cfg.Provider)
	}
}
