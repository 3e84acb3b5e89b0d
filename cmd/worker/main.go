// Command worker relays the order outbox to the notification broker.
//
// It runs the same relay the API can host in-process, for deployments that
// keep the API stateless. With -once it relays a single batch and exits,
// which suits a cron schedule.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"savoria/cmd"
	"savoria/config"
	"savoria/infrastructure/persistence/gormdb"
	"savoria/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to the config file")
	once := flag.Bool("once", false, "relay one batch and exit")
	flag.Parse()

	if err := run(*configPath, *once); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, once bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(&cfg.Log, cfg.App.Env); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Database.Type == "memory" {
		return errors.New("the memory backend has no outbox to relay")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := gormdb.OptionsFromConfig(cfg.Database)
	db, err := opts.Connect()
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := gormdb.Ping(ctx, db); err != nil {
		return fmt.Errorf("ping %s: %w", cfg.Database.Type, err)
	}

	publisher, err := cmd.NewPublisher(cfg.Broker)
	if err != nil {
		return fmt.Errorf("open publisher: %w", err)
	}
	defer publisher.Close()

	relay, err := gormdb.NewOutboxRelay(gormdb.NewOutboxRepository(db), publisher, gormdb.RelayOptionsFromConfig(cfg.Worker))
	if err != nil {
		return err
	}

	log := logger.Get().With(zap.String("broker", cfg.Broker.Provider), zap.String("database", cfg.Database.Type))
	if once {
		n, err := relay.RelayBatch(ctx)
		log.Info("outbox batch relayed", zap.Int("published", n))
		return err
	}

	log.Info("outbox relay running",
		zap.Duration("poll_interval", cfg.Worker.PollInterval),
		zap.Int("batch_size", cfg.Worker.BatchSize))
	err = relay.Run(ctx)
	log.Info("outbox relay stopped")
	return err
}
