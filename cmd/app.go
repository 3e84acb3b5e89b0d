package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"

	"savoria/api"
	"savoria/config"
	"savoria/infrastructure/persistence/gormdb"
	"savoria/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config  *config.Config
	router  *api.Router
	server  *http.Server
	backend *backend
	worker  *gormdb.OutboxRelay
	closers []io.Closer
}

// Handler exposes the router for tests.
func (a *App) Handler() http.Handler {
	return a.router.GetEngine()
}

// Run serves until ctx is cancelled, then drains requests within the
// configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server starting",
			zap.String("addr", a.server.Addr),
			zap.String("health", "/api/v1/health"))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			logger.Info("Outbox relay started in-process",
				zap.Duration("poll_interval", a.config.Worker.PollInterval))
			return a.worker.Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if closeErr := a.Close(); err == nil {
		err = closeErr
	}
	logger.Info("Server stopped")
	return err
}

// Close releases providers in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
