package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"MarketTiming/internal/domain/models"
	"MarketTiming/pkg/config"
	"MarketTiming/pkg/logger"
)

// Scheduler is the refresh side of the application.
type Scheduler interface {
	Start(ctx context.Context, runNow bool) error
	Stop(ctx context.Context) error
	Subscribe(fn func(*models.Snapshot)) func()
}

// Broadcaster pushes snapshots to connected clients.
type Broadcaster interface {
	Broadcast(s *models.Snapshot)
	Close()
}

// HTTPServer is the API server.
type HTTPServer interface {
	Start() error
	Stop(ctx context.Context) error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	scheduler  Scheduler
	hub        Broadcaster
	httpServer HTTPServer
	log        *logger.Logger
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, scheduler Scheduler, hub Broadcaster, httpServer HTTPServer, l *logger.Logger) *App {
	return &App{
		cfg:        cfg,
		scheduler:  scheduler,
		hub:        hub,
		httpServer: httpServer,
		log:        l,
	}
}

// Run starts the application and blocks until ctx is done or the process is
// interrupted.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	unsubscribe := a.scheduler.Subscribe(a.hub.Broadcast)
	defer unsubscribe()

	if err := a.scheduler.Start(ctx, a.cfg.Pipeline.RunOnStart); err != nil {
		return fmt.Errorf("start refresher: %w", err)
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", logger.Error(err))
		_ = a.scheduler.Stop(context.Background())
		return err
	}
	a.log.Info("service started",
		logger.Int("port", a.cfg.Server.Port),
		logger.String("schedule", a.cfg.Pipeline.Schedule),
		logger.Bool("run_on_start", a.cfg.Pipeline.RunOnStart),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
		firstErr = err
	}

	a.hub.Close()

	if err := a.scheduler.Stop(ctx); err != nil {
		a.log.Warn("refresher stop error", logger.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}

	a.log.Info("shutdown complete")
	return firstErr
}
