package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/config"
	http_controllers "github.com/mrlokans/kobo-highlights/internal/http"
	"github.com/mrlokans/kobo-highlights/internal/log"
	"github.com/mrlokans/kobo-highlights/internal/scheduler"
	"github.com/mrlokans/kobo-highlights/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()), zap.Duration("timeout", timeout))
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work first so no task writes after the server is gone
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("server exiting")
	return nil
}

// Run wires every component and serves the HTTP API.
func Run(cfg *config.Config, version string) error {
	log.Info("starting kobo-highlights", zap.String("version", version))

	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()

	// Nothing runs yet, so a "running" session was interrupted by the previous process
	if dev := app.Orchestrator.Scan(); dev != nil {
		if _, err := app.DB.Sessions().IsRunning(dev.Identifier(), 0); err != nil {
			log.Warn("failed to check for interrupted imports", zap.Error(err))
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Library:  app.Library,
		Devices:  app.Orchestrator,
		Settings: app.Settings,
		Database: app.DB,
		AutoSync: app.Settings,
		Version:  version,
	}
	if app.Covers != nil {
		routerCfg.Covers = app.Covers
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.FromConfig(cfg.Tasks)

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error("error closing task client", zap.Error(err))
			}
		}()

		taskClient.Register(
			tasks.NewExportBooksQueue(app.Library, taskCfg.TaskTimeout),
			tasks.NewSyncDeviceQueue(app.Library, app.Settings),
			tasks.NewPruneSessionsQueue(app.DB.Sessions()),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		if _, err := taskClient.Enqueue(tasks.PruneSessionsTask{}); err != nil {
			log.Warn("failed to enqueue session pruning", zap.Error(err))
		}

		routerCfg.Tasks = taskClient
	}

	// The scheduler falls back to inline runs without a queue
	var queue scheduler.Enqueuer
	if taskClient != nil {
		queue = taskClient
	}
	autoSync := scheduler.NewAutoSyncScheduler(app.Settings, app.Library, queue)
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	if err := autoSync.Start(schedCtx); err != nil {
		log.Warn("auto-sync scheduler not started", zap.Error(err))
	}
	routerCfg.Scheduler = autoSync

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		autoSync.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	return Serve(router, cfg, onShutdown)
}
