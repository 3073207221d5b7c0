package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/templui/filesmanager/internal/app"
	"github.com/templui/filesmanager/internal/config"
	"github.com/templui/filesmanager/internal/logger"
	"github.com/templui/filesmanager/internal/metrics"
	"github.com/templui/filesmanager/internal/worker"
)

func main() {
	cfg := config.Load()

	flush := logger.Init(cfg.IsDevelopment(), cfg.SentryDSN, "worker")
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	app, err := app.New(initCtx, cfg)
	cancel()
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		flush()
		os.Exit(1)
	}
	defer app.Close()

	slog.Info("worker starting",
		"consumer", cfg.WorkerID,
		"concurrency", cfg.WorkerConcurrency,
		"max_attempts", cfg.QueueMaxAttempts,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.ThumbnailQueue.Process(ctx, cfg.WorkerID, cfg.WorkerConcurrency,
			worker.Instrument(app.ThumbnailQueue.Name(), app.Worker.HandleThumbnail))
	})
	g.Go(func() error {
		return app.WelcomeQueue.Process(ctx, cfg.WorkerID, 1,
			worker.Instrument(app.WelcomeQueue.Name(), app.Worker.HandleWelcome))
	})

	if cfg.MetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			slog.Info("metrics server listening", "addr", cfg.MetricsAddr)
			err := metricsServer.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-ctx.Done()
			return metricsServer.Close()
		})
	}

	err = g.Wait()
	if err != nil {
		slog.Error("worker failed", "error", err)
		app.Close()
		flush()
		os.Exit(1)
	}
	slog.Info("worker stopped")
}
