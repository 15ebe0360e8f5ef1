package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"picture-analysis/internal/bootstrap"
	"picture-analysis/internal/queue"
	"picture-analysis/internal/shared/config"
	"picture-analysis/internal/shared/server"
	"picture-analysis/internal/shared/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workersDone := make(chan struct{})
	if app.MemoryQueue != nil {
		telemetry.Info("api.inprocess_workers", map[string]any{"workers": app.Config.WorkerConcurrency})
		go func() {
			defer close(workersDone)
			app.MemoryQueue.Run(ctx, max(1, app.Config.WorkerConcurrency), func(ctx context.Context, msg queue.Message) {
				if err := app.Processor.Process(ctx, msg); err != nil {
					telemetry.Error("api.inprocess_task_failed", map[string]any{
						"task_id": msg.TaskID,
						"error":   err.Error(),
					})
				}
			})
		}()
	} else {
		close(workersDone)
	}

	if app.Inbox != nil {
		go func() {
			if err := app.Inbox.Run(ctx); err != nil {
				telemetry.Error("api.inbox_failed", map[string]any{"dir": app.Inbox.Dir, "error": err.Error()})
			}
		}()
	}

	srv := &http.Server{
		Addr:              server.Addr(app.Config.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		telemetry.Info("api.listening", map[string]any{"addr": srv.Addr, "env": app.Config.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Warn("api.shutdown_failed", map[string]any{"error": err.Error()})
	}
	if app.MemoryQueue != nil {
		app.MemoryQueue.Close()
	}
	select {
	case <-workersDone:
	case <-shutdownCtx.Done():
		telemetry.Warn("api.shutdown_timeout", map[string]any{"timeout": shutdownTimeout.String()})
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
}
