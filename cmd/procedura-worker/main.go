// Procedura Worker — фоновые задачи.
//
// Worker:
//   - Потребляет progress.step_completed и уведомляет о ставших доступными шагах
//   - По cron-расписанию проверяет конфигурацию активных процедур
//   - Отдаёт /healthz и /metrics
//
// Без RabbitMQ работает только аудит.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Procedura/internal/audit"
	"github.com/shaiso/Procedura/internal/config"
	"github.com/shaiso/Procedura/internal/mq"
	"github.com/shaiso/Procedura/internal/notifier"
	"github.com/shaiso/Procedura/internal/procedure"
	"github.com/shaiso/Procedura/internal/storage"
	"github.com/shaiso/Procedura/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to procedura.toml (default: $PROCEDURA_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.Log.Level, cfg.Log.Format)
	logger.Info("starting procedura-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	backend, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	service := procedure.New(procedure.Config{
		Catalog: backend.Catalog,
		Store:   backend.Store,
		Logger:  logger,
	})

	auditor, err := audit.New(audit.Config{
		Flows:    service,
		Schedule: cfg.Audit.Cron,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to create auditor", "error", err)
		os.Exit(1)
	}

	// RabbitMQ
	var mqConn *mq.Connection
	if cfg.MQ.Enabled {
		mqConn, err = mq.NewConnection(cfg.MQ.URL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, running audit only", "error", err)
		} else {
			defer mqConn.Close()
			logger.Info("RabbitMQ connected")
			if err := mq.SetupTopology(ctx, mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
		}
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := backend.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "storage unavailable: %v", err)
			return
		}
		w.WriteHeader(http.StatusOK)
		if report := auditor.LastReport(); report != nil {
			fmt.Fprintf(w, "ok, last audit %s: %d flows checked, %d misconfigured",
				report.StartedAt.Format(time.RFC3339), report.Checked, len(report.Misconfigured))
			return
		}
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.WorkerAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreCanceled(auditor.Run(gctx))
	})

	if mqConn != nil {
		n := notifier.New(notifier.Config{
			Flows:    service,
			Conn:     mqConn,
			Prefetch: cfg.Worker.Prefetch,
			Logger:   logger,
		})
		g.Go(func() error {
			return ignoreCanceled(n.Run(gctx))
		})
	}

	g.Go(func() error {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("procedura-worker stopped")
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
