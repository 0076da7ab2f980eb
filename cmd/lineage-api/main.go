// Lineage API: HTTP сервис каталога datasets и runs.
//
// Сервер:
//   - Принимает записи datasets и создаёт версии
//   - Управляет жизненным циклом runs
//   - Рассылает события наблюдателям (RabbitMQ, если настроен)
//
// Конфигурация читается из файла (-config), затем из переменных окружения.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Lineage/internal/api"
	"github.com/shaiso/Lineage/internal/config"
	"github.com/shaiso/Lineage/internal/mq"
	"github.com/shaiso/Lineage/internal/repo"
	"github.com/shaiso/Lineage/internal/repo/memstore"
	"github.com/shaiso/Lineage/internal/service"
	"github.com/shaiso/Lineage/internal/telemetry"
)

// backend: хранилище, которое обслуживает и сервисы, и чтение каталога.
type backend interface {
	service.CatalogStore
	service.RunStore
	api.CatalogReader
}

func main() {
	fs := flag.NewFlagSet("lineage-api", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to a YAML or TOML config file")
	storage := fs.String("storage", "", "Storage backend override (postgres, memory)")
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("LINEAGE")); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath, os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
	if *storage != "" {
		cfg.Storage = *storage
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
	}

	logger := telemetry.NewLogger(os.Stdout, cfg.LogFormat, telemetry.ParseLevel(cfg.LogLevel))
	logger.Info("starting lineage-api", "storage", cfg.Storage, "legacy_dataset_writes", cfg.LegacyDatasetWrites)

	if err := run(cfg, logger); err != nil {
		logger.Error("lineage-api failed", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var store backend
	switch cfg.Storage {
	case config.StorageMemory:
		store = memstore.New()
		logger.Warn("using in-memory storage, data is lost on restart")
	default:
		pool, err := repo.NewPool(ctx, cfg.PoolConfig())
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		logger.Info("connected to database")
		store = repo.NewStore(pool)
	}

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	bus := service.NewNotificationBus(service.BusConfig{Failures: metrics, Logger: logger})

	var broker *mq.Connection
	if cfg.RabbitMQURL != "" {
		conn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, events are not published", "error", err)
		} else {
			defer conn.Close()
			broker = conn
			if err := mq.SetupTopology(ctx, conn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			bus.Register(mq.NewObserver(mq.NewPublisher(conn, logger), logger))
			logger.Info("RabbitMQ observer registered")
		}
	}

	handler := api.NewHandler(api.Config{
		Datasets: service.NewDatasetService(service.DatasetServiceConfig{
			Store:        store,
			Bus:          bus,
			Metrics:      metrics,
			LegacyWrites: cfg.LegacyDatasetWrites,
			Logger:       logger,
		}),
		Runs: service.NewRunService(service.RunServiceConfig{
			Store:  store,
			Bus:    bus,
			Logger: logger,
		}),
		Catalog:  store,
		Requests: metrics,
		Logger:   logger,
	})

	startTime := time.Now()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime).Round(time.Second))
		if broker != nil && !broker.IsConnected() {
			fmt.Fprint(w, " (broker reconnecting)")
		}
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}
