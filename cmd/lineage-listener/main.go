// Lineage Listener: потребитель событий каталога из RabbitMQ.
//
// Слушает очереди job outputs и run transitions и пишет события в лог.
// Сообщения, которые невозможно разобрать, уходят в DLQ.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v3"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Lineage/internal/config"
	"github.com/shaiso/Lineage/internal/mq"
	"github.com/shaiso/Lineage/internal/telemetry"
)

func main() {
	fs := flag.NewFlagSet("lineage-listener", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to a YAML or TOML config file")
	prefetch := fs.Int("prefetch", 10, "Unacknowledged messages per queue")
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("LINEAGE")); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath, os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}

	logger := telemetry.NewLogger(os.Stdout, cfg.LogFormat, telemetry.ParseLevel(cfg.LogLevel))
	logger.Info("starting lineage-listener")

	if err := run(cfg, *prefetch, logger); err != nil {
		logger.Error("lineage-listener failed", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

func run(cfg config.Config, prefetch int, logger *slog.Logger) error {
	if cfg.RabbitMQURL == "" {
		return errors.New("RABBITMQ_URL is empty")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		return fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	if err := mq.SetupTopology(ctx, conn); err != nil {
		return fmt.Errorf("setup topology: %w", err)
	}
	logger.Debug("topology declared", "topology", mq.DefaultTopology().String())

	handler := mq.NewLoggingHandler(logger)

	g, gctx := errgroup.WithContext(ctx)
	for _, queue := range []mq.Queue{mq.QueueJobOutputs, mq.QueueRunTransitions} {
		consumer := mq.NewConsumer(conn, logger, mq.ConsumerConfig{
			Queue:    queue,
			Handler:  handler,
			Prefetch: prefetch,
		})
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consumer stopped: %w", err)
	}
	return nil
}
