// cmd/historian/main.go is an asynchronous historian service that pops game actions
// from the Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/runo/internal/cache"
	"github.com/jason-s-yu/runo/internal/config"
	"github.com/jason-s-yu/runo/internal/database"
	"github.com/jason-s-yu/runo/internal/historian"
	"github.com/jason-s-yu/runo/internal/models"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.Logger()
	if cfg.DatabaseURL == "" || cfg.RedisAddr == "" {
		logger.Fatal("historian needs DATABASE_URL and REDIS_ADDR")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	sink := func(ctx context.Context, actions []models.GameAction) error {
		err := database.InsertActions(ctx, pool, actions)
		if errors.Is(err, database.ErrInvalidAction) {
			return fmt.Errorf("%w: %w", historian.ErrRejected, err)
		}
		return err
	}
	queue := cache.NewActionQueue(rdb, cfg.HistorianQueueName)
	if backlog, err := queue.Len(ctx); err != nil {
		logger.WithError(err).Warn("could not read queue length")
	} else {
		logger.WithField("queue", cfg.HistorianQueueName).Infof("%d actions waiting.", backlog)
	}

	h := historian.New(
		queue,
		sink,
		cfg.HistorianBatchSize,
		cfg.HistorianFlush,
		logger.WithField("component", "historian"),
	)
	if err := h.Run(ctx); err != nil {
		logger.Fatalf("historian: %v", err)
	}
	logger.Info("Historian shutdown complete.")
}
