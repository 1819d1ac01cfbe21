// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/runo/internal/cache"
	"github.com/jason-s-yu/runo/internal/config"
	"github.com/jason-s-yu/runo/internal/database"
	"github.com/jason-s-yu/runo/internal/game"
	"github.com/jason-s-yu/runo/internal/handlers"
	"github.com/jason-s-yu/runo/internal/middleware"
	"github.com/jason-s-yu/runo/internal/service"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.Logger()
	game.SetLogger(logger.WithField("component", "engine"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store service.Store = service.NewMemoryStore()
	if cfg.Store == config.StorePostgres {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("database: %v", err)
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			logger.Fatalf("migrate: %v", err)
		}
		store = database.NewGameStore(pool)
	}

	opts := []service.Option{service.WithLogger(logger)}
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		opts = append(opts, service.WithPublisher(cache.NewActionQueue(rdb, cfg.HistorianQueueName)))
	}

	svc := service.New(store, service.Config{
		MaxGamesPerDay: cfg.MaxGamesPerDay,
		GameTTL:        cfg.GameTTL,
	}, opts...)

	go housekeeping(ctx, svc, logger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           middleware.Harden(logger, nil)(handlers.NewGameServer(svc, logger).Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	logger.WithField("store", cfg.Store).Infof("Running on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
	logger.Info("server stopped")
}

// housekeeping purges expired games once an hour.
func housekeeping(ctx context.Context, svc *service.Service, logger *logrus.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.Housekeeping(ctx)
			if err != nil {
				logger.WithError(err).Warn("housekeeping failed")
				continue
			}
			if n > 0 {
				logger.Infof("Purged %d expired games.", n)
			}
		}
	}
}
