// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config is everything the server and historian read from the environment.
type Config struct {
	Port     string `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	Store       string `env:"STORE,default=memory"`
	DatabaseURL string `env:"DATABASE_URL"`

	RedisAddr          string        `env:"REDIS_ADDR"`
	RedisDB            int           `env:"REDIS_DB,default=0"`
	HistorianQueueName string        `env:"HISTORIAN_QUEUE_NAME,default=runo_actions"`
	HistorianBatchSize int           `env:"HISTORIAN_BATCH_SIZE,default=20"`
	HistorianFlush     time.Duration `env:"HISTORIAN_FLUSH,default=500ms"`

	MaxGamesPerDay int           `env:"MAX_GAMES_PER_DAY,default=1000"`
	GameTTL        time.Duration `env:"GAME_TTL,default=24h"`
}

// Load decodes the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks combinations the tags cannot express.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required when STORE=postgres")
		}
	default:
		return fmt.Errorf("config: unknown STORE %q", c.Store)
	}
	if c.MaxGamesPerDay < 0 {
		return errors.New("config: MAX_GAMES_PER_DAY must not be negative")
	}
	if c.GameTTL <= 0 {
		return errors.New("config: GAME_TTL must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Logger builds the process logger at the configured level.
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
