// Package config содержит логику чтения конфигурации сервиса перераспределения урожая.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Значения по умолчанию.
const (
	DefaultRunAddress     = "localhost:8080"
	DefaultMaxSubscribers = 500
	DefaultPingInterval   = 15 * time.Second
	DefaultExpirySchedule = "@hourly"
)

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress          string        `env:"RUN_ADDRESS"`
	DatabaseURI         string        `env:"DATABASE_URI"`
	EventWebhookURL     string        `env:"EVENT_WEBHOOK_URL"`
	EventMaxSubscribers int           `env:"EVENT_MAX_SUBSCRIBERS"`
	EventPingInterval   time.Duration `env:"EVENT_PING_INTERVAL"`
	CropExpirySchedule  string        `env:"CROP_EXPIRY_SCHEDULE"`
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и
// переменных окружения. Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	// Файл .env необязателен.
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg

	flag.StringVar(&cfg.RunAddress, "a", DefaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI, in-memory store when empty")
	flag.StringVar(&cfg.EventWebhookURL, "w", "", "URL to forward domain events to")
	flag.IntVar(&cfg.EventMaxSubscribers, "m", DefaultMaxSubscribers, "maximum number of event subscribers")
	flag.DurationVar(&cfg.EventPingInterval, "p", DefaultPingInterval, "event stream ping interval")
	flag.StringVar(&cfg.CropExpirySchedule, "e", DefaultExpirySchedule, "cron schedule of the crop expiry sweep")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.EventWebhookURL != "" {
		cfg.EventWebhookURL = envCfg.EventWebhookURL
	}
	if envCfg.EventMaxSubscribers != 0 {
		cfg.EventMaxSubscribers = envCfg.EventMaxSubscribers
	}
	if envCfg.EventPingInterval != 0 {
		cfg.EventPingInterval = envCfg.EventPingInterval
	}
	if envCfg.CropExpirySchedule != "" {
		cfg.CropExpirySchedule = envCfg.CropExpirySchedule
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = DefaultRunAddress
	}
	if cfg.EventMaxSubscribers <= 0 {
		return nil, fmt.Errorf("event max subscribers must be positive, got %d", cfg.EventMaxSubscribers)
	}
	if cfg.EventPingInterval <= 0 {
		return nil, fmt.Errorf("event ping interval must be positive, got %s", cfg.EventPingInterval)
	}

	return cfg, nil
}
