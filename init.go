package main

import (
	"context"
	"fmt"

	"github.com/tournevent/orderquote/internal/config"
	"github.com/tournevent/orderquote/internal/events"
	"github.com/tournevent/orderquote/internal/store"
	"github.com/tournevent/orderquote/internal/store/memory"
	"github.com/tournevent/orderquote/internal/store/postgres"
	"github.com/tournevent/orderquote/internal/store/sqlite"
	"github.com/tournevent/orderquote/internal/telemetry"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(cfg *config.Config) (*otelzap.Logger, error) {
	return telemetry.NewLogger(cfg.LogLevel, cfg.ServiceName)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Attributes()...)
	return shutdown, err
}

func initStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StorePostgres:
		return postgres.Open(ctx, cfg.DatabaseURL)
	case config.StoreSQLite:
		return sqlite.Open(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func initPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.Nop{}
	}
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}
