package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"github.com/tournevent/orderquote/pkg/shipper"
	"go.opentelemetry.io/otel/attribute"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8044"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Storage
	StoreDriver string `envconfig:"STORE_DRIVER" default:"memory"`
	DatabaseURL string `envconfig:"DATABASE_URL" default:"postgresql://localhost:5432/skutopia"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/orders.db"`

	// UPS rates
	UPSBaseRate    decimal.Decimal `envconfig:"UPS_BASE_RATE" default:"800"`
	UPSPerGramRate decimal.Decimal `envconfig:"UPS_PER_GRAM_RATE" default:"0.05"`

	// USPS rates
	USPSBaseRate    decimal.Decimal `envconfig:"USPS_BASE_RATE" default:"1050"`
	USPSPerGramRate decimal.Decimal `envconfig:"USPS_PER_GRAM_RATE" default:"0.02"`

	// FEDEX rates
	FedExBaseRate    decimal.Decimal `envconfig:"FEDEX_BASE_RATE" default:"1000"`
	FedExPerGramRate decimal.Decimal `envconfig:"FEDEX_PER_GRAM_RATE" default:"0.03"`

	MaxItemWeight float64 `envconfig:"MAX_ITEM_WEIGHT" default:"50000"`

	// Events
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"orders.shipping"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"orderquote"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects negative rates and unknown store drivers.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StorePostgres, StoreSQLite:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	for code, r := range c.RateTable() {
		if r.Base.IsNegative() || r.PerGram.IsNegative() {
			return fmt.Errorf("negative rate for %s", code)
		}
	}
	if c.MaxItemWeight < 0 {
		return fmt.Errorf("MAX_ITEM_WEIGHT must not be negative")
	}
	return nil
}

// RateTable builds the carrier rate table from the configured rates.
func (c *Config) RateTable() shipper.RateTable {
	return shipper.RateTable{
		shipper.CarrierUPS:   {Base: c.UPSBaseRate, PerGram: c.UPSPerGramRate},
		shipper.CarrierUSPS:  {Base: c.USPSBaseRate, PerGram: c.USPSPerGramRate},
		shipper.CarrierFedEx: {Base: c.FedExBaseRate, PerGram: c.FedExPerGramRate},
	}
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("store.driver", c.StoreDriver),
		attribute.Bool("events.enabled", len(c.KafkaBrokers) > 0),
	}
}
