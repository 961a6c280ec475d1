package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/tournevent/shipbridge/pkg/shipper"
	"go.opentelemetry.io/otel/attribute"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Storage
	StoreDriver string `envconfig:"STORE_DRIVER" default:"memory"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// OAuth token cache
	TokenCacheEnabled bool   `envconfig:"TOKEN_CACHE_ENABLED" default:"false"`
	RedisAddr         string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	// Lifecycle events
	KafkaEnabled        bool          `envconfig:"KAFKA_ENABLED" default:"false"`
	KafkaBrokers        []string      `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic          string        `envconfig:"KAFKA_TOPIC" default:"shipbridge.shipments"`
	EventPublishTimeout time.Duration `envconfig:"EVENT_PUBLISH_TIMEOUT" default:"3s"`

	// Carriers
	CarrierUseMock bool          `envconfig:"CARRIER_USE_MOCK" default:"false"`
	AuthTimeout    time.Duration `envconfig:"AUTH_TIMEOUT" default:"10s"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`

	// Seed settings for the memory store.
	UPS   CarrierSeed `envconfig:"UPS"`
	FedEx CarrierSeed `envconfig:"FEDEX"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.claude.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"shipbridge"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// CarrierSeed is the environment form of one carrier's settings.
type CarrierSeed struct {
	Active               bool   `envconfig:"ACTIVE" default:"false"`
	Production           bool   `envconfig:"PRODUCTION" default:"false"`
	APIURL               string `envconfig:"API_URL"`
	ClientID             string `envconfig:"CLIENT_ID"`
	ClientSecret         string `envconfig:"CLIENT_SECRET"`
	AccountNumber        string `envconfig:"ACCOUNT_NUMBER"`
	MerchantID           string `envconfig:"MERCHANT_ID"`
	TrackingClientID     string `envconfig:"TRACKING_CLIENT_ID"`
	TrackingClientSecret string `envconfig:"TRACKING_CLIENT_SECRET"`
	DefaultService       string `envconfig:"DEFAULT_SERVICE"`

	ShipperName    string `envconfig:"SHIPPER_NAME"`
	ShipperCompany string `envconfig:"SHIPPER_COMPANY"`
	ShipperPhone   string `envconfig:"SHIPPER_PHONE"`
	ShipperLine1   string `envconfig:"SHIPPER_LINE1"`
	ShipperCity    string `envconfig:"SHIPPER_CITY"`
	ShipperState   string `envconfig:"SHIPPER_STATE"`
	ShipperPostal  string `envconfig:"SHIPPER_POSTAL"`
	ShipperCountry string `envconfig:"SHIPPER_COUNTRY" default:"US"`
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

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", StorePostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.KafkaEnabled && (len(c.KafkaBrokers) == 0 || c.KafkaTopic == "") {
		return fmt.Errorf("KAFKA_BROKERS and KAFKA_TOPIC are required when kafka is enabled")
	}
	return nil
}

// SeedSettings returns carrier settings built from the environment, active
// carriers only.
func (c *Config) SeedSettings() []*shipper.CarrierSettings {
	var out []*shipper.CarrierSettings
	if c.UPS.Active {
		s := c.UPS.settings(shipper.CarrierUPS)
		if c.UPS.MerchantID != "" {
			s.Extensions["merchant_id"] = c.UPS.MerchantID
		}
		out = append(out, s)
	}
	if c.FedEx.Active {
		s := c.FedEx.settings(shipper.CarrierFedEx)
		if c.FedEx.TrackingClientID != "" {
			s.Extensions["tracking_client_id"] = c.FedEx.TrackingClientID
			s.Extensions["tracking_client_secret"] = c.FedEx.TrackingClientSecret
		}
		out = append(out, s)
	}
	return out
}

func (s CarrierSeed) settings(id shipper.CarrierID) *shipper.CarrierSettings {
	return &shipper.CarrierSettings{
		CarrierID:          id,
		IsActive:           s.Active,
		IsProduction:       s.Production,
		APIURL:             s.APIURL,
		ClientID:           s.ClientID,
		ClientSecret:       s.ClientSecret,
		AccountNumber:      s.AccountNumber,
		DefaultServiceCode: s.DefaultService,
		Shipper: shipper.Party{
			Name:    s.ShipperName,
			Company: s.ShipperCompany,
			Phone:   s.ShipperPhone,
			Address: shipper.Address{
				Line1:      s.ShipperLine1,
				City:       s.ShipperCity,
				State:      s.ShipperState,
				PostalCode: s.ShipperPostal,
				Country:    s.ShipperCountry,
			},
		},
		Extensions: map[string]string{},
	}
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("store.driver", c.StoreDriver),
		attribute.Bool("kafka.enabled", c.KafkaEnabled),
		attribute.Bool("token_cache.enabled", c.TokenCacheEnabled),
		attribute.Bool("ups.active", c.UPS.Active),
		attribute.Bool("fedex.active", c.FedEx.Active),
	}
}
