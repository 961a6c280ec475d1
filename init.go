package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tournevent/shipbridge/internal/cache/rediscache"
	"github.com/tournevent/shipbridge/internal/config"
	"github.com/tournevent/shipbridge/internal/events/kafka"
	"github.com/tournevent/shipbridge/internal/shipping"
	"github.com/tournevent/shipbridge/internal/store/memory"
	"github.com/tournevent/shipbridge/internal/store/postgres"
	"github.com/tournevent/shipbridge/internal/telemetry"
	"github.com/tournevent/shipbridge/pkg/shipper"
	"github.com/tournevent/shipbridge/pkg/shipper/carriers"
	"github.com/tournevent/shipbridge/pkg/shipper/oauth"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

func initTokenCache(ctx context.Context, cfg *config.Config) (oauth.TokenCache, func(), error) {
	if !cfg.TokenCacheEnabled {
		return nil, func() {}, nil
	}
	c := rediscache.New(cfg.RedisAddr)
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, nil, fmt.Errorf("token cache: %w", err)
	}
	return c, func() { c.Close() }, nil
}

func initShipperRegistry(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer, cache oauth.TokenCache) *shipper.Registry {
	return carriers.NewDefaultRegistry(shipper.Deps{
		Logger:         logger,
		Tracer:         tracer,
		HTTPClient:     &http.Client{},
		TokenCache:     cache,
		UseMock:        cfg.CarrierUseMock,
		AuthTimeout:    cfg.AuthTimeout,
		RequestTimeout: cfg.RequestTimeout,
	})
}

type stores struct {
	settings  shipping.SettingsStore
	shipments shipping.ShipmentStore
	orders    shipping.OrderProjection
}

func initStores(ctx context.Context, cfg *config.Config) (stores, func(), error) {
	if cfg.StoreDriver == config.StorePostgres {
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return stores{}, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return stores{}, nil, err
		}
		return stores{settings: pg, shipments: pg, orders: pg}, pg.Close, nil
	}

	mem := memory.New()
	for _, s := range cfg.SeedSettings() {
		mem.PutCarrierSettings(s)
	}
	return stores{settings: mem, shipments: mem, orders: mem}, func() {}, nil
}

func initEvents(cfg *config.Config) (shipping.EventPublisher, func()) {
	if !cfg.KafkaEnabled {
		return shipping.NopPublisher{}, func() {}
	}
	p := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	return p, func() { p.Close() }
}

func initMetrics() (*prometheus.Registry, *telemetry.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, telemetry.NewMetrics(reg)
}

func migrate(ctx context.Context, cfg *config.Config) (int, error) {
	if cfg.StoreDriver != config.StorePostgres {
		return 0, fmt.Errorf("migrate requires STORE_DRIVER=%s", config.StorePostgres)
	}
	pg, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return 0, err
	}
	defer pg.Close()

	if err := pg.Migrate(ctx); err != nil {
		return 0, err
	}
	seeds := cfg.SeedSettings()
	for _, s := range seeds {
		if err := pg.PutCarrierSettings(ctx, s); err != nil {
			return 0, err
		}
	}
	return len(seeds), nil
}
