package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tournevent/shipbridge/internal/server"
	"github.com/tournevent/shipbridge/internal/shipping"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "shipbridge",
	Short:   "Shipbridge - UPS and FedEx shipping orchestration service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the postgres schema and upsert carrier settings from the environment",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize telemetry
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(context.Background())
	}

	tokenCache, closeCache, err := initTokenCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	registry := initShipperRegistry(cfg, logger, tracer, tokenCache)

	st, closeStores, err := initStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	events, closeEvents := initEvents(cfg)
	defer closeEvents()

	reg, metrics := initMetrics()

	orch := shipping.New(shipping.Options{
		Registry:       registry,
		Settings:       st.settings,
		Shipments:      st.shipments,
		Orders:         st.orders,
		Events:         events,
		PublishTimeout: cfg.EventPublishTimeout,
		Logger:         logger,
		Metrics:        metrics,
	})

	logger.Info("Starting Shipbridge",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.String("store", cfg.StoreDriver),
		zap.Bool("kafka", cfg.KafkaEnabled),
	)

	// Start HTTP server
	srv := server.New(server.Config{Port: cfg.Port}, orch, registry, reg, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	n, err := migrate(ctx, cfg)
	if err != nil {
		logger.Error("Migration failed", zap.Error(err))
		return err
	}
	logger.Info("Migration complete", zap.Int("carrier_settings", n))
	return nil
}
