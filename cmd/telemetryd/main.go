// telemetryd is the IoT telemetry dashboard backend.
//
// It ingests sensor readings from an MQTT broker, classifies them
// against alert thresholds, persists them to SQLite, and fans live
// updates out to dashboard WebSocket clients. A REST API serves stored
// readings, aggregate statistics, and account management.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/sensorgrid/telemetry-core/migrations"

	"github.com/sensorgrid/telemetry-core/internal/api"
	"github.com/sensorgrid/telemetry-core/internal/auth"
	"github.com/sensorgrid/telemetry-core/internal/bridge"
	"github.com/sensorgrid/telemetry-core/internal/infrastructure/config"
	"github.com/sensorgrid/telemetry-core/internal/infrastructure/database"
	"github.com/sensorgrid/telemetry-core/internal/infrastructure/influxdb"
	"github.com/sensorgrid/telemetry-core/internal/infrastructure/logging"
	"github.com/sensorgrid/telemetry-core/internal/infrastructure/mqtt"
	"github.com/sensorgrid/telemetry-core/internal/metrics"
	"github.com/sensorgrid/telemetry-core/internal/realtime"
	"github.com/sensorgrid/telemetry-core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting telemetry-core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Seed accounts on first boot
	userRepo := auth.NewUserRepository(db.DB)
	if _, seedErr := auth.SeedAccounts(ctx, userRepo, log); seedErr != nil {
		return fmt.Errorf("seeding accounts: %w", seedErr)
	}

	// Operational counters
	m := metrics.New()

	// WebSocket hub
	hub := realtime.NewHub(cfg.WebSocket, log)
	hub.SetMetrics(m)
	go hub.Run(ctx)

	// Telemetry service: classify, persist, broadcast
	readingRepo := telemetry.NewSQLiteRepository(db.DB)
	service := telemetry.NewService(readingRepo, hub, log)
	service.SetMetrics(m)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional time-series mirror)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		service.SetSink(influxClient)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Route broker messages into the ingestion pipeline
	msgBridge := bridge.New(mqttClient, service, hub, byte(cfg.MQTT.QoS), log)
	if startErr := msgBridge.Start(ctx); startErr != nil {
		return fmt.Errorf("starting MQTT bridge: %w", startErr)
	}

	// HTTP API and WebSocket endpoint
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Security: cfg.Security,
		Logger:   log,
		Service:  service,
		Users:    userRepo,
		Hub:      hub,
		DB:       db,
		MQTT:     mqttClient,
		Influx:   influxClient,
		Metrics:  m,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("telemetry-core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses TELEMETRY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TELEMETRY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
