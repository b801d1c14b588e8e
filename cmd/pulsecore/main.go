// Pulse Core - telemetry ingestion and rule evaluation engine.
//
// Pulse Core is the real-time heart of the Casa Pulse home-automation
// platform: it consumes device telemetry from field gateways over MQTT,
// persists readings, detects watched sensor transitions, evaluates
// automation rules, and dispatches the resulting commands and
// notifications.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/casapulse/pulse-core/migrations"

	"github.com/casapulse/pulse-core/internal/api"
	"github.com/casapulse/pulse-core/internal/device"
	"github.com/casapulse/pulse-core/internal/dispatch"
	"github.com/casapulse/pulse-core/internal/events"
	"github.com/casapulse/pulse-core/internal/gateway"
	"github.com/casapulse/pulse-core/internal/home"
	"github.com/casapulse/pulse-core/internal/infrastructure/config"
	"github.com/casapulse/pulse-core/internal/infrastructure/database"
	"github.com/casapulse/pulse-core/internal/infrastructure/influxdb"
	"github.com/casapulse/pulse-core/internal/infrastructure/logging"
	"github.com/casapulse/pulse-core/internal/infrastructure/mqtt"
	"github.com/casapulse/pulse-core/internal/infrastructure/redis"
	"github.com/casapulse/pulse-core/internal/maintenance"
	"github.com/casapulse/pulse-core/internal/queue"
	"github.com/casapulse/pulse-core/internal/rules"
	"github.com/casapulse/pulse-core/internal/statecache"
	"github.com/casapulse/pulse-core/internal/telemetry"
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
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error { //nolint:gocognit // linear wiring of the full pipeline
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Pulse Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

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

	// Open database and bring the schema up to date
	db, err := database.Open(database.Config{
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
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Connect to the shared cache
	rdb, err := redis.Open(redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		log.Info("closing redis connection")
		if closeErr := rdb.Close(); closeErr != nil {
			log.Error("error closing redis", "error", closeErr)
		}
	}()
	log.Info("redis connected", "addr", cfg.Redis.Addr)

	// Connect to the message bus
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
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Connect to InfluxDB (optional telemetry mirror)
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
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Repositories and the telemetry store
	homeRepo := home.NewSQLiteRepository(db.DB)
	deviceRepo := device.NewSQLiteRepository(db.DB)
	ruleRepo := rules.NewSQLiteRepository(db.DB)
	store := telemetry.NewStore(db.DB)

	// State cache, warmed from the store at startup
	cache := statecache.New(rdb.Client, homeRepo, deviceRepo, log)
	if err := cache.Rebuild(ctx); err != nil {
		log.Warn("initial cache rebuild incomplete", "error", err)
	} else {
		log.Info("state cache warmed")
	}

	// Outbound event bus
	qos := byte(cfg.MQTT.QoS)
	bus := events.NewBus(mqttClient, qos, log)

	// Delayed queue, result dispatcher, rule engine
	delayedQueue := queue.NewDelayedQueue(rdb.Client)
	dispatcher := dispatch.New(deviceRepo, homeRepo, ruleRepo, bus, delayedQueue, log)
	scheduler := rules.NewScheduler(cache, ruleRepo)
	engine := rules.NewEngine(ruleRepo, cache, scheduler, dispatcher, log)

	// Ingestion gateway
	executor := gateway.NewExecutor(cfg.Ingest.MaxConcurrency)
	gwDeps := gateway.Deps{
		Executor:  executor,
		Resolver:  cache,
		Store:     store,
		Devices:   deviceRepo,
		Homes:     homeRepo,
		RuleIndex: ruleRepo,
		Engine:    engine,
		Events:    bus,
		Logger:    log,
	}
	if influxClient != nil {
		gwDeps.Mirror = influxClient
	}
	gw := gateway.New(gwDeps)

	if err := mqttClient.Subscribe(mqtt.Topics{}.AllHomeTraffic(), qos, gw.OnMessage); err != nil {
		return fmt.Errorf("subscribing to home traffic: %w", err)
	}
	log.Info("ingestion gateway subscribed",
		"topic", mqtt.Topics{}.AllHomeTraffic(),
		"max_concurrency", cfg.Ingest.MaxConcurrency,
	)

	// Delayed queue consumer
	consumer := queue.NewConsumer(delayedQueue, dispatcher, cfg.Queue.Concurrency, cfg.GetQueuePollInterval(), log)
	go consumer.Run(ctx)
	log.Info("delayed queue consumer started",
		"concurrency", cfg.Queue.Concurrency,
		"poll_interval", cfg.GetQueuePollInterval(),
	)

	// Scheduled maintenance
	janitor := maintenance.New(cfg.Maintenance, store, cache, log)
	if err := janitor.Start(); err != nil {
		return fmt.Errorf("starting maintenance scheduler: %w", err)
	}
	defer func() {
		log.Info("stopping maintenance scheduler")
		janitor.Stop()
	}()

	// Operational HTTP surface and WebSocket event feed
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log,
		Version:  version,
		Database: db,
		MQTT:     mqttClient,
		Redis:    rdb,
		Ingest:   executor,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	bus.SetBroadcaster(server.Hub())

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, rdb, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, maintenance, InfluxDB (if enabled), MQTT, Redis, database.

	log.Info("Pulse Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PULSE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PULSE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, rdb *redis.Client, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := rdb.HealthCheck(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
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
