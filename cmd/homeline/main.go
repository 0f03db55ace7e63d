// Homeline - home automation backend
//
// Homeline drives a small fleet of household devices (GPIO outputs and
// sensors, Zigbee bridge devices, WiFi plugs) behind a REST API and an
// MQTT state pipeline, with an automation rule engine on top.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "homeline/migrations"

	"homeline/internal/adapter"
	"homeline/internal/api"
	"homeline/internal/audit"
	"homeline/internal/automation"
	"homeline/internal/controller"
	"homeline/internal/device"
	"homeline/internal/infrastructure/config"
	"homeline/internal/infrastructure/database"
	"homeline/internal/infrastructure/influxdb"
	"homeline/internal/infrastructure/logging"
	"homeline/internal/infrastructure/mqtt"
	"homeline/internal/ingest"
	"homeline/internal/notify"
)

// Version information - set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main so it can return
// errors and let main own the exit code.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Homeline", "version", version, "commit", commit)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)

	// Database and migrations.
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

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete")

	// Stores.
	registry := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	registry.SetLogger(log)
	history := device.NewSQLiteHistoryRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)
	ruleRepo := automation.NewSQLiteRepository(db.DB)
	registry.SetReferenceChecker(ruleRepo)
	tokenRepo := notify.NewSQLiteTokenRepository(db.DB)

	// MQTT broker.
	mqttClient, err := mqtt.Connect(cfg.MQTT, cfg.Home.BaseTopic)
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
		log.Info("MQTT connected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	qos := byte(cfg.MQTT.QoS)

	// InfluxDB telemetry mirror (optional).
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
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Transport adapters, one per device kind.
	gpioAdapter := adapter.NewGPIOAdapter(adapter.NewMemoryPinDriver())
	gpioAdapter.SetLogger(log)

	bridgeAdapter := adapter.NewBridgeAdapter(mqttClient, registry, mqttClient.Topics(), qos)
	bridgeAdapter.SetLogger(log)

	wifiAdapter := adapter.NewWiFiAdapter(registry)
	wifiAdapter.SetLogger(log)

	adapters := map[device.Kind]adapter.Adapter{
		device.KindGPIO:   gpioAdapter,
		device.KindZigbee: bridgeAdapter,
		device.KindWiFi:   wifiAdapter,
	}

	// Controller: the single audited command path.
	ctrl := controller.New(registry, adapters, auditRepo)
	ctrl.SetLogger(log)

	// Push notifications.
	sender := notify.NewSender(cfg.Notifications, tokenRepo)
	sender.SetLogger(log)

	// Automation engine and scheduler.
	engine := automation.NewEngine(ruleRepo, ctrl, sender)
	engine.SetLogger(log)
	engine.Start()
	defer func() {
		log.Info("stopping automation engine")
		engine.Stop()
	}()

	scheduler := automation.NewScheduler(ruleRepo, engine)
	scheduler.SetLogger(log)
	if err := scheduler.Reconcile(ctx); err != nil {
		return fmt.Errorf("arming schedules: %w", err)
	}
	scheduler.Start()
	defer func() {
		log.Info("stopping scheduler")
		scheduler.Stop()
	}()
	log.Info("automation engine started", "scheduled_rules", scheduler.JobCount())

	// Ingest pipeline: broker state reports into the stores and engine.
	pipeline := ingest.New(registry, history, engine, mqttClient.Topics())
	pipeline.SetLogger(log)
	if influxClient != nil {
		pipeline.SetTelemetry(influxClient)
	}
	if err := pipeline.Start(mqttClient, qos); err != nil {
		return fmt.Errorf("subscribing ingest pipeline: %w", err)
	}
	log.Info("ingest pipeline subscribed", "topic", mqttClient.Topics().All())

	// HTTP API.
	apiServer, err := api.New(api.Deps{
		Config:         cfg.API,
		Logger:         log,
		Registry:       registry,
		History:        history,
		Controller:     ctrl,
		Rules:          ruleRepo,
		Scheduler:      scheduler,
		Audits:         auditRepo,
		Tokens:         tokenRepo,
		DefaultActorID: cfg.Home.OwnerID,
		Version:        version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal", "home", cfg.Home.Name)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path from HOMELINE_CONFIG
// or the default.
func getConfigPath() string {
	if path := os.Getenv("HOMELINE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies every started component is responsive.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
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
	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
