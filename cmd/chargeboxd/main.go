// Charge Box Core - OCPP 2.0.1 central system
//
// This is the main entry point of the central system. It accepts charge box
// connections over OCPP-J, answers their requests, and lets operators and
// back-office systems send them commands through the admin API and the
// MQTT command bus.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/chargebox-core/internal/api"
	"github.com/nerrad567/chargebox-core/internal/audit"
	"github.com/nerrad567/chargebox-core/internal/chargebox"
	"github.com/nerrad567/chargebox-core/internal/commandbus"
	"github.com/nerrad567/chargebox-core/internal/device"
	"github.com/nerrad567/chargebox-core/internal/dispatcher"
	"github.com/nerrad567/chargebox-core/internal/gateway"
	"github.com/nerrad567/chargebox-core/internal/infrastructure/config"
	"github.com/nerrad567/chargebox-core/internal/infrastructure/database"
	"github.com/nerrad567/chargebox-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/chargebox-core/internal/infrastructure/logging"
	"github.com/nerrad567/chargebox-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/chargebox-core/internal/journal"
	"github.com/nerrad567/chargebox-core/internal/ocpp"
	"github.com/nerrad567/chargebox-core/internal/telemetry"
	"github.com/nerrad567/chargebox-core/internal/transport/ocppj"
	"github.com/nerrad567/chargebox-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configEnvVar      = "CHARGEBOX_CONFIG"

	journalPruneInterval = time.Hour
	statsInterval        = time.Minute
	startupCheckTimeout  = 5 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Charge Box Core",
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

	log = logging.New(cfg.Logging, version).With("server_id", cfg.Server.ID)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Core: registry, repository, both message paths and the transport.
	registry := chargebox.NewRegistry()
	registry.SetLogger(log.Component("registry"))

	devices := device.NewRepository(
		device.WithLockTimeout(cfg.GetLockTimeout()),
		device.WithLogger(log.Component("device")),
	)

	gw := gateway.New(registry,
		gateway.WithRequestTimeout(cfg.GetRequestTimeout()),
		gateway.WithLogger(log.Component("gateway")),
		gateway.WithSenderName(cfg.Server.ID),
	)

	disp := dispatcher.New(registry, dispatcher.Config{
		HeartbeatInterval:  cfg.GetHeartbeatInterval(),
		VendorID:           cfg.Dispatcher.VendorID,
		RegistrationStatus: cfg.Dispatcher.RegistrationStatus,
	},
		dispatcher.WithLogger(log.Component("dispatcher")),
		dispatcher.WithSenderName(cfg.Server.ID),
	)

	endpoint := ocppj.NewEndpoint(ocppj.Config{
		Path:               cfg.WebSocket.Path,
		Subprotocols:       cfg.WebSocket.Subprotocols,
		MaxMessageSize:     int64(cfg.WebSocket.MaxMessageSize),
		PingInterval:       time.Duration(cfg.WebSocket.PingInterval) * time.Second,
		PongTimeout:        time.Duration(cfg.WebSocket.PongTimeout) * time.Second,
		ForgetOnDisconnect: cfg.Registry.ForgetOnDisconnect,
	}, disp, registry)
	endpoint.SetLogger(log.Component("ocppj"))
	defer func() {
		log.Info("closing charge box connections", "connections", endpoint.ConnectionCount())
		endpoint.Close() //nolint:errcheck // best-effort shutdown
	}()

	hooks := []*ocpp.Hooks{gw.Hooks(), disp.Hooks()}
	healthChecks := make(map[string]api.HealthChecker)

	// Metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := telemetry.NewMetrics(promRegistry)
	if err != nil {
		return fmt.Errorf("creating metrics: %w", err)
	}
	if err := registerGauges(metrics, registry, devices, endpoint); err != nil {
		return err
	}
	sinks := []telemetry.Sink{metrics}

	// Message journal and audit trail (SQLite)
	var (
		journalRepo journal.Repository
		auditRepo   audit.Repository
	)
	if cfg.Database.Enabled {
		db, err := openJournal(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		repo := journal.NewSQLiteRepository(db.DB)
		journalRepo = repo
		auditRepo = audit.NewSQLiteRepository(db.DB)
		for _, h := range hooks {
			defer h.OnAnyResponse(journal.Observer(repo))()
		}
		healthChecks["database"] = db

		if retention := cfg.GetJournalRetention(); retention > 0 {
			go pruneJournal(ctx, repo, retention, log)
		}
	} else {
		log.Info("message journal and audit trail disabled")
	}

	// MQTT event publisher and command bus
	if cfg.MQTT.Enabled {
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
		mqttClient.SetLogger(log.Component("mqtt"))
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

		sinks = append(sinks, telemetry.NewEventPublisher(mqttClient))
		healthChecks["mqtt"] = mqttClient

		bus := commandbus.New(gw, mqttClient,
			commandbus.WithLogger(log.Component("commandbus")),
			commandbus.WithAudit(auditRepo),
		)
		if err := bus.Start(ctx); err != nil {
			return fmt.Errorf("starting command bus: %w", err)
		}
		defer func() {
			log.Info("stopping command bus")
			if stopErr := bus.Stop(); stopErr != nil {
				log.Error("error stopping command bus", "error", stopErr)
			}
		}()
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB exchange latency
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB,
			influxdb.WithDefaultTag("server_id", cfg.Server.ID),
		)
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

		sinks = append(sinks, telemetry.NewExchangeWriter(influxClient))
		healthChecks["influxdb"] = influxClient
		go writeConnectionStats(ctx, influxClient, registry, endpoint)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Admin API
	server, err := api.New(api.Deps{
		Config:       cfg.API,
		WS:           cfg.WebSocket,
		Logger:       log,
		Registry:     registry,
		Devices:      devices,
		Gateway:      gw,
		OCPP:         endpoint,
		Connections:  endpoint.ConnectionCount,
		Journal:      journalRepo,
		Audit:        auditRepo,
		Gatherer:     promRegistry,
		HealthChecks: healthChecks,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	sinks = append(sinks, server.Hub())

	for _, h := range hooks {
		defer telemetry.Attach(h, sinks...)()
	}

	if err := healthCheck(ctx, healthChecks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal",
		"api", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		"ocpp_path", cfg.WebSocket.Path,
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the config file path, from CHARGEBOX_CONFIG when set.
func getConfigPath() string {
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	return defaultConfigPath
}

func openJournal(ctx context.Context, cfg config.DatabaseConfig, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("message journal ready", "path", db.Path())
	return db, nil
}

func registerGauges(m *telemetry.Metrics, registry *chargebox.Registry, devices *device.Repository, endpoint *ocppj.Endpoint) error {
	gauges := []struct {
		name, help string
		fn         func() float64
	}{
		{"charge_boxes", "Charge boxes known to the registry.", func() float64 { return float64(registry.Len()) }},
		{"devices", "Entities in the device repository.", func() float64 { return float64(devices.Count()) }},
		{"ocpp_connections", "Open OCPP-J connections.", func() float64 { return float64(endpoint.ConnectionCount()) }},
	}
	for _, g := range gauges {
		if err := m.TrackGauge(g.name, g.help, g.fn); err != nil {
			return err
		}
	}
	return nil
}

// healthCheck verifies every optional component once before serving.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	for name, c := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
		err := c.HealthCheck(checkCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

type pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// pruneJournal deletes journal entries older than retention, once at start
// and then every journalPruneInterval.
func pruneJournal(ctx context.Context, p pruner, retention time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(journalPruneInterval)
	defer ticker.Stop()

	for {
		n, err := p.Prune(ctx, time.Now().Add(-retention))
		switch {
		case err != nil && ctx.Err() == nil:
			log.Warn("pruning message journal", "error", err)
		case n > 0:
			log.Info("message journal pruned", "deleted", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

type pointWriter interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]any, ts time.Time)
}

// writeConnectionStats records connection counts every statsInterval.
func writeConnectionStats(ctx context.Context, w pointWriter, registry *chargebox.Registry, endpoint *ocppj.Endpoint) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.WritePoint("ocpp_connections", nil,
				map[string]any{
					"open":       endpoint.ConnectionCount(),
					"registered": registry.Len(),
				},
				now,
			)
		}
	}
}
