package app

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/YanFialkovitz/app-dados-sensores/internal/config"
	"github.com/YanFialkovitz/app-dados-sensores/internal/db"
	"github.com/YanFialkovitz/app-dados-sensores/internal/httpapi"
	"github.com/YanFialkovitz/app-dados-sensores/internal/migrate"
	graph "github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph"
	graphviews "github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/views"
	sensorapi "github.com/YanFialkovitz/app-dados-sensores/internal/modules/sensorapi"
	"github.com/YanFialkovitz/app-dados-sensores/internal/mqtt"
)

const mqttConnectTimeout = 5 * time.Second

// RunServe serves the graph screen on cfg.HTTPAddr until ctx is done.
func RunServe(ctx context.Context, cfg config.Config, version string, logger *slog.Logger) error {
	return runServe(ctx, cfg, version, logger, nil)
}

func runServe(ctx context.Context, cfg config.Config, version string, logger *slog.Logger, ln net.Listener) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"sensorEndpoint", cfg.SensorEndpoint,
		"fetchTimeout", cfg.FetchTimeout,
		"displayTZ", cfg.DisplayLocation.String(),
		"sessionIdleTimeout", cfg.SessionIdleTimeout,
	)

	if err := graphviews.LoadTemplates(); err != nil {
		return err
	}

	mux := httpapi.NewMux(nil)
	sessions := graph.RegisterFeature(mux, cfg, version, logger)
	defer sessions.Close()

	srv := httpapi.NewServer(cfg.HTTPAddr, mux, logger)
	return httpapi.Serve(ctx, srv, ln, logger)
}

// RunSensorAPI serves GET/POST /dados-sensores backed by SQLite on
// cfg.SensorAPIAddr, ingesting MQTT telemetry when a broker is configured.
func RunSensorAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	return runSensorAPI(ctx, cfg, logger, nil)
}

func runSensorAPI(ctx context.Context, cfg config.Config, logger *slog.Logger, ln net.Listener) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"sensorAPIAddr", cfg.SensorAPIAddr,
		"sensorAPITokens", len(cfg.SensorAPITokens),
		"sensorAPILimit", cfg.SensorAPILimit,
		"dbDriver", cfg.Driver,
		"dbPath", cfg.Path,
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbLogSQL", cfg.LogSQL,
		"mqttBroker", cfg.MQTTBroker,
		"mqttTopic", cfg.MQTTTopic,
	)

	dbConn, err := db.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	applied, err := migrate.Run(ctx, dbConn, logger)
	if err != nil {
		return err
	}
	logger.Info("database ready", "migrationsApplied", applied)

	mux := httpapi.NewMux(dbConn)

	// The subscriber must exist before RegisterFeature so the handler is set
	// before Connect; queued messages can arrive right after CONNACK.
	var subscriber mqtt.MQTTSubscriber
	var mqttClient *mqtt.Subscriber
	if cfg.MQTTBroker != "" {
		mqttClient = mqtt.NewSubscriber(cfg, logger)
		subscriber = mqttClient
	}

	repo := sensorapi.RegisterFeature(mux, dbConn, cfg, subscriber, logger)
	if n, err := repo.CountReadings(ctx); err != nil {
		logger.Warn("failed to count readings", "error", err)
	} else {
		logger.Info("sensor store opened", "readings", n)
	}

	if mqttClient != nil {
		connectCtx, cancel := context.WithTimeout(ctx, mqttConnectTimeout)
		err := mqttClient.Connect(connectCtx)
		cancel()
		if err != nil {
			// auto-reconnect keeps trying in the background
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
		defer mqttClient.Disconnect()
	}

	srv := httpapi.NewServer(cfg.SensorAPIAddr, mux, logger)
	return httpapi.Serve(ctx, srv, ln, logger)
}
