package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/YanFialkovitz/app-dados-sensores/internal/config"
	"github.com/YanFialkovitz/app-dados-sensores/internal/db"
	"github.com/YanFialkovitz/app-dados-sensores/internal/migrate"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/chart"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/loader"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/series"
	"github.com/YanFialkovitz/app-dados-sensores/internal/mqtt"
)

// RenderChart fetches the readings once and writes the chart image to w.
// It returns the number of points drawn.
func RenderChart(ctx context.Context, cfg config.Config, version, token string, w io.Writer, opts chart.Options, logger *slog.Logger) (int, error) {
	client := loader.NewClient(cfg.SensorEndpoint, cfg.FetchTimeout,
		loader.WithLogger(logger),
		loader.WithUserAgent("sensorgraph/"+version),
	)
	readings, err := client.Fetch(ctx, token)
	if err != nil {
		return 0, err
	}
	s := series.Project(readings, cfg.DisplayLocation)
	opts.WithTitle = true
	if err := chart.Render(w, s, opts); err != nil {
		return 0, err
	}
	return s.Len(), nil
}

// MigrateDB applies pending migrations, or only lists them when statusOnly
// is set.
func MigrateDB(ctx context.Context, cfg config.Config, statusOnly bool, w io.Writer, logger *slog.Logger) error {
	dbConn, err := db.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	if !statusOnly {
		applied, err := migrate.Run(ctx, dbConn, logger)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", "count", applied)
	}

	migrations, err := migrate.Status(ctx, dbConn)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		state := "pending"
		if m.Applied {
			state = "applied"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", m.Version, m.Name, state); err != nil {
			return err
		}
	}
	return nil
}

type SimulateOptions struct {
	StationID string
	Count     int
	Interval  time.Duration
	Start     float64
}

// Simulate publishes a random walk of temperature readings for one station.
// Count <= 0 publishes until ctx is done.
func Simulate(ctx context.Context, cfg config.Config, opts SimulateOptions, logger *slog.Logger) error {
	if cfg.MQTTBroker == "" {
		return errors.New("MQTT_BROKER is required to simulate")
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	pub := mqtt.NewPublisher(cfg, "sensorgraph-sim-"+uuid.NewString()[:8])
	connectCtx, cancel := context.WithTimeout(ctx, mqttConnectTimeout)
	err := pub.Connect(connectCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	defer pub.Disconnect()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	temp := opts.Start
	for i := 0; opts.Count <= 0 || i < opts.Count; i++ {
		value := math.Round(temp*10) / 10
		t := mqtt.Telemetry{
			StationID:   opts.StationID,
			Timestamp:   time.Now().UTC(),
			Temperature: &value,
		}
		if err := pub.Publish(ctx, t); err != nil {
			return err
		}
		logger.Info("published reading", "station_id", opts.StationID, "temperatura", value)
		temp += rand.NormFloat64() * 0.3

		if opts.Count > 0 && i == opts.Count-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
