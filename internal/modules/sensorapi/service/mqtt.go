package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/YanFialkovitz/app-dados-sensores/internal/metrics"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/sensorapi/repository"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/sensorapi/types"
	"github.com/YanFialkovitz/app-dados-sensores/internal/mqtt"
)

// ErrNoTemperature rejects telemetry that cannot become a chart point.
var ErrNoTemperature = errors.New("telemetry has no temperature_c")

// telemetryHandler stores each telemetry message as a reading.
func telemetryHandler(repo repository.SensorRepository, logger *slog.Logger) mqtt.Handler {
	return func(ctx context.Context, t mqtt.Telemetry) error {
		logger.Debug("processing telemetry message",
			"station_id", t.StationID,
			"timestamp", t.Timestamp,
		)

		rec, err := toReading(t)
		if err != nil {
			metrics.ReadingsIngested.WithLabelValues("mqtt", "rejected").Inc()
			return err
		}
		if err := repo.InsertReading(ctx, rec); err != nil {
			metrics.ReadingsIngested.WithLabelValues("mqtt", "error").Inc()
			logger.Error("failed to insert reading",
				"station_id", t.StationID,
				"error", err,
			)
			return err
		}

		metrics.ReadingsIngested.WithLabelValues("mqtt", "stored").Inc()
		logger.Debug("successfully stored telemetry", "station_id", t.StationID)
		return nil
	}
}

func toReading(t mqtt.Telemetry) (types.Reading, error) {
	if t.Temperature == nil {
		return types.Reading{}, ErrNoTemperature
	}
	return types.Reading{
		StationID:   t.StationID,
		Timestamp:   t.Timestamp,
		Temperatura: *t.Temperature,
		Umidade:     t.Humidity,
		Pressao:     t.Pressure,
	}, nil
}
