package sensorapi

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/YanFialkovitz/app-dados-sensores/internal/config"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/sensorapi/controller"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/sensorapi/repository"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/sensorapi/service"
	"github.com/YanFialkovitz/app-dados-sensores/internal/mqtt"
)

// RegisterFeature wires the sensor endpoint and, when subscriber is not nil,
// MQTT ingestion into the same store.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, cfg config.Config, subscriber mqtt.MQTTSubscriber, logger *slog.Logger) repository.SensorRepository {
	sensorRepository := repository.NewRepository(db)
	sensorController := controller.NewSensorController(sensorRepository, cfg.SensorAPITokens, cfg.SensorAPILimit)
	sensorController.RegisterRoutes(mux)

	if subscriber != nil {
		service.NewService(sensorRepository, logger).Register(subscriber)
	}
	return sensorRepository
}
