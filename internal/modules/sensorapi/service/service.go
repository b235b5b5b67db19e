package service

import (
	"log/slog"

	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/sensorapi/repository"
	"github.com/YanFialkovitz/app-dados-sensores/internal/mqtt"
)

type Service struct {
	repository repository.SensorRepository
	logger     *slog.Logger
}

func NewService(repository repository.SensorRepository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger}
}

// Register attaches the telemetry handler. Call it before Connect so queued
// messages delivered right after CONNACK are not lost.
func (s *Service) Register(subscriber mqtt.MQTTSubscriber) {
	subscriber.SetMessageHandler(telemetryHandler(s.repository, s.logger))
}
