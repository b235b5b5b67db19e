package controller

import (
	"net/http"

	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/sensorapi/repository"
)

type SensorController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type sensorControllerImpl struct {
	repository repository.SensorRepository
	tokens     []string
	limit      int
}

// NewSensorController serves readings from repo. An empty token list accepts
// any non-empty bearer token.
func NewSensorController(repo repository.SensorRepository, tokens []string, limit int) SensorController {
	return &sensorControllerImpl{repository: repo, tokens: tokens, limit: limit}
}

func (c *sensorControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /dados-sensores", c.requireToken(http.HandlerFunc(c.handleList)))
	mux.Handle("POST /dados-sensores", c.requireToken(http.HandlerFunc(c.handleCreate)))
}
