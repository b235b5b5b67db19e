package controller

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/YanFialkovitz/app-dados-sensores/internal/metrics"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/sensorapi/types"
	"github.com/YanFialkovitz/app-dados-sensores/internal/utils"
)

const (
	maxLimit       = 1000
	maxCreateBytes = 64 << 10
)

func (c *sensorControllerImpl) handleList(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, c.limit)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	stationID := r.URL.Query().Get("station_id")

	readings, err := c.repository.LatestReadings(r.Context(), stationID, limit)
	if err != nil {
		slog.Error("sensor api: latest readings failed", "station_id", stationID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load readings")
		return
	}
	utils.WriteJSON(w, http.StatusOK, readings)
}

func (c *sensorControllerImpl) handleCreate(w http.ResponseWriter, r *http.Request) {
	var rec types.Reading
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCreateBytes))
	if err := dec.Decode(&rec); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := rec.Validate(); err != nil {
		metrics.ReadingsIngested.WithLabelValues("http", "rejected").Inc()
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := c.repository.InsertReading(r.Context(), rec); err != nil {
		metrics.ReadingsIngested.WithLabelValues("http", "error").Inc()
		slog.Error("sensor api: insert reading failed", "station_id", rec.StationID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to store reading")
		return
	}
	metrics.ReadingsIngested.WithLabelValues("http", "stored").Inc()
	utils.WriteJSON(w, http.StatusCreated, rec)
}

func parseLimit(r *http.Request, def int) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid 'limit' (expected integer)")
	}
	if n <= 0 {
		return 0, errors.New("'limit' must be > 0")
	}
	if n > maxLimit {
		return 0, errors.New("'limit' must be <= 1000")
	}
	return n, nil
}
