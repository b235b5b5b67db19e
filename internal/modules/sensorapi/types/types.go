package types

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Reading is one row of GET /dados-sensores. Field names follow the payload
// the graph screen consumes.
type Reading struct {
	StationID   string    `json:"station_id"`
	Timestamp   time.Time `json:"timestamp"`
	Temperatura float64   `json:"temperatura"`
	Umidade     *float64  `json:"umidade,omitempty"`
	Pressao     *float64  `json:"pressao,omitempty"`
}

// Validate checks a reading before it is stored.
func (r Reading) Validate() error {
	if r.StationID == "" {
		return errors.New("station_id is required")
	}
	if r.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	if math.IsNaN(r.Temperatura) || math.IsInf(r.Temperatura, 0) {
		return errors.New("temperatura must be a finite number")
	}
	if r.Umidade != nil && (*r.Umidade < 0 || *r.Umidade > 100) {
		return fmt.Errorf("umidade out of range: %g (must be 0-100)", *r.Umidade)
	}
	if r.Pressao != nil && *r.Pressao <= 0 {
		return fmt.Errorf("pressao must be positive: %g", *r.Pressao)
	}
	return nil
}
