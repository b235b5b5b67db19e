package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Telemetry is the JSON payload stations publish on stations/<id>/telemetry.
type Telemetry struct {
	StationID   string    `json:"station_id"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature *float64  `json:"temperature_c,omitempty"`
	Humidity    *float64  `json:"humidity_pct,omitempty"`
	Pressure    *float64  `json:"pressure_hpa,omitempty"`
	Battery     *float64  `json:"battery_v,omitempty"`
	Sequence    *int      `json:"sequence,omitempty"`
}

func (t Telemetry) Validate() error {
	if t.StationID == "" {
		return errors.New("station_id is required")
	}
	if t.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	if t.Humidity != nil && (*t.Humidity < 0 || *t.Humidity > 100) {
		return fmt.Errorf("humidity_pct out of range: %f (must be 0-100)", *t.Humidity)
	}
	if t.Pressure != nil && *t.Pressure <= 0 {
		return fmt.Errorf("pressure_hpa must be positive: %f", *t.Pressure)
	}
	if t.Temperature == nil && t.Humidity == nil && t.Pressure == nil {
		return errors.New("at least one sensor reading (temperature, humidity, or pressure) is required")
	}
	return nil
}

// decodeTelemetry parses payload, taking the station id from the topic when
// the payload omits it.
func decodeTelemetry(topic string, payload []byte) (Telemetry, error) {
	var t Telemetry
	if err := json.Unmarshal(payload, &t); err != nil {
		return Telemetry{}, fmt.Errorf("decode telemetry: %w", err)
	}
	if t.StationID == "" {
		t.StationID = stationFromTopic(topic)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// stationFromTopic returns <id> from stations/<id>/telemetry.
func stationFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) == 3 && parts[0] == "stations" && parts[2] == "telemetry" {
		return parts[1]
	}
	return ""
}

// TopicFor is the topic a station publishes telemetry on.
func TopicFor(stationID string) string {
	return "stations/" + stationID + "/telemetry"
}
