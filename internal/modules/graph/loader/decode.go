package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/types"
)

// Epoch numbers below this are read as seconds, at or above as milliseconds.
const epochMillisThreshold = 1e11

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

type rawReading struct {
	Timestamp   json.RawMessage `json:"timestamp"`
	Temperatura json.RawMessage `json:"temperatura"`
}

// decodeReadings parses a response body. The body must be a JSON array;
// elements without a usable timestamp or temperature are skipped and counted.
func decodeReadings(body []byte) ([]types.SensorReading, int, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		if json.Valid(body) {
			return nil, 0, ErrNotArray
		}
		return nil, 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	// A literal null decodes into a nil slice without error.
	if elems == nil && bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return nil, 0, ErrNotArray
	}

	out := make([]types.SensorReading, 0, len(elems))
	skipped := 0
	for _, elem := range elems {
		r, ok := decodeReading(elem)
		if !ok {
			skipped++
			continue
		}
		out = append(out, r)
	}
	return out, skipped, nil
}

func decodeReading(elem json.RawMessage) (types.SensorReading, bool) {
	var raw rawReading
	if err := json.Unmarshal(elem, &raw); err != nil {
		return types.SensorReading{}, false
	}
	ts, ok := parseTimestamp(raw.Timestamp)
	if !ok {
		return types.SensorReading{}, false
	}
	temp, ok := parseNumber(raw.Temperatura)
	if !ok {
		return types.SensorReading{}, false
	}
	return types.SensorReading{Timestamp: ts, Temperatura: temp}, true
}

func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return fromEpoch(n)
		}
		return time.Time{}, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return fromEpoch(n)
	}
	return time.Time{}, false
}

func fromEpoch(n float64) (time.Time, bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return time.Time{}, false
	}
	if n < epochMillisThreshold {
		sec, frac := math.Modf(n)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
	}
	return time.UnixMilli(int64(n)).UTC(), true
}

func parseNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
