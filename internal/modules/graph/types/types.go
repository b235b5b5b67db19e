package types

import "time"

// SensorReading is one element of the sensor endpoint response. Fields other
// than the timestamp and temperature are ignored.
type SensorReading struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperatura float64   `json:"temperatura"`
}

// ChartSeries is the chart-ready projection of a reading list. Labels and
// Values always have the same length as the readings they came from.
type ChartSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

func (s ChartSeries) Len() int {
	return len(s.Values)
}
