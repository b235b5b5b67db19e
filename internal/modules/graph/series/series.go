package series

import (
	"time"

	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/types"
)

// LabelLayout is the time-of-day format used for X labels.
const LabelLayout = "15:04:05"

// Project maps readings to chart labels and values by position. Input order
// is trusted; nothing is sorted, filtered or aggregated. A nil loc means UTC.
func Project(readings []types.SensorReading, loc *time.Location) types.ChartSeries {
	if loc == nil {
		loc = time.UTC
	}
	out := types.ChartSeries{
		Labels: make([]string, len(readings)),
		Values: make([]float64, len(readings)),
	}
	for i, r := range readings {
		out.Labels[i] = r.Timestamp.In(loc).Format(LabelLayout)
		out.Values[i] = r.Temperatura
	}
	return out
}
