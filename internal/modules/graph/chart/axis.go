package chart

import (
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
)

// niceCeil rounds v up to 1, 2, 2.5 or 5 times a power of ten.
func niceCeil(v float64) float64 {
	if v <= 0 {
		return 0
	}
	mag := math.Pow(10, math.Floor(math.Log10(v)))
	f := v / mag
	for _, step := range []float64{1, 2, 2.5, 5, 10} {
		if f <= step+1e-9 {
			return step * mag
		}
	}
	return 10 * mag
}

// yBounds returns a value range that always contains zero.
func yBounds(values []float64) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	lo = -niceCeil(-lo)
	hi = niceCeil(hi)
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}

// xAxisRange spreads n category positions over the axis; one point is centred.
func xAxisRange(n int) (float64, float64) {
	switch {
	case n <= 0:
		return 0, 1
	case n == 1:
		return -0.5, 0.5
	default:
		return 0, float64(n - 1)
	}
}

// categoryTicks labels index positions, skipping labels when they would not
// fit. The last label is always kept, and there are never fewer than two
// ticks.
func categoryTicks(labels []string, maxTicks int) []gochart.Tick {
	n := len(labels)
	if n == 0 {
		return []gochart.Tick{{Value: 0}, {Value: 1}}
	}
	if n == 1 {
		return []gochart.Tick{{Value: -0.5}, {Value: 0, Label: labels[0]}, {Value: 0.5}}
	}
	if maxTicks < 2 {
		maxTicks = 2
	}
	stride := (n + maxTicks - 1) / maxTicks
	if stride < 1 {
		stride = 1
	}

	idx := make([]int, 0, maxTicks+1)
	for i := 0; i < n; i += stride {
		idx = append(idx, i)
	}
	if last := idx[len(idx)-1]; last != n-1 {
		if len(idx) > 1 && 2*(n-1-last) < stride {
			idx[len(idx)-1] = n - 1
		} else {
			idx = append(idx, n-1)
		}
	}

	ticks := make([]gochart.Tick, 0, len(idx))
	for _, i := range idx {
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: labels[i]})
	}
	return ticks
}
