package series

import (
	"testing"
	"time"

	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/types"
)

func TestProject_singleReading(t *testing.T) {
	readings := []types.SensorReading{
		{Timestamp: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), Temperatura: 21.5},
	}

	got := Project(readings, time.UTC)

	if len(got.Labels) != 1 || len(got.Values) != 1 {
		t.Fatalf("len labels=%d values=%d; want 1 and 1", len(got.Labels), len(got.Values))
	}
	if got.Labels[0] != "10:00:00" {
		t.Errorf("label = %q; want 10:00:00", got.Labels[0])
	}
	if got.Values[0] != 21.5 {
		t.Errorf("value = %v; want 21.5", got.Values[0])
	}
}

func TestProject_usesDisplayLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	readings := []types.SensorReading{
		{Timestamp: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), Temperatura: 21.5},
	}

	got := Project(readings, loc)
	if got.Labels[0] != "07:00:00" {
		t.Errorf("label = %q; want 07:00:00", got.Labels[0])
	}
}

func TestProject_nilLocationIsUTC(t *testing.T) {
	ts := time.Date(2024, 1, 1, 23, 59, 58, 0, time.FixedZone("X", 2*60*60))
	got := Project([]types.SensorReading{{Timestamp: ts, Temperatura: 1}}, nil)
	if got.Labels[0] != "21:59:58" {
		t.Errorf("label = %q; want 21:59:58", got.Labels[0])
	}
}

func TestProject_preservesLengthAndOrder(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	// deliberately unsorted
	offsets := []int{5, 1, 3, 0, 4}
	readings := make([]types.SensorReading, len(offsets))
	for i, off := range offsets {
		readings[i] = types.SensorReading{
			Timestamp:   base.Add(time.Duration(off) * time.Minute),
			Temperatura: float64(off) * 1.5,
		}
	}

	got := Project(readings, time.UTC)

	if got.Len() != len(readings) || len(got.Labels) != len(readings) {
		t.Fatalf("len = %d/%d; want %d", len(got.Labels), got.Len(), len(readings))
	}
	for i, off := range offsets {
		wantLabel := base.Add(time.Duration(off) * time.Minute).Format(LabelLayout)
		if got.Labels[i] != wantLabel {
			t.Errorf("labels[%d] = %q; want %q", i, got.Labels[i], wantLabel)
		}
		if got.Values[i] != float64(off)*1.5 {
			t.Errorf("values[%d] = %v; want %v", i, got.Values[i], float64(off)*1.5)
		}
	}
}

func TestProject_empty(t *testing.T) {
	for _, in := range [][]types.SensorReading{nil, {}} {
		got := Project(in, time.UTC)
		if got.Labels == nil || got.Values == nil {
			t.Fatal("Project(empty) returned nil slices; want empty non-nil")
		}
		if got.Len() != 0 || len(got.Labels) != 0 {
			t.Errorf("Project(empty) len = %d/%d; want 0", len(got.Labels), got.Len())
		}
	}
}
