package repository

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/YanFialkovitz/app-dados-sensores/internal/migrate"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/sensorapi/types"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("close db: %v", closeErr)
		}
	})
	if _, err := migrate.Run(context.Background(), db, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func ptr(v float64) *float64 { return &v }

func at(minute int) time.Time {
	return time.Date(2024, 1, 1, 10, minute, 0, 0, time.UTC)
}

func TestLatestReadings_Empty(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	got, err := repo.LatestReadings(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("LatestReadings: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("LatestReadings = %#v; want empty non-nil slice", got)
	}
}

func TestInsertAndLatest_OrderAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	// inserted out of order on purpose
	for _, m := range []int{3, 0, 4, 1, 2} {
		if err := repo.InsertReading(ctx, types.Reading{StationID: "lab", Timestamp: at(m), Temperatura: float64(20 + m)}); err != nil {
			t.Fatalf("InsertReading(%d): %v", m, err)
		}
	}

	got, err := repo.LatestReadings(ctx, "", 3)
	if err != nil {
		t.Fatalf("LatestReadings: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d; want 3", len(got))
	}
	for i, want := range []int{2, 3, 4} {
		if !got[i].Timestamp.Equal(at(want)) {
			t.Errorf("got[%d].Timestamp = %v; want %v", i, got[i].Timestamp, at(want))
		}
		if got[i].Temperatura != float64(20+want) {
			t.Errorf("got[%d].Temperatura = %v", i, got[i].Temperatura)
		}
		if got[i].StationID != "lab" {
			t.Errorf("got[%d].StationID = %q", i, got[i].StationID)
		}
	}
}

func TestLatestReadings_SubSecondOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	base := at(0)
	for _, off := range []time.Duration{time.Second, 500 * time.Millisecond, 0} {
		if err := repo.InsertReading(ctx, types.Reading{StationID: "lab", Timestamp: base.Add(off), Temperatura: 1}); err != nil {
			t.Fatalf("InsertReading: %v", err)
		}
	}
	got, err := repo.LatestReadings(ctx, "", 10)
	if err != nil {
		t.Fatalf("LatestReadings: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Errorf("readings not ascending at %d: %v then %v", i, got[i-1].Timestamp, got[i].Timestamp)
		}
	}
}

func TestLatestReadings_StationFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	_ = repo.InsertReading(ctx, types.Reading{StationID: "a", Timestamp: at(0), Temperatura: 1})
	_ = repo.InsertReading(ctx, types.Reading{StationID: "b", Timestamp: at(1), Temperatura: 2})

	got, err := repo.LatestReadings(ctx, "b", 10)
	if err != nil {
		t.Fatalf("LatestReadings: %v", err)
	}
	if len(got) != 1 || got[0].StationID != "b" {
		t.Fatalf("LatestReadings(b) = %+v", got)
	}
}

func TestInsertReading_OptionalFieldsAndUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	if err := repo.InsertReading(ctx, types.Reading{StationID: "lab", Timestamp: at(0), Temperatura: 20}); err != nil {
		t.Fatalf("InsertReading: %v", err)
	}
	if err := repo.InsertReading(ctx, types.Reading{StationID: "lab", Timestamp: at(0), Temperatura: 21, Umidade: ptr(40), Pressao: ptr(1010)}); err != nil {
		t.Fatalf("InsertReading (replace): %v", err)
	}

	n, err := repo.CountReadings(ctx)
	if err != nil {
		t.Fatalf("CountReadings: %v", err)
	}
	if n != 1 {
		t.Fatalf("CountReadings = %d; want 1", n)
	}

	got, err := repo.LatestReadings(ctx, "", 10)
	if err != nil {
		t.Fatalf("LatestReadings: %v", err)
	}
	r := got[0]
	if r.Temperatura != 21 || r.Umidade == nil || *r.Umidade != 40 || r.Pressao == nil || *r.Pressao != 1010 {
		t.Errorf("replaced reading = %+v", r)
	}
}

func TestInsertReading_Invalid(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	err := repo.InsertReading(context.Background(), types.Reading{StationID: "lab", Timestamp: at(0), Umidade: ptr(150)})
	if err == nil {
		t.Fatal("InsertReading(humidity 150) = nil; want error")
	}
	n, _ := repo.CountReadings(context.Background())
	if n != 0 {
		t.Errorf("CountReadings = %d; want 0", n)
	}
}
