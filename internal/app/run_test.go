package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YanFialkovitz/app-dados-sensores/internal/config"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/chart"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		AppEnv:             "dev",
		LogLevel:           slog.LevelInfo,
		FetchTimeout:       5 * time.Second,
		DisplayLocation:    time.UTC,
		ChartWidth:         800,
		ChartHeight:        400,
		SessionIdleTimeout: time.Minute,
		SensorAPITokens:    []string{"secret"},
		SensorAPILimit:     100,
		Driver:             "sqlite3",
		Path:               filepath.Join(t.TempDir(), "sensors.db"),
		MaxOpenConns:       1,
		MaxIdleConns:       1,
	}
}

// start runs fn on a fresh loopback listener and returns its base URL.
// The server is stopped when the test ends.
func start(t *testing.T, fn func(ctx context.Context, ln net.Listener) error) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fn(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Error("server did not stop")
		}
	})

	base := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
	return base
}

func postReading(t *testing.T, base, body string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, base+"/dados-sensores", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestServeAgainstSensorAPI(t *testing.T) {
	cfg := testConfig(t)
	logger := quietLogger()

	apiBase := start(t, func(ctx context.Context, ln net.Listener) error {
		return runSensorAPI(ctx, cfg, logger, ln)
	})
	postReading(t, apiBase, `{"station_id":"lab","timestamp":"2024-05-01T10:00:00Z","temperatura":21.5}`)
	postReading(t, apiBase, `{"station_id":"lab","timestamp":"2024-05-01T10:05:00Z","temperatura":22}`)

	cfg.SensorEndpoint = apiBase + "/dados-sensores"
	graphBase := start(t, func(ctx context.Context, ln net.Listener) error {
		return runServe(ctx, cfg, "test", logger, ln)
	})

	t.Run("valid token loads the series", func(t *testing.T) {
		resp, err := http.Get(graphBase + "/api/v1/graph?token=secret")
		require.NoError(t, err)
		defer resp.Body.Close()

		var got struct {
			State  string    `json:"state"`
			Labels []string  `json:"labels"`
			Values []float64 `json:"values"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "loaded", got.State)
		assert.Equal(t, []string{"10:00:00", "10:05:00"}, got.Labels)
		assert.Equal(t, []float64{21.5, 22}, got.Values)
	})

	t.Run("wrong token surfaces the error state", func(t *testing.T) {
		resp, err := http.Get(graphBase + "/api/v1/graph?token=nope")
		require.NoError(t, err)
		defer resp.Body.Close()

		var got struct {
			State   string `json:"state"`
			Message string `json:"message"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "error", got.State)
		assert.NotEmpty(t, got.Message)
	})

	t.Run("render writes a titled svg", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := RenderChart(context.Background(), cfg, "test", "secret", &buf, chart.Options{Format: chart.FormatSVG}, logger)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Contains(t, buf.String(), "<svg")
		assert.Contains(t, buf.String(), chart.Title)
	})
}

func TestMigrateDB(t *testing.T) {
	cfg := testConfig(t)

	var status bytes.Buffer
	require.NoError(t, MigrateDB(context.Background(), cfg, true, &status, quietLogger()))
	assert.Contains(t, status.String(), "0001\tschema\tpending")

	var out bytes.Buffer
	require.NoError(t, MigrateDB(context.Background(), cfg, false, &out, quietLogger()))
	assert.Contains(t, out.String(), "0001\tschema\tapplied")
}

func TestSimulateRequiresBroker(t *testing.T) {
	err := Simulate(context.Background(), testConfig(t), SimulateOptions{StationID: "lab", Count: 1}, quietLogger())
	assert.Error(t, err)
}
