package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/sensorapi/types"
)

type mockRepo struct {
	latest    []types.Reading
	latestErr error
	insertErr error

	gotStation string
	gotLimit   int
	inserted   []types.Reading
}

func (m *mockRepo) LatestReadings(_ context.Context, stationID string, limit int) ([]types.Reading, error) {
	m.gotStation, m.gotLimit = stationID, limit
	return m.latest, m.latestErr
}

func (m *mockRepo) InsertReading(_ context.Context, r types.Reading) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, r)
	return nil
}

func (m *mockRepo) CountReadings(context.Context) (int, error) {
	return len(m.inserted), nil
}

func newMux(repo *mockRepo, tokens ...string) *http.ServeMux {
	mux := http.NewServeMux()
	NewSensorController(repo, tokens, 100).RegisterRoutes(mux)
	return mux
}

func serve(mux http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func Test_auth(t *testing.T) {
	t.Run("missing token is rejected", func(t *testing.T) {
		rec := serve(newMux(&mockRepo{}), http.MethodGet, "/dados-sensores", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
	})

	t.Run("empty token list accepts any token", func(t *testing.T) {
		rec := serve(newMux(&mockRepo{}), http.MethodGet, "/dados-sensores", "whatever", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("configured tokens are enforced", func(t *testing.T) {
		mux := newMux(&mockRepo{}, "alpha", "beta")
		assert.Equal(t, http.StatusOK, serve(mux, http.MethodGet, "/dados-sensores", "beta", "").Code)
		assert.Equal(t, http.StatusUnauthorized, serve(mux, http.MethodGet, "/dados-sensores", "gamma", "").Code)
	})

	t.Run("non-bearer scheme is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dados-sensores", nil)
		req.Header.Set("Authorization", "Basic YWxwaGE6")
		rec := httptest.NewRecorder()
		newMux(&mockRepo{}).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func Test_handleList(t *testing.T) {
	t.Run("returns a JSON array in the screen's field names", func(t *testing.T) {
		repo := &mockRepo{latest: []types.Reading{
			{StationID: "lab", Timestamp: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), Temperatura: 21.5},
		}}
		rec := serve(newMux(repo), http.MethodGet, "/dados-sensores", "t", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var got []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "2024-01-01T10:00:00Z", got[0]["timestamp"])
		assert.Equal(t, 21.5, got[0]["temperatura"])
		assert.Equal(t, "lab", got[0]["station_id"])
		assert.NotContains(t, got[0], "umidade")
		assert.Equal(t, 100, repo.gotLimit)
	})

	t.Run("empty store is an empty array", func(t *testing.T) {
		rec := serve(newMux(&mockRepo{latest: []types.Reading{}}), http.MethodGet, "/dados-sensores", "t", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("limit and station filter", func(t *testing.T) {
		repo := &mockRepo{latest: []types.Reading{}}
		rec := serve(newMux(repo), http.MethodGet, "/dados-sensores?limit=5&station_id=lab", "t", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 5, repo.gotLimit)
		assert.Equal(t, "lab", repo.gotStation)
	})

	t.Run("invalid limit", func(t *testing.T) {
		for _, q := range []string{"abc", "0", "1001"} {
			rec := serve(newMux(&mockRepo{}), http.MethodGet, "/dados-sensores?limit="+q, "t", "")
			assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", q)
		}
	})

	t.Run("repository error", func(t *testing.T) {
		rec := serve(newMux(&mockRepo{latestErr: errors.New("db down")}), http.MethodGet, "/dados-sensores", "t", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db down")
	})
}

func Test_handleCreate(t *testing.T) {
	t.Run("stores a valid reading", func(t *testing.T) {
		repo := &mockRepo{}
		body := `{"station_id":"lab","timestamp":"2024-01-01T10:00:00Z","temperatura":21.5,"umidade":40}`
		rec := serve(newMux(repo), http.MethodPost, "/dados-sensores", "t", body)

		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, repo.inserted, 1)
		assert.Equal(t, "lab", repo.inserted[0].StationID)
		assert.Equal(t, 21.5, repo.inserted[0].Temperatura)
		require.NotNil(t, repo.inserted[0].Umidade)
		assert.Equal(t, 40.0, *repo.inserted[0].Umidade)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		rec := serve(newMux(&mockRepo{}), http.MethodPost, "/dados-sensores", "t", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects invalid reading", func(t *testing.T) {
		repo := &mockRepo{}
		rec := serve(newMux(repo), http.MethodPost, "/dados-sensores", "t", `{"timestamp":"2024-01-01T10:00:00Z","temperatura":1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "station_id")
		assert.Empty(t, repo.inserted)
	})

	t.Run("repository error", func(t *testing.T) {
		body := `{"station_id":"lab","timestamp":"2024-01-01T10:00:00Z","temperatura":21.5}`
		rec := serve(newMux(&mockRepo{insertErr: errors.New("locked")}), http.MethodPost, "/dados-sensores", "t", body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("requires a token", func(t *testing.T) {
		rec := serve(newMux(&mockRepo{}), http.MethodPost, "/dados-sensores", "", `{}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
