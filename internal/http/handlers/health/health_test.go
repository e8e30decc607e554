package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name           string
		checks         []Check
		expectedStatus int
		expectedData   map[string]any
	}{
		{
			name:           "all dependencies ready",
			checks:         []Check{{Name: "postgres", Probe: ok}, {Name: "redis", Probe: ok}},
			expectedStatus: http.StatusOK,
			expectedData:   map[string]any{"postgres": "ok", "redis": "ok"},
		},
		{
			name:           "redis down",
			checks:         []Check{{Name: "postgres", Probe: ok}, {Name: "redis", Probe: down}},
			expectedStatus: http.StatusServiceUnavailable,
			expectedData:   map[string]any{"postgres": "ok", "redis": "unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(logger, tt.checks...)

			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedData, body["data"])
		})
	}

	t.Run("live", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New(logger).Live(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"OK","data":{"status":"ok"}}`, rec.Body.String())
	})
}
