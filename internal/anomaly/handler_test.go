package anomaly

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnvelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func newTestRouter() http.Handler {
	handler := NewHandler(slog.Default(), NewDetector())
	r := chi.NewRouter()
	r.Route("/anomalies", handler.MountRoutes)
	return r
}

func postDetect(t *testing.T, router http.Handler, body any) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, "/anomalies/detect", &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func TestHandlerDetect(t *testing.T) {
	router := newTestRouter()

	rec, envelope := postDetect(t, router, map[string]any{
		"player_id": "player-42",
		"metrics": map[string]float64{
			"actions_per_minute": 320,
			"kill_death_ratio":   2.0,
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, envelope.Success)
	assert.Equal(t, "player-42", envelope.Data["player_id"])
	assert.Equal(t, true, envelope.Data["is_suspicious"])
	assert.InDelta(t, 0.3, envelope.Data["risk_score"].(float64), 1e-9)
	assert.NotEmpty(t, envelope.Data["evaluated_at"])

	reasons, ok := envelope.Data["reasons"].([]any)
	require.True(t, ok)
	assert.Len(t, reasons, 1)
}

func TestHandlerDetectCleanPlayer(t *testing.T) {
	router := newTestRouter()

	rec, envelope := postDetect(t, router, map[string]any{
		"player_id": "player-7",
		"metrics":   map[string]float64{"actions_per_minute": 150},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, envelope.Data["is_suspicious"])

	// An empty reasons list serializes as [], never null.
	reasons, ok := envelope.Data["reasons"].([]any)
	require.True(t, ok)
	assert.Empty(t, reasons)
}

func TestHandlerDetectBadRequests(t *testing.T) {
	router := newTestRouter()

	rec, envelope := postDetect(t, router, map[string]any{
		"metrics": map[string]float64{"actions_per_minute": 320},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Player identifier is required.", envelope.Message)

	rec, envelope = postDetect(t, router, map[string]any{
		"player_id": "   ",
		"metrics":   map[string]float64{"actions_per_minute": 320},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Player identifier is required.", envelope.Message)

	rec, envelope = postDetect(t, router, map[string]any{
		"player_id": "player-42",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No metrics provided for analysis.", envelope.Message)

	rec, envelope = postDetect(t, router, map[string]any{
		"player_id": "player-42",
		"metrics":   map[string]float64{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No metrics provided for analysis.", envelope.Message)

	req := httptest.NewRequest(http.MethodPost, "/anomalies/detect", bytes.NewBufferString("{broken"))
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}
