package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/matchup-tracker/internal/services"
)

func newParlayRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := NewParlayHandler(services.NewParlayConfidenceCalculator(18, newTestLogger()))
	router := gin.New()
	router.POST("/api/v1/parlays/confidence", handler.CalculateConfidence)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestCalculateConfidenceEndpoint(t *testing.T) {
	router := newParlayRouter()

	body := map[string]interface{}{
		"id": "parlay-1",
		"picks": []map[string]interface{}{
			{
				"matchup_id": "m1",
				"event_id":   "evt",
				"round_num":  1,
				"player_id":  "a",
				"players": []map[string]interface{}{
					{"player_id": "a", "score": -2, "holes_played": 9},
					{"player_id": "b", "score": 0, "holes_played": 9},
				},
			},
		},
	}

	recorder := postJSON(t, router, "/api/v1/parlays/confidence", body)
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			OverallConfidence float64 `json:"overall_confidence"`
			IsAlive           bool    `json:"is_alive"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Data.IsAlive)
	assert.InDelta(t, 80, resp.Data.OverallConfidence, 0.001)
}

func TestCalculateConfidenceEndpoint_Validation(t *testing.T) {
	router := newParlayRouter()

	recorder := postJSON(t, router, "/api/v1/parlays/confidence", map[string]interface{}{
		"id":    "empty",
		"picks": []interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
