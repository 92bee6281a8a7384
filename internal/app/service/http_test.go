package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aa12gq/desahogos-moderation/internal/app/model"
)

func newTestEngine(t *testing.T, alerts AlertPublisher) (*gin.Engine, *ModerationService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := newTestService(t, alerts)
	engine := gin.New()
	RegisterHTTPHandlers(engine, svc, zap.NewNop().Sugar())
	return engine, svc
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp map[string]json.RawMessage
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHTTP_Moderate(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/moderate", gin.H{
		"content":      textSuicide,
		"user_id":      "h1",
		"content_type": "story",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result model.ModerationResult
	require.NoError(t, json.Unmarshal(resp["result"], &result))
	assert.Equal(t, model.ActionEscalateCrisis, result.SuggestedAction)
	assert.Equal(t, model.SeverityCritical, result.Severity)
	assert.Contains(t, w.Body.String(), `"severity":"critical"`)
}

func TestHTTP_ModerateRejectsUnknownContentType(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	w, _ := doJSON(t, engine, http.MethodPost, "/api/v1/moderate", gin.H{
		"content":      "hola",
		"user_id":      "h1",
		"content_type": "tweet",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHTTP_BatchModerate(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/batch_moderate", gin.H{
		"items": []gin.H{
			{"content": textClean, "user_id": "h1"},
			{"content": textSpam, "user_id": "h2"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var results []*model.BatchItemResult
	require.NoError(t, json.Unmarshal(resp["results"], &results))
	require.Len(t, results, 2)
	assert.True(t, results[0].Result.IsApproved)
	assert.True(t, results[1].Result.HasFlag(model.FlagSpam))

	w, _ = doJSON(t, engine, http.MethodPost, "/api/v1/batch_moderate", gin.H{"items": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHTTP_Crisis(t *testing.T) {
	_, client := setupMiniredis(t)
	engine, _ := newTestEngine(t, NewRedisAlertQueue(client, "http:alerts"))

	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/crisis/analyze", gin.H{"message": "me siento sola y triste"})
	require.Equal(t, http.StatusOK, w.Code)
	var analysis model.CrisisAnalysis
	require.NoError(t, json.Unmarshal(resp["analysis"], &analysis))
	assert.Equal(t, model.SeverityMedium, analysis.Severity)
	assert.False(t, analysis.RequiresAlert)

	w, resp = doJSON(t, engine, http.MethodPost, "/api/v1/crisis/alerts", gin.H{
		"user_id":  "h1",
		"username": "anon",
		"message":  textSuicide,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var alert model.CrisisAlert
	require.NoError(t, json.Unmarshal(resp["alert"], &alert))
	assert.Equal(t, model.AlertPending, alert.Status)

	w, resp = doJSON(t, engine, http.MethodPost, "/api/v1/crisis/alerts", gin.H{
		"user_id": "h1",
		"message": "hoy estoy bien",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", string(resp["alert"]))

	w, resp = doJSON(t, engine, http.MethodGet, "/api/v1/crisis/alerts?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var alerts []*model.CrisisAlert
	require.NoError(t, json.Unmarshal(resp["alerts"], &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.ID, alerts[0].ID)
}

func TestHTTP_AlertsWithoutQueue(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	w, _ := doJSON(t, engine, http.MethodGet, "/api/v1/crisis/alerts", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHTTP_Config(t *testing.T) {
	engine, svc := newTestEngine(t, nil)

	w, _ := doJSON(t, engine, http.MethodPatch, "/api/v1/config", gin.H{"strict_mode": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.GetConfig().StrictMode)

	w, _ = doJSON(t, engine, http.MethodPatch, "/api/v1/config", gin.H{
		"flag_thresholds": gin.H{"spam": 2},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0.7, svc.GetConfig().FlagThresholds["spam"])

	w, resp := doJSON(t, engine, http.MethodGet, "/api/v1/config", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp["config"]), `"strict_mode":true`)
}

func TestHTTP_UserHistoryAndStats(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	w, _ := doJSON(t, engine, http.MethodGet, "/api/v1/users/nobody/history", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	doJSON(t, engine, http.MethodPost, "/api/v1/moderate", gin.H{"content": textSpam, "user_id": "h9"})

	w, resp := doJSON(t, engine, http.MethodGet, "/api/v1/users/h9/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history model.UserModerationHistory
	require.NoError(t, json.Unmarshal(resp["history"], &history))
	assert.Equal(t, 1, history.RecentSpamFlags)

	w, resp = doJSON(t, engine, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats model.SystemStats
	require.NoError(t, json.Unmarshal(resp["stats"], &stats))
	assert.Equal(t, 1, stats.TotalUsers)
	assert.InDelta(t, 100.0, stats.FlaggedUserPercentage, 1e-9)

	w, _ = doJSON(t, engine, http.MethodDelete, "/api/v1/users/h9/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, engine, http.MethodGet, "/api/v1/users/h9/history", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	w, resp := doJSON(t, engine, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"builtin-1"`, string(resp["lexicon_version"]))

	doJSON(t, engine, http.MethodPost, "/api/v1/moderate", gin.H{"content": textClean, "user_id": "m1"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "moderation_verdicts_total")
}
