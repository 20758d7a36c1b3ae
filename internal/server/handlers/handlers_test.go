package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vzahanych/jbot-advisor/internal/advisory"
	"github.com/vzahanych/jbot-advisor/internal/aggregator"
	"github.com/vzahanych/jbot-advisor/internal/server/middlewares"
	"github.com/vzahanych/jbot-advisor/internal/session"
	"github.com/vzahanych/jbot-advisor/pkg/telemetry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	conditions *aggregator.Conditions
	err        error
	cleared    bool
}

func (f *fakeStore) GetConditions(context.Context) (*aggregator.Conditions, error) {
	return f.conditions, f.err
}

func (f *fakeStore) GetCacheStats(context.Context) map[string]interface{} {
	return map[string]interface{}{"cache_backend": "memory", "cache_size": 1}
}

func (f *fakeStore) ClearCache(context.Context) error {
	f.cleared = true
	return nil
}

func rainyDay() *aggregator.Conditions {
	snap := advisory.WeatherSnapshot{
		Temperature: 12,
		Condition:   advisory.ConditionRaining,
		Forecast: []advisory.ForecastEntry{
			{Time: "3 PM", Temperature: 14, Condition: advisory.ConditionClear},
		},
	}
	return &aggregator.Conditions{
		Snapshot:  snap,
		Summary:   advisory.Summarize(snap),
		AQI:       75,
		AirLevel:  advisory.AirModerate,
		FetchedAt: time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC),
	}
}

func newRouter(t *testing.T, store *fakeStore, metrics *MetricsHandler, middleware ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	logger := zaptest.NewLogger(t)

	r := gin.New()
	r.Use(middleware...)
	var recorder AdviceRecorder
	if metrics != nil {
		recorder = metrics
	}
	advice := NewAdviceHandler(advisory.NewEngine(), store, logger, recorder)
	conditions := NewConditionsHandler(store, logger)

	r.GET("/advice/:intent", advice.GetAdvice)
	r.POST("/advice/outfit", advice.PostOutfit)
	r.GET("/conditions", conditions.GetConditions)
	r.GET("/conditions/cache", conditions.GetCacheStats)
	r.DELETE("/conditions/cache", conditions.ClearCache)
	if metrics != nil {
		r.GET("/metrics", metrics.ServeMetrics)
	}
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdviceHandler_Weather(t *testing.T) {
	r := newRouter(t, &fakeStore{conditions: rainyDay()}, nil)

	w := do(r, http.MethodGet, "/advice/weather", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp AdviceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, advisory.IntentWeather, resp.Intent)
	assert.Contains(t, resp.Text, "3 PM")
	assert.Contains(t, resp.Text, "umbrella")
	assert.Equal(t, advisory.AirModerate, resp.AirLevel)
}

func TestAdviceHandler_NilMetricsHandler(t *testing.T) {
	var metrics *MetricsHandler
	advice := NewAdviceHandler(advisory.NewEngine(), &fakeStore{conditions: rainyDay()}, zaptest.NewLogger(t), metrics)

	r := gin.New()
	r.GET("/advice/:intent", advice.GetAdvice)

	w := do(r, http.MethodGet, "/advice/weather", "")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.NotPanics(t, func() {
		metrics.RecordCacheHit(context.Background(), "memory")
		metrics.RecordCacheMiss(context.Background(), "memory")
		metrics.RecordProviderCall(context.Background(), "openweather", false)
	})
}

func TestAdviceHandler_AirPollutionAliases(t *testing.T) {
	r := newRouter(t, &fakeStore{conditions: rainyDay()}, nil)
	want, _ := advisory.SelectAirAdvisory(advisory.AirModerate)

	for _, path := range []string{"/advice/air-pollution", "/advice/air_pollution"} {
		w := do(r, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), want)
	}
}

func TestAdviceHandler_Errors(t *testing.T) {
	r := newRouter(t, &fakeStore{conditions: rainyDay()}, nil)

	w := do(r, http.MethodGet, "/advice/horoscope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "UNSUPPORTED_INTENT")

	w = do(r, http.MethodGet, "/advice/outfit", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	failing := newRouter(t, &fakeStore{err: errors.New("airvisual: status 429")}, nil)
	w = do(failing, http.MethodGet, "/advice/greeting", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "UPSTREAM_ERROR")
}

func TestAdviceHandler_PostOutfit(t *testing.T) {
	r := newRouter(t, &fakeStore{conditions: rainyDay()}, nil)

	w := do(r, http.MethodPost, "/advice/outfit", `{"top":"shirt","bottom":"shorts"}`)
	require.Equal(t, http.StatusOK, w.Code)

	want, err := advisory.RecommendOutfit(14, advisory.ConditionClear, advisory.AirModerate, advisory.TopShirt, advisory.BottomShorts)
	require.NoError(t, err)

	var resp AdviceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, want, resp.Text)
}

func TestAdviceHandler_PostOutfitValidation(t *testing.T) {
	r := newRouter(t, &fakeStore{conditions: rainyDay()}, nil)

	w := do(r, http.MethodPost, "/advice/outfit", `{"top":"cape"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_PARAMS", resp.Code)
	require.Len(t, resp.Fields, 2)
	assert.Equal(t, "top", resp.Fields[0].Field)
	assert.Equal(t, "bottom", resp.Fields[1].Field)
	assert.Equal(t, "required", resp.Fields[1].Tag)

	w = do(r, http.MethodPost, "/advice/outfit", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_BODY")
}

func TestConditionsHandler(t *testing.T) {
	store := &fakeStore{conditions: rainyDay()}
	r := newRouter(t, store, nil)

	w := do(r, http.MethodGet, "/conditions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"air_level":"Moderate"`)
	assert.Contains(t, w.Body.String(), `"change_time":"3 PM"`)

	w = do(r, http.MethodGet, "/conditions/cache", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cache_backend":"memory"`)

	w = do(r, http.MethodDelete, "/conditions/cache", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, store.cleared)
}

func TestMetricsHandler(t *testing.T) {
	httpMetrics := middlewares.NewMetricsMiddleware()
	metrics := NewMetricsHandler(zaptest.NewLogger(t), httpMetrics)
	r := newRouter(t, &fakeStore{conditions: rainyDay()}, metrics, httpMetrics.Handler())

	metrics.RecordCacheHit(context.Background(), "conditions")
	metrics.RecordCacheMiss(context.Background(), "conditions")
	metrics.RecordProviderCall(context.Background(), "openweather", true)
	metrics.RecordProviderCall(context.Background(), "airvisual", false)

	do(r, http.MethodGet, "/advice/weather", "")
	do(r, http.MethodGet, "/advice/horoscope", "")

	w := do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, "conditions_cache_hits_total 1")
	assert.Contains(t, body, "conditions_cache_misses_total 1")
	assert.Contains(t, body, `provider_calls_total{provider="airvisual"} 1`)
	assert.Contains(t, body, `provider_errors_total{provider="airvisual"} 1`)
	assert.NotContains(t, body, `provider_errors_total{provider="openweather"}`)
	assert.Contains(t, body, `advice_total{intent="weather"} 1`)
	assert.True(t, strings.HasPrefix(body, "# HELP http_requests_total"))
	assert.Contains(t, body, `http_requests_total{route_status="GET /advice/:intent 404"} 1`)
}

func TestSessionHandler(t *testing.T) {
	store := &fakeStore{conditions: rainyDay()}
	assistant := session.NewAssistant(advisory.NewEngine(), store, nil, zaptest.NewLogger(t), &telemetry.Telemetry{})
	h := NewSessionHandler(assistant, zaptest.NewLogger(t))

	r := gin.New()
	r.POST("/session/utterance", h.PostUtterance)
	r.GET("/session", h.GetState)

	w := do(r, http.MethodPost, "/session/utterance", `{"text":"weather"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Text)
	assert.Equal(t, assistant.ID(), resp.SessionID)

	w = do(r, http.MethodPost, "/session/utterance", `{"text":"Hello robot"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"awake"`)
	assert.Contains(t, w.Body.String(), `"command":"wake"`)

	w = do(r, http.MethodGet, "/session", "")
	assert.Contains(t, w.Body.String(), `"state":"awake"`)

	w = do(r, http.MethodPost, "/session/utterance", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
