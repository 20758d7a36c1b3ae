package aggregator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vzahanych/jbot-advisor/internal/advisory"
	"github.com/vzahanych/jbot-advisor/internal/config"
	"github.com/vzahanych/jbot-advisor/internal/service"
	"github.com/vzahanych/jbot-advisor/pkg/telemetry"
)

type fakeWeather struct {
	calls atomic.Int32
	snap  advisory.WeatherSnapshot
	err   error
}

func (f *fakeWeather) Name() string { return "fake-weather" }

func (f *fakeWeather) FetchSnapshot(context.Context, service.Location) (advisory.WeatherSnapshot, error) {
	f.calls.Add(1)
	return f.snap, f.err
}

type fakeAir struct {
	calls atomic.Int32
	aqi   int
	err   error
}

func (f *fakeAir) Name() string { return "fake-air" }

func (f *fakeAir) FetchIndex(context.Context, service.Location) (int, error) {
	f.calls.Add(1)
	return f.aqi, f.err
}

type fakeMetrics struct {
	mutex  sync.Mutex
	hits   int
	misses int
	calls  map[string]int
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{calls: map[string]int{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordCacheHit(context.Context, string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.hits++
}

func (m *fakeMetrics) RecordCacheMiss(context.Context, string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.misses++
}

func (m *fakeMetrics) RecordProviderCall(_ context.Context, provider string, success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.calls[provider]++
	if !success {
		m.errors[provider]++
	}
}

var daejeon = service.Location{Latitude: 36.37, Longitude: 127.36, City: "Daejeon"}

func rainyMorning() advisory.WeatherSnapshot {
	return advisory.WeatherSnapshot{
		Temperature: 17,
		Condition:   advisory.ConditionRaining,
		Forecast: []advisory.ForecastEntry{
			{Time: "2 PM", Temperature: 21, Condition: advisory.ConditionRaining},
			{Time: "3 PM", Temperature: 22, Condition: advisory.ConditionClear},
		},
	}
}

func createTestAggregator(t *testing.T, weather *fakeWeather, air *fakeAir) *Aggregator {
	t.Helper()
	return New(service.StaticLocator{Location: daejeon}, weather, air,
		NewMemoryCache(5*time.Minute), zaptest.NewLogger(t), &telemetry.Telemetry{})
}

func TestAggregator_GetConditions(t *testing.T) {
	weather := &fakeWeather{snap: rainyMorning()}
	air := &fakeAir{aqi: 120}
	agg := createTestAggregator(t, weather, air)
	metrics := newFakeMetrics()
	agg.SetMetricsRecorder(metrics)

	fixed := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return fixed }

	got, err := agg.GetConditions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, daejeon, got.Location)
	assert.Equal(t, 120, got.AQI)
	assert.Equal(t, advisory.AirUnhealthyForSensitiveGroups, got.AirLevel)
	assert.Equal(t, advisory.ForecastSummary{
		HighestTemperature:     22,
		HighestTemperatureTime: "3 PM",
		ChangeCondition:        advisory.ConditionClear,
		ChangeTime:             "3 PM",
	}, got.Summary)
	assert.Equal(t, fixed, got.FetchedAt)

	again, err := agg.GetConditions(context.Background())
	require.NoError(t, err)
	assert.Same(t, got, again)

	assert.EqualValues(t, 1, weather.calls.Load())
	assert.EqualValues(t, 1, air.calls.Load())
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 1, metrics.calls["fake-weather"])
	assert.Equal(t, 1, metrics.calls["fake-air"])
}

func TestAggregator_ProviderFailureIsNotCached(t *testing.T) {
	weather := &fakeWeather{snap: rainyMorning()}
	air := &fakeAir{err: errors.New("quota exceeded")}
	agg := createTestAggregator(t, weather, air)
	metrics := newFakeMetrics()
	agg.SetMetricsRecorder(metrics)

	_, err := agg.GetConditions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 1, metrics.errors["fake-air"])
	assert.Zero(t, metrics.errors["fake-weather"])

	size, err := agg.cache.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, size)

	air.err = nil
	_, err = agg.GetConditions(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, weather.calls.Load())
}

func TestAggregator_LocatorFailure(t *testing.T) {
	agg := New(failingLocator{}, &fakeWeather{}, &fakeAir{}, NewMemoryCache(time.Minute),
		zaptest.NewLogger(t), &telemetry.Telemetry{})

	_, err := agg.GetConditions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locate")
}

type failingLocator struct{}

func (failingLocator) Locate(context.Context) (service.Location, error) {
	return service.Location{}, errors.New("offline")
}

func TestAggregator_RefreshBypassesCache(t *testing.T) {
	weather := &fakeWeather{snap: rainyMorning()}
	agg := createTestAggregator(t, weather, &fakeAir{aqi: 10})

	first, err := agg.GetConditions(context.Background())
	require.NoError(t, err)

	weather.snap.Temperature = 25
	refreshed, err := agg.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, refreshed.Snapshot.Temperature)
	assert.NotSame(t, first, refreshed)

	cached, err := agg.GetConditions(context.Background())
	require.NoError(t, err)
	assert.Same(t, refreshed, cached)
}

func TestAggregator_CacheStatsAndClear(t *testing.T) {
	agg := createTestAggregator(t, &fakeWeather{snap: rainyMorning()}, &fakeAir{aqi: 10})
	ctx := context.Background()

	stats := agg.GetCacheStats(ctx)
	assert.Equal(t, 0, stats["cache_size"])
	assert.Equal(t, "memory", stats["cache_backend"])
	assert.Equal(t, []string{"fake-weather", "fake-air"}, stats["providers"])

	_, err := agg.GetConditions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.GetCacheStats(ctx)["cache_size"])

	require.NoError(t, agg.ClearCache(ctx))
	assert.Equal(t, 0, agg.GetCacheStats(ctx)["cache_size"])
}

func TestNewAggregator(t *testing.T) {
	cfg := config.NewDefaultConfig()
	agg, err := NewAggregator(cfg, NewMemoryCache(time.Minute), zaptest.NewLogger(t), &telemetry.Telemetry{})
	require.NoError(t, err)
	assert.Equal(t, "openweather", agg.weather.Name())
	assert.Equal(t, "airvisual", agg.air.Name())

	cfg.Weather.Type = "open-meteo"
	_, err = NewAggregator(cfg, NewMemoryCache(time.Minute), zaptest.NewLogger(t), &telemetry.Telemetry{})
	assert.Error(t, err)
}
