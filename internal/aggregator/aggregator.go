package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/advisory"
	"github.com/vzahanych/jbot-advisor/internal/config"
	"github.com/vzahanych/jbot-advisor/internal/service"
	"github.com/vzahanych/jbot-advisor/pkg/logger"
	"github.com/vzahanych/jbot-advisor/pkg/telemetry"
)

// Conditions is everything the advisory engine needs about the outside world
// at one location.
type Conditions struct {
	Location  service.Location         `json:"location"`
	Snapshot  advisory.WeatherSnapshot `json:"snapshot"`
	Summary   advisory.ForecastSummary `json:"summary"`
	AQI       int                      `json:"aqi"`
	AirLevel  advisory.AirQualityLevel `json:"air_level"`
	FetchedAt time.Time                `json:"fetched_at"`
}

type Aggregator struct {
	locator service.Locator
	weather service.WeatherProvider
	air     service.AirQualityProvider
	cache   Cache
	logger  *zap.Logger
	tele    *telemetry.Telemetry
	metrics MetricsRecorder
	now     func() time.Time
}

// MetricsRecorder interface for recording metrics
type MetricsRecorder interface {
	RecordCacheHit(ctx context.Context, cacheType string)
	RecordCacheMiss(ctx context.Context, cacheType string)
	RecordProviderCall(ctx context.Context, provider string, success bool)
}

func New(locator service.Locator, weather service.WeatherProvider, air service.AirQualityProvider,
	cache Cache, logger *zap.Logger, tele *telemetry.Telemetry) *Aggregator {
	return &Aggregator{
		locator: locator,
		weather: weather,
		air:     air,
		cache:   cache,
		logger:  logger,
		tele:    tele,
		now:     time.Now,
	}
}

// NewAggregator wires the providers named in cfg.
func NewAggregator(cfg *config.Config, cache Cache, logger *zap.Logger, tele *telemetry.Telemetry) (*Aggregator, error) {
	weather, err := createWeatherProvider(cfg.Weather, logger, tele)
	if err != nil {
		return nil, err
	}
	air, err := createAirProvider(cfg.Air, logger, tele)
	if err != nil {
		return nil, err
	}

	locator := service.NewLocator(cfg.Location, cfg.Geo, logger)

	logger.Info("Registered condition providers",
		zap.String("weather", weather.Name()),
		zap.String("air", air.Name()),
		zap.String("cache", cache.Backend()))

	return New(locator, weather, air, cache, logger, tele), nil
}

// SetMetricsRecorder sets the metrics recorder for the aggregator
func (a *Aggregator) SetMetricsRecorder(metrics MetricsRecorder) {
	a.metrics = metrics
}

func createWeatherProvider(cfg config.ProviderConfig, logger *zap.Logger, tele *telemetry.Telemetry) (service.WeatherProvider, error) {
	switch cfg.Type {
	case "", "openweather":
		return service.NewOpenWeatherServiceWithConfig(cfg, logger, tele), nil
	default:
		return nil, fmt.Errorf("unknown weather provider type %q", cfg.Type)
	}
}

func createAirProvider(cfg config.ProviderConfig, logger *zap.Logger, tele *telemetry.Telemetry) (service.AirQualityProvider, error) {
	switch cfg.Type {
	case "", "airvisual":
		return service.NewAirVisualServiceWithConfig(cfg, logger, tele), nil
	default:
		return nil, fmt.Errorf("unknown air quality provider type %q", cfg.Type)
	}
}

func cacheKey(loc service.Location) string {
	return fmt.Sprintf("%.6f,%.6f", loc.Latitude, loc.Longitude)
}

// GetConditions returns cached conditions for the robot's location, fetching
// them when the cache has nothing fresh.
func (a *Aggregator) GetConditions(ctx context.Context) (*Conditions, error) {
	ctx, span := a.tele.StartSpan(ctx, "aggregator.GetConditions")
	defer span.End()

	reqLogger := logger.ForContext(ctx, a.logger)

	loc, err := a.locator.Locate(ctx)
	if err != nil {
		span.RecordError(err)
		reqLogger.Error("Failed to locate robot", zap.Error(err))
		return nil, fmt.Errorf("locate: %w", err)
	}

	key := cacheKey(loc)
	span.SetAttributes(attribute.String("cache_key", key))

	cached, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		reqLogger.Warn("Cache read failed, fetching fresh conditions", zap.Error(err))
	}
	if ok {
		reqLogger.Debug("Cache hit", zap.String("cache_key", key))
		span.SetAttributes(attribute.Bool("cache_hit", true))
		if a.metrics != nil {
			a.metrics.RecordCacheHit(ctx, "conditions")
		}
		return cached, nil
	}

	span.SetAttributes(attribute.Bool("cache_hit", false))
	if a.metrics != nil {
		a.metrics.RecordCacheMiss(ctx, "conditions")
	}

	reqLogger.Info("Cache miss, fetching fresh conditions", zap.String("cache_key", key))

	conditions, err := a.fetch(ctx, loc)
	if err != nil {
		a.tele.RecordError(ctx, err, map[string]interface{}{"cache_key": key})
		reqLogger.Error("Failed to fetch conditions", zap.Error(err), zap.String("cache_key", key))
		return nil, err
	}

	a.store(ctx, key, conditions)
	return conditions, nil
}

// Refresh fetches conditions unconditionally and replaces the cached copy.
func (a *Aggregator) Refresh(ctx context.Context) (*Conditions, error) {
	ctx, span := a.tele.StartSpan(ctx, "aggregator.Refresh")
	defer span.End()

	loc, err := a.locator.Locate(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("locate: %w", err)
	}

	conditions, err := a.fetch(ctx, loc)
	if err != nil {
		a.tele.RecordError(ctx, err, map[string]interface{}{"cache_key": cacheKey(loc)})
		return nil, err
	}

	a.store(ctx, cacheKey(loc), conditions)
	return conditions, nil
}

func (a *Aggregator) store(ctx context.Context, key string, c *Conditions) {
	if err := a.cache.Set(ctx, key, c); err != nil {
		a.logger.Warn("Failed to cache conditions", zap.String("cache_key", key), zap.Error(err))
	}
}

// fetch queries weather and air quality concurrently. Both are required.
func (a *Aggregator) fetch(ctx context.Context, loc service.Location) (*Conditions, error) {
	ctx, span := a.tele.StartSpan(ctx, "aggregator.fetch",
		attribute.Float64("lat", loc.Latitude),
		attribute.Float64("lon", loc.Longitude),
	)
	defer span.End()

	var (
		wg         sync.WaitGroup
		snapshot   advisory.WeatherSnapshot
		aqi        int
		weatherErr error
		airErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		snapshot, weatherErr = a.weather.FetchSnapshot(ctx, loc)
		a.recordCall(ctx, a.weather.Name(), weatherErr)
	}()
	go func() {
		defer wg.Done()
		aqi, airErr = a.air.FetchIndex(ctx, loc)
		a.recordCall(ctx, a.air.Name(), airErr)
	}()
	wg.Wait()

	if err := errors.Join(weatherErr, airErr); err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	level, err := advisory.LevelForIndex(aqi)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("aqi", aqi),
	)

	return &Conditions{
		Location:  loc,
		Snapshot:  snapshot,
		Summary:   advisory.Summarize(snapshot),
		AQI:       aqi,
		AirLevel:  level,
		FetchedAt: a.now().UTC(),
	}, nil
}

func (a *Aggregator) recordCall(ctx context.Context, provider string, err error) {
	if a.metrics != nil {
		a.metrics.RecordProviderCall(ctx, provider, err == nil)
	}
}

func (a *Aggregator) ClearCache(ctx context.Context) error {
	return a.cache.Clear(ctx)
}

func (a *Aggregator) GetCacheStats(ctx context.Context) map[string]interface{} {
	size, err := a.cache.Len(ctx)
	if err != nil {
		a.logger.Warn("Failed to read cache size", zap.Error(err))
		size = -1
	}

	return map[string]interface{}{
		"cache_backend": a.cache.Backend(),
		"cache_size":    size,
		"providers":     []string{a.weather.Name(), a.air.Name()},
	}
}
