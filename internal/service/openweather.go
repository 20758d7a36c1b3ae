package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/advisory"
	"github.com/vzahanych/jbot-advisor/internal/config"
	"github.com/vzahanych/jbot-advisor/pkg/telemetry"
)

// OpenWeatherService reads the One Call API and keeps the rest of today.
type OpenWeatherService struct {
	baseURL string
	apiKey  string
	client  *http.Client
	params  map[string]string
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

type oneCallResponse struct {
	TimezoneOffset int              `json:"timezone_offset"`
	Current        oneCallReading   `json:"current"`
	Hourly         []oneCallReading `json:"hourly"`
}

type oneCallReading struct {
	Dt      int64   `json:"dt"`
	Temp    float64 `json:"temp"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

func NewOpenWeatherServiceWithConfig(cfg config.ProviderConfig, logger *zap.Logger, tele *telemetry.Telemetry) *OpenWeatherService {
	return &OpenWeatherService{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: timeoutOrDefault(cfg.Timeout),
		},
		params: cfg.Params,
		logger: logger,
		tele:   tele,
	}
}

func (s *OpenWeatherService) Name() string {
	return "openweather"
}

func (s *OpenWeatherService) FetchSnapshot(ctx context.Context, loc Location) (advisory.WeatherSnapshot, error) {
	ctx, span := s.tele.StartSpan(ctx, "openweather.FetchSnapshot",
		attribute.Float64("lat", loc.Latitude),
		attribute.Float64("lon", loc.Longitude),
	)
	defer span.End()

	raw, err := s.fetchOneCall(ctx, loc)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("Failed to fetch OpenWeather forecast",
			zap.Float64("lat", loc.Latitude),
			zap.Float64("lon", loc.Longitude),
			zap.Error(err))
		return advisory.WeatherSnapshot{}, err
	}

	snap, err := s.normalize(raw)
	if err != nil {
		span.RecordError(err)
		return advisory.WeatherSnapshot{}, err
	}

	span.SetAttributes(
		attribute.String("condition", string(snap.Condition)),
		attribute.Int("forecast_hours", len(snap.Forecast)),
	)
	s.logger.Debug("OpenWeather snapshot normalized",
		zap.Int("temperature", snap.Temperature),
		zap.String("condition", string(snap.Condition)),
		zap.Int("forecast_hours", len(snap.Forecast)))

	return snap, nil
}

func (s *OpenWeatherService) fetchOneCall(ctx context.Context, loc Location) (*oneCallResponse, error) {
	u, err := url.Parse(fmt.Sprintf("%s/onecall", s.baseURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("lat", fmt.Sprintf("%.6f", loc.Latitude))
	q.Set("lon", fmt.Sprintf("%.6f", loc.Longitude))
	q.Set("appid", s.apiKey)
	q.Set("units", "metric")

	for key, value := range s.params {
		q.Set(key, value)
	}

	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(s.Name(), resp)
	}

	var result oneCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode one call response: %w", err)
	}

	return &result, nil
}

// normalize keeps the hourly entries after the first one that still fall on
// the same local day, labelled by hour.
func (s *OpenWeatherService) normalize(raw *oneCallResponse) (advisory.WeatherSnapshot, error) {
	if len(raw.Current.Weather) == 0 {
		return advisory.WeatherSnapshot{}, fmt.Errorf("%s: current weather missing", s.Name())
	}

	current, err := NormalizeCondition(raw.Current.Weather[0].Main, raw.Current.Weather[0].Description)
	if err != nil {
		return advisory.WeatherSnapshot{}, err
	}

	snap := advisory.WeatherSnapshot{
		Temperature: roundTemp(raw.Current.Temp),
		Condition:   current,
		Forecast:    []advisory.ForecastEntry{},
	}

	if len(raw.Hourly) == 0 {
		return snap, nil
	}

	zone := time.FixedZone("local", raw.TimezoneOffset)
	today := time.Unix(raw.Hourly[0].Dt, 0).In(zone)

	for _, hour := range raw.Hourly[1:] {
		at := time.Unix(hour.Dt, 0).In(zone)
		if at.YearDay() != today.YearDay() || at.Year() != today.Year() {
			break
		}
		if len(hour.Weather) == 0 {
			continue
		}

		cond, err := NormalizeCondition(hour.Weather[0].Main, hour.Weather[0].Description)
		if err != nil {
			s.logger.Warn("Skipping forecast hour with unknown weather",
				zap.String("time", at.Format(time.RFC3339)),
				zap.String("main", hour.Weather[0].Main))
			continue
		}

		snap.Forecast = append(snap.Forecast, advisory.ForecastEntry{
			Time:        HourLabel(at.Hour()),
			Temperature: roundTemp(hour.Temp),
			Condition:   cond,
		})
	}

	return snap, nil
}

func roundTemp(t float64) int {
	return int(math.Round(t))
}

func timeoutOrDefault(seconds int) time.Duration {
	if seconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(seconds) * time.Second
}
