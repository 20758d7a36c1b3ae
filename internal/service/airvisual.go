package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/config"
	"github.com/vzahanych/jbot-advisor/pkg/telemetry"
)

// AirVisualService reads the US AQI of the nearest city from IQAir.
type AirVisualService struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

type airVisualResponse struct {
	Status string `json:"status"`
	Data   struct {
		City    string `json:"city"`
		Current struct {
			Pollution struct {
				AQIUS int `json:"aqius"`
			} `json:"pollution"`
		} `json:"current"`
		Message string `json:"message"`
	} `json:"data"`
}

func NewAirVisualServiceWithConfig(cfg config.ProviderConfig, logger *zap.Logger, tele *telemetry.Telemetry) *AirVisualService {
	return &AirVisualService{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: timeoutOrDefault(cfg.Timeout),
		},
		logger: logger,
		tele:   tele,
	}
}

func (s *AirVisualService) Name() string {
	return "airvisual"
}

func (s *AirVisualService) FetchIndex(ctx context.Context, loc Location) (int, error) {
	ctx, span := s.tele.StartSpan(ctx, "airvisual.FetchIndex",
		attribute.Float64("lat", loc.Latitude),
		attribute.Float64("lon", loc.Longitude),
	)
	defer span.End()

	u, err := url.Parse(fmt.Sprintf("%s/nearest_city", s.baseURL))
	if err != nil {
		return 0, err
	}

	q := u.Query()
	q.Set("lat", fmt.Sprintf("%.6f", loc.Latitude))
	q.Set("lon", fmt.Sprintf("%.6f", loc.Longitude))
	q.Set("key", s.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := newAPIError(s.Name(), resp)
		span.RecordError(err)
		return 0, err
	}

	var result airVisualResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decode air quality response: %w", err)
	}
	if result.Status != "success" {
		return 0, fmt.Errorf("%s: status %q: %s", s.Name(), result.Status, result.Data.Message)
	}

	aqi := result.Data.Current.Pollution.AQIUS
	span.SetAttributes(attribute.Int("aqi", aqi))
	s.logger.Debug("Air quality fetched",
		zap.String("city", result.Data.City),
		zap.Int("aqi", aqi))

	return aqi, nil
}
