package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/config"
)

// StaticLocator always answers with the configured coordinates.
type StaticLocator struct {
	Location Location
}

func (l StaticLocator) Locate(context.Context) (Location, error) {
	return l.Location, nil
}

// ipLocationTTL bounds how long a looked up position is reused. ip-api is
// rate limited and the robot rarely moves.
const ipLocationTTL = time.Hour

// IPLocator resolves the robot's public IP to coordinates via ip-api and
// reuses the answer for ipLocationTTL.
type IPLocator struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time

	mutex      sync.Mutex
	located    *Location
	lookedUpAt time.Time
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
}

func NewIPLocatorWithConfig(cfg config.ProviderConfig, logger *zap.Logger) *IPLocator {
	return &IPLocator{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: timeoutOrDefault(cfg.Timeout),
		},
		logger: logger,
		ttl:    ipLocationTTL,
		now:    time.Now,
	}
}

func (l *IPLocator) Locate(ctx context.Context) (Location, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.located != nil && l.now().Sub(l.lookedUpAt) < l.ttl {
		return *l.located, nil
	}

	loc, err := l.lookup(ctx)
	if err != nil {
		return Location{}, err
	}

	l.located = &loc
	l.lookedUpAt = l.now()
	return loc, nil
}

func (l *IPLocator) lookup(ctx context.Context) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL, nil)
	if err != nil {
		return Location{}, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return Location{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, newAPIError("ip-api", resp)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Location{}, fmt.Errorf("decode geolocation response: %w", err)
	}
	if result.Status != "success" {
		return Location{}, fmt.Errorf("ip-api: %s", result.Message)
	}

	l.logger.Debug("Located by IP", zap.String("city", result.City))
	return Location{Latitude: result.Lat, Longitude: result.Lon, City: result.City}, nil
}

// NewLocator prefers configured coordinates over IP lookup.
func NewLocator(loc config.LocationConfig, geo config.ProviderConfig, logger *zap.Logger) Locator {
	if loc.IsSet() {
		return StaticLocator{Location: Location{Latitude: loc.Latitude, Longitude: loc.Longitude}}
	}
	return NewIPLocatorWithConfig(geo, logger)
}
