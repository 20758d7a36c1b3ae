package service

import (
	"context"

	"github.com/vzahanych/jbot-advisor/internal/advisory"
)

type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	City      string  `json:"city,omitempty"`
}

// WeatherProvider returns today's weather normalized to the advisory vocabulary.
type WeatherProvider interface {
	FetchSnapshot(ctx context.Context, loc Location) (advisory.WeatherSnapshot, error)
	Name() string
}

// AirQualityProvider returns the US AQI at a location.
type AirQualityProvider interface {
	FetchIndex(ctx context.Context, loc Location) (int, error)
	Name() string
}

type Locator interface {
	Locate(ctx context.Context) (Location, error)
}
