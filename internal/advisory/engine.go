package advisory

import (
	"fmt"
	"time"
)

// Engine routes an intent to the matching advisory. It holds no state
// besides its clock and is safe for concurrent use.
type Engine struct {
	now func() time.Time
}

type Option func(*Engine)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComposeGreetingResponse greets, then reports the weather and the air.
func ComposeGreetingResponse(localTime time.Time, current WeatherSnapshot, summary ForecastSummary, air AirQualityLevel) (string, error) {
	weather, err := SelectWeatherAdvisory(current, summary)
	if err != nil {
		return "", err
	}
	airSentence, err := SelectAirAdvisory(air)
	if err != nil {
		return "", err
	}
	return joinClauses(SelectGreeting(localTime), weather, airSentence), nil
}

// Respond produces the spoken answer for one intent.
//
// Outfit advice judges rain against the summary's outlook, which falls back to
// the current condition when nothing changes. A day that rains throughout
// therefore still gets the rain reminder.
func (e *Engine) Respond(intent Intent, req Request) (string, error) {
	summary := Summarize(req.Snapshot)

	switch intent {
	case IntentGreeting:
		now := req.Now
		if now.IsZero() {
			now = e.now()
		}
		return ComposeGreetingResponse(now, req.Snapshot, summary, req.AirLevel)
	case IntentWeather:
		return SelectWeatherAdvisory(req.Snapshot, summary)
	case IntentAirPollution:
		return SelectAirAdvisory(req.AirLevel)
	case IntentOutfit:
		if req.Outfit == nil {
			return "", ErrMissingOutfit
		}
		return RecommendOutfit(
			summary.HighestTemperature,
			summary.Outlook(req.Snapshot.Condition),
			req.AirLevel,
			req.Outfit.Top,
			req.Outfit.Bottom,
		)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedIntent, intent)
	}
}
