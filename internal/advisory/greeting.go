package advisory

import (
	"fmt"
	"time"
)

const (
	greetingMorning   = "Good Morning."
	greetingNoon      = "Good Day"
	greetingAfternoon = "Good Afternoon."
	greetingEvening   = "Good Evening."
)

// SelectGreeting picks the salutation for the local time of day.
func SelectGreeting(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return greetingMorning
	case h == 12 && t.Minute() == 0:
		return greetingNoon
	case h < 17:
		return greetingAfternoon
	default:
		return greetingEvening
	}
}

var airAdvisories = map[AirQualityLevel]string{
	AirGood:                        "The air quality today is good.",
	AirModerate:                    "There is a little pollution outside today. I advise to wear a mask.",
	AirUnhealthyForSensitiveGroups: "The air quality is bad today. Wear a mask. Stay safe.",
	AirUnhealthy:                   "The air quality is very bad today. It is better to stay inside.",
	AirVeryUnhealthy:               "The air quality is very bad today. It is better to stay inside.",
	AirHazardous:                   "The air quality is very bad today. It is better to stay inside.",
}

// SelectAirAdvisory returns the sentence spoken for an air quality level.
func SelectAirAdvisory(level AirQualityLevel) (string, error) {
	sentence, ok := airAdvisories[level]
	if !ok {
		return "", fmt.Errorf("%w: air quality level %d", ErrUnhandledCategory, int(level))
	}
	return sentence, nil
}
