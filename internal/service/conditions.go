package service

import (
	"fmt"
	"strings"

	"github.com/vzahanych/jbot-advisor/internal/advisory"
)

// NormalizeCondition maps an OpenWeather main group and description onto
// the advisory vocabulary.
func NormalizeCondition(main, description string) (advisory.Condition, error) {
	desc := strings.ToLower(description)

	switch main {
	case "Drizzle":
		if strings.Contains(desc, "heavy") {
			return advisory.ConditionRaining, nil
		}
		return advisory.ConditionShowers, nil
	case "Rain":
		switch {
		case strings.Contains(desc, "heavy"), strings.Contains(desc, "extreme"):
			return advisory.ConditionRaining, nil
		case strings.Contains(desc, "freezing"):
			return advisory.ConditionSnowing, nil
		default:
			return advisory.ConditionRaining, nil
		}
	case "Thunderstorm":
		return advisory.ConditionRaining, nil
	case "Snow":
		return advisory.ConditionSnowing, nil
	case "Clear":
		return advisory.ConditionClear, nil
	case "Clouds":
		return advisory.ConditionCloudy, nil
	}

	// The atmosphere groups (Mist, Smoke, Sand, ...) share their names with
	// the low-visibility conditions.
	if c, err := advisory.ParseCondition(main); err == nil && c.Category() == advisory.CategoryLowVisibility {
		return c, nil
	}
	return "", fmt.Errorf("%w: weather group %q", advisory.ErrUnhandledCategory, main)
}

// HourLabel renders a 24h hour as spoken "3 PM" / "11 AM".
func HourLabel(hour int) string {
	switch {
	case hour == 0:
		return "12 AM"
	case hour < 12:
		return fmt.Sprintf("%d AM", hour)
	case hour == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", hour-12)
	}
}
