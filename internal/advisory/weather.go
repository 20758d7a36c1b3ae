package advisory

import (
	"fmt"
	"strings"
)

const (
	highestClause    = "The highest temperature will be %d at %s."
	umbrellaReminder = "Don't forget to bring your umbrella!"
)

// Sentence templates keyed by the category of the condition they describe.
// Each takes the temperature and the condition, in that order.
var (
	allDayWording = map[Category]string{
		CategoryPrecipitatingOrCloudy: "Today is %d degrees and it is going to be %s all day.",
		CategoryClear:                 "Today is %d degrees and the sky will be %s all day.",
		CategoryShowers:               "Today is %d degrees and there will be %s all day.",
		CategoryLowVisibility:         "Today is %d degrees and there will be %s all day.",
	}

	currentWording = map[Category]string{
		CategoryPrecipitatingOrCloudy: "Today is %d degrees and it is currently %s.",
		CategoryClear:                 "Today is %d degrees and the sky is %s.",
		CategoryShowers:               "Today is %d degrees with %s.",
		CategoryLowVisibility:         "Today is %d degrees and there is %s.",
	}
)

// Change clauses are keyed by the category of the upcoming condition only;
// the current category never changes their wording.
var changeWording = map[Category]string{
	CategoryPrecipitatingOrCloudy: "It might be %s at %s.",
	CategoryClear:                 "The weather might be %s at %s.",
	CategoryShowers:               "There might be %s at %s.",
	CategoryLowVisibility:         "There might be %s at %s.",
}

// SelectWeatherAdvisory describes the current weather and how it develops
// over the rest of the day.
func SelectWeatherAdvisory(current WeatherSnapshot, summary ForecastSummary) (string, error) {
	now := current.Condition
	if !now.Valid() {
		return "", fmt.Errorf("%w: current condition %q", ErrUnhandledCategory, now)
	}

	var clauses []string
	if summary.ConstantAllDay {
		clauses = append(clauses, fmt.Sprintf(allDayWording[now.Category()], current.Temperature, now))
		clauses = append(clauses, highestTemperatureClause(current.Temperature, summary))
		if now.Wet() {
			clauses = append(clauses, umbrellaReminder)
		}
		return joinClauses(clauses...), nil
	}

	next := summary.ChangeCondition
	if !next.Valid() {
		return "", fmt.Errorf("%w: forecast condition %q", ErrUnhandledCategory, next)
	}

	clauses = append(clauses, fmt.Sprintf(currentWording[now.Category()], current.Temperature, now))
	clauses = append(clauses, highestTemperatureClause(current.Temperature, summary))
	if next != now {
		clauses = append(clauses, fmt.Sprintf(changeWording[next.Category()], next, summary.ChangeTime))
	}
	if now.Wet() || (next != now && next.Wet()) {
		clauses = append(clauses, umbrellaReminder)
	}
	return joinClauses(clauses...), nil
}

func highestTemperatureClause(temperature int, summary ForecastSummary) string {
	if summary.HighestTemperature == temperature {
		return ""
	}
	return fmt.Sprintf(highestClause, summary.HighestTemperature, summary.HighestTemperatureTime)
}

// joinClauses drops empty clauses and separates the rest with one space.
func joinClauses(clauses ...string) string {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}
