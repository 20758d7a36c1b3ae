package advisory

import (
	"fmt"
	"strings"
	"time"
)

// Condition is the normalized weather vocabulary the engine speaks.
type Condition string

const (
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRaining Condition = "raining"
	ConditionSnowing Condition = "snowing"
	ConditionShowers Condition = "showers"
	ConditionMist    Condition = "mist"
	ConditionSmoke   Condition = "smoke"
	ConditionHaze    Condition = "haze"
	ConditionDust    Condition = "dust"
	ConditionFog     Condition = "fog"
	ConditionSand    Condition = "sand"
	ConditionAsh     Condition = "ash"
	ConditionSquall  Condition = "squall"
	ConditionTornado Condition = "tornado"
)

// Category is the coarse bucket used to pick sentence wording.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryPrecipitatingOrCloudy
	CategoryClear
	CategoryShowers
	CategoryLowVisibility
)

func (c Category) String() string {
	switch c {
	case CategoryPrecipitatingOrCloudy:
		return "precipitating_or_cloudy"
	case CategoryClear:
		return "clear"
	case CategoryShowers:
		return "showers"
	case CategoryLowVisibility:
		return "low_visibility"
	default:
		return "unknown"
	}
}

var conditionCategories = map[Condition]Category{
	ConditionSnowing: CategoryPrecipitatingOrCloudy,
	ConditionRaining: CategoryPrecipitatingOrCloudy,
	ConditionCloudy:  CategoryPrecipitatingOrCloudy,
	ConditionClear:   CategoryClear,
	ConditionShowers: CategoryShowers,
	ConditionMist:    CategoryLowVisibility,
	ConditionSmoke:   CategoryLowVisibility,
	ConditionHaze:    CategoryLowVisibility,
	ConditionDust:    CategoryLowVisibility,
	ConditionFog:     CategoryLowVisibility,
	ConditionSand:    CategoryLowVisibility,
	ConditionAsh:     CategoryLowVisibility,
	ConditionSquall:  CategoryLowVisibility,
	ConditionTornado: CategoryLowVisibility,
}

// Category returns CategoryUnknown for values outside the vocabulary.
func (c Condition) Category() Category {
	return conditionCategories[c]
}

// Wet reports whether the condition calls for an umbrella.
func (c Condition) Wet() bool {
	return c == ConditionRaining || c == ConditionSnowing || c == ConditionShowers
}

func (c Condition) Valid() bool {
	return c.Category() != CategoryUnknown
}

// ParseCondition accepts the normalized names, case-insensitively.
func ParseCondition(s string) (Condition, error) {
	c := Condition(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: condition %q", ErrUnhandledCategory, s)
	}
	return c, nil
}

// AirQualityLevel follows the US AQI bands.
type AirQualityLevel int

const (
	AirGood AirQualityLevel = iota + 1
	AirModerate
	AirUnhealthyForSensitiveGroups
	AirUnhealthy
	AirVeryUnhealthy
	AirHazardous
)

var airLevelNames = map[AirQualityLevel]string{
	AirGood:                        "Good",
	AirModerate:                    "Moderate",
	AirUnhealthyForSensitiveGroups: "Unhealthy for Sensitive Groups",
	AirUnhealthy:                   "Unhealthy",
	AirVeryUnhealthy:               "Very Unhealthy",
	AirHazardous:                   "Hazardous",
}

func (l AirQualityLevel) String() string {
	if name, ok := airLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("AirQualityLevel(%d)", int(l))
}

func (l AirQualityLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *AirQualityLevel) UnmarshalText(text []byte) error {
	for level, name := range airLevelNames {
		if name == string(text) {
			*l = level
			return nil
		}
	}
	return fmt.Errorf("%w: air quality level %q", ErrInvalidIndex, text)
}

// LevelForIndex converts a US AQI reading into its level.
func LevelForIndex(aqi int) (AirQualityLevel, error) {
	switch {
	case aqi < 0:
		return 0, fmt.Errorf("%w: %d", ErrInvalidIndex, aqi)
	case aqi <= 50:
		return AirGood, nil
	case aqi <= 100:
		return AirModerate, nil
	case aqi <= 150:
		return AirUnhealthyForSensitiveGroups, nil
	case aqi <= 200:
		return AirUnhealthy, nil
	case aqi <= 300:
		return AirVeryUnhealthy, nil
	default:
		return AirHazardous, nil
	}
}

// Top is the upper-body clothing class reported by the classifier.
type Top string

const (
	TopShirt        Top = "shirt"
	TopThinJacket   Top = "thin jacket"
	TopThickClothes Top = "thick clothes"
)

// Bottom is the lower-body clothing class reported by the classifier.
type Bottom string

const (
	BottomLongPants Bottom = "long pants"
	BottomShorts    Bottom = "shorts"
)

// ParseTop accepts "thin jacket", "thin_jacket" and "thin-jacket" alike.
func ParseTop(s string) (Top, error) {
	switch t := Top(normalizeLabel(s)); t {
	case TopShirt, TopThinJacket, TopThickClothes:
		return t, nil
	default:
		return "", fmt.Errorf("%w: top %q", ErrUnhandledCategory, s)
	}
}

func ParseBottom(s string) (Bottom, error) {
	switch b := Bottom(normalizeLabel(s)); b {
	case BottomLongPants, BottomShorts:
		return b, nil
	default:
		return "", fmt.Errorf("%w: bottom %q", ErrUnhandledCategory, s)
	}
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Outfit is what the clothing classifier saw.
type Outfit struct {
	Top    Top    `json:"top"`
	Bottom Bottom `json:"bottom"`
}

// ForecastEntry is one remaining hour of today's forecast.
type ForecastEntry struct {
	Time        string    `json:"time"`
	Temperature int       `json:"temperature"`
	Condition   Condition `json:"condition"`
}

// WeatherSnapshot is a single normalized read of current and forecast weather.
type WeatherSnapshot struct {
	Temperature int             `json:"temperature"`
	Condition   Condition       `json:"condition"`
	Forecast    []ForecastEntry `json:"forecast"`
}

// ForecastSummary is derived from a WeatherSnapshot by Summarize.
// ChangeCondition and ChangeTime are empty when ConstantAllDay is set.
type ForecastSummary struct {
	HighestTemperature     int       `json:"highest_temperature"`
	HighestTemperatureTime string    `json:"highest_temperature_time"`
	ChangeCondition        Condition `json:"change_condition,omitempty"`
	ChangeTime             string    `json:"change_time,omitempty"`
	ConstantAllDay         bool      `json:"constant_all_day"`
}

// Outlook is the condition an outfit should be judged against: the upcoming
// change if there is one, otherwise the current condition.
func (s ForecastSummary) Outlook(current Condition) Condition {
	if s.ConstantAllDay || s.ChangeCondition == "" {
		return current
	}
	return s.ChangeCondition
}

// Intent is what the user asked for.
type Intent string

const (
	IntentGreeting     Intent = "greeting"
	IntentWeather      Intent = "weather"
	IntentAirPollution Intent = "air-pollution"
	IntentOutfit       Intent = "outfit"
)

// ParseIntent accepts "air pollution", "air_pollution" and "air-pollution".
func ParseIntent(s string) (Intent, error) {
	switch i := Intent(strings.ReplaceAll(normalizeLabel(s), " ", "-")); i {
	case IntentGreeting, IntentWeather, IntentAirPollution, IntentOutfit:
		return i, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedIntent, s)
	}
}

// Request carries everything Respond may need for one answer.
// Now is optional; the engine clock is used when it is zero.
type Request struct {
	Now      time.Time
	Snapshot WeatherSnapshot
	AirLevel AirQualityLevel
	Outfit   *Outfit
}
