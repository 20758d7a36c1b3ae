package advisory

// Summarize derives the highest temperature and the first condition change
// from a snapshot. The highest temperature never drops below the current
// one; in that case the time is "now".
func Summarize(s WeatherSnapshot) ForecastSummary {
	sum := ForecastSummary{
		HighestTemperature:     s.Temperature,
		HighestTemperatureTime: "now",
		ConstantAllDay:         true,
	}

	for _, entry := range s.Forecast {
		if entry.Temperature > sum.HighestTemperature {
			sum.HighestTemperature = entry.Temperature
			sum.HighestTemperatureTime = entry.Time
		}
		if sum.ConstantAllDay && entry.Condition != s.Condition {
			sum.ConstantAllDay = false
			sum.ChangeCondition = entry.Condition
			sum.ChangeTime = entry.Time
		}
	}

	return sum
}
