package advisory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rainyAfternoon() WeatherSnapshot {
	return WeatherSnapshot{
		Temperature: 14,
		Condition:   ConditionCloudy,
		Forecast: []ForecastEntry{
			{Time: "2 PM", Temperature: 15, Condition: ConditionCloudy},
			{Time: "3 PM", Temperature: 16, Condition: ConditionRaining},
			{Time: "4 PM", Temperature: 15, Condition: ConditionRaining},
		},
	}
}

func TestEngine_RespondGreeting(t *testing.T) {
	clock := func() time.Time { return at(9, 15) }
	engine := NewEngine(WithClock(clock))

	got, err := engine.Respond(IntentGreeting, Request{Snapshot: rainyAfternoon(), AirLevel: AirGood})
	require.NoError(t, err)
	assert.Equal(t,
		"Good Morning. Today is 14 degrees and it is currently cloudy. The highest temperature will be 16 at 3 PM. "+
			"It might be raining at 3 PM. Don't forget to bring your umbrella! The air quality today is good.",
		got)
}

func TestEngine_RespondGreetingUsesRequestTime(t *testing.T) {
	engine := NewEngine(WithClock(func() time.Time { return at(9, 0) }))

	got, err := engine.Respond(IntentGreeting, Request{
		Now:      at(12, 0),
		Snapshot: WeatherSnapshot{Temperature: 20, Condition: ConditionClear},
		AirLevel: AirModerate,
	})
	require.NoError(t, err)
	assert.Equal(t,
		"Good Day Today is 20 degrees and the sky will be clear all day. There is a little pollution outside today. I advise to wear a mask.",
		got)
}

func TestEngine_RespondWeatherAndAir(t *testing.T) {
	engine := NewEngine()

	weather, err := engine.Respond(IntentWeather, Request{Snapshot: rainyAfternoon()})
	require.NoError(t, err)
	assert.Contains(t, weather, "It might be raining at 3 PM.")

	air, err := engine.Respond(IntentAirPollution, Request{AirLevel: AirHazardous})
	require.NoError(t, err)
	assert.Equal(t, "The air quality is very bad today. It is better to stay inside.", air)
}

func TestEngine_RespondOutfit(t *testing.T) {
	engine := NewEngine()

	got, err := engine.Respond(IntentOutfit, Request{
		Snapshot: rainyAfternoon(),
		AirLevel: AirUnhealthy,
		Outfit:   &Outfit{Top: TopShirt, Bottom: BottomLongPants},
	})
	require.NoError(t, err)
	assert.Equal(t, outfitProperJacket+" "+rainReminder+" "+maskReminder, got)
}

func TestEngine_RespondOutfitRainingAllDay(t *testing.T) {
	engine := NewEngine()

	got, err := engine.Respond(IntentOutfit, Request{
		Snapshot: WeatherSnapshot{Temperature: 27, Condition: ConditionRaining},
		AirLevel: AirGood,
		Outfit:   &Outfit{Top: TopShirt, Bottom: BottomShorts},
	})
	require.NoError(t, err)
	assert.Equal(t, outfitApproved+" "+rainReminder, got)
}

func TestEngine_RespondErrors(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Respond(IntentOutfit, Request{Snapshot: rainyAfternoon(), AirLevel: AirGood})
	assert.ErrorIs(t, err, ErrMissingOutfit)

	_, err = engine.Respond(Intent("sing"), Request{})
	assert.ErrorIs(t, err, ErrUnsupportedIntent)
}

func TestEngine_Idempotent(t *testing.T) {
	engine := NewEngine(WithClock(func() time.Time { return at(18, 0) }))
	req := Request{
		Snapshot: rainyAfternoon(),
		AirLevel: AirVeryUnhealthy,
		Outfit:   &Outfit{Top: TopThinJacket, Bottom: BottomShorts},
	}

	for _, intent := range []Intent{IntentGreeting, IntentWeather, IntentAirPollution, IntentOutfit} {
		first, err := engine.Respond(intent, req)
		require.NoError(t, err)
		second, err := engine.Respond(intent, req)
		require.NoError(t, err)
		assert.Equal(t, first, second, "intent %s", intent)
	}
}
