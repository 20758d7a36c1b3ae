package advisory

import "fmt"

const (
	outfitApproved       = "You look great. Have a nice day!"
	outfitTooWarm        = "It's very hot outside, consider taking off that jacket."
	outfitNeedsJacket    = "It's quite chill today. Wear a jacket!"
	outfitJacketAndPants = "It's cold. I think you should wear a proper jacket and long pants."
	outfitProperJacket   = "It's cold. I think you should wear a proper jacket."
	outfitLongPants      = "It's cold. How about wearing long pants?"
	outfitThickerJacket  = "It's cold outside. I think you should wear thicker jacket."

	rainReminder = "Oh, one more thing, it might rain, so don't forget your umbrella!"
	maskReminder = "And do not forget your mask. Take care!"
)

type outfitRule struct {
	matches func(Top, Bottom) bool
	advice  string
}

type temperatureBand struct {
	contains func(highest int) bool
	rules    []outfitRule
}

func wearing(top Top) func(Top, Bottom) bool {
	return func(t Top, _ Bottom) bool { return t == top }
}

func wearingBottom(bottom Bottom) func(Top, Bottom) bool {
	return func(_ Top, b Bottom) bool { return b == bottom }
}

func wearingBoth(top Top, bottom Bottom) func(Top, Bottom) bool {
	return func(t Top, b Bottom) bool { return t == top && b == bottom }
}

var coolWeatherRules = []outfitRule{
	{wearingBoth(TopShirt, BottomShorts), outfitJacketAndPants},
	{wearing(TopShirt), outfitProperJacket},
	{wearingBottom(BottomShorts), outfitLongPants},
}

// Bands are checked in order; the first band containing the highest
// temperature decides, and within it the first matching rule. A band with
// no matching rule approves the outfit.
var temperatureBands = []temperatureBand{
	{ // hot
		contains: func(t int) bool { return t >= 25 },
		rules: []outfitRule{
			{wearing(TopThickClothes), outfitTooWarm},
			{wearing(TopThinJacket), outfitTooWarm},
		},
	},
	{ // warm
		contains: func(t int) bool { return t >= 18 },
		rules: []outfitRule{
			{wearing(TopShirt), outfitNeedsJacket},
		},
	},
	{ // mild
		contains: func(t int) bool { return t > 13 },
		rules:    coolWeatherRules,
	},
	{ // cold
		contains: func(int) bool { return true },
		rules: append(append([]outfitRule{}, coolWeatherRules...),
			outfitRule{wearing(TopThinJacket), outfitThickerJacket}),
	},
}

func clothingAdvice(highest int, top Top, bottom Bottom) string {
	for _, band := range temperatureBands {
		if !band.contains(highest) {
			continue
		}
		for _, rule := range band.rules {
			if rule.matches(top, bottom) {
				return rule.advice
			}
		}
		break
	}
	return outfitApproved
}

// RecommendOutfit judges the outfit against the day's highest temperature,
// then reminds about an umbrella when rain is expected and a mask when the
// air is anything but good.
func RecommendOutfit(highest int, forecast Condition, air AirQualityLevel, top Top, bottom Bottom) (string, error) {
	if _, err := ParseTop(string(top)); err != nil {
		return "", err
	}
	if _, err := ParseBottom(string(bottom)); err != nil {
		return "", err
	}
	if _, ok := airAdvisories[air]; !ok {
		return "", fmt.Errorf("%w: air quality level %d", ErrUnhandledCategory, int(air))
	}

	var rain, mask string
	if forecast == ConditionRaining {
		rain = rainReminder
	}
	if air != AirGood {
		mask = maskReminder
	}
	return joinClauses(clothingAdvice(highest, top, bottom), rain, mask), nil
}
