// Package session runs the robot's wake/sleep conversation.
package session

import (
	"strings"

	"github.com/vzahanych/jbot-advisor/internal/advisory"
)

type Command int

const (
	CommandNone Command = iota
	CommandWake
	CommandWeather
	CommandAirPollution
	CommandOutfit
	CommandSleep
)

func (c Command) String() string {
	switch c {
	case CommandWake:
		return "wake"
	case CommandWeather:
		return "weather"
	case CommandAirPollution:
		return "air-pollution"
	case CommandOutfit:
		return "outfit"
	case CommandSleep:
		return "sleep"
	default:
		return "none"
	}
}

func (c Command) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Intent is the advisory a command asks for. Waking greets; sleeping asks
// for nothing.
func (c Command) Intent() (advisory.Intent, bool) {
	switch c {
	case CommandWake:
		return advisory.IntentGreeting, true
	case CommandWeather:
		return advisory.IntentWeather, true
	case CommandAirPollution:
		return advisory.IntentAirPollution, true
	case CommandOutfit:
		return advisory.IntentOutfit, true
	default:
		return "", false
	}
}

// phrases are stored normalized.
var phrases = map[string]Command{
	"hello robot":   CommandWake,
	"weather":       CommandWeather,
	"air pollution": CommandAirPollution,
	"how do i look": CommandOutfit,
	"bye bye robot": CommandSleep,
}

// ParseCommand matches a recognized utterance against the command phrases,
// ignoring case, hyphens, extra whitespace and trailing punctuation.
// Anything else is CommandNone.
func ParseCommand(utterance string) Command {
	return phrases[normalize(utterance)]
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.TrimRight(strings.TrimSpace(s), ".!?,")
	return strings.Join(strings.Fields(s), " ")
}
