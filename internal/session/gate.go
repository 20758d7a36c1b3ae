package session

import "sync"

type State int

const (
	Asleep State = iota
	Awake
)

func (s State) String() string {
	if s == Awake {
		return "awake"
	}
	return "asleep"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Action int

const (
	// ActionIgnore: the command is not valid in the current state.
	ActionIgnore Action = iota
	ActionRespond
	ActionFarewell
)

// Gate is the two-state wake/sleep machine. Only the wake phrase leaves
// Asleep and only the sleep phrase leaves Awake; repeating the wake phrase
// while awake is ignored.
type Gate struct {
	mutex sync.Mutex
	state State
}

func NewGate() *Gate {
	return &Gate{state: Asleep}
}

// Step applies cmd and reports what the assistant should do.
func (g *Gate) Step(cmd Command) Action {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	switch g.state {
	case Asleep:
		if cmd == CommandWake {
			g.state = Awake
			return ActionRespond
		}
		return ActionIgnore
	default:
		switch cmd {
		case CommandSleep:
			g.state = Asleep
			return ActionFarewell
		case CommandWeather, CommandAirPollution, CommandOutfit:
			return ActionRespond
		default:
			return ActionIgnore
		}
	}
}

func (g *Gate) State() State {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.state
}
