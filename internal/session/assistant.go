package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/advisory"
	"github.com/vzahanych/jbot-advisor/internal/aggregator"
	"github.com/vzahanych/jbot-advisor/internal/speech"
	"github.com/vzahanych/jbot-advisor/pkg/logger"
	"github.com/vzahanych/jbot-advisor/pkg/telemetry"
)

const (
	DefaultFarewell   = "Okay see you later..."
	ConditionsApology = "Sorry, I could not get the weather right now."
	OutfitApology     = "Sorry, I could not see your outfit right now."
)

// ConditionsSource supplies the weather and air quality the engine reads.
type ConditionsSource interface {
	GetConditions(ctx context.Context) (*aggregator.Conditions, error)
}

// OutfitObserver looks at the user.
type OutfitObserver interface {
	Observe(ctx context.Context) (advisory.Outfit, error)
}

// Reply is the assistant's reaction to one utterance. Text is empty when the
// utterance was ignored.
type Reply struct {
	Command Command `json:"command"`
	Text    string  `json:"text,omitempty"`
	State   State   `json:"state"`
}

func (r Reply) Spoken() bool {
	return r.Text != ""
}

type Assistant struct {
	id         string
	engine     *advisory.Engine
	conditions ConditionsSource
	observer   OutfitObserver
	gate       *Gate
	farewell   string
	location   *time.Location
	now        func() time.Time
	logger     *zap.Logger
	tele       *telemetry.Telemetry
}

type Option func(*Assistant)

func WithFarewell(text string) Option {
	return func(a *Assistant) {
		if text != "" {
			a.farewell = text
		}
	}
}

// WithLocation sets the zone greetings are chosen in.
func WithLocation(loc *time.Location) Option {
	return func(a *Assistant) {
		if loc != nil {
			a.location = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Assistant) {
		a.now = now
	}
}

func NewAssistant(engine *advisory.Engine, conditions ConditionsSource, observer OutfitObserver,
	logger *zap.Logger, tele *telemetry.Telemetry, opts ...Option) *Assistant {
	a := &Assistant{
		id:         uuid.New().String(),
		engine:     engine,
		conditions: conditions,
		observer:   observer,
		gate:       NewGate(),
		farewell:   DefaultFarewell,
		location:   time.Local,
		now:        time.Now,
		tele:       tele,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logger.With(zap.String("session_id", a.id))
	return a
}

func (a *Assistant) ID() string {
	return a.id
}

func (a *Assistant) State() State {
	return a.gate.State()
}

// Handle reacts to one recognized utterance. Provider failures are answered
// with an apology and leave the session running; only engine errors are
// returned.
func (a *Assistant) Handle(ctx context.Context, utterance string) (Reply, error) {
	cmd := ParseCommand(utterance)

	ctx, span := a.tele.StartSpan(ctx, "session.Handle",
		attribute.String("session_id", a.id),
		attribute.String("command", cmd.String()),
	)
	defer span.End()

	log := logger.ForContext(ctx, a.logger)

	action := a.gate.Step(cmd)
	reply := Reply{Command: cmd}

	switch action {
	case ActionIgnore:
		log.Debug("Utterance ignored",
			zap.String("utterance", utterance),
			zap.Stringer("state", a.gate.State()))
	case ActionFarewell:
		log.Info("Session going to sleep")
		reply.Text = a.farewell
	case ActionRespond:
		text, err := a.respond(ctx, cmd, log)
		if err != nil {
			span.RecordError(err)
			reply.State = a.gate.State()
			return reply, err
		}
		reply.Text = text
	}

	reply.State = a.gate.State()
	span.SetAttributes(attribute.String("state", reply.State.String()))
	return reply, nil
}

func (a *Assistant) respond(ctx context.Context, cmd Command, log *zap.Logger) (string, error) {
	intent, ok := cmd.Intent()
	if !ok {
		return "", fmt.Errorf("%w: command %s", advisory.ErrUnsupportedIntent, cmd)
	}

	conditions, err := a.conditions.GetConditions(ctx)
	if err != nil {
		log.Error("Failed to get conditions", zap.String("intent", string(intent)), zap.Error(err))
		return ConditionsApology, nil
	}

	req := advisory.Request{
		Now:      a.now().In(a.location),
		Snapshot: conditions.Snapshot,
		AirLevel: conditions.AirLevel,
	}

	if intent == advisory.IntentOutfit {
		outfit, err := a.observer.Observe(ctx)
		if err != nil {
			log.Error("Failed to observe outfit", zap.Error(err))
			return OutfitApology, nil
		}
		req.Outfit = &outfit
		log.Info("Outfit observed",
			zap.String("top", string(outfit.Top)),
			zap.String("bottom", string(outfit.Bottom)))
	}

	text, err := a.engine.Respond(intent, req)
	if err != nil {
		return "", fmt.Errorf("respond to %s: %w", intent, err)
	}

	log.Info("Advisory composed", zap.String("intent", string(intent)))
	return text, nil
}

// Run listens and answers until the input is exhausted or ctx is cancelled.
// Failures to speak are logged and the loop keeps going.
func (a *Assistant) Run(ctx context.Context, in speech.Input, out speech.Output) error {
	a.logger.Info("Session started", zap.Stringer("state", a.gate.State()))
	defer a.logger.Info("Session ended")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		utterance, err := in.Listen(ctx)
		switch {
		case errors.Is(err, speech.ErrNotUnderstood):
			a.logger.Debug("Utterance not understood")
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("listen: %w", err)
		}

		reply, err := a.Handle(ctx, utterance)
		if err != nil {
			a.logger.Error("Failed to handle utterance", zap.String("utterance", utterance), zap.Error(err))
			continue
		}
		if !reply.Spoken() {
			continue
		}

		if err := out.Say(ctx, reply.Text); err != nil {
			a.logger.Warn("Failed to speak reply", zap.Error(err))
		}
	}
}
