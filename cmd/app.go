package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/advisory"
	"github.com/vzahanych/jbot-advisor/internal/aggregator"
	"github.com/vzahanych/jbot-advisor/internal/config"
	"github.com/vzahanych/jbot-advisor/internal/session"
	"github.com/vzahanych/jbot-advisor/internal/vision"
)

// app is everything a subcommand needs, wired from the config.
type app struct {
	engine     *advisory.Engine
	aggregator *aggregator.Aggregator
	observer   *vision.Observer
	assistant  *session.Assistant
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	l := log.Logger

	zone, err := time.LoadLocation(cfg.Location.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Location.Timezone, err)
	}

	cache, err := aggregator.NewCache(ctx, cfg.Cache, l)
	if err != nil {
		return nil, err
	}

	agg, err := aggregator.NewAggregator(cfg, cache, l, tele)
	if err != nil {
		return nil, err
	}

	classifier, err := vision.NewClassifier(cfg.Vision, l, tele)
	if err != nil {
		return nil, err
	}
	observer := vision.NewObserver(vision.FileCamera{Path: cfg.Vision.ImagePath}, classifier)

	engine := advisory.NewEngine(advisory.WithClock(func() time.Time {
		return time.Now().In(zone)
	}))

	assistant := session.NewAssistant(engine, agg, observer, l, tele,
		session.WithFarewell(cfg.Speech.Farewell),
		session.WithLocation(zone),
	)

	l.Debug("Application wired",
		zap.String("cache", cache.Backend()),
		zap.String("classifier", cfg.Vision.Classifier),
		zap.String("timezone", zone.String()))

	return &app{
		engine:     engine,
		aggregator: agg,
		observer:   observer,
		assistant:  assistant,
	}, nil
}
