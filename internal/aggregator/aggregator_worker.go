package aggregator

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Refresher keeps the conditions cache warm so a spoken question rarely waits
// on the upstream APIs.
type Refresher struct {
	aggregator *Aggregator
	interval   time.Duration
	logger     *zap.Logger

	workerWg   sync.WaitGroup
	shutdownCh chan struct{}
	stopOnce   sync.Once

	mutex       sync.RWMutex
	lastRefresh time.Time
	lastErr     error
}

func NewRefresher(aggregator *Aggregator, interval time.Duration) *Refresher {
	return &Refresher{
		aggregator: aggregator,
		interval:   interval,
		logger:     aggregator.logger.With(zap.String("worker", "refresher")),
		shutdownCh: make(chan struct{}),
	}
}

// Start refreshes once immediately, then on every tick, until Stop is called
// or ctx is cancelled. It does not block.
func (r *Refresher) Start(ctx context.Context) {
	r.workerWg.Add(1)
	go r.run(ctx)
}

func (r *Refresher) run(ctx context.Context) {
	defer r.workerWg.Done()

	r.logger.Info("Refresher started", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.refresh(ctx)

	for {
		select {
		case <-ticker.C:
			r.refresh(ctx)
		case <-r.shutdownCh:
			r.logger.Info("Shutdown signal received, refresher stopping")
			return
		case <-ctx.Done():
			r.logger.Info("Context cancelled, refresher stopping")
			return
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	ctx, span := r.aggregator.tele.StartSpan(ctx, "aggregator.refresh")
	defer span.End()

	conditions, err := r.aggregator.Refresh(ctx)

	r.mutex.Lock()
	r.lastErr = err
	if err == nil {
		r.lastRefresh = conditions.FetchedAt
	}
	r.mutex.Unlock()

	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		r.logger.Error("Refresh failed", zap.Error(err))
		return
	}

	span.SetAttributes(attribute.Bool("success", true))
	r.logger.Debug("Conditions refreshed",
		zap.String("condition", string(conditions.Snapshot.Condition)),
		zap.Int("aqi", conditions.AQI))
}

// Stop signals the worker and waits for it to exit.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() {
		close(r.shutdownCh)
	})
	r.workerWg.Wait()
}

// Status reports the time of the last successful refresh and the last error.
func (r *Refresher) Status() (time.Time, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.lastRefresh, r.lastErr
}
