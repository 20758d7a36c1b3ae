package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/server/middlewares"
)

// HTTPStatsProvider is implemented by middlewares.MetricsMiddleware.
type HTTPStatsProvider interface {
	Stats() middlewares.HTTPStats
}

// AppMetrics holds application-level counters: cache, providers, advice.
type AppMetrics struct {
	mutex          sync.RWMutex
	cacheHits      int64
	cacheMisses    int64
	providerCalls  map[string]int64
	providerErrors map[string]int64
	advice         map[string]int64
	adviceErrors   map[string]int64
}

// MetricsHandler serves /metrics. The Record methods are no-ops on a nil
// handler.
type MetricsHandler struct {
	logger     *zap.Logger
	httpStats  HTTPStatsProvider
	appMetrics *AppMetrics
}

func NewMetricsHandler(logger *zap.Logger, httpStats HTTPStatsProvider) *MetricsHandler {
	return &MetricsHandler{
		logger:    logger,
		httpStats: httpStats,
		appMetrics: &AppMetrics{
			providerCalls:  make(map[string]int64),
			providerErrors: make(map[string]int64),
			advice:         make(map[string]int64),
			adviceErrors:   make(map[string]int64),
		},
	}
}

func (h *MetricsHandler) RecordCacheHit(ctx context.Context, cacheType string) {
	if h == nil {
		return
	}
	h.appMetrics.mutex.Lock()
	h.appMetrics.cacheHits++
	h.appMetrics.mutex.Unlock()
}

func (h *MetricsHandler) RecordCacheMiss(ctx context.Context, cacheType string) {
	if h == nil {
		return
	}
	h.appMetrics.mutex.Lock()
	h.appMetrics.cacheMisses++
	h.appMetrics.mutex.Unlock()
}

func (h *MetricsHandler) RecordProviderCall(ctx context.Context, provider string, success bool) {
	if h == nil {
		return
	}
	h.appMetrics.mutex.Lock()
	h.appMetrics.providerCalls[provider]++
	if !success {
		h.appMetrics.providerErrors[provider]++
	}
	h.appMetrics.mutex.Unlock()
}

func (h *MetricsHandler) RecordAdvice(ctx context.Context, intent string, success bool) {
	if h == nil {
		return
	}
	h.appMetrics.mutex.Lock()
	h.appMetrics.advice[intent]++
	if !success {
		h.appMetrics.adviceErrors[intent]++
	}
	h.appMetrics.mutex.Unlock()
}

// ServeMetrics renders the counters in the Prometheus text format.
func (h *MetricsHandler) ServeMetrics(c *gin.Context) {
	var b strings.Builder

	if h.httpStats != nil {
		stats := h.httpStats.Stats()

		writeHeader(&b, "http_requests_total", "Total number of HTTP requests", "counter")
		for _, key := range sortedKeys(stats.RequestsTotal) {
			fmt.Fprintf(&b, "http_requests_total{route_status=%q} %d\n", key, stats.RequestsTotal[key])
		}

		writeHeader(&b, "http_request_duration_seconds_avg", "Average duration of recent HTTP requests", "gauge")
		fmt.Fprintf(&b, "http_request_duration_seconds_avg %.6f\n", stats.AverageDuration)

		writeHeader(&b, "http_active_requests", "Number of active HTTP requests", "gauge")
		fmt.Fprintf(&b, "http_active_requests %d\n", stats.ActiveRequests)
	}

	h.appMetrics.mutex.RLock()
	defer h.appMetrics.mutex.RUnlock()

	writeHeader(&b, "conditions_cache_hits_total", "Total conditions cache hits", "counter")
	fmt.Fprintf(&b, "conditions_cache_hits_total %d\n", h.appMetrics.cacheHits)

	writeHeader(&b, "conditions_cache_misses_total", "Total conditions cache misses", "counter")
	fmt.Fprintf(&b, "conditions_cache_misses_total %d\n", h.appMetrics.cacheMisses)

	writeLabelled(&b, "provider_calls_total", "Total upstream provider calls", "provider", h.appMetrics.providerCalls)
	writeLabelled(&b, "provider_errors_total", "Total upstream provider errors", "provider", h.appMetrics.providerErrors)
	writeLabelled(&b, "advice_total", "Total advisories requested", "intent", h.appMetrics.advice)
	writeLabelled(&b, "advice_errors_total", "Total advisories that failed", "intent", h.appMetrics.adviceErrors)

	c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

func writeLabelled(b *strings.Builder, name, help, label string, values map[string]int64) {
	writeHeader(b, name, help, "counter")
	for _, key := range sortedKeys(values) {
		fmt.Fprintf(b, "%s{%s=%q} %d\n", name, label, key, values[key])
	}
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
