package middlewares

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const maxDurationSamples = 1000

// HTTPStats is a point-in-time copy of the request counters.
type HTTPStats struct {
	RequestsTotal      map[string]int64
	AverageDuration    float64
	ActiveRequests     int64
	DurationSampleSize int
}

// MetricsMiddleware counts requests per "METHOD route status" and keeps the
// last maxDurationSamples latencies in a ring.
type MetricsMiddleware struct {
	mutex         sync.RWMutex
	requestsTotal map[string]int64
	durations     []float64
	next          int
	active        int64
}

func NewMetricsMiddleware() *MetricsMiddleware {
	return &MetricsMiddleware{
		requestsTotal: make(map[string]int64),
		durations:     make([]float64, 0, maxDurationSamples),
	}
}

func (m *MetricsMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.mutex.Lock()
		m.active++
		m.mutex.Unlock()

		c.Next()

		duration := time.Since(start).Seconds()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		key := c.Request.Method + " " + route + " " + strconv.Itoa(c.Writer.Status())

		m.mutex.Lock()
		defer m.mutex.Unlock()

		m.active--
		m.requestsTotal[key]++
		if len(m.durations) < maxDurationSamples {
			m.durations = append(m.durations, duration)
		} else {
			m.durations[m.next] = duration
		}
		m.next = (m.next + 1) % maxDurationSamples
	}
}

func (m *MetricsMiddleware) Stats() HTTPStats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats := HTTPStats{
		RequestsTotal:      make(map[string]int64, len(m.requestsTotal)),
		ActiveRequests:     m.active,
		DurationSampleSize: len(m.durations),
	}
	for k, v := range m.requestsTotal {
		stats.RequestsTotal[k] = v
	}

	if len(m.durations) > 0 {
		sum := 0.0
		for _, d := range m.durations {
			sum += d
		}
		stats.AverageDuration = sum / float64(len(m.durations))
	}

	return stats
}
