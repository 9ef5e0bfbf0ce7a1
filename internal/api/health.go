package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/reelforge/ingest-worker/internal/queue"
)

// HealthMetrics tracks request success/error rates over a sliding window
// for the readiness probe.
type HealthMetrics struct {
	mu             sync.RWMutex
	errorCount     int
	successCount   int
	windowStart    time.Time
	windowDuration time.Duration
	errorThreshold float64
}

func NewHealthMetrics() *HealthMetrics {
	return &HealthMetrics{
		windowStart:    time.Now(),
		windowDuration: 10 * time.Minute,
		errorThreshold: 0.95,
	}
}

func (hm *HealthMetrics) RecordSuccess() {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	hm.checkAndResetWindow()
	hm.successCount++
}

func (hm *HealthMetrics) RecordError() {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	hm.checkAndResetWindow()
	hm.errorCount++
}

func (hm *HealthMetrics) checkAndResetWindow() {
	if time.Since(hm.windowStart) > hm.windowDuration {
		hm.errorCount = 0
		hm.successCount = 0
		hm.windowStart = time.Now()
	}
}

// IsHealthy reports whether the error rate is below the threshold. An
// empty window counts as healthy.
func (hm *HealthMetrics) IsHealthy() bool {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	total := hm.errorCount + hm.successCount
	if total == 0 {
		return true
	}
	return float64(hm.errorCount)/float64(total) < hm.errorThreshold
}

// Healthz reports liveness only.
func Healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Readyz reports readiness: error rate within bounds, plus a queue stats
// snapshot for operators.
func Readyz(q *queue.Queue, healthMetrics *HealthMetrics) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !healthMetrics.IsHealthy() {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"queue":  q.GetStats(),
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status": "ok",
			"queue":  q.GetStats(),
		})
	}
}
