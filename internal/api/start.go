package api

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/reelforge/ingest-worker/internal/config"
	"github.com/reelforge/ingest-worker/internal/queue"
	"github.com/reelforge/ingest-worker/internal/stats"
)

// Start runs the HTTP API against the supplied queue until the context is
// cancelled. Queue construction belongs to the caller so tests can wire in
// fake collaborators.
func Start(ctx context.Context, jc config.JobConfiguration, q *queue.Queue, st *stats.Collector) error {
	e := echo.New()
	e.HideBanner = true

	switch strings.ToLower(jc.GetString("log_level", "info")) {
	case "debug":
		e.Logger.SetLevel(log.DEBUG)
	case "warn":
		e.Logger.SetLevel(log.WARN)
	case "error":
		e.Logger.SetLevel(log.ERROR)
	default:
		e.Logger.SetLevel(log.INFO)
	}

	healthMetrics := NewHealthMetrics()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(APIKeyAuthMiddleware(jc))
	e.Use(HealthMetricsMiddleware(healthMetrics))

	// Health check endpoints (no auth required)
	e.GET(HealthCheckPath, Healthz())
	e.GET(ReadinessCheckPath, Readyz(q, healthMetrics))

	if jc.GetBool("profiling_enabled", false) {
		enableProfiling(e)
	}

	/*
		- POST /video/process:  classify, reject unsupported, enqueue
		- POST /video/classify: classification only, returned as data
		- GET  /video/status/:job_id
		- GET  /video/jobs?user_id=
		- GET  /video/active
		- GET  /video/stats
	*/
	video := e.Group("/video")
	video.POST("/process", process(q, st))
	video.POST("/classify", classify(st))
	video.GET("/status/:job_id", status(q))
	video.GET("/jobs", userJobs(q))
	video.GET("/active", activeJobs(q))
	video.GET("/stats", queueStats(q, st))

	go func() {
		<-ctx.Done()
		if err := e.Close(); err != nil {
			e.Logger.Error("Failed to close Echo server: ", err)
		}
	}()

	listenAddress := jc.ListenAddress()
	e.Logger.Info(fmt.Sprintf("Starting server on %s", listenAddress))
	return e.Start(listenAddress)
}

// enableProfiling registers pprof endpoints and turns on the runtime
// profiling probes. This impacts performance; gated behind ENABLE_PPROF.
func enableProfiling(e *echo.Echo) {
	e.Logger.Info("Enabling profiling - this may impact performance")

	runtime.SetBlockProfileRate(500)
	runtime.SetMutexProfileFraction(1)

	pprof.Register(e)
}
