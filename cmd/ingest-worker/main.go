package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/reelforge/ingest-worker/internal/api"
	"github.com/reelforge/ingest-worker/internal/config"
	"github.com/reelforge/ingest-worker/internal/ingest"
	"github.com/reelforge/ingest-worker/internal/queue"
	"github.com/reelforge/ingest-worker/internal/scraper"
	"github.com/reelforge/ingest-worker/internal/stats"
)

func main() {
	jc := config.ReadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := stats.StartCollector(jc.GetUint("stats_buf_size", 128))

	sc := scraper.NewUnifiedScraper(
		jc.GetString("apify_api_key", ""),
		jc.GetDuration("scrape_timeout", 0),
	)
	ing := ingest.NewClient(
		jc.GetString("ingest_api_url", "http://localhost:3000"),
		jc.GetString("ingest_internal_secret", ""),
	)

	q := queue.New(queue.NewMemoryStore(), sc, ing, st, queue.Options{
		Retention:     jc.GetDuration("job_retention", 0),
		SweepInterval: jc.GetDuration("cleanup_interval", 0),
		ActiveWindow:  jc.GetDuration("active_window", 0),
	})
	go q.Run(ctx)

	if err := api.Start(ctx, jc, q, st); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.Fatal(err)
	}
}
