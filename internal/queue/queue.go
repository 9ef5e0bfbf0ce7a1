// Package queue owns the asynchronous video-processing pipeline: an
// injected job store, a per-job in-flight guard, and a periodic sweeper
// that evicts stale terminal jobs.
package queue

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/reelforge/ingest-worker/api/types"
	"github.com/reelforge/ingest-worker/internal/stats"
)

// Scraper resolves a platform URL into downloadable media plus metadata.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*types.ScrapeResult, error)
}

// Ingester persists a scraped video into the user's collection. The
// implementation authenticates with the worker's internal credential.
type Ingester interface {
	AddVideo(ctx context.Context, req types.IngestRequest) (*types.IngestResponse, error)
}

// Options tune queue housekeeping. Zero values fall back to the reference
// behavior: 4h retention, hourly sweeps, 1h active window.
type Options struct {
	Retention     time.Duration
	SweepInterval time.Duration
	ActiveWindow  time.Duration
}

const (
	defaultRetention     = 4 * time.Hour
	defaultSweepInterval = time.Hour
	defaultActiveWindow  = time.Hour
)

// Queue accepts processing requests and executes them asynchronously.
// Every AddJob spawns its own goroutine; there is deliberately no worker
// pool or admission control, so a burst of submissions becomes a burst of
// concurrent outbound calls. Known scaling limit, preserved on purpose.
type Queue struct {
	store    Store
	scraper  Scraper
	ingester Ingester
	stats    *stats.Collector

	inflight syncSet

	retention     time.Duration
	sweepInterval time.Duration
	activeWindow  time.Duration
}

// New builds a queue around the injected store and collaborators.
func New(store Store, sc Scraper, ing Ingester, st *stats.Collector, opts Options) *Queue {
	if opts.Retention <= 0 {
		opts.Retention = defaultRetention
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepInterval
	}
	if opts.ActiveWindow <= 0 {
		opts.ActiveWindow = defaultActiveWindow
	}
	return &Queue{
		store:         store,
		scraper:       sc,
		ingester:      ing,
		stats:         st,
		inflight:      newSyncSet(),
		retention:     opts.Retention,
		sweepInterval: opts.SweepInterval,
		activeWindow:  opts.ActiveWindow,
	}
}

// AddJob inserts a pending job and schedules background processing without
// blocking. The returned snapshot is taken before processing can run.
// Submitting the same URL twice creates two independent jobs.
func (q *Queue) AddJob(url, userID, collectionID string) types.VideoProcessingJob {
	job := &types.VideoProcessingJob{
		ID:           uuid.New().String(),
		URL:          url,
		UserID:       userID,
		CollectionID: collectionID,
		Status:       types.JobStatusPending,
		Progress:     0,
		Message:      "Waiting to start...",
		StartedAt:    time.Now(),
	}
	q.store.Put(job)
	q.stats.Add(stats.JobsQueued, 1)

	logrus.WithFields(logrus.Fields{
		"job_id":  job.ID,
		"user_id": userID,
		"url":     url,
	}).Info("Queued video processing job")

	snap := snapshot(job)
	go q.ProcessJob(job.ID)
	return snap
}

// GetJob returns a snapshot of the job, or ErrJobNotFound.
func (q *Queue) GetJob(id string) (types.VideoProcessingJob, error) {
	job, ok := q.store.Get(id)
	if !ok {
		return types.VideoProcessingJob{}, ErrJobNotFound
	}
	return job, nil
}

// GetUserJobs returns all jobs owned by the user, most recently started
// first.
func (q *Queue) GetUserJobs(userID string) []types.VideoProcessingJob {
	var out []types.VideoProcessingJob
	for _, job := range q.store.List() {
		if job.UserID == userID {
			out = append(out, job)
		}
	}
	sortByStartedDesc(out)
	return out
}

// GetActiveJobs returns jobs that are still in flight, plus terminal jobs
// that finished within the active window. Drives "still relevant"
// notifications.
func (q *Queue) GetActiveJobs() []types.VideoProcessingJob {
	cutoff := time.Now().Add(-q.activeWindow)
	var out []types.VideoProcessingJob
	for _, job := range q.store.List() {
		if !job.Status.Terminal() {
			out = append(out, job)
			continue
		}
		if job.CompletedAt != nil && job.CompletedAt.After(cutoff) {
			out = append(out, job)
		}
	}
	sortByStartedDesc(out)
	return out
}

// GetStats returns an aggregate count snapshot.
func (q *Queue) GetStats() types.QueueStats {
	s := types.QueueStats{}
	for _, job := range q.store.List() {
		s.Total++
		switch job.Status {
		case types.JobStatusPending:
			s.Pending++
		case types.JobStatusProcessing:
			s.Processing++
		case types.JobStatusCompleted:
			s.Completed++
		case types.JobStatusFailed:
			s.Failed++
		}
	}
	return s
}

// ProcessJob runs the scrape-and-ingest sequence for a stored job.
// Re-triggering a job that is already in flight is a no-op, so callers may
// safely invoke it again (the idempotency guard, not deduplication: each
// AddJob gets its own ID and therefore its own execution).
func (q *Queue) ProcessJob(id string) {
	if !q.inflight.add(id) {
		logrus.WithField("job_id", id).Debug("Job already being processed, skipping")
		return
	}
	defer q.inflight.remove(id)

	job, ok := q.store.Get(id)
	if !ok {
		logrus.WithField("job_id", id).Warn("Job disappeared before processing started")
		return
	}
	if job.Status.Terminal() {
		return
	}

	if err := q.run(job); err != nil {
		q.failJob(id, err)
	}
}

// run executes the processing steps; any returned error (or recovered
// panic) becomes a terminal failed state. Nothing propagates to the AddJob
// caller.
func (q *Queue) run(job types.VideoProcessingJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("job_id", job.ID).Errorf("Panic during job processing: %v", r)
			err = fmt.Errorf("panic during processing: %v", r)
		}
	}()

	// No per-job timeout: a hung external call hangs this job. The
	// collaborators' own HTTP timeouts are the only bound.
	ctx := context.Background()

	q.advance(job.ID, 10, "Starting video processing...")
	q.advance(job.ID, 25, "Scraping video data...")

	scraped, err := q.scraper.Scrape(ctx, job.URL)
	if err != nil {
		q.stats.Add(stats.ScrapeErrors, 1)
		return err
	}
	if scraped == nil {
		q.stats.Add(stats.ScrapeErrors, 1)
		return &types.ProcessingError{Kind: types.ErrKindScrapeFailed, Detail: "scraper returned no result"}
	}
	q.stats.Add(stats.ScrapeSuccess, 1)

	q.advance(job.ID, 50, "Extracting video URL...")
	if scraped.VideoURL == "" {
		return &types.ProcessingError{Kind: types.ErrKindNoMediaURL, Platform: scraped.Platform}
	}

	q.advance(job.ID, 75, "Adding to collection...")
	resp, err := q.ingester.AddVideo(ctx, types.IngestRequest{
		VideoURL:     job.URL,
		CollectionID: job.CollectionID,
		UserID:       job.UserID,
		ScrapedData:  scraped,
		ThumbnailURL: scraped.ThumbnailURL,
	})
	if err != nil {
		q.stats.Add(stats.IngestErrors, 1)
		return err
	}
	q.stats.Add(stats.IngestSuccess, 1)

	result := &types.VideoResult{
		ThumbnailURL: scraped.ThumbnailURL,
		Title:        scraped.Title,
		Author:       scraped.Author,
		VideoURL:     scraped.VideoURL,
	}
	if resp != nil && resp.Video != nil {
		result.VideoID = resp.Video.ID
	}
	q.completeJob(job.ID, result)
	return nil
}

// advance moves a job forward. Progress never decreases and terminal jobs
// are never touched.
func (q *Queue) advance(id string, progress int, message string) {
	q.store.Update(id, func(j *types.VideoProcessingJob) {
		if j.Status.Terminal() {
			return
		}
		j.Status = types.JobStatusProcessing
		if progress > j.Progress {
			j.Progress = progress
		}
		j.Message = message
	})
}

func (q *Queue) completeJob(id string, result *types.VideoResult) {
	now := time.Now()
	q.store.Update(id, func(j *types.VideoProcessingJob) {
		if j.Status.Terminal() {
			return
		}
		j.Status = types.JobStatusCompleted
		j.Progress = 100
		j.Message = "Video processed successfully"
		j.Result = result
		j.CompletedAt = &now
	})
	q.stats.Add(stats.JobsCompleted, 1)
	logrus.WithField("job_id", id).Info("Job completed")
}

// failJob marks the job terminal with progress forced to 100 so polling
// UIs don't look stuck on a dead job.
func (q *Queue) failJob(id string, cause error) {
	now := time.Now()
	message := UserFacingMessage(cause)
	q.store.Update(id, func(j *types.VideoProcessingJob) {
		if j.Status.Terminal() {
			return
		}
		j.Status = types.JobStatusFailed
		j.Progress = 100
		j.Message = message
		j.Error = message
		j.CompletedAt = &now
	})
	q.stats.Add(stats.JobsFailed, 1)
	logrus.WithField("job_id", id).WithError(cause).Warn("Job failed")
}

// Run drives the cleanup sweeper until the context is cancelled. The
// sweeper lifecycle is tied to the queue's owner rather than a free-running
// global timer so shutdown and tests can stop it.
func (q *Queue) Run(ctx context.Context) {
	ticker := time.NewTicker(q.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := q.Cleanup(); n > 0 {
				logrus.Infof("Cleaned up %d stale jobs", n)
			}
		}
	}
}

// Cleanup evicts terminal jobs whose completion time has aged past the
// retention window. Pending and processing jobs are never evicted,
// regardless of age. Returns the number of evicted jobs.
func (q *Queue) Cleanup() int {
	cutoff := time.Now().Add(-q.retention)
	evicted := 0
	for _, job := range q.store.List() {
		if !job.Status.Terminal() || job.CompletedAt == nil {
			continue
		}
		if !job.CompletedAt.After(cutoff) {
			q.store.Delete(job.ID)
			evicted++
		}
	}
	return evicted
}

func sortByStartedDesc(jobs []types.VideoProcessingJob) {
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartedAt.After(jobs[j].StartedAt)
	})
}
