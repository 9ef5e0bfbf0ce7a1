package queue_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/reelforge/ingest-worker/api/types"
	"github.com/reelforge/ingest-worker/internal/queue"
	"github.com/reelforge/ingest-worker/internal/stats"
)

type fakeScraper struct {
	mu      sync.Mutex
	calls   int32
	result  *types.ScrapeResult
	err     error
	block   chan struct{}
	urlSeen string
}

func (f *fakeScraper) Scrape(ctx context.Context, url string) (*types.ScrapeResult, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.urlSeen = url
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.result, f.err
}

type fakeIngester struct {
	calls int32
	resp  *types.IngestResponse
	err   error
	last  types.IngestRequest
	mu    sync.Mutex
}

func (f *fakeIngester) AddVideo(ctx context.Context, req types.IngestRequest) (*types.IngestResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	return f.resp, f.err
}

func goodScrape() *types.ScrapeResult {
	return &types.ScrapeResult{
		Platform:     types.PlatformTikTok,
		Author:       "someuser",
		VideoURL:     "https://cdn.example.com/video.mp4",
		ThumbnailURL: "https://cdn.example.com/thumb.jpg",
		Title:        "A video",
	}
}

func goodIngest() *types.IngestResponse {
	return &types.IngestResponse{
		Success: true,
		Video:   &types.IngestedVideo{ID: "vid-1"},
	}
}

var _ = Describe("Queue", func() {
	var (
		store    *queue.MemoryStore
		scraper  *fakeScraper
		ingester *fakeIngester
		st       *stats.Collector
		q        *queue.Queue
	)

	BeforeEach(func() {
		store = queue.NewMemoryStore()
		scraper = &fakeScraper{result: goodScrape()}
		ingester = &fakeIngester{resp: goodIngest()}
		st = stats.StartCollector(16)
		q = queue.New(store, scraper, ingester, st, queue.Options{})
	})

	Describe("AddJob", func() {
		It("returns a pending snapshot immediately", func() {
			scraper.block = make(chan struct{})
			defer close(scraper.block)

			job := q.AddJob("https://www.tiktok.com/@u/video/1", "user-1", "coll-1")
			Expect(job.ID).NotTo(BeEmpty())
			Expect(job.Status).To(Equal(types.JobStatusPending))
			Expect(job.Progress).To(Equal(0))
			Expect(job.Message).To(Equal("Waiting to start..."))
			Expect(job.StartedAt).NotTo(BeZero())
		})

		It("creates independent jobs for the same URL", func() {
			a := q.AddJob("https://www.tiktok.com/@u/video/1", "user-1", "")
			b := q.AddJob("https://www.tiktok.com/@u/video/1", "user-1", "")
			Expect(a.ID).NotTo(Equal(b.ID))

			Eventually(func() types.JobStatus {
				j, _ := q.GetJob(a.ID)
				return j.Status
			}, "2s").Should(Equal(types.JobStatusCompleted))
			Eventually(func() types.JobStatus {
				j, _ := q.GetJob(b.ID)
				return j.Status
			}, "2s").Should(Equal(types.JobStatusCompleted))
			Expect(atomic.LoadInt32(&scraper.calls)).To(Equal(int32(2)))
		})
	})

	Describe("processing", func() {
		It("completes the job and attaches the result", func() {
			job := q.AddJob("https://www.tiktok.com/@u/video/1", "user-1", "coll-1")

			Eventually(func() types.JobStatus {
				j, _ := q.GetJob(job.ID)
				return j.Status
			}, "2s").Should(Equal(types.JobStatusCompleted))

			done, err := q.GetJob(job.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(done.Progress).To(Equal(100))
			Expect(done.Message).To(Equal("Video processed successfully"))
			Expect(done.CompletedAt).NotTo(BeNil())
			Expect(done.Result).NotTo(BeNil())
			Expect(done.Result.VideoID).To(Equal("vid-1"))
			Expect(done.Result.VideoURL).To(Equal("https://cdn.example.com/video.mp4"))
		})

		It("passes job fields through to the ingester", func() {
			job := q.AddJob("https://www.tiktok.com/@u/video/1", "user-1", "coll-1")

			Eventually(func() types.JobStatus {
				j, _ := q.GetJob(job.ID)
				return j.Status
			}, "2s").Should(Equal(types.JobStatusCompleted))

			ingester.mu.Lock()
			defer ingester.mu.Unlock()
			Expect(ingester.last.VideoURL).To(Equal("https://www.tiktok.com/@u/video/1"))
			Expect(ingester.last.UserID).To(Equal("user-1"))
			Expect(ingester.last.CollectionID).To(Equal("coll-1"))
			Expect(ingester.last.ScrapedData).NotTo(BeNil())
		})

		It("reports processing state while the scraper is running", func() {
			scraper.block = make(chan struct{})
			job := q.AddJob("https://www.tiktok.com/@u/video/1", "user-1", "")

			// The scraper blocking means both pre-scrape checkpoints ran.
			Eventually(func() int32 {
				return atomic.LoadInt32(&scraper.calls)
			}, "2s").Should(Equal(int32(1)))

			mid, _ := q.GetJob(job.ID)
			Expect(mid.Status).To(Equal(types.JobStatusProcessing))
			Expect(mid.Progress).To(Equal(25))
			Expect(mid.Message).To(Equal("Scraping video data..."))

			close(scraper.block)
			Eventually(func() types.JobStatus {
				j, _ := q.GetJob(job.ID)
				return j.Status
			}, "2s").Should(Equal(types.JobStatusCompleted))
		})

		It("fails the job when the scraper errors", func() {
			scraper.result = nil
			scraper.err = errors.New("actor run failed")

			job := q.AddJob("https://www.tiktok.com/@u/video/1", "user-1", "")
			Eventually(func() types.JobStatus {
				j, _ := q.GetJob(job.ID)
				return j.Status
			}, "2s").Should(Equal(types.JobStatusFailed))

			failed, _ := q.GetJob(job.ID)
			Expect(failed.Progress).To(Equal(100))
			Expect(failed.Error).To(Equal("Processing failed. Please try again."))
			Expect(failed.Message).To(Equal(failed.Error))
			Expect(failed.CompletedAt).NotTo(BeNil())
			Expect(atomic.LoadInt32(&ingester.calls)).To(Equal(int32(0)))
		})

		It("fails the job when the scrape has no media URL", func() {
			scraper.result = &types.ScrapeResult{Platform: types.PlatformTikTok, Title: "no media"}

			job := q.AddJob("https://www.tiktok.com/@u/video/1", "user-1", "")
			Eventually(func() types.JobStatus {
				j, _ := q.GetJob(job.ID)
				return j.Status
			}, "2s").Should(Equal(types.JobStatusFailed))

			failed, _ := q.GetJob(job.ID)
			Expect(failed.Error).To(Equal("No download URL available for this TikTok video"))
			Expect(atomic.LoadInt32(&ingester.calls)).To(Equal(int32(0)))
		})

		It("preserves the ingestion error detail on the failed job", func() {
			ingester.resp = nil
			ingester.err = &types.ProcessingError{
				Kind:   types.ErrKindIngestFailed,
				Detail: "Collection not found",
			}

			job := q.AddJob("https://www.tiktok.com/@u/video/1", "user-1", "coll-missing")
			Eventually(func() types.JobStatus {
				j, _ := q.GetJob(job.ID)
				return j.Status
			}, "2s").Should(Equal(types.JobStatusFailed))

			failed, _ := q.GetJob(job.ID)
			Expect(failed.Error).To(Equal("Collection not found"))
		})

		It("never decreases progress and leaves terminal jobs untouched", func() {
			job := q.AddJob("https://www.tiktok.com/@u/video/1", "user-1", "")
			Eventually(func() types.JobStatus {
				j, _ := q.GetJob(job.ID)
				return j.Status
			}, "2s").Should(Equal(types.JobStatusCompleted))

			// Re-running a terminal job must change nothing.
			before, _ := q.GetJob(job.ID)
			q.ProcessJob(job.ID)
			after, _ := q.GetJob(job.ID)
			Expect(after.Status).To(Equal(before.Status))
			Expect(after.Progress).To(Equal(before.Progress))
			Expect(after.Message).To(Equal(before.Message))
		})

		It("runs a job at most once when triggered concurrently", func() {
			scraper.block = make(chan struct{})
			job := q.AddJob("https://www.tiktok.com/@u/video/1", "user-1", "")

			Eventually(func() int32 {
				return atomic.LoadInt32(&scraper.calls)
			}, "2s").Should(Equal(int32(1)))

			// The job is mid-scrape; a second trigger must be a no-op.
			q.ProcessJob(job.ID)
			Expect(atomic.LoadInt32(&scraper.calls)).To(Equal(int32(1)))

			close(scraper.block)
			Eventually(func() types.JobStatus {
				j, _ := q.GetJob(job.ID)
				return j.Status
			}, "2s").Should(Equal(types.JobStatusCompleted))
			Expect(atomic.LoadInt32(&scraper.calls)).To(Equal(int32(1)))
		})
	})

	Describe("queries", func() {
		It("returns ErrJobNotFound for unknown IDs", func() {
			_, err := q.GetJob("no-such-job")
			Expect(err).To(MatchError(queue.ErrJobNotFound))
		})

		It("filters jobs by user and sorts newest first", func() {
			now := time.Now()
			store.Put(&types.VideoProcessingJob{ID: "old", UserID: "u1", Status: types.JobStatusCompleted, StartedAt: now.Add(-2 * time.Hour)})
			store.Put(&types.VideoProcessingJob{ID: "new", UserID: "u1", Status: types.JobStatusPending, StartedAt: now})
			store.Put(&types.VideoProcessingJob{ID: "other", UserID: "u2", Status: types.JobStatusPending, StartedAt: now})

			jobs := q.GetUserJobs("u1")
			Expect(jobs).To(HaveLen(2))
			Expect(jobs[0].ID).To(Equal("new"))
			Expect(jobs[1].ID).To(Equal("old"))
		})

		It("includes recent terminal jobs in the active set but not stale ones", func() {
			now := time.Now()
			recent := now.Add(-10 * time.Minute)
			stale := now.Add(-2 * time.Hour)
			store.Put(&types.VideoProcessingJob{ID: "running", Status: types.JobStatusProcessing, StartedAt: now})
			store.Put(&types.VideoProcessingJob{ID: "recent", Status: types.JobStatusCompleted, StartedAt: recent, CompletedAt: &recent})
			store.Put(&types.VideoProcessingJob{ID: "stale", Status: types.JobStatusFailed, StartedAt: stale, CompletedAt: &stale})

			ids := []string{}
			for _, j := range q.GetActiveJobs() {
				ids = append(ids, j.ID)
			}
			Expect(ids).To(ConsistOf("running", "recent"))
		})

		It("aggregates counts by status", func() {
			now := time.Now()
			store.Put(&types.VideoProcessingJob{ID: "a", Status: types.JobStatusPending, StartedAt: now})
			store.Put(&types.VideoProcessingJob{ID: "b", Status: types.JobStatusProcessing, StartedAt: now})
			store.Put(&types.VideoProcessingJob{ID: "c", Status: types.JobStatusCompleted, StartedAt: now})
			store.Put(&types.VideoProcessingJob{ID: "d", Status: types.JobStatusFailed, StartedAt: now})

			s := q.GetStats()
			Expect(s.Total).To(Equal(4))
			Expect(s.Pending).To(Equal(1))
			Expect(s.Processing).To(Equal(1))
			Expect(s.Completed).To(Equal(1))
			Expect(s.Failed).To(Equal(1))
		})
	})

	Describe("Cleanup", func() {
		newQueueWithRetention := func(retention time.Duration) *queue.Queue {
			return queue.New(store, scraper, ingester, st, queue.Options{Retention: retention})
		}

		It("evicts terminal jobs older than the retention window", func() {
			q := newQueueWithRetention(4 * time.Hour)
			old := time.Now().Add(-5 * time.Hour)
			store.Put(&types.VideoProcessingJob{ID: "old", Status: types.JobStatusCompleted, StartedAt: old, CompletedAt: &old})

			Expect(q.Cleanup()).To(Equal(1))
			Expect(store.Len()).To(Equal(0))
		})

		It("keeps terminal jobs younger than the retention window", func() {
			q := newQueueWithRetention(4 * time.Hour)
			recent := time.Now().Add(-3 * time.Hour)
			store.Put(&types.VideoProcessingJob{ID: "recent", Status: types.JobStatusFailed, StartedAt: recent, CompletedAt: &recent})

			Expect(q.Cleanup()).To(Equal(0))
			Expect(store.Len()).To(Equal(1))
		})

		It("evicts a job sitting exactly on the boundary", func() {
			q := newQueueWithRetention(4 * time.Hour)
			boundary := time.Now().Add(-4 * time.Hour).Add(-time.Second)
			store.Put(&types.VideoProcessingJob{ID: "boundary", Status: types.JobStatusCompleted, StartedAt: boundary, CompletedAt: &boundary})

			Expect(q.Cleanup()).To(Equal(1))
		})

		It("never evicts pending or processing jobs, regardless of age", func() {
			q := newQueueWithRetention(time.Minute)
			ancient := time.Now().Add(-24 * time.Hour)
			store.Put(&types.VideoProcessingJob{ID: "p", Status: types.JobStatusPending, StartedAt: ancient})
			store.Put(&types.VideoProcessingJob{ID: "r", Status: types.JobStatusProcessing, StartedAt: ancient})

			Expect(q.Cleanup()).To(Equal(0))
			Expect(store.Len()).To(Equal(2))
		})
	})

	Describe("Run", func() {
		It("sweeps on the interval until the context is cancelled", func() {
			q := queue.New(store, scraper, ingester, st, queue.Options{
				Retention:     time.Millisecond,
				SweepInterval: 50 * time.Millisecond,
			})
			old := time.Now().Add(-time.Hour)
			store.Put(&types.VideoProcessingJob{ID: "old", Status: types.JobStatusCompleted, StartedAt: old, CompletedAt: &old})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go q.Run(ctx)

			Eventually(store.Len, "2s").Should(Equal(0))
		})
	})
})
