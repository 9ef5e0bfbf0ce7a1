package api_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/reelforge/ingest-worker/api/types"
	. "github.com/reelforge/ingest-worker/internal/api"
	"github.com/reelforge/ingest-worker/internal/config"
	"github.com/reelforge/ingest-worker/internal/queue"
	"github.com/reelforge/ingest-worker/internal/stats"
	"github.com/reelforge/ingest-worker/pkg/client"
)

type stubScraper struct{}

func (stubScraper) Scrape(ctx context.Context, url string) (*types.ScrapeResult, error) {
	return &types.ScrapeResult{
		Platform:     types.PlatformTikTok,
		Author:       "someuser",
		Title:        "stub video",
		VideoURL:     "https://cdn.example.com/video.mp4",
		ThumbnailURL: "https://cdn.example.com/thumb.jpg",
	}, nil
}

type stubIngester struct{}

func (stubIngester) AddVideo(ctx context.Context, req types.IngestRequest) (*types.IngestResponse, error) {
	return &types.IngestResponse{
		Success: true,
		Video:   &types.IngestedVideo{ID: "vid-1"},
	}, nil
}

var _ = Describe("API", func() {

	var (
		clientInstance *client.Client
		ctx            context.Context
		cancel         context.CancelFunc
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())

		jc := config.JobConfiguration{"listen_address": "127.0.0.1:40913"}
		st := stats.StartCollector(16)
		q := queue.New(queue.NewMemoryStore(), stubScraper{}, stubIngester{}, st, queue.Options{})
		go Start(ctx, jc, q, st)

		// Wait for the server to start
		time.Sleep(500 * time.Millisecond)

		var err error
		clientInstance, err = client.NewClient("http://127.0.0.1:40913")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cancel()
		time.Sleep(100 * time.Millisecond)
	})

	It("should process a TikTok URL end to end", func() {
		handle, err := clientInstance.ProcessVideo(types.ProcessRequest{
			URL:          "https://www.tiktok.com/@user/video/1234567890",
			UserID:       "user-1",
			CollectionID: "coll-1",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(handle.Job.ID).NotTo(BeEmpty())
		Expect(handle.Job.Status).To(Equal(types.JobStatusPending))

		handle.SetDelay(100 * time.Millisecond)
		done, err := handle.Wait()
		Expect(err).NotTo(HaveOccurred())
		Expect(done.Status).To(Equal(types.JobStatusCompleted))
		Expect(done.Progress).To(Equal(100))
		Expect(done.Result).NotTo(BeNil())
		Expect(done.Result.VideoID).To(Equal("vid-1"))
	})

	It("should reject an unsupported Instagram profile URL without enqueuing", func() {
		_, err := clientInstance.ProcessVideo(types.ProcessRequest{
			URL:    "https://www.instagram.com/someuser/",
			UserID: "user-1",
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("not currently supported"))

		jobs, err := clientInstance.GetUserJobs("user-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(jobs).To(BeEmpty())
	})

	It("should reject requests missing the user ID", func() {
		_, err := clientInstance.ProcessVideo(types.ProcessRequest{
			URL: "https://www.tiktok.com/@user/video/1",
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("user_id is required"))
	})

	It("should classify without enqueuing", func() {
		c, err := clientInstance.Classify("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Platform).To(Equal(types.PlatformYouTube))
		Expect(c.IsSupported).To(BeFalse())
		Expect(c.ErrorMessage).To(Equal("YouTube processing is coming soon"))
	})

	It("should return 404 for unknown job IDs", func() {
		_, err := clientInstance.GetJob("no-such-id")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("Job not found"))
	})

	It("should list the user's jobs newest first", func() {
		first, err := clientInstance.ProcessVideo(types.ProcessRequest{
			URL:    "https://www.tiktok.com/@user/video/1",
			UserID: "user-2",
		})
		Expect(err).NotTo(HaveOccurred())
		second, err := clientInstance.ProcessVideo(types.ProcessRequest{
			URL:    "https://www.tiktok.com/@user/video/2",
			UserID: "user-2",
		})
		Expect(err).NotTo(HaveOccurred())

		Eventually(func() ([]types.VideoProcessingJob, error) {
			return clientInstance.GetUserJobs("user-2")
		}, "2s").Should(HaveLen(2))

		jobs, err := clientInstance.GetUserJobs("user-2")
		Expect(err).NotTo(HaveOccurred())
		ids := []string{jobs[0].ID, jobs[1].ID}
		Expect(ids).To(ConsistOf(first.Job.ID, second.Job.ID))
	})
})
