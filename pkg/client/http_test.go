package client_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/reelforge/ingest-worker/api/types"
	. "github.com/reelforge/ingest-worker/pkg/client"
)

var _ = Describe("Client", func() {
	var (
		mockServer *httptest.Server
		c          *Client
		statusHits int
	)

	BeforeEach(func() {
		statusHits = 0
		mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/video/process":
				if r.Method == http.MethodPost {
					var req types.ProcessRequest
					json.NewDecoder(r.Body).Decode(&req)
					if req.URL == "https://www.instagram.com/someuser/" {
						w.WriteHeader(http.StatusBadRequest)
						json.NewEncoder(w).Encode(types.JobError{Error: "Instagram profile URLs are not currently supported. Only reels and posts can be processed."})
						return
					}
					json.NewEncoder(w).Encode(types.VideoProcessingJob{
						ID:     "mock-job-id",
						URL:    req.URL,
						UserID: req.UserID,
						Status: types.JobStatusPending,
					})
				}
			case "/video/classify":
				json.NewEncoder(w).Encode(types.URLClassification{
					Platform:    types.PlatformTikTok,
					ContentType: "video",
					IsSupported: true,
				})
			case "/video/status/mock-job-id":
				statusHits++
				job := types.VideoProcessingJob{ID: "mock-job-id", Status: types.JobStatusProcessing, Progress: 50}
				if statusHits > 2 {
					job.Status = types.JobStatusCompleted
					job.Progress = 100
					job.Result = &types.VideoResult{VideoID: "vid-1"}
				}
				json.NewEncoder(w).Encode(job)
			case "/video/jobs":
				json.NewEncoder(w).Encode([]types.VideoProcessingJob{{ID: "mock-job-id"}})
			default:
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(types.JobError{Error: "Job not found"})
			}
		}))

		var err error
		c, err = NewClient(mockServer.URL)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		mockServer.Close()
	})

	Describe("ProcessVideo", func() {
		It("should submit a job and return a handle", func() {
			handle, err := c.ProcessVideo(types.ProcessRequest{
				URL:    "https://www.tiktok.com/@u/video/1",
				UserID: "user-1",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(handle.Job.ID).To(Equal("mock-job-id"))
			Expect(handle.Job.Status).To(Equal(types.JobStatusPending))
		})

		It("should surface the server's rejection message", func() {
			_, err := c.ProcessVideo(types.ProcessRequest{
				URL:    "https://www.instagram.com/someuser/",
				UserID: "user-1",
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("not currently supported"))
		})
	})

	Describe("Wait", func() {
		It("should poll until the job is terminal", func() {
			handle, err := c.ProcessVideo(types.ProcessRequest{
				URL:    "https://www.tiktok.com/@u/video/1",
				UserID: "user-1",
			})
			Expect(err).NotTo(HaveOccurred())

			handle.SetDelay(10 * time.Millisecond)
			done, err := handle.Wait()
			Expect(err).NotTo(HaveOccurred())
			Expect(done.Status).To(Equal(types.JobStatusCompleted))
			Expect(done.Result.VideoID).To(Equal("vid-1"))
			Expect(statusHits).To(BeNumerically(">", 2))
		})

		It("should give up after the retry budget", func() {
			handle, err := c.ProcessVideo(types.ProcessRequest{
				URL:    "https://www.tiktok.com/@u/video/other",
				UserID: "user-1",
			})
			Expect(err).NotTo(HaveOccurred())

			// The mock only knows mock-job-id's status path after rewriting
			// the handle's ID, so polling this one always 404s.
			handle.Job.ID = "unknown-id"
			handle.SetMaxRetries(2)
			handle.SetDelay(time.Millisecond)
			_, err = handle.Wait()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("max retries"))
		})
	})

	Describe("Classify", func() {
		It("should return the classification", func() {
			classification, err := c.Classify("https://www.tiktok.com/@u/video/1")
			Expect(err).NotTo(HaveOccurred())
			Expect(classification.Platform).To(Equal(types.PlatformTikTok))
			Expect(classification.IsSupported).To(BeTrue())
		})
	})

	Describe("GetJob", func() {
		It("should report unknown jobs as errors", func() {
			_, err := c.GetJob("nope")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("Job not found"))
		})
	})
})
