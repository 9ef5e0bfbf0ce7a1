package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/reelforge/ingest-worker/api/types"
	"github.com/reelforge/ingest-worker/internal/queue"
	"github.com/reelforge/ingest-worker/internal/stats"
	"github.com/reelforge/ingest-worker/internal/urldetect"
)

// process classifies the submitted URL and, when supported, enqueues a
// processing job. Unsupported or unrecognized URLs are rejected up front
// with the classifier's message verbatim; they never reach the queue.
func process(q *queue.Queue, st *stats.Collector) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := types.ProcessRequest{}
		if err := c.Bind(&req); err != nil {
			return err
		}
		if req.URL == "" {
			return c.JSON(http.StatusBadRequest, types.JobError{Error: "url is required"})
		}
		if req.UserID == "" {
			return c.JSON(http.StatusBadRequest, types.JobError{Error: "user_id is required"})
		}

		classification := urldetect.Classify(req.URL)
		if !classification.IsSupported {
			st.Add(stats.RejectedURLs, 1)
			logrus.WithFields(logrus.Fields{
				"platform":     classification.Platform,
				"content_type": classification.ContentType,
			}).Debug("Rejected unsupported URL")
			return c.JSON(http.StatusBadRequest, types.JobError{Error: classification.ErrorMessage})
		}

		job := q.AddJob(req.URL, req.UserID, req.CollectionID)
		return c.JSON(http.StatusOK, job)
	}
}

// classify returns the classification as data, supported or not. Useful
// for front-ends that want to validate before submitting.
func classify(st *stats.Collector) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := types.ClassifyRequest{}
		if err := c.Bind(&req); err != nil {
			return err
		}

		classification := urldetect.Classify(req.URL)
		if !classification.IsSupported {
			st.Add(stats.RejectedURLs, 1)
		}
		return c.JSON(http.StatusOK, classification)
	}
}

// status returns the current snapshot of a job, or 404 when the ID is
// unknown (either never existed or already swept).
func status(q *queue.Queue) echo.HandlerFunc {
	return func(c echo.Context) error {
		job, err := q.GetJob(c.Param("job_id"))
		if err != nil {
			return c.JSON(http.StatusNotFound, types.JobError{Error: "Job not found"})
		}
		return c.JSON(http.StatusOK, job)
	}
}

func userJobs(q *queue.Queue) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.QueryParam("user_id")
		if userID == "" {
			return c.JSON(http.StatusBadRequest, types.JobError{Error: "user_id is required"})
		}
		jobs := q.GetUserJobs(userID)
		if jobs == nil {
			jobs = []types.VideoProcessingJob{}
		}
		return c.JSON(http.StatusOK, jobs)
	}
}

func activeJobs(q *queue.Queue) echo.HandlerFunc {
	return func(c echo.Context) error {
		jobs := q.GetActiveJobs()
		if jobs == nil {
			jobs = []types.VideoProcessingJob{}
		}
		return c.JSON(http.StatusOK, jobs)
	}
}

// queueStats merges the queue's aggregate counts with the collector's
// operational counters.
func queueStats(q *queue.Queue, st *stats.Collector) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"queue":    q.GetStats(),
			"counters": st.Snapshot(),
		})
	}
}
