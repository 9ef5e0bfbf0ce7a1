package client

import (
	"fmt"
	"time"

	"github.com/reelforge/ingest-worker/api/types"
)

// JobHandle wraps a submitted job and polls the worker for its outcome.
type JobHandle struct {
	Job        types.VideoProcessingJob
	maxRetries int
	delay      time.Duration
	client     *Client
}

func (h *JobHandle) SetMaxRetries(maxRetries int) {
	h.maxRetries = maxRetries
}

func (h *JobHandle) SetDelay(delay time.Duration) {
	h.delay = delay
}

// Wait polls the server until the job reaches a terminal state or the
// retry budget runs out. The returned snapshot is the last one observed.
func (h *JobHandle) Wait() (types.VideoProcessingJob, error) {
	var job types.VideoProcessingJob
	var err error

	for retries := 0; retries < h.maxRetries; retries++ {
		job, err = h.client.GetJob(h.Job.ID)
		if err == nil && job.Status.Terminal() {
			return job, nil
		}
		time.Sleep(h.delay)
	}

	if err != nil {
		return job, fmt.Errorf("max retries reached: %w", err)
	}
	return job, fmt.Errorf("max retries reached waiting for job %s", h.Job.ID)
}
