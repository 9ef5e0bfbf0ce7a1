package types

import "time"

// JobStatus is the lifecycle state of a processing job.
// Valid transitions: pending -> processing -> completed | failed.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// VideoResult is the payload attached to a completed job.
type VideoResult struct {
	VideoID      string `json:"video_id"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	VideoURL     string `json:"video_url,omitempty"`
}

// VideoProcessingJob is one unit of asynchronous video-processing work.
// The queue exclusively owns and mutates job state; everything handed to
// callers is a snapshot copy.
type VideoProcessingJob struct {
	ID           string       `json:"id"`
	URL          string       `json:"url"`
	UserID       string       `json:"user_id"`
	CollectionID string       `json:"collection_id,omitempty"`
	Status       JobStatus    `json:"status"`
	Progress     int          `json:"progress"`
	Message      string       `json:"message"`
	StartedAt    time.Time    `json:"started_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	Result       *VideoResult `json:"result,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// QueueStats is an aggregate snapshot of job counts by status.
type QueueStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// ProcessRequest is the body of POST /video/process.
type ProcessRequest struct {
	URL          string `json:"url"`
	UserID       string `json:"user_id"`
	CollectionID string `json:"collection_id,omitempty"`
}

// ClassifyRequest is the body of POST /video/classify.
type ClassifyRequest struct {
	URL string `json:"url"`
}

// JobError is the error envelope returned by the HTTP API.
type JobError struct {
	Error string `json:"error"`
}
