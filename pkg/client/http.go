// Package client is a Go client for the ingest-worker HTTP API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reelforge/ingest-worker/api/types"
)

// Client talks to a running ingest-worker instance.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	options    *Options
}

// NewClient creates a new Client instance.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	options, err := NewOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: options.Timeout,
			Transport: &http.Transport{
				MaxConnsPerHost:     options.MaxConnsPerHost,
				MaxIdleConns:        options.MaxIdleConns,
				MaxIdleConnsPerHost: options.MaxIdleConnsPerHost,
				IdleConnTimeout:     options.IdleConnTimeout,
			},
		},
		options: options,
	}, nil
}

func (c *Client) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.options.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.options.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending %s request: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := types.JobError{}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("error: %s", apiErr.Error)
		}
		return fmt.Errorf("error: received status code %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("error unmarshaling response: %w", err)
		}
	}
	return nil
}

// ProcessVideo submits a URL for processing and returns a handle that can
// poll the job to completion.
func (c *Client) ProcessVideo(req types.ProcessRequest) (*JobHandle, error) {
	job := types.VideoProcessingJob{}
	if err := c.do(http.MethodPost, "/video/process", req, &job); err != nil {
		return nil, err
	}
	return &JobHandle{Job: job, client: c, maxRetries: 60, delay: 1 * time.Second}, nil
}

// Classify asks the worker to classify a URL without enqueuing anything.
func (c *Client) Classify(url string) (types.URLClassification, error) {
	classification := types.URLClassification{}
	err := c.do(http.MethodPost, "/video/classify", types.ClassifyRequest{URL: url}, &classification)
	return classification, err
}

// GetJob retrieves the current snapshot of a job.
func (c *Client) GetJob(id string) (types.VideoProcessingJob, error) {
	job := types.VideoProcessingJob{}
	err := c.do(http.MethodGet, "/video/status/"+id, nil, &job)
	return job, err
}

// GetUserJobs returns all jobs for a user, most recent first.
func (c *Client) GetUserJobs(userID string) ([]types.VideoProcessingJob, error) {
	var jobs []types.VideoProcessingJob
	err := c.do(http.MethodGet, "/video/jobs?user_id="+userID, nil, &jobs)
	return jobs, err
}
