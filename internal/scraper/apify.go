package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
)

const apifyBaseURL = "https://api.apify.com/v2"

// Actor IDs on the Apify platform (internal IDs, not slugs).
const (
	tiktokActorID    = "GdWCkxBtKWOsKjdch" // clockworks/tiktok-scraper
	instagramActorID = "shu8hvrXbJbY3Eb9W" // apify/instagram-scraper
)

// ApifyClient drives the actor run lifecycle: start a run, poll it until
// it reaches a terminal status, then fetch the default dataset.
type ApifyClient struct {
	apiToken string
	baseURL  string
	client   *http.Client
	maxWait  time.Duration
}

func NewApifyClient(apiToken string) *ApifyClient {
	return &ApifyClient{
		apiToken: apiToken,
		baseURL:  apifyBaseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		maxWait:  5 * time.Minute,
	}
}

// RunActor runs the actor against the given input and returns the dataset
// items plus the raw dataset body.
func (c *ApifyClient) RunActor(ctx context.Context, actorID string, input any) ([]map[string]any, json.RawMessage, error) {
	if c.apiToken == "" {
		return nil, nil, fmt.Errorf("apify API token is not configured")
	}

	runID, err := c.startRun(ctx, actorID, input)
	if err != nil {
		return nil, nil, fmt.Errorf("start actor run: %w", err)
	}
	logrus.WithFields(logrus.Fields{"actor_id": actorID, "run_id": runID}).Debug("Started Apify actor run")

	datasetID, err := c.waitForRun(ctx, runID)
	if err != nil {
		return nil, nil, err
	}

	raw, err := c.datasetItems(ctx, datasetID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch dataset items: %w", err)
	}

	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, nil, fmt.Errorf("parse dataset items: %w", err)
	}
	return items, raw, nil
}

func (c *ApifyClient) startRun(ctx context.Context, actorID string, input any) (string, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/acts/%s/runs?token=%s", c.baseURL, actorID, c.apiToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Data.ID, nil
}

// waitForRun polls the run with exponential backoff until it succeeds or
// ends in a terminal failure status. Returns the default dataset ID.
func (c *ApifyClient) waitForRun(ctx context.Context, runID string) (string, error) {
	var datasetID string

	operation := func() error {
		status, dsID, err := c.runStatus(ctx, runID)
		if err != nil {
			return backoff.Permanent(err)
		}
		switch status {
		case "SUCCEEDED":
			datasetID = dsID
			return nil
		case "FAILED", "ABORTED", "TIMED-OUT":
			return backoff.Permanent(fmt.Errorf("actor run ended with status %s", status))
		default:
			return fmt.Errorf("actor run still %s", status)
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 15 * time.Second
	bo.MaxElapsedTime = c.maxWait

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return "", fmt.Errorf("wait for actor run: %w", err)
	}
	return datasetID, nil
}

func (c *ApifyClient) runStatus(ctx context.Context, runID string) (string, string, error) {
	url := fmt.Sprintf("%s/actor-runs/%s?token=%s", c.baseURL, runID, c.apiToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	var status struct {
		Data struct {
			Status           string `json:"status"`
			DefaultDatasetID string `json:"defaultDatasetId"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", "", err
	}
	return status.Data.Status, status.Data.DefaultDatasetID, nil
}

func (c *ApifyClient) datasetItems(ctx context.Context, datasetID string) ([]byte, error) {
	url := fmt.Sprintf("%s/datasets/%s/items?token=%s", c.baseURL, datasetID, c.apiToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}
	return io.ReadAll(resp.Body)
}
