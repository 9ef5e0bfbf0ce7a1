// Package ingest is the client for the collection ingestion API. The queue
// calls it with the worker's internal credential: processing happens
// outside the user's original request lifecycle, so the worker never
// forwards an end-user token.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reelforge/ingest-worker/api/types"
)

const addVideoPath = "/api/internal/videos"

// InternalSecretHeader carries the shared secret identifying this worker.
const InternalSecretHeader = "X-Internal-Secret"

type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

func NewClient(baseURL, internalSecret string) *Client {
	return &Client{
		baseURL: baseURL,
		secret:  internalSecret,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// AddVideo persists a scraped video into the target collection. A non-2xx
// status or a success:false body becomes a typed ingest failure preserving
// the API's own error text.
func (c *Client) AddVideo(ctx context.Context, req types.IngestRequest) (*types.IngestResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &types.ProcessingError{Kind: types.ErrKindIngestFailed, Detail: fmt.Sprintf("marshal ingest request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+addVideoPath, bytes.NewReader(body))
	if err != nil {
		return nil, &types.ProcessingError{Kind: types.ErrKindIngestFailed, Detail: fmt.Sprintf("create ingest request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(InternalSecretHeader, c.secret)

	logrus.WithFields(logrus.Fields{
		"user_id":       req.UserID,
		"collection_id": req.CollectionID,
	}).Debug("Calling ingestion API")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &types.ProcessingError{Kind: types.ErrKindIngestFailed, Detail: fmt.Sprintf("ingestion API request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.ProcessingError{Kind: types.ErrKindIngestFailed, Detail: fmt.Sprintf("read ingestion response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := fmt.Sprintf("ingestion API returned status %d", resp.StatusCode)
		// The API reports errors as {success:false, error} even on non-2xx.
		var ingestResp types.IngestResponse
		if json.Unmarshal(respBody, &ingestResp) == nil && ingestResp.Error != "" {
			detail = ingestResp.Error
		}
		return nil, &types.ProcessingError{Kind: types.ErrKindIngestFailed, Detail: detail}
	}

	var ingestResp types.IngestResponse
	if err := json.Unmarshal(respBody, &ingestResp); err != nil {
		return nil, &types.ProcessingError{Kind: types.ErrKindIngestFailed, Detail: fmt.Sprintf("parse ingestion response: %v", err)}
	}

	if !ingestResp.Success {
		detail := ingestResp.Error
		if detail == "" {
			detail = "ingestion API reported failure"
		}
		return nil, &types.ProcessingError{Kind: types.ErrKindIngestFailed, Detail: detail}
	}

	return &ingestResp, nil
}
