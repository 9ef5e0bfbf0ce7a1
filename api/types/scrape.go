package types

import "encoding/json"

// ScrapeResult is what the unified scraper resolves a platform URL into:
// a direct, time-limited media URL plus whatever metadata the platform
// exposes. RawData preserves the upstream response untouched.
type ScrapeResult struct {
	Platform     Platform         `json:"platform"`
	Author       string           `json:"author,omitempty"`
	VideoURL     string           `json:"videoUrl,omitempty"`
	ThumbnailURL string           `json:"thumbnailUrl,omitempty"`
	Title        string           `json:"title,omitempty"`
	Description  string           `json:"description,omitempty"`
	Hashtags     []string         `json:"hashtags,omitempty"`
	Metrics      map[string]int64 `json:"metrics,omitempty"`
	Metadata     map[string]any   `json:"metadata,omitempty"`
	RawData      json.RawMessage  `json:"rawData,omitempty"`
}

// IngestRequest is the payload sent to the collection ingestion API.
// Field names follow the ingestion service's JSON contract.
type IngestRequest struct {
	VideoURL     string        `json:"videoUrl"`
	CollectionID string        `json:"collectionId,omitempty"`
	UserID       string        `json:"userId"`
	ScrapedData  *ScrapeResult `json:"scrapedData,omitempty"`
	ThumbnailURL string        `json:"thumbnailUrl,omitempty"`
}

// IngestedVideo is the persisted video reference returned by the
// ingestion API.
type IngestedVideo struct {
	ID string `json:"id"`
}

// IngestResponse is the ingestion API's reply.
type IngestResponse struct {
	Success bool           `json:"success"`
	Video   *IngestedVideo `json:"video,omitempty"`
	Error   string         `json:"error,omitempty"`
}
