package types

import "fmt"

// ErrorKind tags a processing failure so the user-facing message can be
// derived from the tag instead of substring-matching error text.
type ErrorKind string

const (
	ErrKindScrapeFailed       ErrorKind = "scrape_failed"
	ErrKindNoMediaURL         ErrorKind = "no_media_url"
	ErrKindIngestFailed       ErrorKind = "ingest_failed"
	ErrKindUnsupportedSubtype ErrorKind = "unsupported_subtype"
	ErrKindInternal           ErrorKind = "internal"
)

// ProcessingError is the tagged failure type produced by the scraper and
// ingestion collaborators.
type ProcessingError struct {
	Kind     ErrorKind
	Platform Platform
	Subtype  string
	Detail   string
}

func (e *ProcessingError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return string(e.Kind)
}

// UserMessage renders the human-readable string stored on a failed job.
func (e *ProcessingError) UserMessage() string {
	switch e.Kind {
	case ErrKindUnsupportedSubtype:
		if e.Platform == PlatformInstagram && e.Subtype == "post" {
			return "Instagram posts are not supported yet. Please use a reel URL instead."
		}
		if label := platformLabel(e.Platform); label != "" && e.Subtype != "" {
			return fmt.Sprintf("%s %s URLs are not supported yet", label, e.Subtype)
		}
		return "This URL type is not supported yet"
	case ErrKindNoMediaURL:
		if label := platformLabel(e.Platform); label != "" {
			return fmt.Sprintf("No download URL available for this %s video", label)
		}
		return "No download URL available for this video"
	case ErrKindScrapeFailed:
		if e.Detail != "" {
			return fmt.Sprintf("Failed to scrape video data: %s", e.Detail)
		}
		return "Failed to scrape video data"
	case ErrKindIngestFailed:
		if e.Detail != "" {
			return e.Detail
		}
		return "Failed to add video to collection"
	default:
		return "Processing failed. Please try again."
	}
}

func platformLabel(p Platform) string {
	switch p {
	case PlatformTikTok:
		return "TikTok"
	case PlatformInstagram:
		return "Instagram"
	case PlatformYouTube:
		return "YouTube"
	}
	return ""
}
