// Package scraper implements the unified scraper collaborator: it resolves
// supported platform URLs into direct media URLs plus metadata via Apify
// actors, with an OpenGraph fallback for missing presentation fields.
package scraper

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reelforge/ingest-worker/api/types"
	"github.com/reelforge/ingest-worker/internal/urldetect"
)

// UnifiedScraper routes a URL to the right platform actor based on its
// classification.
type UnifiedScraper struct {
	apify *ApifyClient
	og    *OpenGraphFetcher
}

// NewUnifiedScraper builds a scraper with the given actor-run wait budget.
// A non-positive maxWait keeps the default.
func NewUnifiedScraper(apifyToken string, maxWait time.Duration) *UnifiedScraper {
	apify := NewApifyClient(apifyToken)
	if maxWait > 0 {
		apify.maxWait = maxWait
	}
	return &UnifiedScraper{
		apify: apify,
		og:    NewOpenGraphFetcher(),
	}
}

// Scrape classifies the URL, runs the matching actor and maps the first
// dataset item onto a ScrapeResult. Unsupported classifications surface as
// typed errors rather than actor calls.
func (s *UnifiedScraper) Scrape(ctx context.Context, rawURL string) (*types.ScrapeResult, error) {
	classification := urldetect.Classify(rawURL)
	if !classification.IsSupported {
		switch classification.Platform {
		case types.PlatformUnknown, types.PlatformWeb:
			return nil, &types.ProcessingError{
				Kind:     types.ErrKindScrapeFailed,
				Platform: classification.Platform,
				Detail:   classification.ErrorMessage,
			}
		default:
			return nil, &types.ProcessingError{
				Kind:     types.ErrKindUnsupportedSubtype,
				Platform: classification.Platform,
				Subtype:  classification.ContentType,
			}
		}
	}

	var actorID string
	var input map[string]any
	switch classification.Platform {
	case types.PlatformTikTok:
		actorID = tiktokActorID
		input = map[string]any{
			"postURLs":             []string{rawURL},
			"resultsPerPage":       1,
			"shouldDownloadVideos": true,
		}
	case types.PlatformInstagram:
		actorID = instagramActorID
		input = map[string]any{
			"directUrls":   []string{rawURL},
			"resultsLimit": 1,
		}
	default:
		return nil, &types.ProcessingError{
			Kind:     types.ErrKindUnsupportedSubtype,
			Platform: classification.Platform,
			Subtype:  classification.ContentType,
		}
	}

	items, raw, err := s.apify.RunActor(ctx, actorID, input)
	if err != nil {
		return nil, &types.ProcessingError{
			Kind:     types.ErrKindScrapeFailed,
			Platform: classification.Platform,
			Detail:   err.Error(),
		}
	}
	if len(items) == 0 {
		return nil, &types.ProcessingError{
			Kind:     types.ErrKindScrapeFailed,
			Platform: classification.Platform,
			Detail:   "no results returned from scraper",
		}
	}

	result := resultFromItem(classification.Platform, items[0], raw)

	if result.Title == "" || result.ThumbnailURL == "" {
		if title, image, err := s.og.Fetch(rawURL); err == nil {
			if result.Title == "" {
				result.Title = title
			}
			if result.ThumbnailURL == "" {
				result.ThumbnailURL = image
			}
		} else {
			logrus.WithField("url", rawURL).WithError(err).Debug("OpenGraph enrichment failed")
		}
	}

	return result, nil
}
