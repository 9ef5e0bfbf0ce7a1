package scraper

import (
	"time"

	"github.com/gocolly/colly"
)

const defaultOGUserAgent = "Mozilla/5.0 (Linux; Android 6.0; Nexus 5 Build/MRA58N) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Mobile Safari/537.36"

// OpenGraphFetcher pulls og:title and og:image straight from the page when
// the actor response lacks presentation metadata. Best effort only; callers
// treat failures as "no enrichment".
type OpenGraphFetcher struct {
	userAgent string
	timeout   time.Duration
}

func NewOpenGraphFetcher() *OpenGraphFetcher {
	return &OpenGraphFetcher{
		userAgent: defaultOGUserAgent,
		timeout:   15 * time.Second,
	}
}

// Fetch visits the page and returns the og:title and og:image contents.
func (f *OpenGraphFetcher) Fetch(pageURL string) (title, image string, err error) {
	c := colly.NewCollector(colly.UserAgent(f.userAgent))
	c.SetRequestTimeout(f.timeout)

	c.OnHTML(`meta[property="og:title"]`, func(e *colly.HTMLElement) {
		if title == "" {
			title = e.Attr("content")
		}
	})
	c.OnHTML(`meta[property="og:image"]`, func(e *colly.HTMLElement) {
		if image == "" {
			image = e.Attr("content")
		}
	})

	if err := c.Visit(pageURL); err != nil {
		return "", "", err
	}
	return title, image, nil
}
