package providers

import (
	"context"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-robot/internal/domain"
	"github.com/Adda-Baaj/khobor-robot/pkg/httpclient"
)

const (
	nytimesProviderID = "nytimes"
	nytimesBaseURL    = "https://www.nytimes.com"

	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// HTTPClient is the client fetchers use.
type HTTPClient = httpclient.Client

// Provider describes the search site and how to read its result list.
type Provider struct {
	ID             string
	SourceURL      string
	Headers        map[string]string
	RequestDelayMs int
	Selectors      Selectors
}

// Selectors are the CSS selectors used to read one search result.
type Selectors struct {
	Result      string
	Title       string
	Description string
	Date        string
	Thumbnail   string
	Section     string
}

// RequestDelay returns the minimum spacing between requests.
func (p Provider) RequestDelay() time.Duration {
	if p.RequestDelayMs <= 0 {
		return 0
	}
	return time.Duration(p.RequestDelayMs) * time.Millisecond
}

// NYTimes returns the built-in New York Times search provider.
func NYTimes() Provider {
	return Provider{
		ID:             nytimesProviderID,
		SourceURL:      nytimesBaseURL,
		RequestDelayMs: 250,
		Selectors: Selectors{
			Result:      `li[data-testid="search-bodega-result"]`,
			Title:       "h4",
			Description: "p.css-16nhkrn",
			Date:        `span[data-testid="todays-date"], span.css-17ubb9w`,
			Thumbnail:   "img",
			Section:     "p.css-myxawk",
		},
	}
}

// Query is one search request.
type Query struct {
	Phrase    string
	Sections  []string
	StartDate time.Time
	EndDate   time.Time
}

// Result pairs a raw article with the thumbnail URL found for it, if any.
type Result struct {
	Article      domain.RawArticle
	ThumbnailURL string
}

// Fetcher retrieves raw search results for a query.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider, q Query) ([]Result, error)
}

// Headers merges the provider's headers over the defaults.
func Headers(cfg Provider) map[string]string {
	headers := map[string]string{
		"User-Agent":      defaultUserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}
	for k, v := range cfg.Headers {
		if k = strings.TrimSpace(k); k != "" {
			headers[k] = strings.TrimSpace(v)
		}
	}
	return headers
}

// DefaultHTTPClient returns a tuned client for provider fetchers.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }
