package providers

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Adda-Baaj/khobor-robot/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

const searchDateLayout = "2006-01-02"

// nytimesFetcher reads the New York Times search results page.
type nytimesFetcher struct {
	client HTTPClient
}

// NewNYTimesFetcher builds a fetcher for the New York Times search page.
func NewNYTimesFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &nytimesFetcher{client: client}
}

func (f *nytimesFetcher) ID() string {
	return nytimesProviderID
}

func (f *nytimesFetcher) Fetch(ctx context.Context, cfg Provider, q Query) ([]Result, error) {
	if !strings.EqualFold(cfg.ID, nytimesProviderID) {
		return nil, fmt.Errorf("nytimes fetcher received incompatible provider %q", cfg.ID)
	}

	searchURL, err := SearchURL(cfg, q)
	if err != nil {
		return nil, err
	}

	body, err := fetchPage(ctx, f.client, searchURL, cfg.ID, Headers(cfg))
	if err != nil {
		return nil, err
	}

	return ParseResults(body, cfg, q.Sections)
}

// SearchURL builds the newest-first search URL for the query window.
func SearchURL(cfg Provider, q Query) (string, error) {
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return "", fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}
	base, err := url.Parse(strings.TrimRight(cfg.SourceURL, "/") + "/search")
	if err != nil {
		return "", fmt.Errorf("parse provider %q source_url: %w", cfg.ID, err)
	}

	params := url.Values{}
	params.Set("query", q.Phrase)
	params.Set("sort", "newest")
	if !q.StartDate.IsZero() {
		params.Set("startDate", q.StartDate.Format(searchDateLayout))
	}
	if !q.EndDate.IsZero() {
		params.Set("endDate", q.EndDate.Format(searchDateLayout))
	}
	base.RawQuery = params.Encode()

	return base.String(), nil
}

// ParseResults extracts raw articles from a search results page, keeping only results in the given sections.
func ParseResults(body []byte, cfg Provider, sections []string) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	sel := cfg.Selectors
	wanted := sectionList(sections)

	var results []Result
	doc.Find(sel.Result).Each(func(_ int, item *goquery.Selection) {
		if label, ok := textOf(item, sel.Section); ok && len(wanted) > 0 {
			if !matchesSection(label, wanted) {
				return
			}
		}

		res := Result{
			Article: domain.RawArticle{
				Title:       optional(textOf(item, sel.Title)),
				Date:        optional(textOf(item, sel.Date)),
				Description: optional(textOf(item, sel.Description)),
			},
		}
		if src, ok := attrOf(item, sel.Thumbnail, "src"); ok {
			res.ThumbnailURL = src
		}
		results = append(results, res)
	})

	return results, nil
}

// textOf returns the normalised text of the first match, or false when the element is missing.
func textOf(item *goquery.Selection, selector string) (string, bool) {
	if selector == "" {
		return "", false
	}
	node := item.Find(selector).First()
	if node.Length() == 0 {
		return "", false
	}
	return normalizeSpace(node.Text()), true
}

// attrOf returns a trimmed attribute of the first match, or false when missing or empty.
func attrOf(item *goquery.Selection, selector, attr string) (string, bool) {
	if selector == "" {
		return "", false
	}
	val, ok := item.Find(selector).First().Attr(attr)
	val = strings.TrimSpace(val)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

func optional(s string, ok bool) *string {
	if !ok {
		return nil
	}
	return domain.Text(s)
}

// sectionList lower-cases the non-empty sections. An empty list disables filtering.
func sectionList(sections []string) []string {
	out := make([]string, 0, len(sections))
	for _, s := range sections {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// matchesSection reports whether the result label contains any wanted section, ignoring case.
// "World" keeps "World", "World / Asia Pacific" and "Middle East (World)".
func matchesSection(label string, wanted []string) bool {
	label = strings.ToLower(label)
	for _, s := range wanted {
		if strings.Contains(label, s) {
			return true
		}
	}
	return false
}
