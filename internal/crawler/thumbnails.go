package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/khobor-robot/internal/domain"
	"github.com/Adda-Baaj/khobor-robot/internal/logger"
	"github.com/Adda-Baaj/khobor-robot/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-robot/pkg/providers"
)

const (
	maxThumbnailBytes   = 10 << 20 // 10 MiB
	maxThumbnailWorkers = 10
)

// Downloader stores search result thumbnails on disk.
type Downloader struct {
	client httpclient.Client
	log    logger.Logger
	dir    string
}

// NewThumbnailClient returns an HTTP client that aborts thumbnail responses larger than the size cap
// while reading them.
func NewThumbnailClient(timeout time.Duration) httpclient.Client {
	return httpclient.NewRestyClient(timeout, httpclient.WithResponseBodyLimit(maxThumbnailBytes))
}

// NewDownloader creates a Downloader writing into dir. A nil client gets NewThumbnailClient.
func NewDownloader(client httpclient.Client, log logger.Logger, dir string) *Downloader {
	if client == nil {
		client = NewThumbnailClient(15 * time.Second)
	}
	return &Downloader{client: client, log: logger.Ensure(log), dir: dir}
}

// Download fetches every result's thumbnail and returns the raw articles with Thumbnail set to the stored
// filename. Failed or missing thumbnails stay absent.
func (d *Downloader) Download(ctx context.Context, cfg providers.Provider, results []providers.Result) []domain.RawArticle {
	out := make([]domain.RawArticle, len(results))
	for i, r := range results {
		out[i] = r.Article
	}

	if len(results) == 0 {
		return out
	}

	workerCount := min(len(results), maxThumbnailWorkers)

	var limiter <-chan time.Time
	if delay := cfg.RequestDelay(); delay > 0 {
		ticker := time.NewTicker(delay)
		limiter = ticker.C
		defer ticker.Stop()
	}

	jobCh := make(chan int)
	var wg sync.WaitGroup

	for workerID := 0; workerID < workerCount; workerID++ {
		wg.Add(1)
		go d.worker(ctx, cfg, results, limiter, jobCh, out, &wg, workerID)
	}

	for idx, r := range results {
		if ctx.Err() != nil {
			break
		}
		if r.ThumbnailURL == "" {
			continue
		}
		jobCh <- idx
	}
	close(jobCh)

	wg.Wait()

	return out
}

// worker downloads thumbnails from the job channel, respecting the rate limiter.
func (d *Downloader) worker(
	ctx context.Context,
	cfg providers.Provider,
	results []providers.Result,
	limiter <-chan time.Time,
	jobCh <-chan int,
	out []domain.RawArticle,
	wg *sync.WaitGroup,
	workerID int,
) {
	defer wg.Done()

	for idx := range jobCh {
		if ctx.Err() != nil {
			continue
		}

		if limiter != nil {
			select {
			case <-ctx.Done():
				continue
			case <-limiter:
			}
		}

		src := results[idx].ThumbnailURL
		name, err := d.fetchAndStore(ctx, cfg, src)
		if err != nil {
			d.log.WarnObj("thumbnail download failed", "thumbnail_error", map[string]any{
				"worker_id":   workerID,
				"provider_id": cfg.ID,
				"url":         src,
				"error":       err.Error(),
			})
			continue
		}
		out[idx].Thumbnail = domain.Text(name)
	}
}

// fetchAndStore downloads one image and writes it under the output directory.
func (d *Downloader) fetchAndStore(ctx context.Context, cfg providers.Provider, src string) (string, error) {
	imageURL := stripQuery(src)
	name := ThumbnailFilename(imageURL)

	d.log.DebugObj("downloading thumbnail", "thumbnail_start", map[string]any{
		"provider_id": cfg.ID,
		"url":         imageURL,
		"file":        name,
	})

	resp, err := d.client.Get(ctx, imageURL, providers.Headers(cfg))
	if err != nil {
		return "", fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("status %d body: %s", resp.StatusCode(), providers.ResponseSnippet(resp.Body()))
	}

	body := resp.Body()
	if len(body) > maxThumbnailBytes {
		return "", fmt.Errorf("thumbnail is %d bytes, limit %d", len(body), maxThumbnailBytes)
	}

	if err := os.WriteFile(filepath.Join(d.dir, name), body, 0o644); err != nil {
		return "", fmt.Errorf("write thumbnail: %w", err)
	}
	return name, nil
}

// stripQuery drops the query string and fragment from a URL.
func stripQuery(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}

// ThumbnailFilename returns the last path segment of the image URL, or a hash-based name when there is none.
func ThumbnailFilename(imageURL string) string {
	if parsed, err := url.Parse(imageURL); err == nil {
		if base := path.Base(parsed.Path); base != "" && base != "/" && base != "." && base != ".." {
			return base
		}
	}
	return providers.HashURL(imageURL) + ".jpg"
}
