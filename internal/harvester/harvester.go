// Package harvester runs one search harvest: fetch results, download thumbnails, derive articles, export.
package harvester

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/khobor-robot/internal/config"
	"github.com/Adda-Baaj/khobor-robot/internal/crawler"
	"github.com/Adda-Baaj/khobor-robot/internal/domain"
	"github.com/Adda-Baaj/khobor-robot/internal/export"
	"github.com/Adda-Baaj/khobor-robot/internal/logger"
	"github.com/Adda-Baaj/khobor-robot/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-robot/pkg/providers"
	"github.com/Adda-Baaj/khobor-robot/pkg/publishers"
)

// Options configures a Harvester. Zero values fall back to the New York Times provider and a NopLogger.
// ThumbnailClient defaults to a crawler.NewThumbnailClient so image downloads stay size-capped.
type Options struct {
	Client          httpclient.Client
	ThumbnailClient httpclient.Client
	Provider        *providers.Provider
	Fetcher         providers.Fetcher
	Publishers      []publishers.Publisher
	OutputDir       string
	Log             logger.Logger
	Now             func() time.Time
}

// Harvester wires the scraper, the article factory and the export sinks together.
type Harvester struct {
	provider   providers.Provider
	fetcher    providers.Fetcher
	downloader *crawler.Downloader
	publishers []publishers.Publisher
	outputDir  string
	log        logger.Logger
	now        func() time.Time
}

// Result summarises a finished run.
type Result struct {
	Articles []domain.Article
	CSVPath  string
}

// New builds a Harvester from opts.
func New(opts Options) *Harvester {
	client := opts.Client
	if client == nil {
		client = providers.DefaultHTTPClient()
	}
	provider := providers.NYTimes()
	if opts.Provider != nil {
		provider = *opts.Provider
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = providers.NewNYTimesFetcher(client)
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "output"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := logger.Ensure(opts.Log)

	return &Harvester{
		provider:   provider,
		fetcher:    fetcher,
		downloader: crawler.NewDownloader(opts.ThumbnailClient, log, outputDir),
		publishers: opts.Publishers,
		outputDir:  outputDir,
		log:        log,
		now:        now,
	}
}

// Run harvests articles for cfg and writes them to {OutputDir}/{cfg.OutputFile()}.csv.
func (h *Harvester) Run(ctx context.Context, cfg config.RunConfig) (Result, error) {
	h.log.InfoObj("harvest started", "harvest_start", map[string]any{
		"provider_id":   h.provider.ID,
		"search_phrase": cfg.SearchPhrase(),
		"sections":      cfg.Sections(),
		"start_date":    cfg.StartDate().Format(time.DateOnly),
		"end_date":      cfg.EndDate().Format(time.DateOnly),
	})

	results, err := h.fetcher.Fetch(ctx, h.provider, providers.Query{
		Phrase:    cfg.SearchPhrase(),
		Sections:  cfg.Sections(),
		StartDate: cfg.StartDate(),
		EndDate:   cfg.EndDate(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("fetch search results: %w", err)
	}
	h.log.InfoObj("search results fetched", "harvest_fetched", map[string]any{
		"provider_id": h.provider.ID,
		"results":     len(results),
	})

	raws := h.downloader.Download(ctx, h.provider, results)
	articles := domain.NewArticles(raws, cfg.SearchPhrase())

	path, err := export.WriteCSV(h.outputDir, cfg.OutputFile(), articles)
	if err != nil {
		return Result{}, fmt.Errorf("export articles: %w", err)
	}
	h.log.InfoObj("articles exported", "harvest_exported", map[string]any{
		"file":     path,
		"articles": len(articles),
	})

	res := Result{Articles: articles, CSVPath: path}

	if len(h.publishers) > 0 {
		events := publishers.NewEvents(publishers.RunInfo{
			ProviderID:   h.provider.ID,
			SearchPhrase: cfg.SearchPhrase(),
			StartDate:    cfg.StartDate(),
			EndDate:      cfg.EndDate(),
			HarvestedAt:  h.now().UTC(),
		}, articles)
		if err := publishers.Dispatch(ctx, h.publishers, events, h.log); err != nil {
			return res, fmt.Errorf("publish articles: %w", err)
		}
	}

	return res, nil
}
