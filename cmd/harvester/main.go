package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adda-Baaj/khobor-robot/internal/config"
	"github.com/Adda-Baaj/khobor-robot/internal/crawler"
	"github.com/Adda-Baaj/khobor-robot/internal/harvester"
	"github.com/Adda-Baaj/khobor-robot/internal/logger"
	"github.com/Adda-Baaj/khobor-robot/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-robot/pkg/publishers"

	"github.com/joho/godotenv"
)

var envFile = flag.String("env-file", ".env", "dotenv file loaded before reading configuration (ignored if missing)")

func main() {
	flag.Parse()

	if err := loadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx))
}

// loadDotEnv loads path into the environment without overriding variables already set.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func run(ctx context.Context) int {
	settings := config.LoadSettings()

	log, err := logger.New(settings.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	client := httpclient.NewRestyClient(settings.HTTPTimeout)

	log.InfoObj("loading config", "config_load", map[string]any{
		"env": settings.Env,
	})
	cfg, err := config.Load(ctx, settings, client, time.Now())
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			log.ErrorObj("invalid configuration", "config_invalid", map[string]any{
				"key":   cfgErr.Key,
				"value": cfgErr.Value,
				"error": err.Error(),
			})
		} else {
			log.ErrorObj("config source unavailable", "config_source_error", map[string]any{
				"error": err.Error(),
			})
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if err := os.MkdirAll(settings.OutputDir, 0o755); err != nil {
		log.ErrorObj("cannot create output directory", "output_dir_error", map[string]any{
			"dir":   settings.OutputDir,
			"error": err.Error(),
		})
		return 1
	}

	var pubs []publishers.Publisher
	if settings.PublishersFile != "" {
		pubs, err = publishers.FromFile(ctx, settings.PublishersFile, log)
		if err != nil {
			log.ErrorObj("cannot build publishers", "publishers_error", map[string]any{
				"file":  settings.PublishersFile,
				"error": err.Error(),
			})
			return 1
		}
	}

	h := harvester.New(harvester.Options{
		Client:          client,
		ThumbnailClient: crawler.NewThumbnailClient(settings.HTTPTimeout),
		Publishers:      pubs,
		OutputDir:       settings.OutputDir,
		Log:             log,
	})

	res, err := h.Run(ctx, cfg)
	if err != nil {
		log.ErrorObj("harvest failed", "harvest_error", map[string]any{
			"error": err.Error(),
		})
		return 1
	}

	log.InfoObj("harvest finished", "harvest_done", map[string]any{
		"articles": len(res.Articles),
		"file":     res.CSVPath,
	})
	return 0
}
