package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"reference-price-updater/internal/config"
	"reference-price-updater/internal/history"
	"reference-price-updater/internal/notify"
	"reference-price-updater/internal/scheduler"
	"reference-price-updater/internal/scrape"
	"reference-price-updater/internal/updater"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Price update aborted", "error", err)
		os.Exit(1)
	}
	slog.Info("Price update job finished")
}

func run(cfg *config.Config) error {
	var tool scrape.Tool
	switch cfg.Tool {
	case config.ToolNative:
		s := scrape.NewScraper()
		// Clean up Playwright resources if the fallback started them
		defer s.Stop()
		tool = &scrape.Native{Scraper: s, Selector: scrape.CardmarketSelector}
	default:
		tool = &scrape.CMScrape{
			Dir:    cfg.CMScrapeDir,
			Repo:   cfg.CMScrapeRepo,
			Python: cfg.PythonBin,
			Pip:    cfg.PipBin,
			Git:    cfg.GitBin,
		}
	}

	var recorder history.Recorder
	switch cfg.HistoryDriver {
	case config.HistoryPostgres, config.HistorySQLite:
		rec, err := history.Open(cfg.HistoryDriver, cfg.HistoryDSN)
		if err != nil {
			slog.Warn("History database unavailable, updates will not be recorded", "error", err)
		} else {
			defer rec.Close()
			recorder = rec
		}
	default:
		recorder = &history.FileRecorder{Dir: cfg.HistoryDir}
	}

	notifier := notify.New(cfg.APIEndpoint, cfg.APIToken, cfg.SigningKey)

	u := updater.New(cfg, tool, recorder, notifier)
	sch := scheduler.New(u, cfg.RunInterval, cfg.JobTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RunInterval > 0 {
		sch.Start(ctx)
		return nil
	}
	return sch.RunOnce(ctx)
}
