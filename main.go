package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"gallery-scraper/config"
	"gallery-scraper/scraper/gallery"
	"gallery-scraper/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.Verbose)

	logger.Info("=== Gallery Scraping System starting ===")
	logger.Info("Config — gallery: %s | pages: %d | delay: %dms | cap: %d | keep: %dd",
		cfg.GalleryID, cfg.CrawlPages, cfg.CrawlDelayMs, cfg.MaxPosts, cfg.ImageKeepDays)

	crawler := gallery.New(cfg, logger)

	runOnce := func() {
		posts, err := crawler.Crawl(context.Background())
		if err != nil {
			logger.Error("Crawl aborted: %v", err)
		}
		logger.Info("Run finished — %d post(s) collected", len(posts))
	}

	if cfg.CrawlSchedule == "" {
		runOnce()
		return
	}

	// Scheduled mode: run on the configured cron spec until interrupted.
	c := cron.New()
	if _, err := c.AddFunc(cfg.CrawlSchedule, runOnce); err != nil {
		logger.Error("Invalid CRAWL_SCHEDULE %q: %v", cfg.CrawlSchedule, err)
		os.Exit(1)
	}
	c.Start()
	logger.Info("Scheduler started — spec: %s", cfg.CrawlSchedule)

	// Initial pass on startup, then hand over to the scheduler.
	runOnce()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx := c.Stop()
	<-ctx.Done()
	logger.Info("Scheduler stopped")
}
