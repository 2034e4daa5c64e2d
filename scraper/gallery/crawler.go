package gallery

import (
	"context"
	"time"

	"gallery-scraper/config"
	"gallery-scraper/models"
	"gallery-scraper/services"
	"gallery-scraper/storage"
	"gallery-scraper/utils"
)

// RetentionSweeper removes expired image buckets before a crawl starts.
// Implemented by services.Sweeper.
type RetentionSweeper interface {
	CleanupOldImages(keepDays int) int
}

// Crawler sequences one acquisition run: sweep, then page by page list and
// fetch details, then persist the merged batch. Everything runs sequentially
// with a minimum interval between requests.
type Crawler struct {
	cfg     *config.Config
	logger  *utils.Logger
	list    *ListFetcher
	detail  *DetailFetcher
	sweeper RetentionSweeper
	store   storage.PostStore
	pacer   *utils.Pacer
}

// New creates a Crawler wired with the production components: rendered
// comment extraction, date-bucketed image download, and Mongo persistence.
func New(cfg *config.Config, logger *utils.Logger) *Crawler {
	comments := NewRenderedExtractor(cfg, logger)
	images := services.NewImageDownloader(cfg, logger)

	return &Crawler{
		cfg:     cfg,
		logger:  logger,
		list:    NewListFetcher(cfg, logger),
		detail:  NewDetailFetcher(cfg, logger, comments, images),
		sweeper: services.NewSweeper(cfg, logger),
		store:   storage.NewMongoStore(cfg.MongoURI, cfg.MongoDBName, logger),
		pacer:   utils.NewPacer(time.Duration(cfg.CrawlDelayMs) * time.Millisecond),
	}
}

// Crawl runs one full acquisition pass and returns every merged record it
// collected, whether or not persistence succeeded. An entry whose detail
// fetch fails is dropped silently; a failed save is logged and the in-memory
// batch is still returned. Only context cancellation stops the run early.
func (c *Crawler) Crawl(ctx context.Context) ([]*models.Post, error) {
	c.logger.Info("[crawler] Starting crawl — pages: %d | delay: %dms | cap: %d",
		c.cfg.CrawlPages, c.cfg.CrawlDelayMs, c.cfg.MaxPosts)

	c.sweeper.CleanupOldImages(c.cfg.ImageKeepDays)

	// Scoped to this invocation: a post featured on several pages is fetched
	// once per run, but later runs must re-encounter it to refresh its record.
	seen := utils.NewIDSet()

	var collected []*models.Post

	for page := 1; page <= c.cfg.CrawlPages; page++ {
		entries := c.list.FetchListing(ctx, page, c.cfg.RecommendOnly)

		for _, entry := range entries {
			if c.capReached(len(collected)) {
				break
			}
			if !seen.Add(entry.PostID) {
				c.logger.Debug("[crawler] Skipping duplicate post %s", entry.PostID)
				continue
			}

			if err := c.pacer.Wait(ctx); err != nil {
				return collected, err
			}

			detail := c.detail.FetchDetail(ctx, entry.PostID, c.cfg.DownloadImages)
			if detail == nil {
				continue
			}

			collected = append(collected, models.Merge(entry, detail))
		}

		if c.capReached(len(collected)) {
			c.logger.Info("[crawler] Post cap %d reached, stopping", c.cfg.MaxPosts)
			break
		}

		if err := c.pacer.Wait(ctx); err != nil {
			return collected, err
		}
	}

	c.logger.Info("[crawler] Crawl complete — %d post(s) collected", len(collected))

	if c.cfg.SaveToDB {
		saved, err := c.store.SavePosts(ctx, collected)
		if err != nil {
			c.logger.Error("[crawler] Persist failed: %v", err)
		} else {
			c.logger.Info("[crawler] Persisted %d post(s)", saved)
		}
	}

	return collected, nil
}

func (c *Crawler) capReached(n int) bool {
	return c.cfg.MaxPosts > 0 && n >= c.cfg.MaxPosts
}
