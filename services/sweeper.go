package services

import (
	"os"
	"path/filepath"
	"time"

	"gallery-scraper/config"
	"gallery-scraper/utils"
)

// Sweeper deletes date-bucketed image directories once they fall outside the
// retention window. It runs before any fetching so a long crawl does not sit
// on top of stale data.
type Sweeper struct {
	cfg    *config.Config
	logger *utils.Logger
}

// NewSweeper creates a Sweeper.
func NewSweeper(cfg *config.Config, logger *utils.Logger) *Sweeper {
	return &Sweeper{cfg: cfg, logger: logger}
}

// CleanupOldImages removes every bucket strictly older than now minus
// keepDays, comparing at date granularity. A bucket dated exactly keepDays
// ago survives. keepDays of zero disables the sweep, and a missing image
// root is not an error. Returns the number of buckets deleted.
func (s *Sweeper) CleanupOldImages(keepDays int) int {
	if keepDays <= 0 {
		return 0
	}

	entries, err := os.ReadDir(s.cfg.ImageDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("[sweeper] Read image root %s: %v", s.cfg.ImageDir, err)
		}
		return 0
	}

	now := time.Now().UTC()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -keepDays)

	deleted := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		// Non-date directories under the root are not ours to touch.
		bucket, err := time.Parse(bucketLayout, entry.Name())
		if err != nil {
			continue
		}

		if !bucket.Before(cutoff) {
			continue
		}

		dir := filepath.Join(s.cfg.ImageDir, entry.Name())
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("[sweeper] Remove %s: %v", dir, err)
			continue
		}
		s.logger.Debug("[sweeper] Removed expired bucket %s", entry.Name())
		deleted++
	}

	if deleted > 0 {
		s.logger.Info("[sweeper] Removed %d expired image bucket(s)", deleted)
	}
	return deleted
}
