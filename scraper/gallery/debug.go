package gallery

import (
	"os"
	"path/filepath"

	"gallery-scraper/utils"
)

// saveDebugHTML writes a raw HTML snapshot into the debug directory. A blank
// directory disables snapshots; write failures are only worth a warning.
func saveDebugHTML(dir, name string, body []byte, logger *utils.Logger) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Warn("[debug] Create dir %s: %v", dir, err)
		return
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, body, 0644); err != nil {
		logger.Warn("[debug] Write snapshot %s: %v", path, err)
		return
	}
	logger.Debug("[debug] Snapshot saved: %s", path)
}
