package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"gallery-scraper/config"
	"gallery-scraper/utils"
)

// The origin host returns 403 for hotlinked image fetches unless the request
// looks like a browser coming from the post itself.
const imageUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const bucketLayout = "2006-01-02"

// defaultExt is used when the URL's extension is not a known image type.
const defaultExt = "jpg"

// ImageDownloader fetches embedded post images into date-bucketed storage.
// Buckets are keyed by download date (UTC) so retention sweeps have a single
// comparable key.
type ImageDownloader struct {
	cfg    *config.Config
	logger *utils.Logger
	client *http.Client
}

// NewImageDownloader creates an ImageDownloader.
func NewImageDownloader(cfg *config.Config, logger *utils.Logger) *ImageDownloader {
	return &ImageDownloader{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Download fetches one image and writes it under today's bucket as
// {post_id}_{NN}.{ext}. The returned path is relative to the image root.
// Failures are logged with the URL and returned as errors; the caller skips
// the image and moves on.
func (d *ImageDownloader) Download(ctx context.Context, imageURL, postID string, index int) (string, error) {
	bucket := time.Now().UTC().Format(bucketLayout)
	dir := filepath.Join(d.cfg.ImageDir, bucket)
	if err := os.MkdirAll(dir, 0755); err != nil {
		d.logger.Warn("[images] Create bucket for %s: %v", imageURL, err)
		return "", fmt.Errorf("create bucket %s: %w", dir, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		d.logger.Warn("[images] Bad URL %s: %v", imageURL, err)
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", imageUserAgent)
	req.Header.Set("Referer", d.cfg.ViewURL(postID))

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("[images] Fetch %s: %v", imageURL, err)
		return "", fmt.Errorf("get %s: %w", imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.logger.Warn("[images] Fetch %s: status %d", imageURL, resp.StatusCode)
		return "", fmt.Errorf("get %s: unexpected status %d", imageURL, resp.StatusCode)
	}

	name := fmt.Sprintf("%s_%02d.%s", postID, index, imageExt(imageURL))
	fullPath := filepath.Join(dir, name)

	f, err := os.Create(fullPath)
	if err != nil {
		d.logger.Warn("[images] Create file for %s: %v", imageURL, err)
		return "", fmt.Errorf("create %s: %w", fullPath, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(fullPath)
		d.logger.Warn("[images] Write %s: %v", imageURL, err)
		return "", fmt.Errorf("write %s: %w", fullPath, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", fullPath, err)
	}

	local := filepath.Join(bucket, name)
	d.logger.Debug("[images] Saved %s -> %s", imageURL, local)
	return local, nil
}

// imageExt derives a file extension from the URL's final path segment,
// ignoring any query string. Unknown extensions fall back to the default.
func imageExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultExt
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(path.Base(u.Path)), "."))
	switch ext {
	case "jpg", "jpeg", "png", "gif", "webp":
		return ext
	}
	return defaultExt
}
