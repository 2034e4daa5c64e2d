package gallery

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"gallery-scraper/config"
	"gallery-scraper/models"
	"gallery-scraper/utils"
)

// ListFetcher retrieves and parses gallery listing pages.
type ListFetcher struct {
	cfg    *config.Config
	logger *utils.Logger
	client *http.Client
}

// NewListFetcher creates a ListFetcher with a request-timeout-bounded client.
func NewListFetcher(cfg *config.Config, logger *utils.Logger) *ListFetcher {
	return &ListFetcher{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: requestTimeout},
	}
}

// FetchListing retrieves one listing page and parses its rows into entries.
// When recommendOnly is true the request is restricted to featured posts.
// A failed request or an unparseable page yields an empty slice so the
// caller can move on to the next page.
func (f *ListFetcher) FetchListing(ctx context.Context, page int, recommendOnly bool) []*models.ListingEntry {
	params := url.Values{}
	params.Set("id", f.cfg.GalleryID)
	params.Set("page", strconv.Itoa(page))
	if recommendOnly {
		params.Set("recommend", "1")
	}

	body, err := fetchHTML(ctx, f.client, f.cfg.ListURL()+"?"+params.Encode())
	if err != nil {
		f.logger.Error("[list] Page %d request failed: %v", page, err)
		return nil
	}

	saveDebugHTML(f.cfg.DebugDir, fmt.Sprintf("listing_p%d.html", page), body, f.logger)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		f.logger.Error("[list] Page %d parse failed: %v", page, err)
		return nil
	}

	var entries []*models.ListingEntry
	doc.Find(selListRow).Each(func(_ int, row *goquery.Selection) {
		entry, ok := f.parseRow(row)
		if !ok {
			return
		}
		entries = append(entries, entry)
	})

	f.logger.Info("[list] Page %d: collected %d entries", page, len(entries))
	return entries
}

// parseRow extracts one listing entry from a table row. Announcement rows and
// rows whose number cell is not a positive integer are skipped; missing
// author/views/recommend fields fall back to defaults rather than failing.
func (f *ListFetcher) parseRow(row *goquery.Selection) (*models.ListingEntry, bool) {
	if row.HasClass("notice") {
		return nil, false
	}

	postID := strings.TrimSpace(row.Find(selListNum).First().Text())
	if !isDigits(postID) {
		return nil, false
	}

	titleSel := row.Find(selListTitle).First()
	if titleSel.Length() == 0 {
		f.logger.Warn("[list] Row %s has no title cell, skipping", postID)
		return nil, false
	}

	author := anonymousAuthor
	if nick, ok := row.Find(selListWriter).First().Attr("data-nick"); ok && nick != "" {
		author = nick
	}

	postedAt, _ := row.Find(selListDate).First().Attr("title")

	return &models.ListingEntry{
		PostID:    postID,
		Title:     strings.TrimSpace(titleSel.Text()),
		Author:    author,
		PostedAt:  postedAt,
		Views:     atoiOrZero(row.Find(selListViews).First().Text()),
		Recommend: atoiOrZero(row.Find(selListRecommend).First().Text()),
	}, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func atoiOrZero(s string) int {
	s = strings.TrimSpace(s)
	if !isDigits(s) {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
