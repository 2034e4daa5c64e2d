package gallery

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"gallery-scraper/config"
	"gallery-scraper/models"
	"gallery-scraper/utils"
)

// ImageDownloader stores one embedded image and returns its storage-relative
// path. Implemented by services.ImageDownloader.
type ImageDownloader interface {
	Download(ctx context.Context, imageURL, postID string, index int) (string, error)
}

// DetailFetcher retrieves a single post's body, embedded images and comments.
type DetailFetcher struct {
	cfg      *config.Config
	logger   *utils.Logger
	client   *http.Client
	comments CommentExtractor
	images   ImageDownloader
}

// NewDetailFetcher creates a DetailFetcher. comments must not be nil; images
// may be nil when image downloading is disabled for the whole run.
func NewDetailFetcher(cfg *config.Config, logger *utils.Logger, comments CommentExtractor, images ImageDownloader) *DetailFetcher {
	return &DetailFetcher{
		cfg:      cfg,
		logger:   logger,
		client:   &http.Client{Timeout: requestTimeout},
		comments: comments,
		images:   images,
	}
}

// FetchDetail retrieves one post's full view page and extracts its fields.
// Returns nil when the request or the parse fails so the orchestrator can
// skip the post and continue.
func (f *DetailFetcher) FetchDetail(ctx context.Context, postID string, downloadImages bool) *models.PostDetail {
	body, err := fetchHTML(ctx, f.client, f.cfg.ViewURL(postID))
	if err != nil {
		f.logger.Error("[detail] Post %s request failed: %v", postID, err)
		return nil
	}

	saveDebugHTML(f.cfg.DebugDir, "post_"+postID+".html", body, f.logger)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		f.logger.Error("[detail] Post %s parse failed: %v", postID, err)
		return nil
	}

	detail := &models.PostDetail{
		PostID: postID,
		Title:  strings.TrimSpace(doc.Find(selDetailTitle).First().Text()),
		Author: anonymousAuthor,
	}
	if nick, ok := doc.Find(selDetailWriter).First().Attr("data-nick"); ok && nick != "" {
		detail.Author = nick
	}

	// Image URLs must be collected before the img nodes are stripped for
	// text extraction; the other order loses one of the two.
	content := doc.Find(selDetailContent).First()
	if content.Length() > 0 {
		content.Find("img").Each(func(_ int, img *goquery.Selection) {
			src, _ := img.Attr("src")
			if strings.HasPrefix(src, "http") {
				detail.ImageURLs = append(detail.ImageURLs, src)
			}
		})
		content.Find("img").Remove()
		detail.Content = nodeText(content)
	}

	if downloadImages && f.images != nil {
		for i, imageURL := range detail.ImageURLs {
			local, err := f.images.Download(ctx, imageURL, postID, i)
			if err != nil {
				f.logger.Warn("[detail] Post %s image %d failed: %v", postID, i, err)
				continue
			}
			detail.LocalImages = append(detail.LocalImages, local)
		}
	}

	comments, err := f.comments.Comments(ctx, postID)
	if err != nil {
		f.logger.Warn("[detail] Post %s comment extraction failed: %v", postID, err)
		comments = nil
	}
	if len(comments) > maxComments {
		comments = comments[:maxComments]
	}
	detail.Comments = comments

	f.logger.Info("[detail] Post %s collected (%d chars, %d images, %d comments)",
		postID, len(detail.Content), len(detail.ImageURLs), len(detail.Comments))
	return detail
}

// nodeText extracts the visible text of a selection, one trimmed line per
// text node, dropping blank runs.
func nodeText(sel *goquery.Selection) string {
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				lines = append(lines, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(lines, "\n")
}
