package gallery

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"gallery-scraper/config"
	"gallery-scraper/utils"
)

// CommentExtractor obtains the comment thread of a post. The orchestration
// code depends only on this interface; which strategy backs it is a wiring
// decision.
type CommentExtractor interface {
	Comments(ctx context.Context, postID string) ([]string, error)
}

// StaticExtractor reads comments out of the server-delivered HTML. It only
// sees comments that were rendered server-side, which for this gallery is
// usually none — it exists as the cheap strategy for boards that do inline
// their comments.
type StaticExtractor struct {
	cfg    *config.Config
	client *http.Client
}

// NewStaticExtractor creates a StaticExtractor.
func NewStaticExtractor(cfg *config.Config) *StaticExtractor {
	return &StaticExtractor{
		cfg:    cfg,
		client: &http.Client{Timeout: requestTimeout},
	}
}

// Comments fetches the view page and parses comment text from the raw HTML.
func (e *StaticExtractor) Comments(ctx context.Context, postID string) ([]string, error) {
	body, err := fetchHTML(ctx, e.client, e.cfg.ViewURL(postID))
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse post %s: %w", postID, err)
	}

	var comments []string
	doc.Find("li.ub-content").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		if len(comments) >= maxComments {
			return false
		}
		text := strings.TrimSpace(li.Find(selCommentText).First().Text())
		if text != "" {
			comments = append(comments, text)
		}
		return true
	})
	return comments, nil
}

// RenderedExtractor drives a headless browser to observe the comment widget
// after client-side scripts have populated it. Every call opens a fresh
// browser session; reusing one across posts risks stale page state.
type RenderedExtractor struct {
	cfg    *config.Config
	logger *utils.Logger
}

// NewRenderedExtractor creates a RenderedExtractor.
func NewRenderedExtractor(cfg *config.Config, logger *utils.Logger) *RenderedExtractor {
	return &RenderedExtractor{cfg: cfg, logger: logger}
}

// Comments navigates to the post, waits for the comment container to appear
// in the rendered DOM, then re-parses the rendered page source the same way
// the static path parses raw HTML. The browser session is torn down on every
// exit path.
func (e *RenderedExtractor) Comments(ctx context.Context, postID string) ([]string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if bin := findChromeBinary(e.cfg.ChromeBin); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	runCtx, cancelTimeout := context.WithTimeout(browserCtx,
		commentWaitTimeout+commentSettleDelay+requestTimeout)
	defer cancelTimeout()

	var totalText string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(e.cfg.ViewURL(postID)),
		chromedp.WaitReady(selCommentWrap, chromedp.ByQuery),
		// The widget fills in asynchronously after the container exists;
		// a fixed settle delay is the best signal the page offers.
		chromedp.Sleep(commentSettleDelay),
		chromedp.Text(selCommentTotal, &totalText, chromedp.ByQuery, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("render post %s: %w", postID, err)
	}

	if digitsIn(totalText) == 0 {
		e.logger.Debug("[comments] Post %s reports no comments", postID)
		return nil, nil
	}

	var pageHTML string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("read rendered page for post %s: %w", postID, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse rendered page for post %s: %w", postID, err)
	}

	comments := parseRenderedComments(doc)
	e.logger.Debug("[comments] Post %s: %d comments extracted", postID, len(comments))
	return comments, nil
}

// parseRenderedComments extracts comment text from a rendered page document.
// Sticker-only items are dropped, replies are prefixed with the nesting
// marker, and repeated identical strings are collapsed to the first
// occurrence.
func parseRenderedComments(doc *goquery.Document) []string {
	var comments []string
	seen := make(map[string]struct{})

	doc.Find(selCommentItem).Each(func(_ int, li *goquery.Selection) {
		if li.HasClass(classSticker) || li.Find("."+classSticker).Length() > 0 {
			return
		}

		text := strings.TrimSpace(li.Find(selCommentText).First().Text())
		if text == "" || text == stickerViewLabel {
			return
		}

		if isReply(li) {
			text = replyPrefix + text
		}

		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		comments = append(comments, text)
	})

	return comments
}

// digitsIn parses the first integer out of a string that may carry label
// text around the number ("댓글 6" and "6" both yield 6).
func digitsIn(s string) int {
	digits := strings.Map(func(r rune) rune {
		if r < '0' || r > '9' {
			return -1
		}
		return r
	}, s)
	return atoiOrZero(digits)
}

// isReply reports whether a comment item is a nested reply, either by its
// own class or by sitting inside a reply list.
func isReply(li *goquery.Selection) bool {
	if li.HasClass("reply") {
		return true
	}
	return li.ParentsFiltered("ul.reply_list").Length() > 0
}

// findChromeBinary locates the Chrome/Chromium binary, preferring an
// explicitly configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
