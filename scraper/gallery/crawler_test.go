package gallery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"gallery-scraper/config"
	"gallery-scraper/models"
	"gallery-scraper/utils"
)

type recordingStore struct {
	saved [][]*models.Post
	err   error
}

func (r *recordingStore) SavePosts(ctx context.Context, posts []*models.Post) (int, error) {
	r.saved = append(r.saved, posts)
	if r.err != nil {
		return 0, r.err
	}
	return len(posts), nil
}

type countingSweeper struct {
	calls    int
	keepDays int
}

func (s *countingSweeper) CleanupOldImages(keepDays int) int {
	s.calls++
	s.keepDays = keepDays
	return 0
}

func crawlFixtureServer(t *testing.T, entries int, detailHits *int64) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/mgallery/board/lists", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><table><tbody>`)
		for i := 1; i <= entries; i++ {
			fmt.Fprintf(w, `<tr class="ub-content">
				<td class="gall_num">%d</td>
				<td class="gall_tit"><a href="#">Post %d</a></td>
				<td class="gall_writer" data-nick="writer%d"></td>
				<td class="gall_date" title="2025-08-31 0%d:00:00">08.31</td>
				<td class="gall_count">%d</td>
				<td class="gall_recommend">%d</td>
			</tr>`, 200+i, i, i, i, i*10, i)
		}
		fmt.Fprint(w, `</tbody></table></body></html>`)
	})
	mux.HandleFunc("/mgallery/board/view/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(detailHits, 1)
		no := r.URL.Query().Get("no")
		fmt.Fprintf(w, `<html><body>
			<span class="title_subject">Detail of %s</span>
			<div class="gall_writer" data-nick="writer"></div>
			<div class="write_div"><p>body of %s</p></div>
		</body></html>`, no, no)
	})

	return httptest.NewServer(mux)
}

func newTestCrawler(cfg *config.Config, store *recordingStore, sweeper *countingSweeper) *Crawler {
	logger := utils.NewLogger(false)
	return &Crawler{
		cfg:     cfg,
		logger:  logger,
		list:    NewListFetcher(cfg, logger),
		detail:  NewDetailFetcher(cfg, logger, stubComments{comments: []string{"ok"}}, nil),
		sweeper: sweeper,
		store:   store,
		pacer:   utils.NewPacer(0),
	}
}

func TestCrawlRespectsMaxPosts(t *testing.T) {
	var detailHits int64
	srv := crawlFixtureServer(t, 5, &detailHits)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.CrawlPages = 1
	cfg.MaxPosts = 2
	cfg.RecommendOnly = true
	cfg.SaveToDB = true
	cfg.ImageKeepDays = 7

	store := &recordingStore{}
	sweeper := &countingSweeper{}

	posts, err := newTestCrawler(cfg, store, sweeper).Crawl(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("collected: got %d, want 2", len(posts))
	}
	if got := atomic.LoadInt64(&detailHits); got != 2 {
		t.Errorf("detail fetches after cap: got %d, want 2", got)
	}

	// Merged records carry both listing and detail fields.
	first := posts[0]
	if first.PostID != "201" {
		t.Errorf("first post id: got %q, want 201", first.PostID)
	}
	if first.Views != 10 || first.Recommend != 1 {
		t.Errorf("listing fields lost: views=%d recommend=%d", first.Views, first.Recommend)
	}
	if first.Content != "body of 201" {
		t.Errorf("detail content: got %q", first.Content)
	}
	if first.Title != "Detail of 201" {
		t.Errorf("detail title should win: got %q", first.Title)
	}
	if len(first.Comments) != 1 {
		t.Errorf("comments lost in merge: %v", first.Comments)
	}

	if len(store.saved) != 1 || len(store.saved[0]) != 2 {
		t.Fatalf("store: got %d call(s), want one call with 2 posts", len(store.saved))
	}
	if sweeper.calls != 1 || sweeper.keepDays != 7 {
		t.Errorf("sweeper: calls=%d keepDays=%d, want 1/7", sweeper.calls, sweeper.keepDays)
	}
}

func TestCrawlWithoutPersistence(t *testing.T) {
	var detailHits int64
	srv := crawlFixtureServer(t, 3, &detailHits)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.CrawlPages = 1
	cfg.SaveToDB = false

	store := &recordingStore{}
	posts, err := newTestCrawler(cfg, store, &countingSweeper{}).Crawl(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 3 {
		t.Errorf("collected: got %d, want 3", len(posts))
	}
	if len(store.saved) != 0 {
		t.Errorf("store should not have been called, got %d call(s)", len(store.saved))
	}
}

func TestCrawlReturnsBatchWhenSaveFails(t *testing.T) {
	var detailHits int64
	srv := crawlFixtureServer(t, 2, &detailHits)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.CrawlPages = 1
	cfg.SaveToDB = true

	store := &recordingStore{err: fmt.Errorf("store unreachable")}
	posts, err := newTestCrawler(cfg, store, &countingSweeper{}).Crawl(context.Background())
	if err != nil {
		t.Fatalf("save failure must not fail the crawl: %v", err)
	}
	if len(posts) != 2 {
		t.Errorf("collected despite save failure: got %d, want 2", len(posts))
	}
}

func TestCrawlDeduplicatesAcrossPages(t *testing.T) {
	var detailHits int64
	srv := crawlFixtureServer(t, 2, &detailHits)
	defer srv.Close()

	// Two pages of the same fixture: the second page repeats both posts.
	cfg := testConfig(srv.URL)
	cfg.CrawlPages = 2
	cfg.SaveToDB = false

	posts, err := newTestCrawler(cfg, &recordingStore{}, &countingSweeper{}).Crawl(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 2 {
		t.Errorf("collected: got %d, want 2 unique posts", len(posts))
	}
	if got := atomic.LoadInt64(&detailHits); got != 2 {
		t.Errorf("detail fetches: got %d, want 2", got)
	}
}

func TestCrawlRecollectsOnLaterRuns(t *testing.T) {
	var detailHits int64
	srv := crawlFixtureServer(t, 2, &detailHits)
	defer srv.Close()

	// Scheduled mode reuses one Crawler for every run; each run must still
	// re-fetch known posts so their stored records get refreshed.
	cfg := testConfig(srv.URL)
	cfg.CrawlPages = 1
	cfg.SaveToDB = true

	store := &recordingStore{}
	c := newTestCrawler(cfg, store, &countingSweeper{})

	for run := 1; run <= 2; run++ {
		posts, err := c.Crawl(context.Background())
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", run, err)
		}
		if len(posts) != 2 {
			t.Fatalf("run %d: collected %d post(s), want 2", run, len(posts))
		}
	}

	if got := atomic.LoadInt64(&detailHits); got != 4 {
		t.Errorf("detail fetches across two runs: got %d, want 4", got)
	}
	if len(store.saved) != 2 || len(store.saved[1]) != 2 {
		t.Fatalf("store: got %d call(s), want 2 calls with 2 posts each", len(store.saved))
	}
}

func TestCrawlSkipsFailedDetails(t *testing.T) {
	var listHits int64
	mux := http.NewServeMux()
	mux.HandleFunc("/mgallery/board/lists", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&listHits, 1)
		fmt.Fprint(w, `<html><body><table><tbody>
			<tr class="ub-content"><td class="gall_num">301</td><td class="gall_tit"><a>ok</a></td></tr>
			<tr class="ub-content"><td class="gall_num">302</td><td class="gall_tit"><a>gone</a></td></tr>
		</tbody></table></body></html>`)
	})
	mux.HandleFunc("/mgallery/board/view/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("no") == "302" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `<html><body><span class="title_subject">ok</span>
			<div class="write_div"><p>fine</p></div></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.CrawlPages = 1
	cfg.SaveToDB = false

	posts, err := newTestCrawler(cfg, &recordingStore{}, &countingSweeper{}).Crawl(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("collected: got %d, want 1 (failed detail dropped)", len(posts))
	}
	if posts[0].PostID != "301" {
		t.Errorf("surviving post: got %q, want 301", posts[0].PostID)
	}
}
