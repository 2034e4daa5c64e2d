package models

import "time"

// ListingEntry holds the summary fields parsed from one row of a gallery
// listing page. Entries are produced fresh per page and never stored on
// their own.
type ListingEntry struct {
	PostID    string
	Title     string
	Author    string
	PostedAt  string
	Views     int
	Recommend int
}

// PostDetail holds the full body of a single post. LocalImages contains one
// path per image that actually downloaded, so it may be shorter than
// ImageURLs.
type PostDetail struct {
	PostID      string
	Title       string
	Author      string
	Content     string
	ImageURLs   []string
	LocalImages []string
	Comments    []string
}

// Post is the merged listing+detail record persisted to MongoDB, keyed by
// PostID. Script is written later by the script generator; its absence marks
// a post as not yet processed.
type Post struct {
	PostID      string         `bson:"post_id" json:"post_id"`
	Title       string         `bson:"title" json:"title"`
	Author      string         `bson:"author" json:"author"`
	PostedAt    string         `bson:"posted_at" json:"posted_at"`
	Views       int            `bson:"views" json:"views"`
	Recommend   int            `bson:"recommend" json:"recommend"`
	Content     string         `bson:"content" json:"content"`
	ImageURLs   []string       `bson:"images" json:"images"`
	LocalImages []string       `bson:"local_images" json:"local_images"`
	Comments    []string       `bson:"comments" json:"comments"`
	CrawledAt   time.Time      `bson:"crawled_at" json:"crawled_at"`
	Script      map[string]any `bson:"script,omitempty" json:"script,omitempty"`
}

// Merge combines a listing entry with its detail into a persistable Post.
// Detail fields win for title/author since the listing page truncates them.
func Merge(entry *ListingEntry, detail *PostDetail) *Post {
	p := &Post{
		PostID:      entry.PostID,
		Title:       entry.Title,
		Author:      entry.Author,
		PostedAt:    entry.PostedAt,
		Views:       entry.Views,
		Recommend:   entry.Recommend,
		Content:     detail.Content,
		ImageURLs:   detail.ImageURLs,
		LocalImages: detail.LocalImages,
		Comments:    detail.Comments,
	}
	if detail.Title != "" {
		p.Title = detail.Title
	}
	if detail.Author != "" {
		p.Author = detail.Author
	}
	return p
}
