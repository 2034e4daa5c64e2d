package storage

import (
	"context"

	"gallery-scraper/models"
)

// PostStore is the interface any post persistence backend must satisfy.
// SavePosts upserts by post id and returns how many documents were inserted
// or actually changed.
type PostStore interface {
	SavePosts(ctx context.Context, posts []*models.Post) (int, error)
}

// ScriptStore is the storage surface the script generator works against:
// posts without a script sub-document are the ones still waiting for one.
type ScriptStore interface {
	FetchUnscripted(ctx context.Context, limit int64) ([]*models.Post, error)
	SaveScript(ctx context.Context, postID string, script map[string]any) error
}
