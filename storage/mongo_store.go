package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"gallery-scraper/models"
	"gallery-scraper/utils"
)

const collectionPosts = "posts"

// postCollection is the slice of the driver surface the write paths need.
// *mongo.Collection satisfies it; tests substitute a scripted fake to pin
// down the saved-count mapping.
type postCollection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{},
		opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// MongoStore persists merged posts into MongoDB. Each operation opens a
// fresh, ping-verified connection and closes it when done; nothing is pooled
// across calls.
type MongoStore struct {
	uri    string
	dbName string
	logger *utils.Logger
}

// NewMongoStore creates a MongoStore. No connection is made until an
// operation runs.
func NewMongoStore(uri, dbName string, logger *utils.Logger) *MongoStore {
	return &MongoStore{uri: uri, dbName: dbName, logger: logger}
}

func (s *MongoStore) connect(ctx context.Context) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(s.uri).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	s.logger.Debug("[mongo] Connected to %s/%s", s.uri, s.dbName)
	return client, nil
}

// SavePosts upserts every post keyed on post_id, stamping crawled_at first.
// The returned count covers inserts and documents that actually changed; a
// re-upsert with identical values does not count. Empty input returns zero
// without opening a connection. A connection failure is fatal for this call
// only.
func (s *MongoStore) SavePosts(ctx context.Context, posts []*models.Post) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}

	client, err := s.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = client.Disconnect(ctx) }()

	coll := client.Database(s.dbName).Collection(collectionPosts)
	saved := s.upsertAll(ctx, coll, posts)

	s.logger.Info("[mongo] Saved %d/%d posts (db: %s, collection: %s)",
		saved, len(posts), s.dbName, collectionPosts)
	return saved, nil
}

// upsertAll stamps and upserts every post, returning how many were inserted
// or actually changed. A re-upsert whose values match the stored document
// reports zero modifications from the server and is not counted. Per-post
// write errors are logged and skipped.
func (s *MongoStore) upsertAll(ctx context.Context, coll postCollection, posts []*models.Post) int {
	saved := 0
	for _, post := range posts {
		post.CrawledAt = time.Now()

		res, err := coll.UpdateOne(ctx,
			bson.M{"post_id": post.PostID},
			bson.M{"$set": post},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			s.logger.Error("[mongo] Upsert post %s failed: %v", post.PostID, err)
			continue
		}
		if res.UpsertedCount > 0 || res.ModifiedCount > 0 {
			saved++
		}
	}
	return saved
}

// FetchUnscripted returns posts that have no script sub-document yet, most
// recommended first.
func (s *MongoStore) FetchUnscripted(ctx context.Context, limit int64) ([]*models.Post, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Disconnect(ctx) }()

	coll := client.Database(s.dbName).Collection(collectionPosts)

	opts := options.Find().
		SetSort(bson.D{{Key: "recommend", Value: -1}}).
		SetLimit(limit)

	cur, err := coll.Find(ctx, bson.M{"script": bson.M{"$exists": false}}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: find unscripted: %w", err)
	}
	defer cur.Close(ctx)

	var posts []*models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("mongo: decode unscripted: %w", err)
	}

	s.logger.Info("[mongo] %d unscripted post(s) fetched", len(posts))
	return posts, nil
}

// SaveScript attaches the generated script to an existing post. A post id
// that matches nothing is an error so the generator notices dropped work.
func (s *MongoStore) SaveScript(ctx context.Context, postID string, script map[string]any) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(ctx) }()

	coll := client.Database(s.dbName).Collection(collectionPosts)
	if err := s.applyScript(ctx, coll, postID, script); err != nil {
		return err
	}

	s.logger.Info("[mongo] Script saved for post %s", postID)
	return nil
}

// applyScript sets the script sub-document on an existing post. A post id
// that matches nothing is an error so the generator notices dropped work.
func (s *MongoStore) applyScript(ctx context.Context, coll postCollection, postID string, script map[string]any) error {
	res, err := coll.UpdateOne(ctx,
		bson.M{"post_id": postID},
		bson.M{"$set": bson.M{
			"script":              script,
			"script_generated_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("mongo: save script for %s: %w", postID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mongo: save script: post %s not found", postID)
	}
	return nil
}
