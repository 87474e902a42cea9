// Package db holds the document sinks the pipeline writes cleaned posts to
// and the dashboard reads them back from.
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/spacesedan/wctweets/config"
	"github.com/spacesedan/wctweets/internal/models"
)

// Sink is a collection of cleaned posts.
type Sink interface {
	// Clear removes every document and returns how many were deleted.
	Clear(ctx context.Context) (int64, error)
	// InsertMany writes posts and returns how many were stored. A non-nil
	// error may come with a partial count.
	InsertMany(ctx context.Context, posts []models.CleanedPost) (int, error)
	// Find returns every stored post with only the named fields set.
	// No fields means all of them.
	Find(ctx context.Context, fields []string) ([]models.CleanedPost, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.SinkConfig) (Sink, error) {
	switch cfg.Driver {
	case config.DRIVER_MONGO:
		return NewMongoSink(ctx, cfg)
	case config.DRIVER_DYNAMODB:
		return NewDynamoSink(ctx, cfg)
	case config.DRIVER_POSTGRES:
		return NewPostgresSink(ctx, cfg)
	case config.DRIVER_SQLITE:
		return NewSQLiteSink(ctx, cfg)
	default:
		return nil, fmt.Errorf("[Sink] unknown driver %q", cfg.Driver)
	}
}

func checkTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("[Sink] invalid collection name %q", name)
	}
	return nil
}

func checkFields(fields []string) error {
	for _, f := range fields {
		if !models.IsField(f) {
			return fmt.Errorf("[Sink] unknown field %q", f)
		}
	}
	return nil
}

func projectAll(posts []models.CleanedPost, fields []string) []models.CleanedPost {
	if len(fields) == 0 {
		return posts
	}
	for i := range posts {
		posts[i] = models.Project(posts[i], fields)
	}
	return posts
}

// encodeDocs renders posts as JSON documents for the SQL backends.
func encodeDocs(posts []models.CleanedPost) ([]string, error) {
	docs := make([]string, len(posts))
	for i, p := range posts {
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("[Sink] encode post %d: %w", i, err)
		}
		docs[i] = string(b)
	}
	return docs, nil
}

func decodeDoc(raw []byte) (models.CleanedPost, error) {
	var p models.CleanedPost
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("[Sink] decode document: %w", err)
	}
	if p.Hashtags == nil {
		p.Hashtags = []string{}
	}
	return p, nil
}

const CLOSE_TIMEOUT = 10 * time.Second

// CloseWithin closes s, giving up after timeout.
func CloseWithin(s Sink, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		return fmt.Errorf("[Sink] close: %w", err)
	}
	return nil
}
