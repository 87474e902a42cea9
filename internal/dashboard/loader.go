package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/spacesedan/wctweets/internal/metrics"
	"github.com/spacesedan/wctweets/internal/models"
)

const CACHE_KEY_PREFIX = "dashboard:posts:"

// Reader is the read side of a db.Sink.
type Reader interface {
	Find(ctx context.Context, fields []string) ([]models.CleanedPost, error)
}

// Cache stores encoded post lists. ValkeyClient implements it.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Loader reads projected posts, going to the sink at most once per ttl
// for each projection. A nil cache reads the sink every time.
type Loader struct {
	reader Reader
	cache  Cache
	ttl    time.Duration
}

func NewLoader(reader Reader, cache Cache, ttl time.Duration) *Loader {
	return &Loader{reader: reader, cache: cache, ttl: ttl}
}

func CacheKey(fields []string) string {
	return CACHE_KEY_PREFIX + strings.Join(fields, ",")
}

// Load returns the posts with fields set. Cache failures are logged and
// fall through to the sink.
func (l *Loader) Load(ctx context.Context, fields []string) ([]models.CleanedPost, error) {
	key := CacheKey(fields)

	if l.cache != nil {
		raw, ok, err := l.cache.Get(ctx, key)
		switch {
		case err != nil:
			slog.Warn("[Dashboard] Cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		case ok:
			var posts []models.CleanedPost
			if err := json.Unmarshal([]byte(raw), &posts); err == nil {
				metrics.IncCache(metrics.CACHE_HIT)
				return posts, nil
			}
			slog.Warn("[Dashboard] Discarding undecodable cache entry", slog.String("key", key))
		}
		metrics.IncCache(metrics.CACHE_MISS)
	}

	posts, err := l.reader.Find(ctx, fields)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if raw, err := json.Marshal(posts); err == nil {
			if err := l.cache.Set(ctx, key, string(raw), l.ttl); err != nil {
				slog.Warn("[Dashboard] Cache write failed", slog.String("key", key), slog.String("error", err.Error()))
			}
		}
	}
	return posts, nil
}
