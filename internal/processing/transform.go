package processing

import (
	"strings"
	"time"

	"github.com/spacesedan/wctweets/internal/document"
	"github.com/spacesedan/wctweets/internal/models"
)

const (
	// CREATED_AT_LAYOUT matches the archive's "Tue Jun 12 14:05:33 +0000 2018".
	CREATED_AT_LAYOUT = "Mon Jan 2 15:04:05 -0700 2006"
	DATE_ONLY_LAYOUT  = "2006-01-02"
)

// Source paths of each projected field in a raw post.
const (
	PATH_ID             = "id_str"
	PATH_CREATED_AT     = "created_at"
	PATH_USER_HANDLE    = "user.screen_name"
	PATH_FOLLOWERS      = "user.followers_count"
	PATH_USER_LOCATION  = "user.location"
	PATH_TEXT           = "text"
	PATH_LANG           = "lang"
	PATH_SOURCE         = "source"
	PATH_HASHTAGS       = "entities.hashtags.#.text"
	PATH_RETWEET_COUNT  = "retweet_count"
	PATH_FAVORITE_COUNT = "favorite_count"
	PATH_RETWEETED_ID   = "retweeted_status.id_str"
	PATH_TIMESTAMP_MS   = "timestamp_ms"
)

var DEFAULT_ALLOWED_LANGS = []string{"en", "fr", "pt"}

// Transformer flattens raw posts and applies the language/text filter.
// It holds no per-run state, so the same input always yields the same output.
type Transformer struct {
	allowed map[string]struct{}
}

// NewTransformer keeps posts whose lang is one of langs. An empty list
// falls back to DEFAULT_ALLOWED_LANGS.
func NewTransformer(langs []string) *Transformer {
	if len(langs) == 0 {
		langs = DEFAULT_ALLOWED_LANGS
	}
	allowed := make(map[string]struct{}, len(langs))
	for _, l := range langs {
		allowed[l] = struct{}{}
	}
	return &Transformer{allowed: allowed}
}

// Transform projects every document and returns those passing the filter,
// in input order.
func (t *Transformer) Transform(docs []document.Doc) []models.CleanedPost {
	out := make([]models.CleanedPost, 0, len(docs))
	for _, d := range docs {
		p := Project(d)
		if t.Keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Keep reports whether p has text and an allowed language.
func (t *Transformer) Keep(p models.CleanedPost) bool {
	if p.Text == nil || p.Lang == nil {
		return false
	}
	_, ok := t.allowed[*p.Lang]
	return ok
}

// Project builds the flat record for one raw post and derives its
// timestamp fields. It never fails; absent values stay nil.
func Project(d document.Doc) models.CleanedPost {
	p := models.CleanedPost{
		PostID:        d.String(PATH_ID),
		CreatedAt:     d.String(PATH_CREATED_AT),
		UserHandle:    d.String(PATH_USER_HANDLE),
		Followers:     d.Int(PATH_FOLLOWERS),
		UserLocation:  d.String(PATH_USER_LOCATION),
		Text:          d.String(PATH_TEXT),
		Lang:          d.String(PATH_LANG),
		Source:        d.String(PATH_SOURCE),
		Hashtags:      d.Strings(PATH_HASHTAGS),
		RetweetCount:  d.Int(PATH_RETWEET_COUNT),
		FavoriteCount: d.Int(PATH_FAVORITE_COUNT),
		IsRetweetID:   d.String(PATH_RETWEETED_ID),
		TimestampMs:   d.Int(PATH_TIMESTAMP_MS),
	}

	if p.CreatedAt != nil {
		if ts, err := ParseCreatedAt(*p.CreatedAt); err == nil {
			date := ts.Format(DATE_ONLY_LAYOUT)
			p.Timestamp = &ts
			p.DateOnly = &date
		}
	}
	return p
}

// ParseCreatedAt parses the archive's created_at text and returns it in UTC.
func ParseCreatedAt(s string) (time.Time, error) {
	ts, err := time.Parse(CREATED_AT_LAYOUT, strings.Join(strings.Fields(s), " "))
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}
