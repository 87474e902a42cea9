// Package dashboard computes the aggregates the World Cup dashboards show
// from the cleaned posts in the sink.
package dashboard

import (
	"context"
	"fmt"

	"github.com/spacesedan/wctweets/internal/models"
)

type Query struct {
	Variant         string
	Langs           []string
	IncludeRetweets bool
}

type Service struct {
	loader *Loader
	scorer Scorer
}

// NewService builds a service. A nil scorer leaves out daily sentiment.
func NewService(loader *Loader, scorer Scorer) *Service {
	return &Service{loader: loader, scorer: scorer}
}

func (s *Service) Build(ctx context.Context, q Query) (models.Dashboard, error) {
	if q.Variant == "" {
		q.Variant = VARIANT_BASIC
	}
	fields, err := FieldsFor(q.Variant)
	if err != nil {
		return models.Dashboard{}, err
	}
	if !q.IncludeRetweets {
		fields = withField(fields, models.FIELD_IS_RETWEET_ID)
	}

	posts, err := s.loader.Load(ctx, fields)
	if err != nil {
		return models.Dashboard{}, fmt.Errorf("[Dashboard] load posts: %w", err)
	}

	langs := Langs(posts)
	posts = Filter{Langs: q.Langs, IncludeRetweets: q.IncludeRetweets}.Apply(posts)

	d := models.Dashboard{
		Variant:   q.Variant,
		Langs:     langs,
		Overview:  ComputeOverview(posts),
		Daily:     DailyCounts(posts),
		Languages: LangShare(posts),
		Hashtags:  TopHashtags(posts, TOP_HASHTAGS),
		Words:     TopWords(posts, q.Variant, TOP_WORDS),
	}
	if q.Variant == VARIANT_EXTENDED {
		d.Sources = TopSources(posts, TOP_SOURCES)
		d.TopRetweeted = TopRetweeted(posts, TOP_RETWEETED)
		d.Locations = TopLocations(posts, TOP_LOCATIONS)
	}
	if s.scorer != nil {
		d.Sentiment = DailySentiment(posts, s.scorer)
	}
	return d, nil
}

// withField returns fields plus f, copying so the package projections stay intact.
func withField(fields []string, f string) []string {
	for _, have := range fields {
		if have == f {
			return fields
		}
	}
	return append(append(make([]string, 0, len(fields)+1), fields...), f)
}
