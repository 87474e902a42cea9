package dashboard

import (
	"sort"

	"github.com/spacesedan/wctweets/internal/models"
	"github.com/spacesedan/wctweets/internal/sentiment"
)

// Scorer rates one text. *sentiment.Analyzer implements it.
type Scorer interface {
	Analyze(text string) sentiment.Score
}

// DailySentiment averages the compound score of each day's posts and counts
// how many fall in each label. Posts without a date or text are skipped.
func DailySentiment(posts []models.CleanedPost, scorer Scorer) []models.DateSentiment {
	type acc struct {
		models.DateSentiment
		sum float64
	}
	days := make(map[string]*acc)

	for _, p := range posts {
		if p.DateOnly == nil || p.Text == nil {
			continue
		}
		d, ok := days[*p.DateOnly]
		if !ok {
			d = &acc{DateSentiment: models.DateSentiment{Date: *p.DateOnly}}
			days[*p.DateOnly] = d
		}

		s := scorer.Analyze(*p.Text)
		d.Posts++
		d.sum += s.Compound
		switch s.Label {
		case sentiment.LABEL_POSITIVE:
			d.Positive++
		case sentiment.LABEL_NEGATIVE:
			d.Negative++
		default:
			d.Neutral++
		}
	}

	out := make([]models.DateSentiment, 0, len(days))
	for _, d := range days {
		d.Compound = d.sum / float64(d.Posts)
		out = append(out, d.DateSentiment)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
