package sentiment

import (
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
)

const (
	LABEL_POSITIVE = "positive"
	LABEL_NEUTRAL  = "neutral"
	LABEL_NEGATIVE = "negative"

	// VADER's usual cut-offs on the compound score.
	POSITIVE_THRESHOLD = 0.05
	NEGATIVE_THRESHOLD = -0.05
)

var (
	urlPattern     = regexp.MustCompile(`https?://\S+|www\.\S+`)
	mentionPattern = regexp.MustCompile(`@\w+`)
	retweetPrefix  = regexp.MustCompile(`^RT\s+@\w+:\s*`)
)

type Score struct {
	Compound float64
	Label    string
}

// Analyzer scores post text with VADER.
type Analyzer struct {
	vader *govader.SentimentIntensityAnalyzer
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{vader: govader.NewSentimentIntensityAnalyzer()}
}

// CleanText strips the retweet prefix, links and mentions, and turns
// hashtags into plain words.
func CleanText(input string) string {
	input = retweetPrefix.ReplaceAllString(input, "")
	input = urlPattern.ReplaceAllString(input, "")
	input = mentionPattern.ReplaceAllString(input, "")
	input = strings.ReplaceAll(input, "#", "")
	return strings.Join(strings.Fields(input), " ")
}

func (a *Analyzer) Analyze(text string) Score {
	score := a.vader.PolarityScores(CleanText(text)).Compound
	return Score{Compound: score, Label: Label(score)}
}

func Label(compound float64) string {
	switch {
	case compound >= POSITIVE_THRESHOLD:
		return LABEL_POSITIVE
	case compound <= NEGATIVE_THRESHOLD:
		return LABEL_NEGATIVE
	default:
		return LABEL_NEUTRAL
	}
}
