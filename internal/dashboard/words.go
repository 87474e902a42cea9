package dashboard

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spacesedan/wctweets/internal/models"
)

const MIN_WORD_RUNES = 4

var basicStopWords = stopWords(
	"the", "to", "and", "is", "in", "it", "you", "of", "for", "on", "my", "at", "with",
	"rt", "http", "https", "co", "a", "an", "de", "que", "da", "em", "um", "do", "this", "that",
)

var extendedStopWords = stopWords(
	"have", "your", "here", "will", "the", "to", "and", "is", "in", "it", "you", "of", "for",
	"on", "my", "at", "with", "rt", "http", "https", "co", "a", "an", "de", "que", "da", "em",
	"um", "do", "this", "that", "from",
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

func stopWords(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// TopWords counts the most frequent keywords in the posts' text. The basic
// variant splits on whitespace and drops hashtags and mentions; the
// extended variant tokenizes on word characters and drops numbers.
func TopWords(posts []models.CleanedPost, variant string, n int) []models.WordCount {
	var words []string
	if variant == VARIANT_EXTENDED {
		words = extendedWords(posts)
	} else {
		words = basicWords(posts)
	}

	counts := make(map[string]int)
	for _, w := range words {
		counts[w]++
	}

	top := rank(counts, n)
	out := make([]models.WordCount, 0, len(top))
	for _, r := range top {
		out = append(out, models.WordCount{Word: r.label, Count: r.count})
	}
	return out
}

func lowerTexts(posts []models.CleanedPost) string {
	var b strings.Builder
	for i, p := range posts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(models.Deref(p.Text))
	}
	return strings.ToLower(b.String())
}

// The length and stop word checks run before punctuation is trimmed.
func basicWords(posts []models.CleanedPost) []string {
	var out []string
	for _, w := range strings.Fields(lowerTexts(posts)) {
		if utf8.RuneCountInString(w) < MIN_WORD_RUNES {
			continue
		}
		if _, stop := basicStopWords[w]; stop {
			continue
		}
		if strings.HasPrefix(w, "#") || strings.HasPrefix(w, "@") {
			continue
		}
		out = append(out, strings.Trim(w, ".,!?:;"))
	}
	return out
}

func extendedWords(posts []models.CleanedPost) []string {
	var out []string
	for _, w := range wordPattern.FindAllString(lowerTexts(posts), -1) {
		if utf8.RuneCountInString(w) < MIN_WORD_RUNES || isNumber(w) {
			continue
		}
		if _, stop := extendedStopWords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

func isNumber(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return w != ""
}
