package dashboard

import (
	"regexp"

	"github.com/spacesedan/wctweets/internal/models"
)

const UNKNOWN_SOURCE = "Unknown"

var anchorText = regexp.MustCompile(`>(.*?)</a>`)

// CleanSource extracts the client name from the anchor markup in a post's
// source, e.g. "Twitter for iPhone". Markup without an anchor is returned
// as is.
func CleanSource(source *string) string {
	if source == nil {
		return UNKNOWN_SOURCE
	}
	if m := anchorText.FindStringSubmatch(*source); m != nil {
		return m[1]
	}
	return *source
}

func TopSources(posts []models.CleanedPost, n int) []models.Share {
	counts := make(map[string]int)
	for _, p := range posts {
		counts[CleanSource(p.Source)]++
	}
	return shares(counts, len(posts), n)
}
