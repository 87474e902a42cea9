package dashboard

import (
	"fmt"
	"strings"

	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/wctweets/internal/models"
)

// RenderMarkdown writes the dashboard as a markdown document with one
// table per view.
func RenderMarkdown(d models.Dashboard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# World Cup tweets (%s)\n\n", d.Variant)

	ov := d.Overview
	b.WriteString("| Posts | Users | Retweets | Locations | Dominant language |\n|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %s |\n\n",
		ov.TotalPosts, ov.UniqueUsers, ov.TotalRetweets, ov.DistinctLocations, strings.ToUpper(ov.DominantLang))

	if len(d.Daily) > 0 {
		b.WriteString("## Posts per day\n\n| Date | Posts |\n|---|---|\n")
		for _, c := range d.Daily {
			fmt.Fprintf(&b, "| %s | %d |\n", c.Date, c.Count)
		}
		b.WriteString("\n")
	}

	writeShares(&b, "Languages", "Language", d.Languages)
	writeShares(&b, "Hashtags", "Hashtag", d.Hashtags)

	if len(d.Words) > 0 {
		b.WriteString("## Keywords\n\n| Word | Count |\n|---|---|\n")
		for _, w := range d.Words {
			fmt.Fprintf(&b, "| %s | %d |\n", escapeCell(w.Word), w.Count)
		}
		b.WriteString("\n")
	}

	writeShares(&b, "Sources", "Source", d.Sources)

	if len(d.TopRetweeted) > 0 {
		b.WriteString("## Most retweeted\n\n| User | Retweets | Date | Language | Text |\n|---|---|---|---|---|\n")
		for _, p := range d.TopRetweeted {
			fmt.Fprintf(&b, "| %s | %d | %s | %s | %s |\n",
				escapeCell(p.UserHandle), p.RetweetCount, p.DateOnly, strings.ToUpper(p.Lang), escapeCell(p.Text))
		}
		b.WriteString("\n")
	}

	writeShares(&b, "Locations", "Location", d.Locations)

	if len(d.Sentiment) > 0 {
		b.WriteString("## Sentiment per day\n\n| Date | Posts | Compound | Positive | Neutral | Negative |\n|---|---|---|---|---|---|\n")
		for _, s := range d.Sentiment {
			fmt.Fprintf(&b, "| %s | %d | %.3f | %d | %d | %d |\n", s.Date, s.Posts, s.Compound, s.Positive, s.Neutral, s.Negative)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderHTML converts RenderMarkdown's output to an HTML fragment.
func RenderHTML(d models.Dashboard) []byte {
	return blackfriday.Run([]byte(RenderMarkdown(d)), blackfriday.WithExtensions(blackfriday.CommonExtensions|blackfriday.Tables))
}

func writeShares(b *strings.Builder, title, column string, shares []models.Share) {
	if len(shares) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n| %s | Count | %% |\n|---|---|---|\n", title, column)
	for _, s := range shares {
		fmt.Fprintf(b, "| %s | %d | %.1f%% |\n", escapeCell(s.Label), s.Count, s.Percent)
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
