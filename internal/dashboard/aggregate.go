package dashboard

import (
	"slices"
	"sort"

	"github.com/spacesedan/wctweets/internal/models"
)

// Filter narrows posts the way the dashboard sidebar does.
type Filter struct {
	// Langs keeps posts in these languages. Empty keeps every post.
	Langs           []string
	IncludeRetweets bool
}

func (f Filter) Apply(posts []models.CleanedPost) []models.CleanedPost {
	out := make([]models.CleanedPost, 0, len(posts))
	for _, p := range posts {
		if len(f.Langs) > 0 && (p.Lang == nil || !slices.Contains(f.Langs, *p.Lang)) {
			continue
		}
		if !f.IncludeRetweets && p.IsRetweet() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Langs lists the distinct languages present, sorted.
func Langs(posts []models.CleanedPost) []string {
	seen := make(map[string]struct{})
	for _, p := range posts {
		if p.Lang != nil {
			seen[*p.Lang] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func ComputeOverview(posts []models.CleanedPost) models.Overview {
	users := make(map[string]struct{})
	locations := make(map[string]struct{})
	langs := make(map[string]int)
	var retweets int64

	for _, p := range posts {
		if p.UserHandle != nil {
			users[*p.UserHandle] = struct{}{}
		}
		if p.UserLocation != nil {
			locations[*p.UserLocation] = struct{}{}
		}
		if p.Lang != nil {
			langs[*p.Lang]++
		}
		retweets += models.Deref(p.RetweetCount)
	}

	ov := models.Overview{
		TotalPosts:        len(posts),
		UniqueUsers:       len(users),
		TotalRetweets:     retweets,
		DistinctLocations: len(locations),
	}
	if top := rank(langs, 1); len(top) > 0 {
		ov.DominantLang = top[0].label
	}
	return ov
}

// DailyCounts counts posts per date_only, in date order. Posts without a
// date are left out.
func DailyCounts(posts []models.CleanedPost) []models.DateCount {
	counts := make(map[string]int)
	for _, p := range posts {
		if p.DateOnly != nil {
			counts[*p.DateOnly]++
		}
	}
	out := make([]models.DateCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, models.DateCount{Date: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func LangShare(posts []models.CleanedPost) []models.Share {
	counts := make(map[string]int)
	for _, p := range posts {
		if p.Lang != nil {
			counts[*p.Lang]++
		}
	}
	return shares(counts, len(posts), 0)
}

// TopHashtags counts every hashtag occurrence. Percent is relative to the
// number of posts, not the number of hashtags.
func TopHashtags(posts []models.CleanedPost, n int) []models.Share {
	counts := make(map[string]int)
	for _, p := range posts {
		for _, h := range p.Hashtags {
			counts[h]++
		}
	}
	return shares(counts, len(posts), n)
}

// TopLocations ranks declared user locations. Percent is relative to the
// posts that declare one.
func TopLocations(posts []models.CleanedPost, n int) []models.Share {
	counts := make(map[string]int)
	located := 0
	for _, p := range posts {
		if p.UserLocation != nil {
			counts[*p.UserLocation]++
			located++
		}
	}
	return shares(counts, located, n)
}

// TopRetweeted returns the n posts with the highest retweet_count. Posts
// without a count sort last; ties keep input order.
func TopRetweeted(posts []models.CleanedPost, n int) []models.RetweetedPost {
	sorted := slices.Clone(posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].RetweetCount, sorted[j].RetweetCount
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return *a > *b
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make([]models.RetweetedPost, 0, len(sorted))
	for _, p := range sorted {
		rp := models.RetweetedPost{
			UserHandle:   models.Deref(p.UserHandle),
			Text:         models.Deref(p.Text),
			RetweetCount: models.Deref(p.RetweetCount),
			DateOnly:     models.Deref(p.DateOnly),
			Lang:         models.Deref(p.Lang),
		}
		if p.Source != nil {
			rp.Source = CleanSource(p.Source)
		}
		out = append(out, rp)
	}
	return out
}

type ranked struct {
	label string
	count int
}

// rank orders counts by count descending, then label ascending, and keeps
// the first n. n <= 0 keeps all.
func rank(counts map[string]int, n int) []ranked {
	out := make([]ranked, 0, len(counts))
	for l, c := range counts {
		out = append(out, ranked{label: l, count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].label < out[j].label
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func shares(counts map[string]int, total, n int) []models.Share {
	top := rank(counts, n)
	out := make([]models.Share, 0, len(top))
	for _, r := range top {
		s := models.Share{Label: r.label, Count: r.count}
		if total > 0 {
			s.Percent = float64(r.count) / float64(total) * 100
		}
		out = append(out, s)
	}
	return out
}
