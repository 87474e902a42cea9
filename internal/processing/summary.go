package processing

import "github.com/spacesedan/wctweets/internal/models"

// SummarizeByUser groups posts by author handle, in order of first
// appearance. Posts without a handle share one group with a nil handle.
// PostCount only counts posts that have an id; Followers is the value on
// the group's first post.
func SummarizeByUser(posts []models.CleanedPost) []models.UserSummary {
	var (
		out      []models.UserSummary
		index    = make(map[string]int)
		nilGroup = -1
	)

	for _, p := range posts {
		i := nilGroup
		if p.UserHandle != nil {
			var ok bool
			if i, ok = index[*p.UserHandle]; !ok {
				i = -1
			}
		}

		if i < 0 {
			out = append(out, models.UserSummary{
				UserHandle:  p.UserHandle,
				Followers:   p.Followers,
				AllHashtags: []string{},
			})
			i = len(out) - 1
			if p.UserHandle == nil {
				nilGroup = i
			} else {
				index[*p.UserHandle] = i
			}
		}

		s := &out[i]
		if p.PostID != nil {
			s.PostCount++
		}
		s.AllHashtags = append(s.AllHashtags, p.Hashtags...)
	}
	return out
}
