package models

// Overview holds the headline numbers shown above the dashboard charts.
type Overview struct {
	TotalPosts        int    `json:"total_posts"`
	UniqueUsers       int    `json:"unique_users"`
	TotalRetweets     int64  `json:"total_retweets"`
	DistinctLocations int    `json:"distinct_locations"`
	DominantLang      string `json:"dominant_lang,omitempty"`
}

type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Share is a label with its count and percentage of the filtered posts.
type Share struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type RetweetedPost struct {
	UserHandle   string `json:"user_handle"`
	Text         string `json:"text"`
	RetweetCount int64  `json:"retweet_count"`
	DateOnly     string `json:"date_only"`
	Lang         string `json:"lang"`
	Source       string `json:"source,omitempty"`
}

type DateSentiment struct {
	Date     string  `json:"date"`
	Posts    int     `json:"posts"`
	Compound float64 `json:"compound"`
	Positive int     `json:"positive"`
	Neutral  int     `json:"neutral"`
	Negative int     `json:"negative"`
}

// Dashboard is everything one dashboard page renders.
type Dashboard struct {
	Variant      string          `json:"variant"`
	Langs        []string        `json:"langs,omitempty"`
	Overview     Overview        `json:"overview"`
	Daily        []DateCount     `json:"daily"`
	Languages    []Share         `json:"languages"`
	Hashtags     []Share         `json:"hashtags"`
	Words        []WordCount     `json:"words"`
	Sources      []Share         `json:"sources,omitempty"`
	TopRetweeted []RetweetedPost `json:"top_retweeted,omitempty"`
	Locations    []Share         `json:"locations,omitempty"`
	Sentiment    []DateSentiment `json:"sentiment,omitempty"`
}
