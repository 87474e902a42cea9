package models

import "time"

// Field names as stored in the sink. Dashboards project on these.
const (
	FIELD_POST_ID        = "post_id"
	FIELD_CREATED_AT     = "created_at"
	FIELD_USER_HANDLE    = "user_handle"
	FIELD_FOLLOWERS      = "followers"
	FIELD_USER_LOCATION  = "user_location"
	FIELD_TEXT           = "text"
	FIELD_LANG           = "lang"
	FIELD_SOURCE         = "source"
	FIELD_HASHTAGS       = "hashtags"
	FIELD_RETWEET_COUNT  = "retweet_count"
	FIELD_FAVORITE_COUNT = "favorite_count"
	FIELD_IS_RETWEET_ID  = "is_retweet_id"
	FIELD_TIMESTAMP_MS   = "timestamp_ms"
	FIELD_TIMESTAMP      = "timestamp"
	FIELD_DATE_ONLY      = "date_only"
)

// CleanedPostFields lists every stored field in document order.
var CleanedPostFields = []string{
	FIELD_POST_ID, FIELD_CREATED_AT, FIELD_USER_HANDLE, FIELD_FOLLOWERS,
	FIELD_USER_LOCATION, FIELD_TEXT, FIELD_LANG, FIELD_SOURCE, FIELD_HASHTAGS,
	FIELD_RETWEET_COUNT, FIELD_FAVORITE_COUNT, FIELD_IS_RETWEET_ID,
	FIELD_TIMESTAMP_MS, FIELD_TIMESTAMP, FIELD_DATE_ONLY,
}

// CleanedPost is the flattened projection of one archived post.
// Nil pointers are absent values in the source record.
type CleanedPost struct {
	PostID        *string    `json:"post_id" bson:"post_id" dynamodbav:"post_id"`
	CreatedAt     *string    `json:"created_at" bson:"created_at" dynamodbav:"created_at"`
	UserHandle    *string    `json:"user_handle" bson:"user_handle" dynamodbav:"user_handle"`
	Followers     *int64     `json:"followers" bson:"followers" dynamodbav:"followers"`
	UserLocation  *string    `json:"user_location" bson:"user_location" dynamodbav:"user_location"`
	Text          *string    `json:"text" bson:"text" dynamodbav:"text"`
	Lang          *string    `json:"lang" bson:"lang" dynamodbav:"lang"`
	Source        *string    `json:"source" bson:"source" dynamodbav:"source"`
	Hashtags      []string   `json:"hashtags" bson:"hashtags" dynamodbav:"hashtags"`
	RetweetCount  *int64     `json:"retweet_count" bson:"retweet_count" dynamodbav:"retweet_count"`
	FavoriteCount *int64     `json:"favorite_count" bson:"favorite_count" dynamodbav:"favorite_count"`
	IsRetweetID   *string    `json:"is_retweet_id" bson:"is_retweet_id" dynamodbav:"is_retweet_id"`
	TimestampMs   *int64     `json:"timestamp_ms" bson:"timestamp_ms" dynamodbav:"timestamp_ms"`
	Timestamp     *time.Time `json:"timestamp" bson:"timestamp" dynamodbav:"timestamp"`
	DateOnly      *string    `json:"date_only" bson:"date_only" dynamodbav:"date_only"`
}

// IsRetweet reports whether the post reshares another one.
func (p CleanedPost) IsRetweet() bool { return p.IsRetweetID != nil }

// UserSummary aggregates one file's posts by author handle.
type UserSummary struct {
	UserHandle  *string  `json:"user_handle"`
	PostCount   int      `json:"nb_posts"`
	Followers   *int64   `json:"followers_count"`
	AllHashtags []string `json:"all_hashtags"`
}

// IsField reports whether name is a stored CleanedPost field.
func IsField(name string) bool {
	for _, f := range CleanedPostFields {
		if f == name {
			return true
		}
	}
	return false
}

// Project keeps only the named fields of p and clears the rest.
func Project(p CleanedPost, fields []string) CleanedPost {
	var out CleanedPost
	for _, f := range fields {
		switch f {
		case FIELD_POST_ID:
			out.PostID = p.PostID
		case FIELD_CREATED_AT:
			out.CreatedAt = p.CreatedAt
		case FIELD_USER_HANDLE:
			out.UserHandle = p.UserHandle
		case FIELD_FOLLOWERS:
			out.Followers = p.Followers
		case FIELD_USER_LOCATION:
			out.UserLocation = p.UserLocation
		case FIELD_TEXT:
			out.Text = p.Text
		case FIELD_LANG:
			out.Lang = p.Lang
		case FIELD_SOURCE:
			out.Source = p.Source
		case FIELD_HASHTAGS:
			out.Hashtags = p.Hashtags
		case FIELD_RETWEET_COUNT:
			out.RetweetCount = p.RetweetCount
		case FIELD_FAVORITE_COUNT:
			out.FavoriteCount = p.FavoriteCount
		case FIELD_IS_RETWEET_ID:
			out.IsRetweetID = p.IsRetweetID
		case FIELD_TIMESTAMP_MS:
			out.TimestampMs = p.TimestampMs
		case FIELD_TIMESTAMP:
			out.Timestamp = p.Timestamp
		case FIELD_DATE_ONLY:
			out.DateOnly = p.DateOnly
		}
	}
	return out
}

// Deref returns the pointed-to value, or the zero value for nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
