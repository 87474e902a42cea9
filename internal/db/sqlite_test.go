package db

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/spacesedan/wctweets/internal/models"
)

func openTestSink(t *testing.T) *SQLiteSink {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:", "worldcup_tweets")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func samplePosts() []models.CleanedPost {
	ts := time.Date(2018, 6, 12, 14, 5, 33, 0, time.UTC)
	return []models.CleanedPost{
		{
			PostID:       models.Ptr("1"),
			UserHandle:   models.Ptr("fan_fr"),
			Followers:    models.Ptr(int64(152)),
			Text:         models.Ptr("Allez les Bleus"),
			Lang:         models.Ptr("fr"),
			Hashtags:     []string{"FRA"},
			RetweetCount: models.Ptr(int64(3)),
			Timestamp:    &ts,
			DateOnly:     models.Ptr("2018-06-12"),
		},
		{
			PostID:   models.Ptr("2"),
			Text:     models.Ptr("goal"),
			Lang:     models.Ptr("en"),
			Hashtags: []string{},
		},
	}
}

func TestSQLiteInsertAndFind(t *testing.T) {
	ctx := context.Background()
	s := openTestSink(t)

	n, err := s.InsertMany(ctx, samplePosts())
	if err != nil || n != 2 {
		t.Fatalf("InsertMany = %d, %v", n, err)
	}

	got, err := s.Find(ctx, nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("found %d posts, want 2", len(got))
	}
	if !reflect.DeepEqual(got[0].Hashtags, []string{"FRA"}) || got[0].Timestamp == nil || !got[0].Timestamp.Equal(*samplePosts()[0].Timestamp) {
		t.Errorf("first post did not round-trip: %+v", got[0])
	}
	if got[1].UserHandle != nil || got[1].Followers != nil {
		t.Errorf("absent fields should stay nil: %+v", got[1])
	}
}

func TestSQLiteFindProjects(t *testing.T) {
	ctx := context.Background()
	s := openTestSink(t)
	if _, err := s.InsertMany(ctx, samplePosts()); err != nil {
		t.Fatal(err)
	}

	got, err := s.Find(ctx, []string{models.FIELD_LANG, models.FIELD_HASHTAGS})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got[0].Text != nil || got[0].PostID != nil {
		t.Errorf("unprojected fields should be nil: %+v", got[0])
	}
	if models.Deref(got[0].Lang) != "fr" {
		t.Errorf("lang = %v", got[0].Lang)
	}

	if _, err := s.Find(ctx, []string{"password"}); err == nil {
		t.Error("unknown field should be rejected")
	}
}

func TestSQLiteClear(t *testing.T) {
	ctx := context.Background()
	s := openTestSink(t)
	if _, err := s.InsertMany(ctx, samplePosts()); err != nil {
		t.Fatal(err)
	}

	deleted, err := s.Clear(ctx)
	if err != nil || deleted != 2 {
		t.Fatalf("Clear = %d, %v", deleted, err)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Fatalf("count after clear = %d", n)
	}
}

func TestSQLiteInsertEmpty(t *testing.T) {
	s := openTestSink(t)
	n, err := s.InsertMany(context.Background(), nil)
	if err != nil || n != 0 {
		t.Fatalf("InsertMany(nil) = %d, %v", n, err)
	}
}

func TestOpenSQLiteRejectsBadTable(t *testing.T) {
	if _, err := OpenSQLite(context.Background(), ":memory:", "tweets; DROP TABLE x"); err == nil {
		t.Fatal("expected invalid table name error")
	}
}
