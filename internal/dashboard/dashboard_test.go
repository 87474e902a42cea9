package dashboard

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spacesedan/wctweets/internal/models"
	"github.com/spacesedan/wctweets/internal/sentiment"
)

const iphone = `<a href="http://twitter.com/download/iphone" rel="nofollow">Twitter for iPhone</a>`

func post(handle, lang, text, date string, rts int64, tags ...string) models.CleanedPost {
	if tags == nil {
		tags = []string{}
	}
	return models.CleanedPost{
		UserHandle:   models.Ptr(handle),
		Lang:         models.Ptr(lang),
		Text:         models.Ptr(text),
		DateOnly:     models.Ptr(date),
		RetweetCount: models.Ptr(rts),
		Hashtags:     tags,
	}
}

func fixture() []models.CleanedPost {
	a := post("alice", "en", "Amazing goal from Brazil tonight", "2018-06-14", 10, "BRA", "WorldCup")
	a.Source = models.Ptr(iphone)
	a.UserLocation = models.Ptr("Rio")

	b := post("bob", "fr", "Allez les Bleus, quelle victoire", "2018-06-12", 3, "FRA", "WorldCup")
	b.UserLocation = models.Ptr("Paris")

	c := post("alice", "en", "RT @bob: Allez les Bleus", "2018-06-12", 40, "FRA")
	c.IsRetweetID = models.Ptr("99")
	c.Source = models.Ptr(iphone)
	c.UserLocation = models.Ptr("Rio")

	d := post("carol", "pt", "Gooool do Brasil 2018", "2018-06-14", 0)
	d.RetweetCount = nil
	return []models.CleanedPost{a, b, c, d}
}

func TestFilter(t *testing.T) {
	posts := fixture()

	if got := (Filter{IncludeRetweets: true}).Apply(posts); len(got) != 4 {
		t.Errorf("no filter kept %d, want 4", len(got))
	}
	if got := (Filter{Langs: []string{"en"}, IncludeRetweets: true}).Apply(posts); len(got) != 2 {
		t.Errorf("lang filter kept %d, want 2", len(got))
	}
	if got := (Filter{Langs: []string{"en"}}).Apply(posts); len(got) != 1 {
		t.Errorf("lang filter without retweets kept %d, want 1", len(got))
	}
}

func TestComputeOverview(t *testing.T) {
	ov := ComputeOverview(fixture())
	want := models.Overview{TotalPosts: 4, UniqueUsers: 3, TotalRetweets: 53, DistinctLocations: 2, DominantLang: "en"}
	if ov != want {
		t.Fatalf("overview = %+v, want %+v", ov, want)
	}
}

func TestDominantLangTieIsAlphabetical(t *testing.T) {
	posts := []models.CleanedPost{post("a", "pt", "x", "d", 0), post("b", "fr", "y", "d", 0)}
	if got := ComputeOverview(posts).DominantLang; got != "fr" {
		t.Fatalf("dominant lang = %q, want fr", got)
	}
}

func TestDailyCounts(t *testing.T) {
	got := DailyCounts(fixture())
	want := []models.DateCount{{Date: "2018-06-12", Count: 2}, {Date: "2018-06-14", Count: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("daily = %v, want %v", got, want)
	}
}

func TestTopHashtagsPercentOfPosts(t *testing.T) {
	got := TopHashtags(fixture(), 2)
	want := []models.Share{
		{Label: "FRA", Count: 2, Percent: 50},
		{Label: "WorldCup", Count: 2, Percent: 50},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("hashtags = %v, want %v", got, want)
	}
}

func TestLangShare(t *testing.T) {
	got := LangShare(fixture())
	if len(got) != 3 || got[0].Label != "en" || got[0].Percent != 50 {
		t.Fatalf("lang share = %v", got)
	}
}

func TestCleanSource(t *testing.T) {
	tests := []struct {
		in   *string
		want string
	}{
		{models.Ptr(iphone), "Twitter for iPhone"},
		{models.Ptr("web"), "web"},
		{nil, UNKNOWN_SOURCE},
	}
	for _, tt := range tests {
		if got := CleanSource(tt.in); got != tt.want {
			t.Errorf("CleanSource(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTopSources(t *testing.T) {
	got := TopSources(fixture(), TOP_SOURCES)
	if len(got) != 2 || got[0].Label != "Twitter for iPhone" || got[0].Count != 2 || got[1].Label != UNKNOWN_SOURCE {
		t.Fatalf("sources = %v", got)
	}
}

func TestTopRetweeted(t *testing.T) {
	got := TopRetweeted(fixture(), 3)
	if len(got) != 3 {
		t.Fatalf("got %d posts", len(got))
	}
	if got[0].RetweetCount != 40 || got[1].RetweetCount != 10 || got[2].RetweetCount != 3 {
		t.Fatalf("order = %v", got)
	}
	if got[0].Source != "Twitter for iPhone" {
		t.Errorf("source = %q", got[0].Source)
	}
}

func TestTopLocations(t *testing.T) {
	got := TopLocations(fixture(), TOP_LOCATIONS)
	if len(got) != 2 || got[0].Label != "Rio" || got[0].Count != 2 {
		t.Fatalf("locations = %v", got)
	}
}

func TestTopWordsExtended(t *testing.T) {
	posts := []models.CleanedPost{
		post("a", "en", "Brazil wins! Brazil 2018 with style", "d", 0),
		post("b", "en", "This is from Brazil, have some café", "d", 0),
	}
	got := TopWords(posts, VARIANT_EXTENDED, 3)
	want := []models.WordCount{{Word: "brazil", Count: 3}, {Word: "café", Count: 1}, {Word: "some", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("words = %v, want %v", got, want)
	}
}

func TestTopWordsBasic(t *testing.T) {
	posts := []models.CleanedPost{
		post("a", "en", "Brazil! #Brazil @brazil brazil with", "d", 0),
	}
	got := TopWords(posts, VARIANT_BASIC, 5)
	want := []models.WordCount{{Word: "brazil", Count: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("words = %v, want %v", got, want)
	}
}

type fixedScorer map[string]float64

func (f fixedScorer) Analyze(text string) sentiment.Score {
	c := f[text]
	return sentiment.Score{Compound: c, Label: sentiment.Label(c)}
}

func TestDailySentiment(t *testing.T) {
	posts := []models.CleanedPost{
		post("a", "en", "good", "2018-06-12", 0),
		post("b", "en", "bad", "2018-06-12", 0),
		post("c", "en", "meh", "2018-06-13", 0),
	}
	scorer := fixedScorer{"good": 0.8, "bad": -0.4, "meh": 0}

	got := DailySentiment(posts, scorer)
	if len(got) != 2 {
		t.Fatalf("got %d days", len(got))
	}
	first := got[0]
	if first.Date != "2018-06-12" || first.Posts != 2 || first.Positive != 1 || first.Negative != 1 {
		t.Errorf("first day = %+v", first)
	}
	if diff := first.Compound - 0.2; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("compound = %v, want 0.2", first.Compound)
	}
	if got[1].Neutral != 1 {
		t.Errorf("second day = %+v", got[1])
	}
}

type memReader struct {
	posts  []models.CleanedPost
	calls  int
	fields []string
	err    error
}

func (r *memReader) Find(_ context.Context, fields []string) ([]models.CleanedPost, error) {
	r.calls++
	r.fields = fields
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.CleanedPost, len(r.posts))
	for i, p := range r.posts {
		out[i] = models.Project(p, fields)
	}
	return out, nil
}

type memCache struct {
	data   map[string]string
	ttl    time.Duration
	getErr error
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if c.data == nil {
		c.data = make(map[string]string)
	}
	c.data[key] = value
	c.ttl = ttl
	return nil
}

func TestLoaderCaches(t *testing.T) {
	reader := &memReader{posts: fixture()}
	cache := &memCache{}
	l := NewLoader(reader, cache, 10*time.Minute)

	for i := 0; i < 3; i++ {
		posts, err := l.Load(context.Background(), BasicFields)
		if err != nil {
			t.Fatal(err)
		}
		if len(posts) != 4 {
			t.Fatalf("loaded %d posts", len(posts))
		}
	}
	if reader.calls != 1 {
		t.Fatalf("sink read %d times, want 1", reader.calls)
	}
	if cache.ttl != 10*time.Minute {
		t.Errorf("ttl = %v", cache.ttl)
	}
	if _, ok := cache.data[CacheKey(BasicFields)]; !ok {
		t.Error("expected entry under the projection's key")
	}

	if _, err := l.Load(context.Background(), ExtendedFields); err != nil {
		t.Fatal(err)
	}
	if reader.calls != 2 {
		t.Fatalf("a new projection should read the sink, calls = %d", reader.calls)
	}
}

func TestLoaderFallsBackOnCacheError(t *testing.T) {
	reader := &memReader{posts: fixture()}
	l := NewLoader(reader, &memCache{getErr: errors.New("connection refused")}, time.Minute)

	posts, err := l.Load(context.Background(), BasicFields)
	if err != nil || len(posts) != 4 {
		t.Fatalf("Load = %d posts, %v", len(posts), err)
	}
}

func TestServiceBuild(t *testing.T) {
	reader := &memReader{posts: fixture()}
	svc := NewService(NewLoader(reader, nil, 0), sentiment.NewAnalyzer())

	basic, err := svc.Build(context.Background(), Query{IncludeRetweets: true})
	if err != nil {
		t.Fatal(err)
	}
	if basic.Variant != VARIANT_BASIC || basic.Overview.TotalPosts != 4 {
		t.Fatalf("basic = %+v", basic.Overview)
	}
	if basic.Sources != nil || basic.TopRetweeted != nil {
		t.Error("basic dashboard should not include extended views")
	}
	if basic.Overview.DistinctLocations != 0 {
		t.Error("basic projection does not read user_location")
	}
	if len(basic.Sentiment) != 2 {
		t.Errorf("sentiment days = %d", len(basic.Sentiment))
	}

	ext, err := svc.Build(context.Background(), Query{Variant: VARIANT_EXTENDED, Langs: []string{"en", "fr"}})
	if err != nil {
		t.Fatal(err)
	}
	if ext.Overview.TotalPosts != 2 {
		t.Fatalf("extended without retweets = %d posts, want 2", ext.Overview.TotalPosts)
	}
	if !reflect.DeepEqual(reader.fields, ExtendedFields) {
		t.Errorf("projection = %v", reader.fields)
	}
	if len(ext.Sources) == 0 || len(ext.Locations) != 2 {
		t.Errorf("extended views missing: %+v", ext)
	}

	if _, err := svc.Build(context.Background(), Query{Variant: "nope"}); err == nil {
		t.Error("unknown variant should fail")
	}
}

func TestServiceBuildBasicDropsRetweets(t *testing.T) {
	reader := &memReader{posts: fixture()}
	cache := &memCache{}
	svc := NewService(NewLoader(reader, cache, time.Minute), nil)

	d, err := svc.Build(context.Background(), Query{Variant: VARIANT_BASIC})
	if err != nil {
		t.Fatal(err)
	}
	if d.Overview.TotalPosts != 3 {
		t.Fatalf("basic without retweets = %d posts, want 3", d.Overview.TotalPosts)
	}
	if n := len(reader.fields); n != len(BasicFields)+1 || reader.fields[n-1] != models.FIELD_IS_RETWEET_ID {
		t.Errorf("projection = %v, want basic fields plus %s", reader.fields, models.FIELD_IS_RETWEET_ID)
	}
	if len(BasicFields) != 6 {
		t.Errorf("BasicFields was modified: %v", BasicFields)
	}

	if _, err := svc.Build(context.Background(), Query{Variant: VARIANT_BASIC, IncludeRetweets: true}); err != nil {
		t.Fatal(err)
	}
	if reader.calls != 2 {
		t.Fatalf("sink reads = %d, want one per projection", reader.calls)
	}
	if len(cache.data) != 2 {
		t.Errorf("cache entries = %d, want 2", len(cache.data))
	}
}

func TestServiceBuildLangsAreUnfiltered(t *testing.T) {
	svc := NewService(NewLoader(&memReader{posts: fixture()}, nil, 0), nil)

	d, err := svc.Build(context.Background(), Query{Langs: []string{"en"}, IncludeRetweets: true})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"en", "fr", "pt"}; !reflect.DeepEqual(d.Langs, want) {
		t.Fatalf("langs = %v, want %v", d.Langs, want)
	}
	if d.Overview.TotalPosts != 2 {
		t.Errorf("filtered posts = %d, want 2", d.Overview.TotalPosts)
	}
}

func TestServiceBuildSinkError(t *testing.T) {
	svc := NewService(NewLoader(&memReader{err: errors.New("down")}, nil, 0), nil)
	if _, err := svc.Build(context.Background(), Query{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRenderReport(t *testing.T) {
	d := models.Dashboard{
		Variant:  VARIANT_EXTENDED,
		Overview: ComputeOverview(fixture()),
		Hashtags: TopHashtags(fixture(), 2),
		Sources:  TopSources(fixture(), 2),
	}
	md := RenderMarkdown(d)
	for _, want := range []string{"# World Cup tweets (extended)", "| 4 | 3 | 53 | 2 | EN |", "| FRA | 2 | 50.0% |", "Twitter for iPhone"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}

	html := string(RenderHTML(d))
	if !strings.Contains(html, "<table>") || !strings.Contains(html, "<h1>") {
		t.Errorf("html not rendered:\n%s", html)
	}
}
