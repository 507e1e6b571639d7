package providers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-trend-scout/internal/domain"
)

func TestLoadRegistryYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "providers.yaml")
	content := `
providers:
  - id: lang-trends
    name: Language interest
    type: google_trends
    keywords: [" golang ", "rust", ""]
    request_delay_ms: 750
  - id: hn-top
    name: HN top stories
    type: hackernews
    limit: 20
    config:
      enrich: true
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write providers file: %v", err)
	}

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	if len(reg.All()) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(reg.All()))
	}

	p, ok := reg.ByID("lang-trends")
	if !ok {
		t.Fatalf("expected provider lang-trends to be loaded")
	}
	if strings.Join(p.Keywords, ",") != "golang,rust" {
		t.Fatalf("unexpected keywords: %v", p.Keywords)
	}
	if p.RequestDelay() != 750*time.Millisecond {
		t.Fatalf("unexpected request delay: %v", p.RequestDelay())
	}

	hn, _ := reg.ByID("hn-top")
	if !ConfigBool(hn, ConfigEnrichKey, false) {
		t.Fatalf("expected enrich flag to be read")
	}
	if hn.RequestDelay() != 500*time.Millisecond {
		t.Fatalf("expected default delay, got %v", hn.RequestDelay())
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "providers.json")
	content := `{"providers":[{"id":"hn","name":"HN","type":"hackernews","limit":5}]}`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write providers file: %v", err)
	}

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	if p, ok := reg.ByID("hn"); !ok || p.Limit != 5 {
		t.Fatalf("unexpected provider %+v", p)
	}
}

func TestNewRegistryValidation(t *testing.T) {
	cases := map[string][]Provider{
		"duplicate": {
			{ID: "dup", Name: "One", Type: TypeHackerNews, Limit: 1},
			{ID: "dup", Name: "Two", Type: TypeHackerNews, Limit: 1},
		},
		"too many keywords": {
			{ID: "t", Name: "T", Type: TypeGoogleTrends, Keywords: []string{"a", "b", "c", "d", "e", "f"}},
		},
		"no keywords":    {{ID: "t", Name: "T", Type: TypeGoogleTrends}},
		"zero limit":     {{ID: "h", Name: "H", Type: TypeHackerNews}},
		"unknown type":   {{ID: "x", Name: "X", Type: "rss"}},
		"missing name":   {{ID: "x", Type: TypeHackerNews, Limit: 1}},
		"empty registry": nil,
	}
	for name, list := range cases {
		if _, err := NewRegistry(list); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

type fakeTrends struct {
	got []string
	res *domain.TrendsResult
	err error
}

func (f *fakeTrends) Fetch(_ context.Context, keywords []string) (*domain.TrendsResult, error) {
	f.got = keywords
	return f.res, f.err
}

type fakeStories struct {
	limit   int
	stories []domain.Story
	err     error
}

func (f *fakeStories) Fetch(_ context.Context, limit int) ([]domain.Story, error) {
	f.limit = limit
	return f.stories, f.err
}

func TestDefaultFetcherRegistryResolvesByType(t *testing.T) {
	trendsSrc := &fakeTrends{res: &domain.TrendsResult{Keywords: []string{"go"}}}
	storiesSrc := &fakeStories{stories: []domain.Story{{"id": float64(1), "title": "t", "url": "https://example.com"}}}
	reg := DefaultFetcherRegistry(trendsSrc, storiesSrc)

	trendsCfg := Provider{ID: "lang", Type: TypeGoogleTrends, Keywords: []string{"go"}}
	f, err := reg.FetcherFor(trendsCfg)
	if err != nil {
		t.Fatalf("FetcherFor trends: %v", err)
	}
	recs, err := f.Fetch(context.Background(), trendsCfg)
	if err != nil || len(recs) != 1 || recs[0].Source != "google_trends" {
		t.Fatalf("unexpected trends records %v err=%v", recs, err)
	}

	hnCfg := Provider{ID: "hn", Type: TypeHackerNews, Limit: 7}
	f, err = reg.FetcherFor(hnCfg)
	if err != nil {
		t.Fatalf("FetcherFor hackernews: %v", err)
	}
	recs, err = f.Fetch(context.Background(), hnCfg)
	if err != nil || len(recs) != 1 || storiesSrc.limit != 7 {
		t.Fatalf("unexpected hackernews records %v err=%v limit=%d", recs, err, storiesSrc.limit)
	}

	if _, err := reg.FetcherFor(Provider{ID: "rss", Type: "rss"}); !errors.Is(err, ErrNoFetcher) {
		t.Fatalf("expected ErrNoFetcher for unregistered type, got %v", err)
	}
}

type namedFetcher struct{ id string }

func (n namedFetcher) ID() string { return n.id }
func (n namedFetcher) Fetch(context.Context, Provider) ([]domain.Record, error) {
	return []domain.Record{{ID: n.id}}, nil
}

func TestResolverPrefersIDBinding(t *testing.T) {
	r := NewResolver().
		BindType(TypeHackerNews, namedFetcher{id: "by-type"}).
		Bind(namedFetcher{id: "HN-Front"})

	f, err := r.FetcherFor(Provider{ID: " hn-front ", Type: TypeHackerNews})
	if err != nil || f.ID() != "HN-Front" {
		t.Fatalf("expected id binding, got %v err=%v", f, err)
	}
	f, err = r.FetcherFor(Provider{ID: "other", Type: "HackerNews"})
	if err != nil || f.ID() != "by-type" {
		t.Fatalf("expected type binding, got %v err=%v", f, err)
	}
	if _, err := r.FetcherFor(Provider{Type: TypeHackerNews}); err == nil {
		t.Fatalf("expected error for empty provider id")
	}
}

func TestSourceFetcherWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	f := NewGoogleTrendsFetcher(&fakeTrends{err: boom})
	_, err := f.Fetch(context.Background(), Provider{ID: "lang", Type: TypeGoogleTrends})
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "lang") {
		t.Fatalf("expected wrapped error naming provider, got %v", err)
	}

	if _, err := f.Fetch(context.Background(), Provider{ID: "hn", Type: TypeHackerNews}); err == nil {
		t.Fatalf("expected incompatible type error")
	}
}

func TestPageHeadersDefaultsUserAgent(t *testing.T) {
	h := PageHeaders(Provider{})
	if h["User-Agent"] == "" {
		t.Fatalf("expected default user agent")
	}
	h = PageHeaders(Provider{Config: map[string]any{ConfigUserAgentKey: "UA", ConfigAcceptLanguageKey: "en"}})
	if h["User-Agent"] != "UA" || h["Accept-Language"] != "en" {
		t.Fatalf("unexpected headers %v", h)
	}
}
