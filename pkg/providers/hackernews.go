package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/samvad-hq/samvad-trend-scout/internal/domain"
	"github.com/samvad-hq/samvad-trend-scout/pkg/normalize"
)

// hackerNewsFetcher implements Fetcher for hackernews providers.
type hackerNewsFetcher struct {
	src StoriesSource
}

func NewHackerNewsFetcher(src StoriesSource) Fetcher {
	return &hackerNewsFetcher{src: src}
}

func (f *hackerNewsFetcher) ID() string {
	return TypeHackerNews
}

func (f *hackerNewsFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.Record, error) {
	if !strings.EqualFold(cfg.Type, TypeHackerNews) {
		return nil, fmt.Errorf("hackernews fetcher received incompatible provider type %q", cfg.Type)
	}
	stories, err := f.src.Fetch(ctx, cfg.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch hackernews for %s: %w", cfg.ID, err)
	}
	return normalize.HackerNews(stories), nil
}
