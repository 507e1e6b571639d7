package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/samvad-hq/samvad-trend-scout/internal/domain"
	"github.com/samvad-hq/samvad-trend-scout/pkg/normalize"
)

// googleTrendsFetcher implements Fetcher for google_trends providers.
type googleTrendsFetcher struct {
	src TrendsSource
}

func NewGoogleTrendsFetcher(src TrendsSource) Fetcher {
	return &googleTrendsFetcher{src: src}
}

func (f *googleTrendsFetcher) ID() string {
	return TypeGoogleTrends
}

func (f *googleTrendsFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.Record, error) {
	if !strings.EqualFold(cfg.Type, TypeGoogleTrends) {
		return nil, fmt.Errorf("google trends fetcher received incompatible provider type %q", cfg.Type)
	}
	res, err := f.src.Fetch(ctx, cfg.Keywords)
	if err != nil {
		return nil, fmt.Errorf("fetch google trends for %s: %w", cfg.ID, err)
	}
	return normalize.GoogleTrends(res), nil
}
