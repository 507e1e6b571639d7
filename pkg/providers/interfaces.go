package providers

import (
	"context"

	"github.com/samvad-hq/samvad-trend-scout/internal/domain"
	"github.com/samvad-hq/samvad-trend-scout/pkg/httpclient"
)

// Fetcher retrieves normalized records for a provider.
// Concrete implementations live in source-specific files (e.g., google_trends.go).
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider) ([]domain.Record, error)
}

// FetcherRegistry resolves the fetcher implementation for a given provider config.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

// TrendsSource is the subset of trends.Fetcher used here.
type TrendsSource interface {
	Fetch(ctx context.Context, keywords []string) (*domain.TrendsResult, error)
}

// StoriesSource is the subset of hackernews.Fetcher used here.
type StoriesSource interface {
	Fetch(ctx context.Context, limit int) ([]domain.Story, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within providers.
type HTTPClient = httpclient.Client
