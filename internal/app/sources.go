package app

import (
	"github.com/samvad-hq/samvad-trend-scout/internal/config"
	"github.com/samvad-hq/samvad-trend-scout/internal/logger"
	"github.com/samvad-hq/samvad-trend-scout/pkg/hackernews"
	"github.com/samvad-hq/samvad-trend-scout/pkg/httpclient"
	"github.com/samvad-hq/samvad-trend-scout/pkg/providers"
	"github.com/samvad-hq/samvad-trend-scout/pkg/trends"
)

// TrendsSource and StoriesSource are the fetcher surfaces handed to the API and CLI.
type (
	TrendsSource  = providers.TrendsSource
	StoriesSource = providers.StoriesSource
)

// Sources bundles the two upstream fetchers shared by the collector, the API and the CLI.
type Sources struct {
	Trends *trends.Fetcher
	News   *hackernews.Fetcher
}

// NewSources builds the Google Trends and Hacker News fetchers from config.
func NewSources(cfg *config.Config, log logger.Logger) *Sources {
	log = logger.Ensure(log)
	querier := trends.NewGoogleQuerier(nil, cfg.TrendsBaseURL)
	return &Sources{
		Trends: trends.NewFetcher(querier, trends.Options{
			MaxRetries: cfg.TrendsMaxRetries,
			BaseDelay:  cfg.TrendsBaseDelay,
		}, log),
		News: hackernews.NewFetcher(httpclient.NewRestyClient(cfg.HackerNewsTimeout), cfg.HackerNewsBaseURL, log),
	}
}
