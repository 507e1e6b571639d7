package providers

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-trend-scout/pkg/httpclient"
)

// ErrNoFetcher is returned when neither the provider id nor its type has a fetcher.
var ErrNoFetcher = errors.New("no fetcher registered")

// Resolver looks fetchers up by provider id first and falls back to the provider type.
type Resolver struct {
	mu     sync.RWMutex
	byID   map[string]Fetcher
	byType map[string]Fetcher
}

// NewResolver returns an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{byID: map[string]Fetcher{}, byType: map[string]Fetcher{}}
}

func lookupKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Bind attaches a fetcher to a single provider id, taking precedence over type bindings.
func (r *Resolver) Bind(f Fetcher) *Resolver {
	if f == nil || lookupKey(f.ID()) == "" {
		return r
	}
	r.mu.Lock()
	r.byID[lookupKey(f.ID())] = f
	r.mu.Unlock()
	return r
}

// BindType attaches a fetcher to every provider of the given type.
func (r *Resolver) BindType(typ string, f Fetcher) *Resolver {
	if f == nil || lookupKey(typ) == "" {
		return r
	}
	r.mu.Lock()
	r.byType[lookupKey(typ)] = f
	r.mu.Unlock()
	return r
}

// FetcherFor implements FetcherRegistry.
func (r *Resolver) FetcherFor(cfg Provider) (Fetcher, error) {
	if r == nil {
		return nil, errors.New("fetcher registry is nil")
	}
	id := lookupKey(cfg.ID)
	if id == "" {
		return nil, errors.New("provider id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.byID[id]; ok {
		return f, nil
	}
	if f, ok := r.byType[lookupKey(cfg.Type)]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w for provider %q (type %q)", ErrNoFetcher, cfg.ID, cfg.Type)
}

// DefaultHTTPClient returns a tuned client for page fetches outside the two source APIs.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }

// DefaultFetcherRegistry binds the built-in source types. Nil sources are left unbound.
func DefaultFetcherRegistry(trendsSrc TrendsSource, storiesSrc StoriesSource) FetcherRegistry {
	r := NewResolver()
	if trendsSrc != nil {
		r.BindType(TypeGoogleTrends, NewGoogleTrendsFetcher(trendsSrc))
	}
	if storiesSrc != nil {
		r.BindType(TypeHackerNews, NewHackerNewsFetcher(storiesSrc))
	}
	return r
}
