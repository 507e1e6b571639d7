package collector

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/samvad-hq/samvad-trend-scout/internal/domain"
	"github.com/samvad-hq/samvad-trend-scout/pkg/providers"
	"github.com/samvad-hq/samvad-trend-scout/pkg/publishers"
)

// fakeFetcher returns preset records or an error.
type fakeFetcher struct {
	id      string
	records []domain.Record
	err     error
	calls   int
}

func (f *fakeFetcher) ID() string { return f.id }
func (f *fakeFetcher) Fetch(_ context.Context, _ providers.Provider) ([]domain.Record, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

// fakeRegistry maps every provider to a single fetcher.
type fakeRegistry struct {
	fetcher providers.Fetcher
}

func (f *fakeRegistry) FetcherFor(_ providers.Provider) (providers.Fetcher, error) {
	if f.fetcher == nil {
		return nil, errors.New("missing fetcher")
	}
	return f.fetcher, nil
}

// fakeEnricher prefixes titles.
type fakeEnricher struct {
	prefix string
	calls  int
}

func (f *fakeEnricher) Enrich(_ context.Context, _ providers.Provider, records []domain.Record) []domain.Record {
	f.calls++
	out := make([]domain.Record, len(records))
	for i, r := range records {
		r.Title = f.prefix + r.Title
		out[i] = r
	}
	return out
}

// fakePublisher records published events and can inject errors.
type fakePublisher struct {
	mu        sync.Mutex
	events    []publishers.Event
	errOnID   string
	successes int
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if evt.Record.ID == f.errOnID {
		return 0, errors.New("boom")
	}
	f.successes++
	return 1, nil
}

// fakeDeduper tracks seen IDs.
type fakeDeduper struct {
	mu      sync.Mutex
	seen    map[string]bool
	failID  string
	failErr error
}

func (f *fakeDeduper) SeenRecord(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.failID && f.failErr != nil {
		return false, f.failErr
	}
	return f.seen[id], nil
}

func (f *fakeDeduper) MarkRecord(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	f.seen[id] = true
	return nil
}

func enrichedProvider() providers.Provider {
	return providers.Provider{
		ID:     "hn",
		Name:   "Hacker News",
		Type:   providers.TypeHackerNews,
		Config: map[string]any{providers.ConfigEnrichKey: true},
	}
}

func TestProcessorPublishesFreshRecordsOnly(t *testing.T) {
	records := []domain.Record{
		{ID: "r1", Title: "old"},
		{ID: "r2", Title: "new"},
	}

	deduper := &fakeDeduper{seen: map[string]bool{"r1": true}}
	pub := &fakePublisher{}
	enricher := &fakeEnricher{prefix: "enriched-"}

	processor := NewProviderProcessor(&fakeRegistry{
		fetcher: &fakeFetcher{id: "hn", records: records},
	}, enricher, pub, nil, deduper)

	if err := processor.Process(context.Background(), enrichedProvider()); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.events))
	}
	evt := pub.events[0]
	if evt.Record.ID != "r2" || evt.Record.Title != "enriched-new" {
		t.Fatalf("unexpected record %+v", evt.Record)
	}
	if evt.SourceID != "hn" || evt.SourceName != "Hacker News" {
		t.Fatalf("event source not set: %+v", evt)
	}
	if !deduper.seen["r2"] {
		t.Fatalf("MarkRecord not called for new record")
	}
}

func TestProcessorSkipsEnrichmentUnlessEnabled(t *testing.T) {
	enricher := &fakeEnricher{prefix: "x-"}
	processor := NewProviderProcessor(&fakeRegistry{
		fetcher: &fakeFetcher{id: "hn", records: []domain.Record{{ID: "r1"}}},
	}, enricher, &fakePublisher{}, nil, nil)

	if err := processor.Process(context.Background(), providers.Provider{ID: "hn"}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if enricher.calls != 0 {
		t.Fatalf("enricher should not run without the enrich flag")
	}
}

func TestProcessorAggregatesPublishErrors(t *testing.T) {
	pub := &fakePublisher{errOnID: "bad"}
	deduper := &fakeDeduper{}
	processor := NewProviderProcessor(&fakeRegistry{
		fetcher: &fakeFetcher{id: "hn", records: []domain.Record{{ID: "bad"}, {ID: "good"}}},
	}, nil, pub, nil, deduper)

	err := processor.Process(context.Background(), providers.Provider{ID: "hn"})
	if err == nil || !strings.Contains(err.Error(), "bad") {
		t.Fatalf("expected error mentioning bad record, got %v", err)
	}
	if deduper.seen["bad"] {
		t.Fatalf("undelivered record must not be marked seen")
	}
	if !deduper.seen["good"] {
		t.Fatalf("delivered record should be marked seen")
	}
}

func TestProcessorWrapsFetchError(t *testing.T) {
	processor := NewProviderProcessor(&fakeRegistry{
		fetcher: &fakeFetcher{id: "trends", err: errors.New("rate limited")},
	}, nil, &fakePublisher{}, nil, nil)

	err := processor.Process(context.Background(), providers.Provider{ID: "trends"})
	if err == nil || !strings.Contains(err.Error(), "fetch provider trends") {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
}

func TestServiceRunAllCancelsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeFetcher{id: "p"}
	svc := NewService(&fakeRegistry{fetcher: fetcher}, nil, nil, nil)
	errs := svc.runAll(ctx, []providers.Provider{{ID: "p"}})
	if len(errs) != 0 {
		t.Fatalf("expected no errors on cancelled context, got %v", errs)
	}
	if fetcher.calls != 0 {
		t.Fatalf("fetcher should not run after cancellation")
	}
}

func TestServiceRunJoinsProviderErrors(t *testing.T) {
	svc := NewService(&fakeRegistry{fetcher: &fakeFetcher{id: "p", err: errors.New("down")}}, &fakePublisher{}, nil, nil)
	err := svc.Run(context.Background(), []providers.Provider{{ID: "a"}, {ID: "b"}})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if !strings.Contains(err.Error(), "provider a") || !strings.Contains(err.Error(), "provider b") {
		t.Fatalf("expected both providers in error, got %v", err)
	}
}

func TestRunReturnsErrorOnEmptyProviders(t *testing.T) {
	svc := NewService(&fakeRegistry{fetcher: &fakeFetcher{id: "p"}}, nil, nil, nil)
	if err := svc.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error when providers list empty")
	}
}

func TestFilterNewRecordsHandlesDeduperErrors(t *testing.T) {
	deduper := &fakeDeduper{
		seen:    map[string]bool{"keep": false, "skip": true},
		failID:  "error",
		failErr: errors.New("lookup failed"),
	}
	processor := NewProviderProcessor(&fakeRegistry{fetcher: &fakeFetcher{id: "p"}}, nil, nil, nil, deduper)
	records := []domain.Record{{ID: "keep"}, {ID: "skip"}, {ID: "error"}}

	filtered := processor.filterNewRecords(context.Background(), providers.Provider{ID: "p"}, records)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 records after filter, got %d", len(filtered))
	}
	if filtered[0].ID != "keep" || filtered[1].ID != "error" {
		t.Fatalf("unexpected filter result %#v", filtered)
	}
}
