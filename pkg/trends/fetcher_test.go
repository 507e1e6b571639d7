package trends

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-trend-scout/internal/domain"
	"github.com/samvad-hq/samvad-trend-scout/internal/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// scriptedQuerier returns errs[i] on call i, then points.
type scriptedQuerier struct {
	mu     sync.Mutex
	errs   []error
	points []domain.TrendPoint
	calls  int
	last   Query
}

func (s *scriptedQuerier) InterestOverTime(_ context.Context, q Query) ([]domain.TrendPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	s.calls++
	s.last = q
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	return s.points, nil
}

func newTestFetcher(q Querier, maxRetries int) (*Fetcher, *[]time.Duration) {
	var waits []time.Duration
	f := NewFetcher(q, Options{MaxRetries: maxRetries, BaseDelay: time.Millisecond}, nil)
	f.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return f, &waits
}

func samplePoints(n int) []domain.TrendPoint {
	out := make([]domain.TrendPoint, n)
	for i := range out {
		out[i] = domain.TrendPoint{
			Date:   time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC),
			Values: map[string]int{"go": 10 * i, "rust": 5 * i},
		}
	}
	return out
}

func TestFetchRejectsInvalidKeywordCounts(t *testing.T) {
	q := &scriptedQuerier{}
	f, _ := newTestFetcher(q, 3)

	for _, kws := range [][]string{nil, {}, {"a", "b", "c", "d", "e", "f"}} {
		_, err := f.Fetch(context.Background(), kws)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Fetch(%v) err = %v, want ErrInvalidInput", kws, err)
		}
	}
	if q.calls != 0 {
		t.Fatalf("expected no provider calls, got %d", q.calls)
	}
}

func TestFetchReturnsKeywordsAndAllPoints(t *testing.T) {
	q := &scriptedQuerier{points: samplePoints(4)}
	f, _ := newTestFetcher(q, 3)
	kws := []string{"go", "rust"}

	res, err := f.Fetch(context.Background(), kws)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Keywords) != 2 || res.Keywords[0] != "go" || res.Keywords[1] != "rust" {
		t.Fatalf("unexpected keywords %v", res.Keywords)
	}
	if len(res.Data) != 4 {
		t.Fatalf("expected 4 points, got %d", len(res.Data))
	}
	if q.last.Timeframe != "today 3-m" || q.last.Category != 0 || q.last.Geo != "" || q.last.Property != "" {
		t.Fatalf("unexpected query %+v", q.last)
	}
}

func TestFetchAcceptsFiveKeywords(t *testing.T) {
	q := &scriptedQuerier{points: samplePoints(1)}
	f, _ := newTestFetcher(q, 3)

	if _, err := f.Fetch(context.Background(), []string{"a", "b", "c", "d", "e"}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
}

func TestFetchEmptySeriesIsSuccess(t *testing.T) {
	q := &scriptedQuerier{}
	f, _ := newTestFetcher(q, 3)

	res, err := f.Fetch(context.Background(), []string{"obscure"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Data == nil || len(res.Data) != 0 {
		t.Fatalf("expected empty non-nil data, got %#v", res.Data)
	}
}

func TestFetchRetriesRateLimitThenSucceeds(t *testing.T) {
	q := &scriptedQuerier{
		errs: []error{
			errors.New("The request failed: Google returned a response with code 429"),
			errors.New("Too Many Requests"),
		},
		points: samplePoints(2),
	}
	f, waits := newTestFetcher(q, 3)

	res, err := f.Fetch(context.Background(), []string{"go"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if q.calls != 3 {
		t.Fatalf("expected 3 provider calls, got %d", q.calls)
	}
	if len(res.Data) != 2 {
		t.Fatalf("expected 2 points, got %d", len(res.Data))
	}
	want := []time.Duration{2 * time.Millisecond, 4 * time.Millisecond}
	if len(*waits) != len(want) {
		t.Fatalf("waits = %v, want %v", *waits, want)
	}
	for i := range want {
		if (*waits)[i] != want[i] {
			t.Fatalf("waits = %v, want %v", *waits, want)
		}
	}
}

func TestFetchRateLimitExhausted(t *testing.T) {
	limited := errors.New("rate limit reached")
	q := &scriptedQuerier{errs: []error{limited, limited, limited}}
	f, _ := newTestFetcher(q, 2)

	_, err := f.Fetch(context.Background(), []string{"go", "rust"})
	if q.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", q.calls)
	}
	if !errors.Is(err, ErrRateLimitExhausted) {
		t.Fatalf("expected ErrRateLimitExhausted, got %v", err)
	}
	var exhausted *RateLimitExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *RateLimitExhaustedError, got %T", err)
	}
	if exhausted.Attempts != 2 || len(exhausted.Keywords) != 2 {
		t.Fatalf("unexpected error fields %+v", exhausted)
	}
	if !errors.Is(err, limited) {
		t.Fatalf("expected exhausted error to wrap the last provider error")
	}
}

func TestFetchNonRateLimitErrorIsNotRetried(t *testing.T) {
	boom := errors.New("connection reset by peer")
	q := &scriptedQuerier{errs: []error{boom}}
	f, waits := newTestFetcher(q, 3)

	_, err := f.Fetch(context.Background(), []string{"go"})
	if err != boom {
		t.Fatalf("expected original error, got %v", err)
	}
	if q.calls != 1 || len(*waits) != 0 {
		t.Fatalf("expected a single call and no waits, calls=%d waits=%v", q.calls, *waits)
	}
}

func TestFetchStopsWhenContextCancelledDuringBackoff(t *testing.T) {
	q := &scriptedQuerier{errs: []error{errors.New("429"), errors.New("429")}}
	f := NewFetcher(q, Options{MaxRetries: 3, BaseDelay: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.Fetch(ctx, []string{"go"})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Fetch did not return after cancellation")
	}
}

func observedFetcher(q Querier, maxRetries int) (*Fetcher, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	f := NewFetcher(q, Options{MaxRetries: maxRetries, BaseDelay: time.Millisecond}, logger.NewZapLogger(zap.New(core)))
	f.wait = func(context.Context, time.Duration) error { return nil }
	return f, logs
}

func TestFetchLogsWarningBeforeEachRetry(t *testing.T) {
	throttled := errors.New("429 Too Many Requests")
	q := &scriptedQuerier{errs: []error{throttled, throttled}, points: samplePoints(1)}
	f, logs := observedFetcher(q, 3)

	if _, err := f.Fetch(context.Background(), []string{"go"}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if n := logs.FilterLevelExact(zapcore.WarnLevel).Len(); n != 2 {
		t.Fatalf("expected 2 retry warnings, got %d", n)
	}
	if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 0 {
		t.Fatalf("expected no error entries on success, got %d", n)
	}
}

func TestFetchLogsErrorOnceOnExhaustion(t *testing.T) {
	throttled := errors.New("rate limit")
	q := &scriptedQuerier{errs: []error{throttled, throttled, throttled}}
	f, logs := observedFetcher(q, 3)

	if _, err := f.Fetch(context.Background(), []string{"go"}); !errors.Is(err, ErrRateLimitExhausted) {
		t.Fatalf("expected ErrRateLimitExhausted, got %v", err)
	}
	if n := logs.FilterLevelExact(zapcore.WarnLevel).Len(); n != 2 {
		t.Fatalf("expected 2 retry warnings, got %d", n)
	}
	errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	if len(errs) != 1 {
		t.Fatalf("expected exactly 1 error entry, got %d", len(errs))
	}
	fields, ok := errs[0].ContextMap()["trends_error"].(map[string]any)
	if !ok || fields["attempts"] != 3 {
		t.Fatalf("error entry missing attempts: %#v", errs[0].ContextMap())
	}
}

func TestIsRateLimited(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("HTTP 429"), true},
		{errors.New("TOO MANY REQUESTS"), true},
		{errors.New("Rate Limit exceeded"), true},
		{&StatusError{Endpoint: "explore", StatusCode: 429}, true},
		{&StatusError{Endpoint: "explore", StatusCode: 500}, false},
		{&StatusError{Endpoint: "explore", StatusCode: 400, Body: "<p>rate limit: 429</p>"}, false},
		{errors.New("dns lookup failed"), false},
	}
	for _, tc := range cases {
		if got := IsRateLimited(tc.err); got != tc.want {
			t.Fatalf("IsRateLimited(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestNormalizeOptionsDefaults(t *testing.T) {
	opts := normalizeOptions(Options{})
	if opts.MaxRetries != DefaultMaxRetries || opts.BaseDelay != DefaultBaseDelay {
		t.Fatalf("unexpected defaults %+v", opts)
	}
	if got := backoff(2*time.Second, 2); got != 8*time.Second {
		t.Fatalf("backoff = %v, want 8s", got)
	}
}
