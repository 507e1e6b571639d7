package trends

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/samvad-trend-scout/internal/domain"
	"github.com/samvad-hq/samvad-trend-scout/internal/logger"
)

const (
	// MaxKeywords is the provider's comparison limit.
	MaxKeywords = 5

	DefaultMaxRetries = 3
	DefaultBaseDelay  = 2 * time.Second

	DefaultTimeframe = "today 3-m"
)

// Query is a single interest-over-time request.
type Query struct {
	Keywords  []string
	Category  int
	Timeframe string
	Geo       string
	Property  string
}

// Querier executes one provider query with no internal retries.
type Querier interface {
	InterestOverTime(ctx context.Context, q Query) ([]domain.TrendPoint, error)
}

// Options tunes the retry loop.
type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
}

func normalizeOptions(opts Options) Options {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	return opts
}

// Fetcher retrieves search-interest series and retries throttled queries with
// exponential backoff. It holds no per-call state and is safe for concurrent use.
type Fetcher struct {
	querier Querier
	opts    Options
	log     logger.Logger
	wait    func(ctx context.Context, d time.Duration) error
}

// NewFetcher wires a fetcher around the given querier.
func NewFetcher(q Querier, opts Options, log logger.Logger) *Fetcher {
	return &Fetcher{
		querier: q,
		opts:    normalizeOptions(opts),
		log:     logger.Ensure(log),
		wait:    sleepContext,
	}
}

// Fetch returns the interest-over-time series for up to MaxKeywords keywords.
func (f *Fetcher) Fetch(ctx context.Context, keywords []string) (*domain.TrendsResult, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("%w: keywords list cannot be empty", ErrInvalidInput)
	}
	if len(keywords) > MaxKeywords {
		return nil, fmt.Errorf("%w: google trends supports at most %d keywords, got %d", ErrInvalidInput, MaxKeywords, len(keywords))
	}
	if f == nil || f.querier == nil {
		return nil, fmt.Errorf("trends fetcher is not initialized")
	}

	kws := append([]string(nil), keywords...)
	q := Query{Keywords: kws, Category: 0, Timeframe: DefaultTimeframe}

	for attempt := 0; attempt < f.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(f.opts.BaseDelay, attempt)
			f.log.WarnObj("rate limited by google trends, retrying", "trends_retry", map[string]any{
				"keywords":    kws,
				"delay":       delay.String(),
				"attempt":     attempt + 1,
				"max_retries": f.opts.MaxRetries,
			})
			if err := f.wait(ctx, delay); err != nil {
				return nil, err
			}
		}

		points, err := f.querier.InterestOverTime(ctx, q)
		if err == nil {
			if points == nil {
				points = []domain.TrendPoint{}
			}
			return &domain.TrendsResult{Keywords: kws, Data: points}, nil
		}

		if !IsRateLimited(err) {
			f.log.ErrorObj("google trends query failed", "trends_error", map[string]any{
				"keywords": kws,
				"error":    err.Error(),
			})
			return nil, err
		}
		if attempt == f.opts.MaxRetries-1 {
			f.log.ErrorObj("google trends rate limit exhausted", "trends_error", map[string]any{
				"keywords": kws,
				"attempts": f.opts.MaxRetries,
			})
			return nil, &RateLimitExhaustedError{Keywords: kws, Attempts: f.opts.MaxRetries, Err: err}
		}
	}

	// unreachable: MaxRetries is normalized to at least one attempt
	return nil, fmt.Errorf("trends fetch made no attempts")
}

// backoff returns base * 2^attempt.
func backoff(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<uint(attempt))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
