package hackernews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-trend-scout/internal/domain"
	"github.com/samvad-hq/samvad-trend-scout/internal/logger"
	"github.com/samvad-hq/samvad-trend-scout/pkg/httpclient"
)

const (
	DefaultBaseURL = "https://hacker-news.firebaseio.com"
	DefaultTimeout = 30 * time.Second
	DefaultLimit   = 30

	maxBodySnippet = 256
)

// ErrInvalidInput marks requests rejected before any network call.
var ErrInvalidInput = errors.New("hackernews: invalid input")

// StatusError reports a non-2xx response from the item API.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hackernews %s returned status %d body: %s", e.URL, e.StatusCode, e.Body)
}

// Fetcher collects top stories from the Hacker News Firebase API.
type Fetcher struct {
	client  httpclient.Client
	baseURL string
	log     logger.Logger
}

// NewFetcher builds a fetcher. A nil client gets a resty client with DefaultTimeout.
func NewFetcher(client httpclient.Client, baseURL string, log logger.Logger) *Fetcher {
	if client == nil {
		client = httpclient.NewRestyClient(DefaultTimeout)
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{client: client, baseURL: baseURL, log: logger.Ensure(log)}
}

// Fetch returns up to limit top stories in ranking order. Items are fetched one at
// a time; any failed item aborts the call. Empty item records are skipped.
func (f *Fetcher) Fetch(ctx context.Context, limit int) ([]domain.Story, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidInput, limit)
	}

	ids, err := f.topStoryIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	stories := make([]domain.Story, 0, len(ids))
	for _, id := range ids {
		story, err := f.item(ctx, id)
		if err != nil {
			return nil, err
		}
		if story.Empty() {
			f.log.DebugObj("hackernews item empty, skipped", "hackernews_item", id)
			continue
		}
		stories = append(stories, story)
	}

	f.log.InfoObj("hackernews top stories fetched", "hackernews_result", map[string]any{
		"requested": limit,
		"ids":       len(ids),
		"stories":   len(stories),
	})
	return stories, nil
}

func (f *Fetcher) topStoryIDs(ctx context.Context) ([]int64, error) {
	body, err := f.get(ctx, f.baseURL+"/v0/topstories.json")
	if err != nil {
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("decode top stories: %w", err)
	}
	return ids, nil
}

func (f *Fetcher) item(ctx context.Context, id int64) (domain.Story, error) {
	body, err := f.get(ctx, fmt.Sprintf("%s/v0/item/%d.json", f.baseURL, id))
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode item %d: %w", id, err)
	}
	if falsy(v) {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decode item %d: expected object, got %T", id, v)
	}
	return domain.Story(obj), nil
}

// falsy reports whether a decoded JSON value is null, false, zero or empty.
func falsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.Get(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("hackernews get %s: %w", url, err)
	}
	body := resp.Body()
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode(), Body: snippet(body)}
	}
	return body, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxBodySnippet {
		return s[:maxBodySnippet] + "..."
	}
	return s
}
