// Package normalize converts raw source payloads into domain.Record values.
// It only reshapes data: no ranking, scoring or de-duplication.
package normalize

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samvad-hq/samvad-trend-scout/internal/domain"
)

const (
	SourceHackerNews   = "hackernews"
	SourceGoogleTrends = "google_trends"

	maxSummaryRunes = 500
)

// HackerNews normalizes top-story records. Stories without a title, or with
// neither a url nor text, are skipped.
func HackerNews(stories []domain.Story) []domain.Record {
	out := make([]domain.Record, 0, len(stories))
	for _, s := range stories {
		title := stringField(s, "title")
		if title == "" {
			continue
		}
		link := stringField(s, "url")
		text := stringField(s, "text")
		if link == "" && text == "" {
			continue
		}

		id, hasID := int64Field(s, "id")
		if link == "" {
			if !hasID {
				continue
			}
			link = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", id)
		}

		rec := domain.Record{
			ID:      HashURL(link),
			Title:   title,
			Summary: Summary(text),
			URL:     link,
			Source:  SourceHackerNews,
			Raw:     s,
		}
		if ts, ok := int64Field(s, "time"); ok && ts > 0 {
			published := time.Unix(ts, 0).UTC()
			rec.PublishedAt = &published
		}
		out = append(out, rec)
	}
	return out
}

// GoogleTrends emits one record per non-blank keyword; each carries the whole result as Raw.
func GoogleTrends(res *domain.TrendsResult) []domain.Record {
	if res == nil || len(res.Keywords) == 0 {
		return nil
	}
	out := make([]domain.Record, 0, len(res.Keywords))
	for _, kw := range res.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		link := "https://trends.google.com/trends/explore?q=" + url.QueryEscape(kw)
		out = append(out, domain.Record{
			ID:      HashURL(link),
			Title:   "Google Trends: " + kw,
			Summary: fmt.Sprintf("Interest data for '%s' over the past 3 months", kw),
			URL:     link,
			Source:  SourceGoogleTrends,
			Raw:     res,
		})
	}
	return out
}

// HashURL derives a stable record id from a URL.
func HashURL(u string) string {
	sum := sha1.Sum([]byte(u))
	return hex.EncodeToString(sum[:])
}

func stringField(s domain.Story, key string) string {
	v, ok := s[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// int64Field reads a JSON number, which encoding/json decodes as float64.
func int64Field(s domain.Story, key string) (int64, bool) {
	switch v := s[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

// Summary trims s and caps it at maxSummaryRunes characters.
func Summary(s string) string {
	return truncate(strings.TrimSpace(s), maxSummaryRunes)
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	seen := 0
	for i := range s {
		if seen == n {
			return s[:i]
		}
		seen++
	}
	return s
}
