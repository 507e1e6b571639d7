package domain

import "time"

// Domain contains core models shared by fetchers, collector and publishers.

// TrendPoint is one time point of an interest-over-time series.
type TrendPoint struct {
	Date      time.Time      `json:"date"`
	Values    map[string]int `json:"values"`
	IsPartial bool           `json:"isPartial"`
}

// TrendsResult is the normalized search-interest series for a keyword query.
// An empty Data slice is a valid result.
type TrendsResult struct {
	Keywords []string     `json:"keywords"`
	Data     []TrendPoint `json:"data"`
}

// Story is an opaque Hacker News item record.
type Story map[string]any

// Empty reports whether the record carries no data.
func (s Story) Empty() bool { return len(s) == 0 }

// Record is the canonical, source-independent shape produced by the normalizer.
type Record struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	ImageURL    string     `json:"image_url,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Raw         any        `json:"raw,omitempty"`
}
