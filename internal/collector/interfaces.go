package collector

import (
	"context"

	"github.com/samvad-hq/samvad-trend-scout/internal/domain"
	"github.com/samvad-hq/samvad-trend-scout/pkg/providers"
	"github.com/samvad-hq/samvad-trend-scout/pkg/publishers"
)

// RecordEnricher fills in page metadata (OG tags) for collected records.
type RecordEnricher interface {
	Enrich(ctx context.Context, cfg providers.Provider, records []domain.Record) []domain.Record
}

// EventPublisher publishes records downstream and reports how many sinks accepted them.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers records that were already published.
type Deduper interface {
	SeenRecord(ctx context.Context, id string) (bool, error)
	MarkRecord(ctx context.Context, id string) error
}
