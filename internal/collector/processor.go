package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/samvad-trend-scout/internal/domain"
	"github.com/samvad-hq/samvad-trend-scout/internal/logger"
	"github.com/samvad-hq/samvad-trend-scout/pkg/providers"
	"github.com/samvad-hq/samvad-trend-scout/pkg/publishers"
)

// ProviderProcessor runs one collection pass for a single provider.
type ProviderProcessor struct {
	registry  providers.FetcherRegistry
	enricher  RecordEnricher
	publisher EventPublisher
	log       logger.Logger
	deduper   Deduper
}

// NewProviderProcessor wires a processor. enricher, publisher and deduper may be nil.
func NewProviderProcessor(reg providers.FetcherRegistry, enricher RecordEnricher, pub EventPublisher, log logger.Logger, deduper Deduper) *ProviderProcessor {
	return &ProviderProcessor{
		registry:  reg,
		enricher:  enricher,
		publisher: pub,
		log:       logger.Ensure(log),
		deduper:   deduper,
	}
}

// Process fetches, filters, enriches and publishes records for cfg.
func (p *ProviderProcessor) Process(ctx context.Context, cfg providers.Provider) error {
	fetcher, err := p.registry.FetcherFor(cfg)
	if err != nil {
		return fmt.Errorf("resolve fetcher for provider %s: %w", cfg.ID, err)
	}

	records, err := fetcher.Fetch(ctx, cfg)
	if err != nil {
		return fmt.Errorf("fetch provider %s: %w", cfg.ID, err)
	}
	fetched := len(records)

	records = p.filterNewRecords(ctx, cfg, records)
	if len(records) == 0 {
		p.log.InfoObj("provider has no new records", "provider_result", map[string]any{
			"provider_id":     cfg.ID,
			"records_fetched": fetched,
		})
		return nil
	}

	if p.enricher != nil && providers.ConfigBool(cfg, providers.ConfigEnrichKey, false) {
		records = p.enricher.Enrich(ctx, cfg, records)
	}

	published, errs := p.publishRecords(ctx, cfg, records)

	p.log.InfoObj("provider collection completed", "provider_result", map[string]any{
		"provider_id":       cfg.ID,
		"records_fetched":   fetched,
		"records_new":       len(records),
		"records_published": published,
	})
	return errors.Join(errs...)
}

func (p *ProviderProcessor) publishRecords(ctx context.Context, cfg providers.Provider, records []domain.Record) (int, []error) {
	if p.publisher == nil {
		return 0, nil
	}

	var errs []error
	published := 0
	for _, rec := range records {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		delivered, err := p.publisher.Publish(ctx, publishers.NewEvent(cfg.ID, cfg.Name, rec))
		if err != nil {
			errs = append(errs, fmt.Errorf("publish record %s: %w", rec.ID, err))
		}
		if delivered == 0 {
			continue
		}
		published++
		p.markSeen(ctx, cfg, rec)
	}
	return published, errs
}

// filterNewRecords drops records the deduper has seen. Lookup failures keep the record.
func (p *ProviderProcessor) filterNewRecords(ctx context.Context, cfg providers.Provider, records []domain.Record) []domain.Record {
	if p.deduper == nil {
		return records
	}

	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		seen, err := p.deduper.SeenRecord(ctx, rec.ID)
		if err != nil {
			p.log.WarnObj("dedupe lookup failed", "dedupe_error", map[string]any{
				"provider_id": cfg.ID,
				"record_id":   rec.ID,
				"error":       err.Error(),
			})
			out = append(out, rec)
			continue
		}
		if !seen {
			out = append(out, rec)
		}
	}
	return out
}

func (p *ProviderProcessor) markSeen(ctx context.Context, cfg providers.Provider, rec domain.Record) {
	if p.deduper == nil {
		return
	}
	if err := p.deduper.MarkRecord(ctx, rec.ID); err != nil {
		p.log.WarnObj("dedupe mark failed", "dedupe_error", map[string]any{
			"provider_id": cfg.ID,
			"record_id":   rec.ID,
			"error":       err.Error(),
		})
	}
}
