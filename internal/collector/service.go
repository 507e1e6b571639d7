// Package collector runs collection passes over the configured sources.
package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/samvad-trend-scout/internal/logger"
	"github.com/samvad-hq/samvad-trend-scout/pkg/providers"
)

// Service coordinates collection across multiple providers.
type Service struct {
	processor *ProviderProcessor
	log       logger.Logger
}

// NewService wires a collector with the fetcher registry, publisher fanout and dedupe store.
func NewService(reg providers.FetcherRegistry, pub EventPublisher, log logger.Logger, deduper Deduper) *Service {
	log = logger.Ensure(log)
	return &Service{
		processor: NewProviderProcessor(reg, NewScraper(nil, log), pub, log, deduper),
		log:       log,
	}
}

// Run executes a collection pass for all configured providers.
func (s *Service) Run(ctx context.Context, cfgs []providers.Provider) error {
	if s == nil || s.processor == nil || s.processor.registry == nil {
		return fmt.Errorf("collector service is not initialized")
	}

	if len(cfgs) == 0 {
		return fmt.Errorf("no providers configured for collection")
	}

	errs := s.runAll(ctx, cfgs)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func (s *Service) runAll(ctx context.Context, cfgs []providers.Provider) []error {
	errs := make([]error, 0, len(cfgs))

	for _, cfg := range cfgs {
		if ctx.Err() != nil {
			s.log.WarnObj("collection cancelled", "collection_cancelled", map[string]any{
				"next_provider_id": cfg.ID,
			})
			break
		}
		if err := s.processor.Process(ctx, cfg); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("provider collection failed", "provider_error", map[string]any{
				"provider_id": cfg.ID,
				"error":       err.Error(),
			})
		}
	}

	return errs
}
