package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samvad-hq/samvad-trend-scout/internal/collector"
	"github.com/samvad-hq/samvad-trend-scout/internal/config"
	"github.com/samvad-hq/samvad-trend-scout/internal/logger"
	"github.com/samvad-hq/samvad-trend-scout/internal/storage"
	"github.com/samvad-hq/samvad-trend-scout/pkg/providers"
	"github.com/samvad-hq/samvad-trend-scout/pkg/publishers"
)

// Collector is the long-running collection runtime. It owns the cron schedule,
// the dedupe store and the publisher fanout.
type Collector struct {
	cfg         *config.Config
	providerReg *providers.Registry
	fanout      *publishers.Fanout
	service     *collector.Service
	schedule    cron.Schedule
	log         logger.Logger
	store       storage.Store
}

// NewCollector builds a collector runtime from config files.
func NewCollector(ctx context.Context, cfg *config.Config, log logger.Logger) (*Collector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	schedule, err := cron.ParseStandard(cfg.CollectCron)
	if err != nil {
		return nil, fmt.Errorf("parse collect_cron %q: %w", cfg.CollectCron, err)
	}

	providerReg, err := providers.LoadRegistry(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load providers registry: %w", err)
	}
	providerList := providerReg.All()
	providerIDs := make([]string, 0, len(providerList))
	for _, p := range providerList {
		providerIDs = append(providerIDs, p.ID)
	}
	log.InfoObj("providers registry loaded", "providers_meta", map[string]any{
		"count": len(providerIDs),
		"ids":   providerIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		RecordTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
		RedisAddr:       cfg.RedisAddr,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"record_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	src := NewSources(cfg, log)
	fetchers := providers.DefaultFetcherRegistry(src.Trends, src.News)

	return &Collector{
		cfg:         cfg,
		providerReg: providerReg,
		fanout:      fanout,
		service:     collector.NewService(fetchers, fanout, log, store),
		schedule:    schedule,
		log:         log,
		store:       store,
	}, nil
}

// Run collects once immediately and then on every cron tick until ctx is cancelled.
func (c *Collector) Run(ctx context.Context) error {
	if c == nil || c.service == nil {
		return fmt.Errorf("collector is not initialized")
	}
	defer c.close()

	sources := c.providerReg.All()
	if len(sources) == 0 {
		c.log.WarnObj("no providers configured; collector idle", "providers_file", c.cfg.ProvidersFile)
		<-ctx.Done()
		return ctx.Err()
	}

	c.log.InfoObj("collector loop starting", "collector_state", map[string]any{
		"providers_count":  len(sources),
		"publishers_count": c.fanout.Size(),
		"collect_cron":     c.cfg.CollectCron,
	})

	if err := c.runOnce(ctx, sources); err != nil {
		c.log.ErrorObj("initial collection failed", "error", err.Error())
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{log: c.log})))
	scheduler.Schedule(c.schedule, cron.FuncJob(func() {
		if err := c.runOnce(ctx, sources); err != nil {
			c.log.ErrorObj("scheduled collection failed", "error", err.Error())
		}
	}))
	scheduler.Start()

	<-ctx.Done()
	c.log.InfoObj("collector loop exiting", "reason", ctx.Err().Error())
	// wait for an in-flight run before the store is closed
	<-scheduler.Stop().Done()
	return nil
}

// RunOnce performs one collection pass and releases the collector's resources.
func (c *Collector) RunOnce(ctx context.Context) error {
	if c == nil || c.service == nil {
		return fmt.Errorf("collector is not initialized")
	}
	defer c.close()
	return c.runOnce(ctx, c.providerReg.All())
}

// runOnce performs a single collection pass across all providers.
func (c *Collector) runOnce(ctx context.Context, sources []providers.Provider) error {
	start := time.Now()
	c.log.InfoObj("collection started", "collection_meta", map[string]any{
		"providers_count": len(sources),
		"started_at":      start.UTC(),
	})
	if err := c.service.Run(ctx, sources); err != nil {
		return err
	}
	c.log.InfoObj("collection completed", "collection_meta", map[string]any{
		"providers_count": len(sources),
		"elapsed_ms":      time.Since(start).Milliseconds(),
	})
	return nil
}

func (c *Collector) close() {
	if err := c.fanout.Close(); err != nil {
		c.log.ErrorObj("publisher close failed", "error", err.Error())
	}
	if c.store == nil {
		return
	}
	if err := c.store.Close(); err != nil {
		c.log.ErrorObj("storage close failed", "error", err.Error())
	}
}

// cronLogger routes robfig/cron messages through the application logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.DebugObj("cron: "+msg, "cron", keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.ErrorObj("cron: "+msg, "cron", map[string]any{
		"error":  err.Error(),
		"fields": keysAndValues,
	})
}
