package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-trend-scout/internal/app"
	"github.com/samvad-hq/samvad-trend-scout/internal/config"
	"github.com/samvad-hq/samvad-trend-scout/internal/logger"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("collector", pflag.ExitOnError)
	once := flags.Bool("once", false, "run a single collection pass and exit")
	_ = flags.Parse(os.Args[1:])

	if err := run(*once); err != nil {
		fmt.Fprintf(os.Stderr, "collector: %v\n", err)
		os.Exit(1)
	}
}

func run(once bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.InfoObj("collector starting", "config", map[string]any{
		"providers_file":  cfg.ProvidersFile,
		"publishers_file": cfg.PublishersFile,
		"collect_cron":    cfg.CollectCron,
		"storage_type":    cfg.StorageType,
		"once":            once,
	})

	c, err := app.NewCollector(ctx, cfg, log)
	if err != nil {
		return err
	}
	if once {
		return c.RunOnce(ctx)
	}
	return c.Run(ctx)
}
