// Package cli implements the scout command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-trend-scout/internal/app"
	"github.com/samvad-hq/samvad-trend-scout/internal/config"
	"github.com/samvad-hq/samvad-trend-scout/internal/logger"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// sourcesFactory builds the upstream fetchers; tests replace it.
var sourcesFactory = func(cfg *config.Config, log logger.Logger) (app.TrendsSource, app.StoriesSource) {
	src := app.NewSources(cfg, log)
	return src.Trends, src.News
}

// NewRootCmd assembles the scout command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scout",
		Short:         "Google Trends and Hacker News fetcher",
		Long:          "scout fetches Google Trends interest series and Hacker News top stories, from the command line or over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newTrendsCmd())
	root.AddCommand(newNewsCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the root command with a signal-aware context.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "scout: %v\n", err)
		return 1
	}
	return 0
}

// SetVersionInfo is called from main with build-time values.
func SetVersionInfo(v, c string) {
	version = v
	commit = c
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scout %s (commit: %s)\n", version, commit)
		},
	}
}

// setup loads config and the logger. The returned func flushes the logger.
func setup() (*config.Config, logger.Logger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.InitTo(cfg, os.Stderr)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, func() { _ = log.Sync() }, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
