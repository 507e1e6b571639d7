package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samvad-hq/samvad-trend-scout/internal/api"
	"github.com/samvad-hq/samvad-trend-scout/pkg/hackernews"
	"github.com/spf13/cobra"
)

func newTrendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trends KEYWORD...",
		Short: "Print interest over time for up to five keywords",
		Args:  cobra.RangeArgs(1, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, done, err := setup()
			if err != nil {
				return err
			}
			defer done()

			trendsSrc, _ := sourcesFactory(cfg, log)
			res, err := trendsSrc.Fetch(cmd.Context(), args)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newNewsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "news",
		Short: "Print the current Hacker News top stories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, done, err := setup()
			if err != nil {
				return err
			}
			defer done()

			_, newsSrc := sourcesFactory(cfg, log)
			stories, err := newsSrc.Fetch(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stories)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", hackernews.DefaultLimit, "number of top stories to fetch")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the trends and news API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, done, err := setup()
			if err != nil {
				return err
			}
			defer done()

			if addr == "" {
				addr = cfg.APIAddr
			}
			if cfg.Env == "production" {
				gin.SetMode(gin.ReleaseMode)
			}

			trendsSrc, newsSrc := sourcesFactory(cfg, log)
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(api.NewServer(trendsSrc, newsSrc, log)),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(cmd.Context(), srv, func() {
				log.InfoObj("api listening", "api_addr", addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to api_addr)")
	return cmd
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, started func()) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	started()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}
