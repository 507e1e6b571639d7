package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-trend-scout/internal/app"
	"github.com/samvad-hq/samvad-trend-scout/internal/config"
	"github.com/samvad-hq/samvad-trend-scout/internal/domain"
	"github.com/samvad-hq/samvad-trend-scout/internal/logger"
)

type fakeTrends struct {
	keywords []string
	err      error
}

func (f *fakeTrends) Fetch(_ context.Context, keywords []string) (*domain.TrendsResult, error) {
	f.keywords = keywords
	if f.err != nil {
		return nil, f.err
	}
	return &domain.TrendsResult{Keywords: keywords, Data: []domain.TrendPoint{}}, nil
}

type fakeNews struct {
	limit int
}

func (f *fakeNews) Fetch(_ context.Context, limit int) ([]domain.Story, error) {
	f.limit = limit
	return []domain.Story{{"id": float64(7), "title": "Seven"}}, nil
}

func useFakes(t *testing.T, tr *fakeTrends, n *fakeNews) {
	t.Helper()
	prev := sourcesFactory
	sourcesFactory = func(*config.Config, logger.Logger) (app.TrendsSource, app.StoriesSource) {
		return tr, n
	}
	t.Cleanup(func() { sourcesFactory = prev })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTrendsCommandPrintsJSON(t *testing.T) {
	tr := &fakeTrends{}
	useFakes(t, tr, &fakeNews{})

	out, err := run(t, "trends", "go", "rust")
	if err != nil {
		t.Fatalf("trends: %v", err)
	}
	var res domain.TrendsResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if strings.Join(res.Keywords, ",") != "go,rust" || res.Data == nil {
		t.Fatalf("unexpected result %#v", res)
	}
}

func TestTrendsCommandRejectsTooManyKeywords(t *testing.T) {
	tr := &fakeTrends{}
	useFakes(t, tr, &fakeNews{})

	if _, err := run(t, "trends", "a", "b", "c", "d", "e", "f"); err == nil {
		t.Fatalf("expected argument error")
	}
	if tr.keywords != nil {
		t.Fatalf("fetcher should not be called")
	}
}

func TestTrendsCommandReturnsFetchError(t *testing.T) {
	useFakes(t, &fakeTrends{err: errors.New("429 too many requests")}, &fakeNews{})

	if _, err := run(t, "trends", "go"); err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestNewsCommandLimitFlag(t *testing.T) {
	n := &fakeNews{}
	useFakes(t, &fakeTrends{}, n)

	out, err := run(t, "news", "--limit", "3")
	if err != nil {
		t.Fatalf("news: %v", err)
	}
	if n.limit != 3 {
		t.Fatalf("limit = %d, want 3", n.limit)
	}
	if !strings.Contains(out, `"title": "Seven"`) {
		t.Fatalf("unexpected output %s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersionInfo("1.2.3", "abc")
	t.Cleanup(func() { SetVersionInfo("dev", "none") })

	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != "scout 1.2.3 (commit: abc)" {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: addr, Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, func() {}) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return after cancel")
	}
}
