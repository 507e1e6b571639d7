package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/samvad-trend-scout/internal/logger"
	"github.com/samvad-hq/samvad-trend-scout/pkg/httpclient"
)

const maxErrorBody = 512

// StatusError is returned when a webhook answers outside 2xx.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http response status %d", e.Code)
	}
	return fmt.Sprintf("http response status %d: %s", e.Code, e.Body)
}

// webhook posts the JSON event to a fixed URL. Static headers live on the client.
type webhook struct {
	id     string
	method string
	target string
	client *resty.Client
	log    logger.Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	norm := cfg.normalized().HTTP

	client := httpclient.NewRestyHTTPClient(time.Duration(norm.TimeoutSeconds) * time.Second).
		SetHeaders(norm.Headers).
		SetHeader("Content-Type", "application/json")

	return &webhook{
		id:     cfg.ID,
		method: norm.Method,
		target: norm.URL,
		client: client,
		log:    logger.Ensure(log),
	}, nil
}

func (w *webhook) ID() string   { return w.id }
func (w *webhook) Type() string { return TypeHTTP }

func (w *webhook) Publish(ctx context.Context, evt Event) error {
	resp, err := w.client.R().SetContext(ctx).SetBody(evt).Execute(w.method, w.target)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if resp.IsError() {
		return &StatusError{Code: resp.StatusCode(), Body: truncateBody(resp.Body())}
	}
	w.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": w.id,
		"record_id":    evt.Record.ID,
		"status":       resp.StatusCode(),
	})
	return nil
}

func truncateBody(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return strings.TrimSpace(string(b))
}
