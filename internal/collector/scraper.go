package collector

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/samvad-trend-scout/internal/domain"
	"github.com/samvad-hq/samvad-trend-scout/internal/logger"
	"github.com/samvad-hq/samvad-trend-scout/pkg/httpclient"
	"github.com/samvad-hq/samvad-trend-scout/pkg/normalize"
	"github.com/samvad-hq/samvad-trend-scout/pkg/providers"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
)

// Scraper fetches record pages and extracts metadata from OG tags.
type Scraper struct {
	client httpclient.Client
	log    logger.Logger
}

// NewScraper constructs a scraper with the provided HTTP client (or default).
func NewScraper(client httpclient.Client, log logger.Logger) *Scraper {
	if client == nil {
		client = providers.DefaultHTTPClient()
	}
	return &Scraper{client: client, log: logger.Ensure(log)}
}

// Enrich scrapes pages for records that lack a summary or image, throttled by the provider's request delay.
func (s *Scraper) Enrich(ctx context.Context, cfg providers.Provider, records []domain.Record) []domain.Record {
	delay := cfg.RequestDelay()
	// seed output with originals so we can return what we have on abort
	out := append([]domain.Record(nil), records...)

	for i, rec := range records {
		if !needsEnrichment(rec) {
			continue
		}
		select {
		case <-ctx.Done():
			return out
		default:
		}

		enriched, err := s.fetchAndParse(ctx, cfg, rec)
		if err != nil {
			s.log.WarnObj("record metadata scrape failed", "metadata_error", map[string]any{
				"provider_id": cfg.ID,
				"url":         rec.URL,
				"error":       err.Error(),
			})
		} else {
			out[i] = enriched
		}

		if delay > 0 && i < len(records)-1 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return out
			case <-timer.C:
			}
		}
	}

	return out
}

func needsEnrichment(rec domain.Record) bool {
	if strings.TrimSpace(rec.URL) == "" {
		return false
	}
	return rec.Summary == "" || rec.ImageURL == ""
}

func (s *Scraper) fetchAndParse(ctx context.Context, cfg providers.Provider, rec domain.Record) (domain.Record, error) {
	resp, err := s.client.Get(ctx, rec.URL, providers.PageHeaders(cfg))
	if err != nil {
		return rec, fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != 200 {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return rec, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	if ct := resp.Header("Content-Type"); ct != "" && !isHTML(ct) {
		return rec, fmt.Errorf("skipping non-html content type %q", ct)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	meta, err := parseMeta(body)
	if err != nil {
		return rec, err
	}
	updated := rec
	if updated.Title == "" && meta.Title != "" {
		updated.Title = meta.Title
	}
	if updated.Summary == "" && meta.Description != "" {
		updated.Summary = normalize.Summary(meta.Description)
	}
	if updated.ImageURL == "" && meta.ImageURL != "" {
		updated.ImageURL = resolveURL(meta.ImageURL, rec.URL)
	}

	return updated, nil
}

func parseMeta(body []byte) (pageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return pageMeta{
		Title: firstNonEmpty(
			extract(`meta[property="og:title"]`),
			strings.TrimSpace(doc.Find("title").First().Text()),
		),
		Description: firstNonEmpty(
			extract(`meta[property="og:description"]`),
			extract(`meta[name="description"]`),
		),
		ImageURL: firstNonEmpty(
			extract(`meta[property="og:image"]`),
			extract(`meta[name="twitter:image"]`),
		),
	}, nil
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

type pageMeta struct {
	Title       string
	Description string
	ImageURL    string
}

// resolveURL makes ref absolute against base. Unparseable input is returned as-is.
func resolveURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
