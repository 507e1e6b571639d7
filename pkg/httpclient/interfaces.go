// Package httpclient is the outbound HTTP surface shared by the fetchers and the scraper.
package httpclient

import "context"

// DefaultUserAgent is sent when the caller does not set one.
const DefaultUserAgent = "samvad-trend-scout/1.0 (+https://github.com/samvad-hq)"

// Response is the part of an HTTP response the fetchers read.
type Response interface {
	Body() []byte
	StatusCode() int
	// Header returns the first value of the named response header.
	Header(name string) string
}

// Client issues GET requests; tests swap in fakes.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
