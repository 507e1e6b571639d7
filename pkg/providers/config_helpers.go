package providers

import (
	"strings"

	"github.com/samvad-hq/samvad-trend-scout/pkg/httpclient"
)

const (
	ConfigUserAgentKey      = "user_agent"
	ConfigAcceptLanguageKey = "accept_language"
	ConfigEnrichKey         = "enrich"
)

// ConfigString returns the trimmed string value for key from provider.Config or a fallback.
func ConfigString(cfg Provider, key, fallback string) string {
	if raw, ok := cfg.Config[key]; ok {
		if val, ok := raw.(string); ok {
			if trimmed := strings.TrimSpace(val); trimmed != "" {
				return trimmed
			}
		}
	}
	return fallback
}

// ConfigBool reads a boolean flag from provider.Config.
func ConfigBool(cfg Provider, key string, fallback bool) bool {
	if raw, ok := cfg.Config[key]; ok {
		if val, ok := raw.(bool); ok {
			return val
		}
	}
	return fallback
}

// PageHeaders builds the request headers used when scraping record pages for a provider.
func PageHeaders(cfg Provider) map[string]string {
	headers := map[string]string{
		"User-Agent": ConfigString(cfg, ConfigUserAgentKey, httpclient.DefaultUserAgent),
	}
	if v := ConfigString(cfg, ConfigAcceptLanguageKey, ""); v != "" {
		headers["Accept-Language"] = v
	}
	return headers
}
