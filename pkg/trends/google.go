package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-trend-scout/internal/domain"
	"github.com/samvad-hq/samvad-trend-scout/pkg/httpclient"
)

const (
	DefaultBaseURL = "https://trends.google.com"

	connectTimeout = 10 * time.Second
	readTimeout    = 30 * time.Second

	hostLanguage   = "en-US"
	tzOffset       = "360"
	timeseriesID   = "TIMESERIES"
	maxBodySnippet = 512
)

// GoogleQuerier talks to the Google Trends explore and multiline widget endpoints.
type GoogleQuerier struct {
	client  httpclient.Client
	baseURL string
}

// NewGoogleQuerier builds a querier. A nil client gets a resty client with a 10s
// connect and 30s read timeout.
func NewGoogleQuerier(client httpclient.Client, baseURL string) *GoogleQuerier {
	if client == nil {
		client = httpclient.NewRestyClientWithTimeouts(connectTimeout, readTimeout)
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &GoogleQuerier{client: client, baseURL: baseURL}
}

type comparisonItem struct {
	Keyword string `json:"keyword"`
	Time    string `json:"time"`
	Geo     string `json:"geo"`
}

type exploreRequest struct {
	ComparisonItem []comparisonItem `json:"comparisonItem"`
	Category       int              `json:"category"`
	Property       string           `json:"property"`
}

type exploreResponse struct {
	Widgets []exploreWidget `json:"widgets"`
}

type exploreWidget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type multilineResponse struct {
	Default struct {
		TimelineData []timelinePoint `json:"timelineData"`
	} `json:"default"`
}

type timelinePoint struct {
	Time      string `json:"time"`
	Value     []int  `json:"value"`
	IsPartial bool   `json:"isPartial"`
}

// InterestOverTime runs one explore + multiline round trip.
func (g *GoogleQuerier) InterestOverTime(ctx context.Context, q Query) ([]domain.TrendPoint, error) {
	widget, err := g.explore(ctx, q)
	if err != nil {
		return nil, err
	}
	return g.multiline(ctx, q.Keywords, widget)
}

func (g *GoogleQuerier) explore(ctx context.Context, q Query) (exploreWidget, error) {
	timeframe := q.Timeframe
	if timeframe == "" {
		timeframe = DefaultTimeframe
	}
	payload := exploreRequest{Category: q.Category, Property: q.Property}
	for _, kw := range q.Keywords {
		payload.ComparisonItem = append(payload.ComparisonItem, comparisonItem{Keyword: kw, Time: timeframe, Geo: q.Geo})
	}
	req, err := json.Marshal(payload)
	if err != nil {
		return exploreWidget{}, fmt.Errorf("encode explore request: %w", err)
	}

	params := url.Values{}
	params.Set("hl", hostLanguage)
	params.Set("tz", tzOffset)
	params.Set("req", string(req))

	body, err := g.get(ctx, "explore", g.baseURL+"/trends/api/explore?"+params.Encode())
	if err != nil {
		return exploreWidget{}, err
	}

	var resp exploreResponse
	if err := decodeGuarded(body, &resp); err != nil {
		return exploreWidget{}, fmt.Errorf("decode explore response: %w", err)
	}
	for _, w := range resp.Widgets {
		if w.ID == timeseriesID {
			return w, nil
		}
	}
	return exploreWidget{}, errors.New("explore response has no TIMESERIES widget")
}

func (g *GoogleQuerier) multiline(ctx context.Context, keywords []string, w exploreWidget) ([]domain.TrendPoint, error) {
	var req bytes.Buffer
	if err := json.Compact(&req, w.Request); err != nil {
		return nil, fmt.Errorf("encode widget request: %w", err)
	}

	params := url.Values{}
	params.Set("hl", hostLanguage)
	params.Set("tz", tzOffset)
	params.Set("req", req.String())
	params.Set("token", w.Token)

	body, err := g.get(ctx, "multiline", g.baseURL+"/trends/api/widgetdata/multiline?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp multilineResponse
	if err := decodeGuarded(body, &resp); err != nil {
		return nil, fmt.Errorf("decode multiline response: %w", err)
	}
	return buildPoints(keywords, resp.Default.TimelineData)
}

func (g *GoogleQuerier) get(ctx context.Context, endpoint, rawURL string) ([]byte, error) {
	resp, err := g.client.Get(ctx, rawURL, map[string]string{
		"Accept":          "application/json",
		"Accept-Language": hostLanguage,
	})
	if err != nil {
		return nil, fmt.Errorf("trends %s request: %w", endpoint, err)
	}
	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode(), Body: snippet(body)}
	}
	return body, nil
}

func buildPoints(keywords []string, timeline []timelinePoint) ([]domain.TrendPoint, error) {
	points := make([]domain.TrendPoint, 0, len(timeline))
	for _, tp := range timeline {
		sec, err := strconv.ParseInt(tp.Time, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse timeline time %q: %w", tp.Time, err)
		}
		values := make(map[string]int, len(keywords))
		for i, kw := range keywords {
			if i < len(tp.Value) {
				values[kw] = tp.Value[i]
			}
		}
		points = append(points, domain.TrendPoint{
			Date:      time.Unix(sec, 0).UTC(),
			Values:    values,
			IsPartial: tp.IsPartial,
		})
	}
	return points, nil
}

// decodeGuarded strips the anti-XSSI prefix Google puts before JSON bodies.
func decodeGuarded(body []byte, v any) error {
	start := bytes.IndexByte(body, '{')
	if start < 0 {
		return fmt.Errorf("no json object in %d-byte body", len(body))
	}
	return json.Unmarshal(body[start:], v)
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxBodySnippet {
		return s[:maxBodySnippet] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
