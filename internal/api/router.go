// Package api exposes the trends and news fetchers over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samvad-hq/samvad-trend-scout/internal/domain"
	"github.com/samvad-hq/samvad-trend-scout/internal/logger"
	"github.com/samvad-hq/samvad-trend-scout/pkg/hackernews"
	"github.com/samvad-hq/samvad-trend-scout/pkg/trends"
)

// TrendsSource fetches interest-over-time series.
type TrendsSource interface {
	Fetch(ctx context.Context, keywords []string) (*domain.TrendsResult, error)
}

// StoriesSource fetches Hacker News top stories.
type StoriesSource interface {
	Fetch(ctx context.Context, limit int) ([]domain.Story, error)
}

type Server struct {
	trends TrendsSource
	news   StoriesSource
	log    logger.Logger
}

func NewServer(trendsSrc TrendsSource, newsSrc StoriesSource, log logger.Logger) *Server {
	return &Server{trends: trendsSrc, news: newsSrc, log: logger.Ensure(log)}
}

// NewRouter returns a gin engine with recovery and all routes registered.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	s.RegisterRoutes(r)
	return r
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/trends", s.getTrends)
		v1.GET("/news", s.getNews)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getTrends(c *gin.Context) {
	keywords := splitKeywords(c.Query("keywords"))

	res, err := s.trends.Fetch(c.Request.Context(), keywords)
	if err != nil {
		s.fail(c, "trends", trendsStatus(err), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    res,
	})
}

func (s *Server) getNews(c *gin.Context) {
	limit := hackernews.DefaultLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "invalid_input",
				"message": "limit must be an integer",
			})
			return
		}
		limit = n
	}

	stories, err := s.news.Fetch(c.Request.Context(), limit)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, hackernews.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		s.fail(c, "news", status, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    stories,
	})
}

func trendsStatus(err error) int {
	switch {
	case errors.Is(err, trends.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, trends.ErrRateLimitExhausted):
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

var statusCodes = map[int]string{
	http.StatusBadRequest:      "invalid_input",
	http.StatusTooManyRequests: "rate_limited",
	http.StatusBadGateway:      "upstream_error",
}

func (s *Server) fail(c *gin.Context, route string, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.ErrorObj("api upstream fetch failed", "api_error", map[string]any{
			"route": route,
			"error": err.Error(),
		})
	}
	c.JSON(status, gin.H{
		"code":    statusCodes[status],
		"message": err.Error(),
	})
}

// splitKeywords splits a comma separated list and drops blank entries.
func splitKeywords(raw string) []string {
	var out []string
	for _, kw := range strings.Split(raw, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
