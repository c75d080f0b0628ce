// Package providers implements HTTP clients for the external scrape and
// analysis services.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"canvas-backend/application/ports"
	pkgerrors "canvas-backend/pkg/errors"
	"canvas-backend/pkg/observability"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ScrapeClientConfig tunes the scrape provider client
type ScrapeClientConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	RequestsPerSec float64
}

// DefaultScrapeClientConfig returns production client settings
func DefaultScrapeClientConfig(baseURL, apiKey string) ScrapeClientConfig {
	return ScrapeClientConfig{
		BaseURL:        baseURL,
		APIKey:         apiKey,
		RequestTimeout: 30 * time.Second,
		CacheTTL:       time.Hour,
		RequestsPerSec: 10,
	}
}

// ScrapeClient talks to the scrape service over HTTP. Completed scrapes are
// remembered per URL so re-adding the same content within the cache window
// never issues a second scrape, and outbound requests are rate limited to
// protect the provider.
type ScrapeClient struct {
	config  ScrapeClientConfig
	http    *http.Client
	cache   *cache.Cache
	limiter *rate.Limiter
	logger  *zap.Logger
	metrics *observability.Collector
}

// NewScrapeClient creates the client
func NewScrapeClient(config ScrapeClientConfig, logger *zap.Logger, metrics *observability.Collector) *ScrapeClient {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = time.Hour
	}
	if config.RequestsPerSec <= 0 {
		config.RequestsPerSec = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ScrapeClient{
		config:  config,
		http:    &http.Client{Timeout: config.RequestTimeout},
		cache:   cache.New(config.CacheTTL, 10*time.Minute),
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSec), int(config.RequestsPerSec*2)),
		logger:  logger,
		metrics: metrics,
	}
}

type startScrapeRequest struct {
	URL      string `json:"url"`
	Platform string `json:"platform"`
}

type startScrapeResponse struct {
	ScrapeID string `json:"scrapeId"`
	Status   string `json:"status"`
	Cached   bool   `json:"cached"`
}

type scrapeStatusResponse struct {
	Status        string                 `json:"status"`
	ProcessedData map[string]interface{} `json:"processedData,omitempty"`
	Error         string                 `json:"error,omitempty"`
}

// StartScrape submits a scrape job. A URL scraped within the cache window
// returns the prior completed job immediately with Cached set.
func (c *ScrapeClient) StartScrape(ctx context.Context, req ports.ScrapeRequest) (*ports.ScrapeResponse, error) {
	if cached, found := c.cache.Get(req.URL); found {
		if c.metrics != nil {
			c.metrics.ScrapeCacheHits.Inc()
		}
		c.logger.Debug("scrape cache hit", zap.String("url", req.URL))
		return &ports.ScrapeResponse{
			ScrapeID: cached.(string),
			Status:   ports.ScrapeStatusCompleted,
			Cached:   true,
		}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, pkgerrors.NewProviderError("scrape rate limit wait aborted", err)
	}

	var out startScrapeResponse
	if err := c.post(ctx, "/scrape", startScrapeRequest{URL: req.URL, Platform: req.Platform}, &out); err != nil {
		return nil, err
	}
	if out.ScrapeID == "" {
		return nil, pkgerrors.NewProviderError("scrape service returned no job id", nil)
	}

	// A provider-side cache hit arrives already completed; remember the job
	// id locally so the next identical request never leaves the process.
	if out.Cached {
		c.cache.Set(req.URL, out.ScrapeID, cache.DefaultExpiration)
	}

	return &ports.ScrapeResponse{ScrapeID: out.ScrapeID, Status: out.Status, Cached: out.Cached}, nil
}

// ScrapeStatus reports a scrape job's progress. Completed jobs are entered
// into the URL cache by scrape id lookup on the response payload.
func (c *ScrapeClient) ScrapeStatus(ctx context.Context, scrapeID string) (*ports.ScrapeStatusResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, pkgerrors.NewProviderError("scrape rate limit wait aborted", err)
	}

	var out scrapeStatusResponse
	if err := c.get(ctx, "/scrape/"+scrapeID, &out); err != nil {
		return nil, err
	}

	if out.Status == ports.ScrapeStatusCompleted {
		if sourceURL, ok := out.ProcessedData["sourceUrl"].(string); ok && sourceURL != "" {
			c.cache.Set(sourceURL, scrapeID, cache.DefaultExpiration)
		}
	}

	return &ports.ScrapeStatusResponse{
		Status:        out.Status,
		ProcessedData: out.ProcessedData,
		Error:         out.Error,
	}, nil
}

func (c *ScrapeClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.NewProviderError("encode scrape request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.NewProviderError("build scrape request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *ScrapeClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return pkgerrors.NewProviderError("build scrape request", err)
	}
	return c.do(req, out)
}

func (c *ScrapeClient) do(req *http.Request, out interface{}) error {
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.NewProviderError("scrape service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return pkgerrors.NewProviderError(
			fmt.Sprintf("scrape service returned %d: %s", resp.StatusCode, string(snippet)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.NewProviderError("decode scrape response", err)
	}
	return nil
}

var _ ports.ScrapeProvider = (*ScrapeClient)(nil)
