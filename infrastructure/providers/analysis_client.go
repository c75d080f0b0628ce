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
	"go.uber.org/zap"
)

// AnalysisClientConfig tunes the analysis provider client. Analysis runs a
// language model over scraped content, so its timeout is generous.
type AnalysisClientConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
}

// DefaultAnalysisClientConfig returns production client settings
func DefaultAnalysisClientConfig(baseURL, apiKey string) AnalysisClientConfig {
	return AnalysisClientConfig{
		BaseURL:        baseURL,
		APIKey:         apiKey,
		RequestTimeout: 2 * time.Minute,
	}
}

// AnalysisClient talks to the analysis service over HTTP
type AnalysisClient struct {
	config AnalysisClientConfig
	http   *http.Client
	logger *zap.Logger
}

// NewAnalysisClient creates the client
func NewAnalysisClient(config AnalysisClientConfig, logger *zap.Logger) *AnalysisClient {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AnalysisClient{
		config: config,
		http:   &http.Client{Timeout: config.RequestTimeout},
		logger: logger,
	}
}

type analyzeRequest struct {
	ScrapeID string `json:"scrapeId"`
}

type analyzeResponse struct {
	Analysis map[string]interface{} `json:"analysis"`
	Error    string                 `json:"error,omitempty"`
}

// Analyze runs content analysis over a completed scrape and returns the
// structured result
func (c *AnalysisClient) Analyze(ctx context.Context, scrapeID string) (map[string]interface{}, error) {
	payload, err := json.Marshal(analyzeRequest{ScrapeID: scrapeID})
	if err != nil {
		return nil, pkgerrors.NewProviderError("encode analysis request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.NewProviderError("build analysis request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.NewProviderError("analysis service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, pkgerrors.NewProviderError(
			fmt.Sprintf("analysis service returned %d: %s", resp.StatusCode, string(snippet)), nil)
	}

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, pkgerrors.NewProviderError("decode analysis response", err)
	}
	if out.Error != "" {
		return nil, pkgerrors.NewProviderError(out.Error, nil)
	}

	c.logger.Debug("analysis completed",
		zap.String("scrape_id", scrapeID),
		zap.Duration("elapsed", time.Since(started)))
	return out.Analysis, nil
}

var _ ports.AnalysisProvider = (*AnalysisClient)(nil)
