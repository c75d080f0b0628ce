package ports

import (
	"context"
	"time"
)

// MessageRecord is the wire form of one chat turn
type MessageRecord struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sent_at"`
}

// ElementRecord is the wire form of a canvas element
type ElementRecord struct {
	ID        string                 `json:"id"`
	Kind      string                 `json:"kind"`
	Title     string                 `json:"title"`
	X         float64                `json:"x"`
	Y         float64                `json:"y"`
	Width     float64                `json:"width"`
	Height    float64                `json:"height"`
	URL       string                 `json:"url,omitempty"`
	Platform  string                 `json:"platform,omitempty"`
	Thumbnail string                 `json:"thumbnail,omitempty"`
	Analysis  map[string]interface{} `json:"analysis,omitempty"`
	Status    string                 `json:"status,omitempty"`
	Body      string                 `json:"body,omitempty"`
	Messages  []MessageRecord        `json:"messages,omitempty"`
	Children  []string               `json:"children,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// ConnectionRecord is the wire form of a connection
type ConnectionRecord struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	CreatedAt time.Time `json:"created_at"`
}

// ViewportRecord is the wire form of the camera transform
type ViewportRecord struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// CanvasDocument is the persisted form of a whole canvas
type CanvasDocument struct {
	WorkspaceID string             `json:"workspace_id"`
	Elements    []ElementRecord    `json:"elements"`
	Connections []ConnectionRecord `json:"connections"`
	Viewport    ViewportRecord     `json:"viewport"`
}

// EmptyDocument returns the document of a brand-new workspace
func EmptyDocument(workspaceID string) *CanvasDocument {
	return &CanvasDocument{
		WorkspaceID: workspaceID,
		Viewport:    ViewportRecord{Zoom: 1},
	}
}

// PersistenceGateway is the save/load boundary to durable storage.
// Both operations are best-effort idempotent upserts; LoadCanvas returns an
// empty document for a workspace that was never saved.
type PersistenceGateway interface {
	LoadCanvas(ctx context.Context, workspaceID string) (*CanvasDocument, error)
	SaveCanvas(ctx context.Context, doc *CanvasDocument) error
}

// Scrape job status values reported by the provider
const (
	ScrapeStatusPending    = "pending"
	ScrapeStatusProcessing = "processing"
	ScrapeStatusCompleted  = "completed"
	ScrapeStatusFailed     = "failed"
)

// ScrapeRequest asks the provider to scrape a URL
type ScrapeRequest struct {
	URL      string `json:"url"`
	Platform string `json:"platform"`
}

// ScrapeResponse is the provider's answer to a scrape request. Cached means
// an identical prior scrape already completed and no polling is needed.
type ScrapeResponse struct {
	ScrapeID string `json:"scrape_id"`
	Status   string `json:"status"`
	Cached   bool   `json:"cached"`
}

// ScrapeStatusResponse is one poll result for a pending scrape job
type ScrapeStatusResponse struct {
	Status        string                 `json:"status"`
	ProcessedData map[string]interface{} `json:"processed_data,omitempty"`
	Error         string                 `json:"error,omitempty"`
}

// ScrapeProvider is the scraping service consumed by the ingestion pipeline
type ScrapeProvider interface {
	StartScrape(ctx context.Context, req ScrapeRequest) (*ScrapeResponse, error)
	ScrapeStatus(ctx context.Context, scrapeID string) (*ScrapeStatusResponse, error)
}

// AnalysisProvider turns a completed scrape into structured analysis data
type AnalysisProvider interface {
	Analyze(ctx context.Context, scrapeID string) (map[string]interface{}, error)
}
