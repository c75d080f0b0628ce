package services

import (
	"context"
	"sync"
	"time"

	"canvas-backend/application/ports"
	"canvas-backend/domain/core/aggregates"
	"canvas-backend/domain/core/entities"
	"canvas-backend/domain/core/valueobjects"
	domainservices "canvas-backend/domain/services"
	pkgerrors "canvas-backend/pkg/errors"
	"canvas-backend/pkg/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Metadata keys written onto elements by the pipeline
const (
	MetaScrapeID  = "scrapeId"
	MetaError     = "error"
	MetaStartedAt = "ingestionStartedAt"
	MetaEndedAt   = "ingestionEndedAt"
)

// IngestionConfig bounds the polling loop. The defaults give a poll budget
// of roughly thirty seconds.
type IngestionConfig struct {
	PollInterval    time.Duration
	MaxPollAttempts int
}

// DefaultIngestionConfig returns the production polling parameters
func DefaultIngestionConfig() IngestionConfig {
	return IngestionConfig{
		PollInterval:    time.Second,
		MaxPollAttempts: 30,
	}
}

// IngestionService orchestrates scrape, cache check and analysis for
// URL-bearing elements. Each job runs independently in its own goroutine and
// holds only the owning element's ID: all element writes go through the
// canvas store, so a deletion mid-flight degrades to a silent no-op.
type IngestionService struct {
	scraper  ports.ScrapeProvider
	analyzer ports.AnalysisProvider
	config   IngestionConfig
	logger   *zap.Logger
	metrics  *observability.Collector
	tracer   trace.Tracer

	wg sync.WaitGroup
}

// NewIngestionService creates the pipeline service
func NewIngestionService(
	scraper ports.ScrapeProvider,
	analyzer ports.AnalysisProvider,
	config IngestionConfig,
	logger *zap.Logger,
	metrics *observability.Collector,
) *IngestionService {
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.MaxPollAttempts <= 0 {
		config.MaxPollAttempts = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IngestionService{
		scraper:  scraper,
		analyzer: analyzer,
		config:   config,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("canvas-backend/ingestion"),
	}
}

// Start begins ingestion for a content element. The element's status is set
// to creating before the call returns; the rest of the job runs
// asynchronously. Re-invoking Start on the same element is the retry path
// after a failure.
func (s *IngestionService) Start(ctx context.Context, canvas *aggregates.Canvas, elementID valueobjects.ElementID, url, platform string) error {
	if url == "" {
		return pkgerrors.NewValidationError("ingestion requires a URL")
	}
	element, ok := canvas.Element(elementID)
	if !ok {
		return pkgerrors.NewValidationError("cannot ingest absent element: " + elementID.String())
	}
	if element.Kind() != entities.KindContent {
		return pkgerrors.NewValidationError("only content elements can be ingested")
	}
	if platform == "" {
		platform = domainservices.DetectPlatform(url)
	}

	status := entities.StatusCreating
	if err := canvas.UpdateElement(elementID, entities.ElementPatch{
		Status:   &status,
		URL:      &url,
		Platform: &platform,
		Metadata: map[string]interface{}{MetaStartedAt: time.Now().UTC().Format(time.RFC3339)},
	}); err != nil {
		return err
	}

	s.wg.Add(1)
	go s.run(ctx, canvas, elementID, url, platform)
	return nil
}

// Wait blocks until all in-flight jobs reach a terminal state. Used by
// tests and graceful shutdown.
func (s *IngestionService) Wait() {
	s.wg.Wait()
}

func (s *IngestionService) run(ctx context.Context, canvas *aggregates.Canvas, elementID valueobjects.ElementID, url, platform string) {
	defer s.wg.Done()

	ctx, span := s.tracer.Start(ctx, "ingestion.job",
		trace.WithAttributes(
			attribute.String("element.id", elementID.String()),
			attribute.String("content.platform", platform),
		),
	)
	defer span.End()

	started := time.Now()
	err := s.execute(ctx, canvas, elementID, url, platform)

	outcome := "completed"
	if err != nil {
		outcome = "failed"
		if pkgerrors.IsTimeout(err) {
			outcome = "timeout"
		}
		span.RecordError(err)
		s.logger.Warn("ingestion job failed",
			zap.String("element_id", elementID.String()),
			zap.String("url", url),
			zap.Error(err),
		)
	} else {
		s.logger.Info("ingestion job completed",
			zap.String("element_id", elementID.String()),
			zap.String("platform", platform),
			zap.Duration("elapsed", time.Since(started)),
		)
	}

	if s.metrics != nil {
		s.metrics.IngestionJobs.WithLabelValues(outcome).Inc()
		s.metrics.IngestionDuration.Observe(time.Since(started).Seconds())
	}
}

// execute drives the job state machine to a terminal state. Every error is
// converted into element metadata before being returned; nothing escapes as
// an unhandled failure.
func (s *IngestionService) execute(ctx context.Context, canvas *aggregates.Canvas, elementID valueobjects.ElementID, url, platform string) error {
	resp, err := s.scraper.StartScrape(ctx, ports.ScrapeRequest{URL: url, Platform: platform})
	if err != nil {
		return s.fail(canvas, elementID, pkgerrors.NewProviderError("scrape request failed", err))
	}

	scrapeID := resp.ScrapeID

	// A cache hit skips polling entirely: the provider has already
	// completed an identical scrape.
	if !(resp.Cached && resp.Status == ports.ScrapeStatusCompleted) {
		s.setStatus(canvas, elementID, entities.StatusPending, map[string]interface{}{MetaScrapeID: scrapeID})

		if err := s.poll(ctx, canvas, elementID, scrapeID); err != nil {
			return s.fail(canvas, elementID, err)
		}
	}

	s.setStatus(canvas, elementID, entities.StatusAnalyzing, nil)

	analysis, err := s.analyzer.Analyze(ctx, scrapeID)
	if err != nil {
		return s.fail(canvas, elementID, pkgerrors.NewProviderError("analysis failed", err))
	}

	completed := entities.StatusCompleted
	return canvas.UpdateElement(elementID, entities.ElementPatch{
		Status:   &completed,
		Analysis: analysis,
		Metadata: map[string]interface{}{
			MetaScrapeID: scrapeID,
			MetaEndedAt:  time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// poll waits for the scrape job to complete, one status request per
// interval, up to the attempt budget
func (s *IngestionService) poll(ctx context.Context, canvas *aggregates.Canvas, elementID valueobjects.ElementID, scrapeID string) error {
	s.setStatus(canvas, elementID, entities.StatusScraping, nil)

	for attempt := 0; attempt < s.config.MaxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return pkgerrors.NewProviderError("ingestion aborted", ctx.Err())
		case <-time.After(s.config.PollInterval):
		}

		status, err := s.scraper.ScrapeStatus(ctx, scrapeID)
		if err != nil {
			return pkgerrors.NewProviderError("scrape status check failed", err)
		}

		switch status.Status {
		case ports.ScrapeStatusCompleted:
			return nil
		case ports.ScrapeStatusFailed:
			msg := status.Error
			if msg == "" {
				msg = "scrape failed"
			}
			return pkgerrors.NewProviderError(msg, nil)
		}
	}

	return pkgerrors.NewTimeoutError("scrape did not complete within the poll budget")
}

// fail reflects a terminal error onto the owning element. The element may
// already be deleted; the update is then a no-op and the error is still
// returned for logging and metrics.
func (s *IngestionService) fail(canvas *aggregates.Canvas, elementID valueobjects.ElementID, cause error) error {
	failed := entities.StatusFailed
	_ = canvas.UpdateElement(elementID, entities.ElementPatch{
		Status: &failed,
		Metadata: map[string]interface{}{
			MetaError:   cause.Error(),
			MetaEndedAt: time.Now().UTC().Format(time.RFC3339),
		},
	})
	return cause
}

func (s *IngestionService) setStatus(canvas *aggregates.Canvas, elementID valueobjects.ElementID, status entities.IngestionStatus, metadata map[string]interface{}) {
	_ = canvas.UpdateElement(elementID, entities.ElementPatch{
		Status:   &status,
		Metadata: metadata,
	})
}
