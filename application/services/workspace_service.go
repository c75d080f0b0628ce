package services

import (
	"context"
	"sync"
	"time"

	"canvas-backend/application/dto"
	"canvas-backend/application/ports"
	"canvas-backend/domain/core/aggregates"
	"canvas-backend/domain/events"
	pkgerrors "canvas-backend/pkg/errors"
	"canvas-backend/pkg/observability"
	"go.uber.org/zap"
)

// Workspace bundles one open canvas with its autosaver
type Workspace struct {
	ID     string
	Canvas *aggregates.Canvas
	saver  *Autosaver
}

// WorkspaceService owns the set of open canvases. Opening a workspace
// hydrates its canvas from the persistence gateway and attaches a debounced
// autosaver; closing it flushes and releases it.
type WorkspaceService struct {
	gateway  ports.PersistenceGateway
	debounce time.Duration
	logger   *zap.Logger
	metrics  *observability.Collector

	mu   sync.Mutex
	open map[string]*Workspace
}

// NewWorkspaceService creates the service
func NewWorkspaceService(gateway ports.PersistenceGateway, debounce time.Duration, logger *zap.Logger, metrics *observability.Collector) *WorkspaceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkspaceService{
		gateway:  gateway,
		debounce: debounce,
		logger:   logger,
		metrics:  metrics,
		open:     make(map[string]*Workspace),
	}
}

// Open loads a workspace's canvas, returning the already-open instance if
// one exists. Unknown workspaces open as empty canvases.
func (s *WorkspaceService) Open(ctx context.Context, workspaceID string) (*Workspace, error) {
	if workspaceID == "" {
		return nil, pkgerrors.NewValidationError("workspace id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ws, ok := s.open[workspaceID]; ok {
		return ws, nil
	}

	doc, err := s.gateway.LoadCanvas(ctx, workspaceID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load workspace "+workspaceID)
	}
	if doc == nil {
		doc = ports.EmptyDocument(workspaceID)
	}

	canvas, err := dto.BuildCanvas(doc, s.logger)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		metrics := s.metrics
		canvas.Subscribe(func(event events.DomainEvent) {
			metrics.Mutations.WithLabelValues(event.GetEventType()).Inc()
			switch event.GetEventType() {
			case events.TypeElementAdded:
				metrics.ElementsAdded.Inc()
			case events.TypeElementDeleted:
				metrics.ElementsDeleted.Inc()
			}
		})
	}

	ws := &Workspace{
		ID:     workspaceID,
		Canvas: canvas,
		saver:  NewAutosaver(workspaceID, canvas, s.gateway, s.debounce, s.logger, s.metrics),
	}
	s.open[workspaceID] = ws

	s.logger.Info("workspace opened",
		zap.String("workspace_id", workspaceID),
		zap.Int("elements", canvas.ElementCount()),
		zap.Int("connections", canvas.ConnectionCount()))
	return ws, nil
}

// Get returns an open workspace
func (s *WorkspaceService) Get(workspaceID string) (*Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.open[workspaceID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("workspace not open: " + workspaceID)
	}
	return ws, nil
}

// Flush forces an immediate save of an open workspace
func (s *WorkspaceService) Flush(ctx context.Context, workspaceID string) error {
	ws, err := s.Get(workspaceID)
	if err != nil {
		return err
	}
	ws.saver.Flush(ctx)
	return nil
}

// Close flushes and releases an open workspace. Closing a workspace that is
// not open is a no-op.
func (s *WorkspaceService) Close(ctx context.Context, workspaceID string) {
	s.mu.Lock()
	ws, ok := s.open[workspaceID]
	delete(s.open, workspaceID)
	s.mu.Unlock()

	if !ok {
		return
	}
	ws.saver.Close(ctx)
	s.logger.Info("workspace closed", zap.String("workspace_id", workspaceID))
}

// CloseAll flushes and releases every open workspace, used at shutdown
func (s *WorkspaceService) CloseAll(ctx context.Context) {
	s.mu.Lock()
	workspaces := make([]*Workspace, 0, len(s.open))
	for _, ws := range s.open {
		workspaces = append(workspaces, ws)
	}
	s.open = make(map[string]*Workspace)
	s.mu.Unlock()

	for _, ws := range workspaces {
		ws.saver.Close(ctx)
	}
}

// OpenCount reports how many workspaces are currently open
func (s *WorkspaceService) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}
