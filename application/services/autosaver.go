package services

import (
	"context"
	"sync"
	"time"

	"canvas-backend/application/dto"
	"canvas-backend/application/ports"
	"canvas-backend/domain/core/aggregates"
	"canvas-backend/domain/events"
	"canvas-backend/pkg/observability"
	"go.uber.org/zap"
)

// DefaultSaveDebounce batches mutation bursts into a single write
const DefaultSaveDebounce = 2 * time.Second

// Autosaver persists the canvas after mutations, debounced so a drag or a
// bulk import produces one write instead of hundreds. The saved document is
// built from an immutable snapshot taken at flush time.
type Autosaver struct {
	workspaceID string
	canvas      *aggregates.Canvas
	gateway     ports.PersistenceGateway
	debounce    time.Duration
	logger      *zap.Logger
	metrics     *observability.Collector

	mu      sync.Mutex
	timer   *time.Timer
	dirty   bool
	closed  bool
	onError func(error)
	saving  sync.WaitGroup
}

// NewAutosaver wires a debounced saver to a canvas. It subscribes to the
// canvas immediately; call Close to flush and detach.
func NewAutosaver(workspaceID string, canvas *aggregates.Canvas, gateway ports.PersistenceGateway, debounce time.Duration, logger *zap.Logger, metrics *observability.Collector) *Autosaver {
	if debounce <= 0 {
		debounce = DefaultSaveDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Autosaver{
		workspaceID: workspaceID,
		canvas:      canvas,
		gateway:     gateway,
		debounce:    debounce,
		logger:      logger,
		metrics:     metrics,
	}
	canvas.Subscribe(a.onEvent)
	return a
}

// OnError registers a hook invoked when a background save fails
func (a *Autosaver) OnError(fn func(error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onError = fn
}

func (a *Autosaver) onEvent(event events.DomainEvent) {
	switch event.GetEventType() {
	case events.TypeSelectionChanged:
		// Selection is ephemeral UI state, not worth a write
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.dirty = true
	if a.timer == nil {
		a.timer = time.AfterFunc(a.debounce, a.flush)
	} else {
		a.timer.Reset(a.debounce)
	}
}

func (a *Autosaver) flush() {
	a.mu.Lock()
	if a.closed || !a.dirty {
		a.mu.Unlock()
		return
	}
	a.dirty = false
	a.timer = nil
	a.saving.Add(1)
	a.mu.Unlock()

	defer a.saving.Done()
	a.save(context.Background())
}

func (a *Autosaver) save(ctx context.Context) {
	snap := a.canvas.TakeSnapshot()
	doc := dto.ToDocument(a.workspaceID, snap)

	if err := a.gateway.SaveCanvas(ctx, doc); err != nil {
		a.logger.Error("autosave failed",
			zap.String("workspace_id", a.workspaceID),
			zap.Error(err))
		if a.metrics != nil {
			a.metrics.Saves.WithLabelValues("error").Inc()
		}
		a.mu.Lock()
		hook := a.onError
		a.mu.Unlock()
		if hook != nil {
			hook(err)
		}
		return
	}

	a.logger.Debug("canvas saved",
		zap.String("workspace_id", a.workspaceID),
		zap.Int("elements", len(doc.Elements)),
		zap.Int("connections", len(doc.Connections)))
	if a.metrics != nil {
		a.metrics.Saves.WithLabelValues("ok").Inc()
	}
}

// Flush forces an immediate save of any pending changes
func (a *Autosaver) Flush(ctx context.Context) {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	pending := a.dirty
	a.dirty = false
	a.mu.Unlock()

	if pending {
		a.save(ctx)
	}
}

// Close stops the debounce timer, flushes pending changes, and detaches.
// Further canvas events are ignored after Close returns.
func (a *Autosaver) Close(ctx context.Context) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	pending := a.dirty
	a.dirty = false
	a.mu.Unlock()

	a.saving.Wait()
	if pending {
		a.save(ctx)
	}
}
