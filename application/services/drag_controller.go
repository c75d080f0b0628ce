package services

import (
	"context"
	"sync"
	"time"

	"canvas-backend/domain/core/aggregates"
	"canvas-backend/domain/core/entities"
	"canvas-backend/domain/core/valueobjects"
	domainservices "canvas-backend/domain/services"
	pkgerrors "canvas-backend/pkg/errors"
	"go.uber.org/zap"
)

// DragState is the controller's lifecycle state
type DragState string

const (
	DragIdle     DragState = "idle"
	DragDragging DragState = "dragging"
)

// DragConfig tunes the drag loop. FrameInterval bounds the store mutation
// rate to one update per display frame.
type DragConfig struct {
	FrameInterval time.Duration
	SnapThreshold float64
}

// DefaultDragConfig returns 60fps frame pacing with the standard snap
// threshold
func DefaultDragConfig() DragConfig {
	return DragConfig{
		FrameInterval: 16 * time.Millisecond,
		SnapThreshold: domainservices.DefaultSnapThreshold,
	}
}

// DragController converts pointer events into element or viewport updates.
// Pointer moves are coalesced: every event is observed for offset
// correctness, but only the latest position within a frame produces a store
// mutation. Tests drive Tick directly; production runs it on a ticker via
// Run.
type DragController struct {
	canvas *aggregates.Canvas
	config DragConfig
	logger *zap.Logger

	mu            sync.Mutex
	state         DragState
	elementID     valueobjects.ElementID
	viewportDrag  bool
	offsetX       float64
	offsetY       float64
	startViewport valueobjects.Viewport
	startPointerX float64
	startPointerY float64
	latestX       float64
	latestY       float64
	pending       bool
	guides        []domainservices.Guide
	onDragEnd     func(valueobjects.ElementID)
}

// NewDragController creates a controller bound to one canvas
func NewDragController(canvas *aggregates.Canvas, config DragConfig, logger *zap.Logger) *DragController {
	if config.FrameInterval <= 0 {
		config.FrameInterval = 16 * time.Millisecond
	}
	if config.SnapThreshold <= 0 {
		config.SnapThreshold = domainservices.DefaultSnapThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DragController{
		canvas: canvas,
		config: config,
		logger: logger,
		state:  DragIdle,
	}
}

// State returns the controller state
func (d *DragController) State() DragState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Guides returns the alignment guides computed on the last tick
func (d *DragController) Guides() []domainservices.Guide {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domainservices.Guide(nil), d.guides...)
}

// OnDragEnd registers the drag-end notification hook
func (d *DragController) OnDragEnd(fn func(valueobjects.ElementID)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onDragEnd = fn
}

// BeginElementDrag starts dragging an element; the pointer-to-origin offset
// recorded here keeps the element from jumping under the cursor.
func (d *DragController) BeginElementDrag(id valueobjects.ElementID, pointerX, pointerY float64) error {
	element, ok := d.canvas.Element(id)
	if !ok {
		return pkgerrors.NewValidationError("cannot drag absent element: " + id.String())
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == DragDragging {
		return pkgerrors.NewValidationError("drag already in progress")
	}

	d.state = DragDragging
	d.elementID = id
	d.viewportDrag = false
	d.offsetX = pointerX - element.Position().X()
	d.offsetY = pointerY - element.Position().Y()
	d.latestX = pointerX
	d.latestY = pointerY
	d.pending = false
	return nil
}

// BeginViewportDrag starts panning the camera
func (d *DragController) BeginViewportDrag(pointerX, pointerY float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == DragDragging {
		return pkgerrors.NewValidationError("drag already in progress")
	}

	d.state = DragDragging
	d.elementID = ""
	d.viewportDrag = true
	d.startViewport = d.canvas.Viewport()
	d.startPointerX = pointerX
	d.startPointerY = pointerY
	d.latestX = pointerX
	d.latestY = pointerY
	d.pending = false
	return nil
}

// Move records a pointer position. It never mutates the store: superseded
// moves within the same frame are dropped, keeping only the latest.
func (d *DragController) Move(pointerX, pointerY float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != DragDragging {
		return
	}
	d.latestX = pointerX
	d.latestY = pointerY
	d.pending = true
}

// Tick applies at most one store mutation for the most recent pointer
// position
func (d *DragController) Tick() {
	d.mu.Lock()

	if d.state != DragDragging || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false

	if d.viewportDrag {
		start := d.startViewport
		dx := d.latestX - d.startPointerX
		dy := d.latestY - d.startPointerY
		d.mu.Unlock()

		if vp, err := start.Pan(dx, dy); err == nil {
			d.canvas.SetViewport(vp)
		}
		return
	}

	id := d.elementID
	x := d.latestX - d.offsetX
	y := d.latestY - d.offsetY
	d.mu.Unlock()

	element, ok := d.canvas.Element(id)
	if !ok {
		// Element deleted mid-drag; nothing left to move
		return
	}

	dragged := valueobjects.Rect{
		X:      x,
		Y:      y,
		Width:  element.Size().Width(),
		Height: element.Size().Height(),
	}

	// The snap threshold is specified in screen pixels; dividing by zoom
	// converts it into canvas units at the current scale.
	threshold := d.config.SnapThreshold
	if zoom := d.canvas.Viewport().Zoom(); zoom > 0 {
		threshold /= zoom
	}

	result := domainservices.ComputeGuides(dragged, id, d.canvas.Elements(), threshold)
	if result.HasSnapX {
		x = result.SnappedX
	}
	if result.HasSnapY {
		y = result.SnappedY
	}

	pos, err := valueobjects.NewPoint(x, y)
	if err != nil {
		d.logger.Warn("dropping drag tick with invalid position", zap.Error(err))
		return
	}
	_ = d.canvas.UpdateElement(id, entities.ElementPatch{Position: &pos})

	d.mu.Lock()
	d.guides = result.Guides
	d.mu.Unlock()
}

// End finishes the drag on pointer-up or cancellation: a final tick applies
// the last pointer position, guides are cleared, and the drag-end hook
// fires.
func (d *DragController) End() {
	d.mu.Lock()
	if d.state != DragDragging {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	d.Tick()

	d.mu.Lock()
	id := d.elementID
	hook := d.onDragEnd
	wasElement := !d.viewportDrag
	d.state = DragIdle
	d.elementID = ""
	d.viewportDrag = false
	d.pending = false
	d.guides = nil
	d.mu.Unlock()

	if hook != nil && wasElement {
		hook(id)
	}
}

// Cancel abandons the drag without applying the pending pointer position.
// Used when pointer capture is lost mid-drag, where a final mutation from a
// stale pointer would be wrong. Guides are cleared and the hook still fires
// so listeners can settle.
func (d *DragController) Cancel() {
	d.mu.Lock()
	if d.state != DragDragging {
		d.mu.Unlock()
		return
	}
	id := d.elementID
	hook := d.onDragEnd
	wasElement := !d.viewportDrag
	d.state = DragIdle
	d.elementID = ""
	d.viewportDrag = false
	d.pending = false
	d.guides = nil
	d.mu.Unlock()

	if hook != nil && wasElement {
		hook(id)
	}
}

// Run drives Tick on the frame interval until the context is canceled.
// The final End is the caller's responsibility.
func (d *DragController) Run(ctx context.Context) {
	ticker := time.NewTicker(d.config.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick()
		}
	}
}
