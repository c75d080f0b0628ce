package valueobjects

import (
	pkgerrors "canvas-backend/pkg/errors"
)

// Viewport is the camera transform applied uniformly to all elements at
// render time: a pan offset plus a zoom factor.
type Viewport struct {
	x    float64
	y    float64
	zoom float64
}

// NewViewport creates a viewport with validation
func NewViewport(x, y, zoom float64) (Viewport, error) {
	if !isFinite(x) || !isFinite(y) || !isFinite(zoom) {
		return Viewport{}, pkgerrors.NewValidationError("invalid viewport: values must be finite numbers")
	}
	if zoom <= 0 {
		return Viewport{}, pkgerrors.NewValidationError("invalid viewport: zoom must be positive")
	}
	return Viewport{x: x, y: y, zoom: zoom}, nil
}

// DefaultViewport returns the identity camera transform
func DefaultViewport() Viewport {
	return Viewport{x: 0, y: 0, zoom: 1}
}

// X returns the horizontal pan offset
func (v Viewport) X() float64 {
	return v.x
}

// Y returns the vertical pan offset
func (v Viewport) Y() float64 {
	return v.y
}

// Zoom returns the zoom factor
func (v Viewport) Zoom() float64 {
	return v.zoom
}

// Pan returns the viewport translated by the given screen-space offsets
func (v Viewport) Pan(dx, dy float64) (Viewport, error) {
	return NewViewport(v.x+dx, v.y+dy, v.zoom)
}
