package services

import (
	"canvas-backend/domain/core/entities"
	"canvas-backend/domain/core/valueobjects"
)

// minCullZoom guards the division for degenerate camera transforms
const minCullZoom = 1e-6

// CullConfig tunes visible-set filtering. The default bounding box is a
// heuristic for elements whose dimensions were never persisted, used for
// the intersection test only.
type CullConfig struct {
	Padding       float64
	DefaultWidth  float64
	DefaultHeight float64
}

// DefaultCullConfig returns the standard culling parameters
func DefaultCullConfig() CullConfig {
	return CullConfig{
		Padding:       100,
		DefaultWidth:  200,
		DefaultHeight: 200,
	}
}

// VisibleRect computes the camera-space rectangle covered by the screen
// plus padding
func VisibleRect(viewport valueobjects.Viewport, canvasWidth, canvasHeight float64, cfg CullConfig) valueobjects.Rect {
	zoom := viewport.Zoom()
	if zoom < minCullZoom {
		zoom = minCullZoom
	}

	left := -viewport.X()/zoom - cfg.Padding
	top := -viewport.Y()/zoom - cfg.Padding
	right := (-viewport.X()+canvasWidth)/zoom + cfg.Padding
	bottom := (-viewport.Y()+canvasHeight)/zoom + cfg.Padding

	return valueobjects.Rect{
		X:      left,
		Y:      top,
		Width:  right - left,
		Height: bottom - top,
	}
}

// CullVisible filters the element set to those whose bounding box intersects
// the padded visible rectangle. An element exactly touching the padded edge
// counts as visible. The function is pure: stored geometry is never mutated
// and repeated calls with the same inputs return the same set.
func CullVisible(elements []*entities.Element, viewport valueobjects.Viewport, canvasWidth, canvasHeight float64, cfg CullConfig) []*entities.Element {
	visible := VisibleRect(viewport, canvasWidth, canvasHeight, cfg)

	out := make([]*entities.Element, 0, len(elements))
	for _, e := range elements {
		if e == nil {
			continue
		}
		if boundsFor(e, cfg).Intersects(visible) {
			out = append(out, e)
		}
	}
	return out
}

// boundsFor returns the element's bounding box, substituting the default box
// for elements without explicit dimensions
func boundsFor(e *entities.Element, cfg CullConfig) valueobjects.Rect {
	bounds := e.Bounds()
	if e.Size().IsZero() {
		bounds.Width = cfg.DefaultWidth
		bounds.Height = cfg.DefaultHeight
	}
	return bounds
}
