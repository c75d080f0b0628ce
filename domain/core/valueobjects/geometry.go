package valueobjects

import (
	"math"

	pkgerrors "canvas-backend/pkg/errors"
)

// Point is a value object representing canvas-space coordinates
type Point struct {
	x float64
	y float64
}

// NewPoint creates a point with validation
func NewPoint(x, y float64) (Point, error) {
	if !isFinite(x) || !isFinite(y) {
		return Point{}, pkgerrors.NewValidationError("invalid coordinates: must be finite numbers")
	}
	return Point{x: x, y: y}, nil
}

// X returns the X coordinate
func (p Point) X() float64 {
	return p.x
}

// Y returns the Y coordinate
func (p Point) Y() float64 {
	return p.y
}

// Translate moves the point by the given offsets
func (p Point) Translate(dx, dy float64) (Point, error) {
	return NewPoint(p.x+dx, p.y+dy)
}

// Equals checks if two points are equal
func (p Point) Equals(other Point) bool {
	const epsilon = 1e-9
	return math.Abs(p.x-other.x) < epsilon && math.Abs(p.y-other.y) < epsilon
}

// Size is a value object representing element dimensions
type Size struct {
	width  float64
	height float64
}

// NewSize creates a size with validation
func NewSize(width, height float64) (Size, error) {
	if !isFinite(width) || !isFinite(height) {
		return Size{}, pkgerrors.NewValidationError("invalid dimensions: must be finite numbers")
	}
	if width <= 0 || height <= 0 {
		return Size{}, pkgerrors.NewValidationError("invalid dimensions: width and height must be positive")
	}
	return Size{width: width, height: height}, nil
}

// Width returns the width
func (s Size) Width() float64 {
	return s.width
}

// Height returns the height
func (s Size) Height() float64 {
	return s.height
}

// IsZero checks if the size was never set
func (s Size) IsZero() bool {
	return s.width == 0 && s.height == 0
}

// Rect is an axis-aligned rectangle in canvas space
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewRect builds a rectangle from a position and size
func NewRect(pos Point, size Size) Rect {
	return Rect{X: pos.X(), Y: pos.Y(), Width: size.Width(), Height: size.Height()}
}

// Left returns the left edge
func (r Rect) Left() float64 {
	return r.X
}

// Right returns the right edge
func (r Rect) Right() float64 {
	return r.X + r.Width
}

// Top returns the top edge
func (r Rect) Top() float64 {
	return r.Y
}

// Bottom returns the bottom edge
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// CenterX returns the horizontal center
func (r Rect) CenterX() float64 {
	return r.X + r.Width/2
}

// CenterY returns the vertical center
func (r Rect) CenterY() float64 {
	return r.Y + r.Height/2
}

// Intersects reports whether two rectangles overlap.
// Rectangles that exactly touch at an edge count as intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.Right() >= other.Left() && r.Left() <= other.Right() &&
		r.Bottom() >= other.Top() && r.Top() <= other.Bottom()
}

// isFinite checks if a coordinate is a valid finite number
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
