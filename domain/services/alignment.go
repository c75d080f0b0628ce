package services

import (
	"math"

	"canvas-backend/domain/core/entities"
	"canvas-backend/domain/core/valueobjects"
)

// DefaultSnapThreshold is the snap distance in canvas units
const DefaultSnapThreshold = 10.0

// GuideAxis is the orientation of an alignment guide line
type GuideAxis string

const (
	AxisVertical   GuideAxis = "vertical"
	AxisHorizontal GuideAxis = "horizontal"
)

// Guide is an ephemeral alignment line shown during a drag. Guides are
// derived on every drag tick and never persisted.
type Guide struct {
	Axis      GuideAxis
	Position  float64
	SpanStart float64
	SpanEnd   float64
}

// GuideResult is the outcome of a guide computation. When HasSnapX /
// HasSnapY is false the caller keeps the raw dragged coordinate for that
// axis.
type GuideResult struct {
	SnappedX float64
	HasSnapX bool
	SnappedY float64
	HasSnapY bool
	Guides   []Guide
}

// ComputeGuides tests the dragged rectangle against every other element for
// the five horizontal alignment relationships (left-left, right-right,
// left-right, right-left, center-center) and their five vertical analogues.
//
// First match wins per axis: candidates are iterated in the order given
// (store order) and only the earliest satisfying relationship sets the
// snapped coordinate. Later matches on the same axis still emit a guide
// line for visual feedback. Repeated calls with the same inputs produce
// identical results.
func ComputeGuides(dragged valueobjects.Rect, draggedID valueobjects.ElementID, others []*entities.Element, threshold float64) GuideResult {
	if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		threshold = DefaultSnapThreshold
	}

	var result GuideResult

	for _, other := range others {
		if other == nil || other.ID().Equals(draggedID) {
			continue
		}
		target := other.Bounds()

		// Horizontal relationships snap the X coordinate and draw a
		// vertical guide at the matched edge.
		xChecks := []struct {
			from, to float64
			snapTo   float64
		}{
			{dragged.Left(), target.Left(), target.Left()},
			{dragged.Right(), target.Right(), target.Right() - dragged.Width},
			{dragged.Left(), target.Right(), target.Right()},
			{dragged.Right(), target.Left(), target.Left() - dragged.Width},
			{dragged.CenterX(), target.CenterX(), target.CenterX() - dragged.Width/2},
		}
		for _, check := range xChecks {
			if math.Abs(check.from-check.to) > threshold {
				continue
			}
			if !result.HasSnapX {
				result.SnappedX = check.snapTo
				result.HasSnapX = true
			}
			result.Guides = append(result.Guides, Guide{
				Axis:      AxisVertical,
				Position:  check.to,
				SpanStart: math.Min(dragged.Top(), target.Top()),
				SpanEnd:   math.Max(dragged.Bottom(), target.Bottom()),
			})
		}

		yChecks := []struct {
			from, to float64
			snapTo   float64
		}{
			{dragged.Top(), target.Top(), target.Top()},
			{dragged.Bottom(), target.Bottom(), target.Bottom() - dragged.Height},
			{dragged.Top(), target.Bottom(), target.Bottom()},
			{dragged.Bottom(), target.Top(), target.Top() - dragged.Height},
			{dragged.CenterY(), target.CenterY(), target.CenterY() - dragged.Height/2},
		}
		for _, check := range yChecks {
			if math.Abs(check.from-check.to) > threshold {
				continue
			}
			if !result.HasSnapY {
				result.SnappedY = check.snapTo
				result.HasSnapY = true
			}
			result.Guides = append(result.Guides, Guide{
				Axis:      AxisHorizontal,
				Position:  check.to,
				SpanStart: math.Min(dragged.Left(), target.Left()),
				SpanEnd:   math.Max(dragged.Right(), target.Right()),
			})
		}
	}

	return result
}
