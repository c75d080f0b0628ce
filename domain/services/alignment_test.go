package services

import (
	"testing"

	"canvas-backend/domain/core/entities"
	"canvas-backend/domain/core/valueobjects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeElement(t *testing.T, id string, x, y, w, h float64) *entities.Element {
	t.Helper()
	pos, err := valueobjects.NewPoint(x, y)
	require.NoError(t, err)
	size, err := valueobjects.NewSize(w, h)
	require.NoError(t, err)
	e, err := entities.NewElement(valueobjects.ElementID(id), entities.KindText, id, pos, size)
	require.NoError(t, err)
	return e
}

func TestComputeGuidesNoMatch(t *testing.T) {
	others := []*entities.Element{makeElement(t, "far", 1000, 1000, 100, 100)}
	dragged := valueobjects.Rect{X: 0, Y: 0, Width: 100, Height: 100}

	result := ComputeGuides(dragged, "dragged", others, DefaultSnapThreshold)

	assert.False(t, result.HasSnapX)
	assert.False(t, result.HasSnapY)
	assert.Empty(t, result.Guides)
}

func TestComputeGuidesLeftLeftSnap(t *testing.T) {
	others := []*entities.Element{makeElement(t, "anchor", 100, 500, 200, 100)}
	dragged := valueobjects.Rect{X: 106, Y: 0, Width: 150, Height: 80}

	result := ComputeGuides(dragged, "dragged", others, DefaultSnapThreshold)

	require.True(t, result.HasSnapX)
	assert.Equal(t, 100.0, result.SnappedX)
	require.NotEmpty(t, result.Guides)
	assert.Equal(t, AxisVertical, result.Guides[0].Axis)
	assert.Equal(t, 100.0, result.Guides[0].Position)
	// Guide spans both rectangles vertically
	assert.Equal(t, 0.0, result.Guides[0].SpanStart)
	assert.Equal(t, 600.0, result.Guides[0].SpanEnd)
}

func TestComputeGuidesTopToBottomAlignment(t *testing.T) {
	// First element at (100,100) 200x100; dragging a second one toward its
	// bottom edge: tops snaps to y=200 exactly.
	others := []*entities.Element{makeElement(t, "first", 100, 100, 200, 100)}
	dragged := valueobjects.Rect{X: 100, Y: 195, Width: 200, Height: 100}

	result := ComputeGuides(dragged, "second", others, DefaultSnapThreshold)

	require.True(t, result.HasSnapY)
	assert.Equal(t, 200.0, result.SnappedY)

	var horizontal []Guide
	for _, g := range result.Guides {
		if g.Axis == AxisHorizontal {
			horizontal = append(horizontal, g)
		}
	}
	require.NotEmpty(t, horizontal)
	assert.Equal(t, 200.0, horizontal[0].Position)

	// Left edges also line up
	require.True(t, result.HasSnapX)
	assert.Equal(t, 100.0, result.SnappedX)
}

func TestComputeGuidesCenterCenter(t *testing.T) {
	others := []*entities.Element{makeElement(t, "anchor", 0, 0, 200, 200)}
	// Dragged center x = 97, anchor center x = 100
	dragged := valueobjects.Rect{X: 47, Y: 500, Width: 100, Height: 100}

	result := ComputeGuides(dragged, "dragged", others, DefaultSnapThreshold)

	require.True(t, result.HasSnapX)
	assert.Equal(t, 50.0, result.SnappedX)
}

func TestComputeGuidesFirstMatchWins(t *testing.T) {
	// Both anchors are within threshold of the dragged left edge; the
	// earlier one in store order sets the snapped coordinate, the later one
	// still contributes a guide.
	others := []*entities.Element{
		makeElement(t, "first", 104, 500, 100, 100),
		makeElement(t, "second", 96, 700, 100, 100),
	}
	dragged := valueobjects.Rect{X: 100, Y: 0, Width: 100, Height: 100}

	result := ComputeGuides(dragged, "dragged", others, DefaultSnapThreshold)

	require.True(t, result.HasSnapX)
	assert.Equal(t, 104.0, result.SnappedX)

	vertical := 0
	for _, g := range result.Guides {
		if g.Axis == AxisVertical {
			vertical++
		}
	}
	assert.GreaterOrEqual(t, vertical, 2)
}

func TestComputeGuidesExcludesSelf(t *testing.T) {
	self := makeElement(t, "self", 100, 100, 100, 100)
	dragged := self.Bounds()

	result := ComputeGuides(dragged, "self", []*entities.Element{self}, DefaultSnapThreshold)

	assert.False(t, result.HasSnapX)
	assert.False(t, result.HasSnapY)
	assert.Empty(t, result.Guides)
}

func TestComputeGuidesDeterministic(t *testing.T) {
	others := []*entities.Element{
		makeElement(t, "a", 104, 0, 100, 100),
		makeElement(t, "b", 96, 300, 100, 100),
		makeElement(t, "c", 500, 95, 100, 100),
	}
	dragged := valueobjects.Rect{X: 100, Y: 100, Width: 100, Height: 100}

	first := ComputeGuides(dragged, "dragged", others, DefaultSnapThreshold)
	for i := 0; i < 10; i++ {
		again := ComputeGuides(dragged, "dragged", others, DefaultSnapThreshold)
		assert.Equal(t, first, again)
	}
}

func TestComputeGuidesThresholdBoundary(t *testing.T) {
	others := []*entities.Element{makeElement(t, "anchor", 110, 500, 100, 100)}

	// Exactly at threshold distance still snaps
	atEdge := valueobjects.Rect{X: 100, Y: 0, Width: 100, Height: 100}
	result := ComputeGuides(atEdge, "dragged", others, 10)
	assert.True(t, result.HasSnapX)

	// One unit beyond does not
	beyond := valueobjects.Rect{X: 99, Y: 0, Width: 100, Height: 100}
	result = ComputeGuides(beyond, "dragged", others, 10)
	assert.False(t, result.HasSnapX)
}

func TestComputeGuidesInvalidThresholdFallsBack(t *testing.T) {
	others := []*entities.Element{makeElement(t, "anchor", 105, 500, 100, 100)}
	dragged := valueobjects.Rect{X: 100, Y: 0, Width: 100, Height: 100}

	result := ComputeGuides(dragged, "dragged", others, -1)

	assert.True(t, result.HasSnapX)
	assert.Equal(t, 105.0, result.SnappedX)
}
