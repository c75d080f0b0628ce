package valueobjects

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoint(t *testing.T) {
	tests := []struct {
		name    string
		x, y    float64
		wantErr bool
	}{
		{"valid point", 100, 200, false},
		{"negative coordinates are valid", -50, -75.5, false},
		{"zero point", 0, 0, false},
		{"NaN x", math.NaN(), 0, true},
		{"infinite y", 0, math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPoint(tt.x, tt.y)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.x, p.X())
				assert.Equal(t, tt.y, p.Y())
			}
		})
	}
}

func TestPointTranslate(t *testing.T) {
	p, err := NewPoint(10, 20)
	require.NoError(t, err)

	moved, err := p.Translate(5, -5)
	require.NoError(t, err)
	assert.Equal(t, 15.0, moved.X())
	assert.Equal(t, 15.0, moved.Y())

	// Translating into a non-finite coordinate is rejected
	_, err = p.Translate(math.Inf(1), 0)
	assert.Error(t, err)
}

func TestNewSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height float64
		wantErr       bool
	}{
		{"valid size", 200, 100, false},
		{"zero width", 0, 100, true},
		{"negative height", 200, -1, true},
		{"NaN width", math.NaN(), 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSize(tt.width, tt.height)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.width, s.Width())
				assert.Equal(t, tt.height, s.Height())
			}
		})
	}
}

func TestRectEdges(t *testing.T) {
	pos, _ := NewPoint(100, 50)
	size, _ := NewSize(200, 100)
	r := NewRect(pos, size)

	assert.Equal(t, 100.0, r.Left())
	assert.Equal(t, 300.0, r.Right())
	assert.Equal(t, 50.0, r.Top())
	assert.Equal(t, 150.0, r.Bottom())
	assert.Equal(t, 200.0, r.CenterX())
	assert.Equal(t, 100.0, r.CenterY())
}

func TestRectIntersects(t *testing.T) {
	base := Rect{X: 0, Y: 0, Width: 100, Height: 100}

	tests := []struct {
		name  string
		other Rect
		want  bool
	}{
		{"overlapping", Rect{X: 50, Y: 50, Width: 100, Height: 100}, true},
		{"contained", Rect{X: 25, Y: 25, Width: 10, Height: 10}, true},
		{"touching right edge", Rect{X: 100, Y: 0, Width: 50, Height: 50}, true},
		{"touching bottom edge", Rect{X: 0, Y: 100, Width: 50, Height: 50}, true},
		{"disjoint", Rect{X: 101, Y: 101, Width: 10, Height: 10}, false},
		{"far away", Rect{X: -500, Y: -500, Width: 10, Height: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Intersects(tt.other))
			assert.Equal(t, tt.want, tt.other.Intersects(base))
		})
	}
}
