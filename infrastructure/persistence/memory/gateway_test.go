package memory

import (
	"context"
	"testing"

	"canvas-backend/application/ports"
	pkgerrors "canvas-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayUnknownWorkspaceIsEmpty(t *testing.T) {
	g := NewGateway()
	doc, err := g.LoadCanvas(context.Background(), "ws-new")
	require.NoError(t, err)
	assert.Equal(t, "ws-new", doc.WorkspaceID)
	assert.Empty(t, doc.Elements)
	assert.Equal(t, 1.0, doc.Viewport.Zoom)
}

func TestGatewayRoundTrip(t *testing.T) {
	g := NewGateway()
	doc := ports.EmptyDocument("ws-1")
	doc.Elements = append(doc.Elements, ports.ElementRecord{
		ID:    "el-1",
		Kind:  "text",
		Title: "note",
		X:     10,
		Y:     20,
		Body:  "hello",
	})
	doc.Viewport = ports.ViewportRecord{X: 5, Y: -5, Zoom: 2}

	require.NoError(t, g.SaveCanvas(context.Background(), doc))

	loaded, err := g.LoadCanvas(context.Background(), "ws-1")
	require.NoError(t, err)
	require.Len(t, loaded.Elements, 1)
	assert.Equal(t, "el-1", loaded.Elements[0].ID)
	assert.Equal(t, 2.0, loaded.Viewport.Zoom)

	// Stored state never aliases the caller's document
	doc.Elements[0].Title = "mutated"
	reloaded, err := g.LoadCanvas(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, "note", reloaded.Elements[0].Title)
}

func TestGatewayOverwrites(t *testing.T) {
	g := NewGateway()
	first := ports.EmptyDocument("ws-1")
	first.Elements = append(first.Elements, ports.ElementRecord{ID: "a", Kind: "text"})
	require.NoError(t, g.SaveCanvas(context.Background(), first))

	second := ports.EmptyDocument("ws-1")
	require.NoError(t, g.SaveCanvas(context.Background(), second))

	loaded, err := g.LoadCanvas(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Elements)
	assert.Equal(t, 1, g.SaveCount())
}

func TestGatewayValidation(t *testing.T) {
	g := NewGateway()
	err := g.SaveCanvas(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))

	err = g.SaveCanvas(context.Background(), &ports.CanvasDocument{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestGatewayCanceledContext(t *testing.T) {
	g := NewGateway()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.LoadCanvas(ctx, "ws-1")
	assert.True(t, pkgerrors.IsPersistence(err))
	assert.True(t, pkgerrors.IsPersistence(g.SaveCanvas(ctx, ports.EmptyDocument("ws-1"))))
}
