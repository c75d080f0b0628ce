package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"canvas-backend/application/ports"
	pkgerrors "canvas-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingGateway struct {
	mu    sync.Mutex
	saves []*ports.CanvasDocument
	fail  bool
}

func (g *recordingGateway) LoadCanvas(ctx context.Context, workspaceID string) (*ports.CanvasDocument, error) {
	return ports.EmptyDocument(workspaceID), nil
}

func (g *recordingGateway) SaveCanvas(ctx context.Context, doc *ports.CanvasDocument) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return pkgerrors.NewPersistenceError("backend unavailable", nil)
	}
	g.saves = append(g.saves, doc)
	return nil
}

func (g *recordingGateway) saveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.saves)
}

func (g *recordingGateway) lastSave() *ports.CanvasDocument {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.saves) == 0 {
		return nil
	}
	return g.saves[len(g.saves)-1]
}

func TestAutosaverDebouncesBursts(t *testing.T) {
	canvas := dragTestCanvas(t)
	gateway := &recordingGateway{}
	saver := NewAutosaver("ws-1", canvas, gateway, 20*time.Millisecond, zap.NewNop(), nil)
	defer saver.Close(context.Background())

	for i := 0; i < 10; i++ {
		placeElement(t, canvas, float64(i*10), 0, 50, 50)
	}

	assert.Eventually(t, func() bool {
		return gateway.saveCount() == 1
	}, time.Second, 5*time.Millisecond, "a burst of mutations collapses into one save")

	doc := gateway.lastSave()
	require.NotNil(t, doc)
	assert.Equal(t, "ws-1", doc.WorkspaceID)
	assert.Len(t, doc.Elements, 10)
}

func TestAutosaverIgnoresSelectionChanges(t *testing.T) {
	canvas := dragTestCanvas(t)

	gateway := &recordingGateway{}
	saver := NewAutosaver("ws-1", canvas, gateway, 10*time.Millisecond, zap.NewNop(), nil)

	id := placeElement(t, canvas, 0, 0, 50, 50)

	// Drain the save triggered by placing the element
	assert.Eventually(t, func() bool {
		return gateway.saveCount() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, canvas.SetSelection(id))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, gateway.saveCount(), "selection changes do not trigger saves")

	saver.Close(context.Background())
	assert.Equal(t, 1, gateway.saveCount(), "close with nothing dirty writes nothing")
}

func TestAutosaverCloseFlushesPending(t *testing.T) {
	canvas := dragTestCanvas(t)
	gateway := &recordingGateway{}
	saver := NewAutosaver("ws-1", canvas, gateway, time.Hour, zap.NewNop(), nil)

	placeElement(t, canvas, 0, 0, 50, 50)
	saver.Close(context.Background())

	require.Equal(t, 1, gateway.saveCount(), "close flushes before the debounce fires")
	assert.Len(t, gateway.lastSave().Elements, 1)

	placeElement(t, canvas, 100, 0, 50, 50)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, gateway.saveCount(), "events after close are ignored")
}

func TestAutosaverFlushOnDemand(t *testing.T) {
	canvas := dragTestCanvas(t)
	gateway := &recordingGateway{}
	saver := NewAutosaver("ws-1", canvas, gateway, time.Hour, zap.NewNop(), nil)
	defer saver.Close(context.Background())

	placeElement(t, canvas, 0, 0, 50, 50)
	saver.Flush(context.Background())
	assert.Equal(t, 1, gateway.saveCount())

	saver.Flush(context.Background())
	assert.Equal(t, 1, gateway.saveCount(), "flush with nothing dirty is a no-op")
}

func TestAutosaverReportsErrors(t *testing.T) {
	canvas := dragTestCanvas(t)
	gateway := &recordingGateway{fail: true}
	saver := NewAutosaver("ws-1", canvas, gateway, time.Hour, zap.NewNop(), nil)
	defer saver.Close(context.Background())

	var got error
	saver.OnError(func(err error) { got = err })

	placeElement(t, canvas, 0, 0, 50, 50)
	saver.Flush(context.Background())

	require.Error(t, got)
	assert.True(t, pkgerrors.IsPersistence(got))
}
