// Package memory provides an in-process persistence gateway used in tests
// and local development.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"canvas-backend/application/ports"
	pkgerrors "canvas-backend/pkg/errors"
)

// Gateway stores canvas documents in a map keyed by workspace. Documents
// are deep-copied through JSON on both paths so callers can never alias
// stored state.
type Gateway struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewGateway creates an empty in-memory gateway
func NewGateway() *Gateway {
	return &Gateway{docs: make(map[string][]byte)}
}

// LoadCanvas returns the stored document, or an empty document for an
// unknown workspace
func (g *Gateway) LoadCanvas(ctx context.Context, workspaceID string) (*ports.CanvasDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewPersistenceError("load canceled", err)
	}

	g.mu.RLock()
	raw, ok := g.docs[workspaceID]
	g.mu.RUnlock()

	if !ok {
		return ports.EmptyDocument(workspaceID), nil
	}

	var doc ports.CanvasDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, pkgerrors.NewPersistenceError("corrupt canvas document", err)
	}
	return &doc, nil
}

// SaveCanvas stores the document, replacing any prior version
func (g *Gateway) SaveCanvas(ctx context.Context, doc *ports.CanvasDocument) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewPersistenceError("save canceled", err)
	}
	if doc == nil || doc.WorkspaceID == "" {
		return pkgerrors.NewValidationError("document requires a workspace id")
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.NewPersistenceError("encode canvas document", err)
	}

	g.mu.Lock()
	g.docs[doc.WorkspaceID] = raw
	g.mu.Unlock()
	return nil
}

// SaveCount reports how many workspaces hold a document
func (g *Gateway) SaveCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.docs)
}

var _ ports.PersistenceGateway = (*Gateway)(nil)
