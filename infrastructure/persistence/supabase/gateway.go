// Package supabase persists canvas documents to a Supabase Postgres table.
package supabase

import (
	"context"
	"encoding/json"

	"canvas-backend/application/ports"
	pkgerrors "canvas-backend/pkg/errors"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

const canvasesTable = "canvases"

// canvasRow mirrors the canvases table: one row per workspace with the
// whole document in a jsonb column.
type canvasRow struct {
	WorkspaceID string          `json:"workspace_id"`
	Document    json.RawMessage `json:"document"`
}

// Gateway stores each workspace's canvas as a single row. Whole-document
// upserts keep the write path simple and make the newest save win.
type Gateway struct {
	client *supabase.Client
	logger *zap.Logger
}

// NewGateway creates the gateway from Supabase credentials
func NewGateway(projectURL, serviceKey string, logger *zap.Logger) (*Gateway, error) {
	if projectURL == "" || serviceKey == "" {
		return nil, pkgerrors.NewValidationError("supabase gateway requires a project URL and service key")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := supabase.NewClient(projectURL, serviceKey, nil)
	if err != nil {
		return nil, pkgerrors.NewPersistenceError("create supabase client", err)
	}
	return &Gateway{client: client, logger: logger}, nil
}

// LoadCanvas fetches a workspace's document. An unknown workspace returns
// an empty document rather than an error.
func (g *Gateway) LoadCanvas(ctx context.Context, workspaceID string) (*ports.CanvasDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewPersistenceError("load canceled", err)
	}

	data, _, err := g.client.From(canvasesTable).
		Select("workspace_id,document", "", false).
		Eq("workspace_id", workspaceID).
		Execute()
	if err != nil {
		return nil, pkgerrors.NewPersistenceError("query canvas row", err)
	}

	var rows []canvasRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, pkgerrors.NewPersistenceError("decode canvas rows", err)
	}
	if len(rows) == 0 {
		g.logger.Debug("no stored canvas, starting empty", zap.String("workspace_id", workspaceID))
		return ports.EmptyDocument(workspaceID), nil
	}

	var doc ports.CanvasDocument
	if err := json.Unmarshal(rows[0].Document, &doc); err != nil {
		return nil, pkgerrors.NewPersistenceError("decode canvas document", err)
	}
	doc.WorkspaceID = workspaceID
	return &doc, nil
}

// SaveCanvas upserts the workspace's document
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

	row := canvasRow{WorkspaceID: doc.WorkspaceID, Document: raw}
	_, _, err = g.client.From(canvasesTable).
		Upsert(row, "workspace_id", "", "").
		Execute()
	if err != nil {
		return pkgerrors.NewPersistenceError("upsert canvas row", err)
	}

	g.logger.Debug("canvas persisted",
		zap.String("workspace_id", doc.WorkspaceID),
		zap.Int("elements", len(doc.Elements)))
	return nil
}

var _ ports.PersistenceGateway = (*Gateway)(nil)
