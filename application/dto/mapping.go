// Package dto converts between domain objects and the wire records used at
// the persistence boundary.
package dto

import (
	"time"

	"canvas-backend/application/ports"
	"canvas-backend/domain/core/aggregates"
	"canvas-backend/domain/core/entities"
	"canvas-backend/domain/core/valueobjects"
	pkgerrors "canvas-backend/pkg/errors"
	"go.uber.org/zap"
)

// ToDocument converts a canvas snapshot into its persisted form
func ToDocument(workspaceID string, snap aggregates.Snapshot) *ports.CanvasDocument {
	doc := &ports.CanvasDocument{
		WorkspaceID: workspaceID,
		Elements:    make([]ports.ElementRecord, 0, len(snap.Elements)),
		Connections: make([]ports.ConnectionRecord, 0, len(snap.Connections)),
		Viewport: ports.ViewportRecord{
			X:    snap.Viewport.X(),
			Y:    snap.Viewport.Y(),
			Zoom: snap.Viewport.Zoom(),
		},
	}

	for _, e := range snap.Elements {
		doc.Elements = append(doc.Elements, toElementRecord(e))
	}
	for _, conn := range snap.Connections {
		doc.Connections = append(doc.Connections, ports.ConnectionRecord{
			ID:        conn.ID().String(),
			From:      conn.From().String(),
			To:        conn.To().String(),
			CreatedAt: conn.CreatedAt(),
		})
	}
	return doc
}

func toElementRecord(e *entities.Element) ports.ElementRecord {
	rec := ports.ElementRecord{
		ID:        e.ID().String(),
		Kind:      string(e.Kind()),
		Title:     e.Title(),
		X:         e.Position().X(),
		Y:         e.Position().Y(),
		Width:     e.Size().Width(),
		Height:    e.Size().Height(),
		URL:       e.URL(),
		Platform:  e.Platform(),
		Thumbnail: e.Thumbnail(),
		Analysis:  e.Analysis(),
		Status:    string(e.Status()),
		Body:      e.Body(),
		Metadata:  e.Metadata(),
		CreatedAt: e.CreatedAt(),
		UpdatedAt: e.UpdatedAt(),
	}

	for _, msg := range e.Messages() {
		rec.Messages = append(rec.Messages, ports.MessageRecord{
			Role:    msg.Role,
			Content: msg.Content,
			SentAt:  msg.SentAt,
		})
	}
	for _, child := range e.Children() {
		rec.Children = append(rec.Children, child.String())
	}
	return rec
}

// BuildCanvas reconstructs a canvas aggregate from a persisted document.
// Individually malformed rows are skipped with a warning rather than
// failing the whole load.
func BuildCanvas(doc *ports.CanvasDocument, logger *zap.Logger) (*aggregates.Canvas, error) {
	if doc == nil {
		return nil, pkgerrors.NewValidationError("canvas document cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	canvas, err := aggregates.NewCanvas(doc.WorkspaceID, logger)
	if err != nil {
		return nil, err
	}

	for _, rec := range doc.Elements {
		e, err := fromElementRecord(rec)
		if err != nil {
			logger.Warn("skipping malformed persisted element",
				zap.String("element_id", rec.ID), zap.Error(err))
			continue
		}
		if err := canvas.LoadElement(e); err != nil {
			return nil, err
		}
	}

	for _, rec := range doc.Connections {
		conn, err := entities.NewConnection(
			valueobjects.ConnectionID(rec.ID),
			valueobjects.ElementID(rec.From),
			valueobjects.ElementID(rec.To),
		)
		if err != nil {
			logger.Warn("skipping malformed persisted connection",
				zap.String("connection_id", rec.ID), zap.Error(err))
			continue
		}
		if err := canvas.LoadConnection(conn); err != nil {
			return nil, err
		}
	}

	if vp, err := valueobjects.NewViewport(doc.Viewport.X, doc.Viewport.Y, doc.Viewport.Zoom); err == nil {
		canvas.LoadViewport(vp)
	} else {
		logger.Warn("persisted viewport invalid, keeping default", zap.Error(err))
	}

	return canvas, nil
}

func fromElementRecord(rec ports.ElementRecord) (*entities.Element, error) {
	id, err := valueobjects.NewElementIDFromString(rec.ID)
	if err != nil {
		return nil, err
	}
	pos, err := valueobjects.NewPoint(rec.X, rec.Y)
	if err != nil {
		return nil, err
	}

	// Dimensionless legacy rows stay dimensionless; the culler substitutes
	// a default box for them at query time.
	var size valueobjects.Size
	if rec.Width != 0 || rec.Height != 0 {
		size, err = valueobjects.NewSize(rec.Width, rec.Height)
		if err != nil {
			return nil, err
		}
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	e, err := entities.ReconstructElement(
		id,
		entities.ElementKind(rec.Kind),
		rec.Title,
		pos,
		size,
		entities.IngestionStatus(rec.Status),
		createdAt,
		updatedAt,
	)
	if err != nil {
		return nil, err
	}

	switch e.Kind() {
	case entities.KindContent:
		e.RestoreContentPayload(rec.URL, rec.Platform, rec.Thumbnail, rec.Analysis)
	case entities.KindChat:
		messages := make([]entities.ChatMessage, 0, len(rec.Messages))
		for _, msg := range rec.Messages {
			messages = append(messages, entities.ChatMessage{
				Role:    msg.Role,
				Content: msg.Content,
				SentAt:  msg.SentAt,
			})
		}
		e.RestoreMessages(messages)
	case entities.KindFolder:
		children := make([]valueobjects.ElementID, 0, len(rec.Children))
		for _, child := range rec.Children {
			children = append(children, valueobjects.ElementID(child))
		}
		e.RestoreChildren(children)
	case entities.KindText:
		e.RestoreBody(rec.Body)
	}
	if rec.Metadata != nil {
		e.RestoreMetadata(rec.Metadata)
	}

	return e, nil
}
