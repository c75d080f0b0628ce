package events

import (
	"time"

	"canvas-backend/domain/core/valueobjects"
)

// Event types raised by canvas mutations
const (
	TypeElementAdded      = "canvas.element_added"
	TypeElementUpdated    = "canvas.element_updated"
	TypeElementDeleted    = "canvas.element_deleted"
	TypeConnectionAdded   = "canvas.connection_added"
	TypeConnectionDeleted = "canvas.connection_deleted"
	TypeSelectionChanged  = "canvas.selection_changed"
	TypeViewportChanged   = "canvas.viewport_changed"
)

// DomainEvent is the base interface for all domain events.
// Events represent something that has happened in the past; subscribers
// observe them synchronously in the exact order mutations were applied.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

func newBase(canvasID, eventType string, ts time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: canvasID,
		EventType:   eventType,
		Timestamp:   ts,
	}
}

// ElementAdded is raised when an element is placed on the canvas
type ElementAdded struct {
	BaseEvent
	ElementID valueobjects.ElementID `json:"element_id"`
	Kind      string                 `json:"kind"`
}

// NewElementAdded creates an ElementAdded event
func NewElementAdded(canvasID string, elementID valueobjects.ElementID, kind string, ts time.Time) ElementAdded {
	return ElementAdded{
		BaseEvent: newBase(canvasID, TypeElementAdded, ts),
		ElementID: elementID,
		Kind:      kind,
	}
}

// ElementUpdated is raised when an element's fields are merged
type ElementUpdated struct {
	BaseEvent
	ElementID valueobjects.ElementID `json:"element_id"`
}

// NewElementUpdated creates an ElementUpdated event
func NewElementUpdated(canvasID string, elementID valueobjects.ElementID, ts time.Time) ElementUpdated {
	return ElementUpdated{
		BaseEvent: newBase(canvasID, TypeElementUpdated, ts),
		ElementID: elementID,
	}
}

// ElementDeleted is raised when an element is removed together with its
// incident connections
type ElementDeleted struct {
	BaseEvent
	ElementID          valueobjects.ElementID    `json:"element_id"`
	RemovedConnections []valueobjects.ConnectionID `json:"removed_connections"`
}

// NewElementDeleted creates an ElementDeleted event
func NewElementDeleted(canvasID string, elementID valueobjects.ElementID, removed []valueobjects.ConnectionID, ts time.Time) ElementDeleted {
	return ElementDeleted{
		BaseEvent:          newBase(canvasID, TypeElementDeleted, ts),
		ElementID:          elementID,
		RemovedConnections: removed,
	}
}

// ConnectionAdded is raised when a new edge is created
type ConnectionAdded struct {
	BaseEvent
	ConnectionID valueobjects.ConnectionID `json:"connection_id"`
	From         valueobjects.ElementID    `json:"from"`
	To           valueobjects.ElementID    `json:"to"`
}

// NewConnectionAdded creates a ConnectionAdded event
func NewConnectionAdded(canvasID string, connectionID valueobjects.ConnectionID, from, to valueobjects.ElementID, ts time.Time) ConnectionAdded {
	return ConnectionAdded{
		BaseEvent:    newBase(canvasID, TypeConnectionAdded, ts),
		ConnectionID: connectionID,
		From:         from,
		To:           to,
	}
}

// ConnectionDeleted is raised when an edge is removed explicitly
type ConnectionDeleted struct {
	BaseEvent
	ConnectionID valueobjects.ConnectionID `json:"connection_id"`
}

// NewConnectionDeleted creates a ConnectionDeleted event
func NewConnectionDeleted(canvasID string, connectionID valueobjects.ConnectionID, ts time.Time) ConnectionDeleted {
	return ConnectionDeleted{
		BaseEvent:    newBase(canvasID, TypeConnectionDeleted, ts),
		ConnectionID: connectionID,
	}
}

// SelectionChanged is raised when the selected element changes.
// ElementID is empty when the selection was cleared.
type SelectionChanged struct {
	BaseEvent
	ElementID valueobjects.ElementID `json:"element_id"`
}

// NewSelectionChanged creates a SelectionChanged event
func NewSelectionChanged(canvasID string, elementID valueobjects.ElementID, ts time.Time) SelectionChanged {
	return SelectionChanged{
		BaseEvent: newBase(canvasID, TypeSelectionChanged, ts),
		ElementID: elementID,
	}
}

// ViewportChanged is raised when the camera transform changes
type ViewportChanged struct {
	BaseEvent
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// NewViewportChanged creates a ViewportChanged event
func NewViewportChanged(canvasID string, v valueobjects.Viewport, ts time.Time) ViewportChanged {
	return ViewportChanged{
		BaseEvent: newBase(canvasID, TypeViewportChanged, ts),
		X:         v.X(),
		Y:         v.Y(),
		Zoom:      v.Zoom(),
	}
}
