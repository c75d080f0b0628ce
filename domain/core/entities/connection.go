package entities

import (
	"time"

	"canvas-backend/domain/core/valueobjects"
	pkgerrors "canvas-backend/pkg/errors"
)

// Connection is a directed edge between two elements.
// Connections are unique as undirected pairs: a connection between A and B
// prevents a duplicate in either direction.
type Connection struct {
	id        valueobjects.ConnectionID
	from      valueobjects.ElementID
	to        valueobjects.ElementID
	createdAt time.Time
}

// NewConnection creates a connection with validation
func NewConnection(id valueobjects.ConnectionID, from, to valueobjects.ElementID) (*Connection, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("connection ID cannot be empty")
	}
	if from.IsZero() || to.IsZero() {
		return nil, pkgerrors.NewValidationError("connection requires both endpoints")
	}
	if from.Equals(to) {
		return nil, pkgerrors.NewValidationError("cannot connect an element to itself")
	}

	return &Connection{
		id:        id,
		from:      from,
		to:        to,
		createdAt: time.Now(),
	}, nil
}

// ID returns the connection's identifier
func (c *Connection) ID() valueobjects.ConnectionID {
	return c.id
}

// From returns the source element ID
func (c *Connection) From() valueobjects.ElementID {
	return c.from
}

// To returns the target element ID
func (c *Connection) To() valueobjects.ElementID {
	return c.to
}

// CreatedAt returns when the connection was created
func (c *Connection) CreatedAt() time.Time {
	return c.createdAt
}

// Clone returns a copy of the connection
func (c *Connection) Clone() *Connection {
	clone := *c
	return &clone
}

// Touches reports whether the connection has the given element as an endpoint
func (c *Connection) Touches(id valueobjects.ElementID) bool {
	return c.from.Equals(id) || c.to.Equals(id)
}

// UndirectedKey returns a canonical key for the endpoint pair, identical for
// both directions. Used to enforce undirected uniqueness.
func (c *Connection) UndirectedKey() string {
	return UndirectedKey(c.from, c.to)
}

// UndirectedKey builds the canonical undirected pair key for two element IDs
func UndirectedKey(a, b valueobjects.ElementID) string {
	if a.String() < b.String() {
		return a.String() + "::" + b.String()
	}
	return b.String() + "::" + a.String()
}
