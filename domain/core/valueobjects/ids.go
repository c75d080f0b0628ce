package valueobjects

import (
	"strings"

	pkgerrors "canvas-backend/pkg/errors"
	"github.com/google/uuid"
)

// ElementID identifies an element on the canvas.
// IDs are caller-assigned and stable for the lifetime of the canvas;
// they may be generated UUIDs or externally supplied keys.
type ElementID string

// NewElementID creates a new random ElementID
func NewElementID() ElementID {
	return ElementID(uuid.New().String())
}

// NewElementIDFromString validates and creates an ElementID from a string
func NewElementIDFromString(s string) (ElementID, error) {
	if strings.TrimSpace(s) == "" {
		return "", pkgerrors.NewValidationError("element ID cannot be empty")
	}
	return ElementID(s), nil
}

// String returns the string representation
func (id ElementID) String() string {
	return string(id)
}

// IsZero checks if the ID is empty
func (id ElementID) IsZero() bool {
	return id == ""
}

// Equals checks if two IDs are equal
func (id ElementID) Equals(other ElementID) bool {
	return id == other
}

// ConnectionID identifies a connection between two elements
type ConnectionID string

// NewConnectionID creates a new random ConnectionID
func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.New().String())
}

// NewConnectionIDFromString validates and creates a ConnectionID from a string
func NewConnectionIDFromString(s string) (ConnectionID, error) {
	if strings.TrimSpace(s) == "" {
		return "", pkgerrors.NewValidationError("connection ID cannot be empty")
	}
	return ConnectionID(s), nil
}

// String returns the string representation
func (id ConnectionID) String() string {
	return string(id)
}

// IsZero checks if the ID is empty
func (id ConnectionID) IsZero() bool {
	return id == ""
}
