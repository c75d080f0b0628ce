package aggregates

import (
	"sync"
	"time"

	"canvas-backend/domain/core/entities"
	"canvas-backend/domain/core/valueobjects"
	"canvas-backend/domain/events"
	pkgerrors "canvas-backend/pkg/errors"
	"go.uber.org/zap"
)

// Subscriber observes canvas mutations. Subscribers are notified
// synchronously, in the exact order mutations were applied, before the
// mutating call returns. A subscriber must not mutate the canvas from
// inside the callback.
type Subscriber func(event events.DomainEvent)

// Canvas is the aggregate root for the interactive canvas: the single
// authoritative in-memory graph of elements, connections, viewport and
// selection. It owns all mutation; every operation leaves the graph in a
// consistent state and is atomic with respect to concurrent callers.
type Canvas struct {
	id string

	mu              sync.Mutex
	elements        map[valueobjects.ElementID]*entities.Element
	elementOrder    []valueobjects.ElementID
	connections     map[valueobjects.ConnectionID]*entities.Connection
	connectionOrder []valueobjects.ConnectionID
	pairKeys        map[string]valueobjects.ConnectionID
	selection       valueobjects.ElementID
	viewport        valueobjects.Viewport
	subscribers     []Subscriber
	version         int
	createdAt       time.Time
	updatedAt       time.Time

	logger *zap.Logger
}

// Snapshot is a consistent deep copy of the canvas state, safe to hand to
// persistence without further locking.
type Snapshot struct {
	Elements    []*entities.Element
	Connections []*entities.Connection
	Viewport    valueobjects.Viewport
	Version     int
}

// NewCanvas creates an empty canvas for a workspace
func NewCanvas(id string, logger *zap.Logger) (*Canvas, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("canvas ID is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	now := time.Now()
	return &Canvas{
		id:          id,
		elements:    make(map[valueobjects.ElementID]*entities.Element),
		connections: make(map[valueobjects.ConnectionID]*entities.Connection),
		pairKeys:    make(map[string]valueobjects.ConnectionID),
		viewport:    valueobjects.DefaultViewport(),
		version:     1,
		createdAt:   now,
		updatedAt:   now,
		logger:      logger,
	}, nil
}

// ID returns the canvas identifier
func (c *Canvas) ID() string {
	return c.id
}

// Version returns the mutation counter
func (c *Canvas) Version() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Subscribe registers a synchronous mutation observer
func (c *Canvas) Subscribe(fn Subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// AddElement inserts an element. Adding an ID that is already present is a
// validation error.
func (c *Canvas) AddElement(e *entities.Element) error {
	if e == nil {
		return pkgerrors.NewValidationError("element cannot be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := e.ID()
	if _, exists := c.elements[id]; exists {
		return pkgerrors.NewConflictError("element already exists: " + id.String())
	}

	c.elements[id] = e
	c.elementOrder = append(c.elementOrder, id)
	c.bump()

	c.publish(events.NewElementAdded(c.id, id, string(e.Kind()), c.updatedAt))
	return nil
}

// UpdateElement merges a partial update into an element. A missing ID is a
// silent no-op, not an error: asynchronous pipeline completions may arrive
// after the element was deleted.
func (c *Canvas) UpdateElement(id valueobjects.ElementID, patch entities.ElementPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.elements[id]
	if !exists {
		c.logger.Debug("update for absent element ignored", zap.String("element_id", id.String()))
		return nil
	}

	if err := e.Apply(patch); err != nil {
		return err
	}
	c.bump()

	c.publish(events.NewElementUpdated(c.id, id, c.updatedAt))
	return nil
}

// DeleteElement removes an element and all connections touching it in one
// atomic step, and clears the selection if it referenced the removed ID.
// A missing ID is a no-op.
func (c *Canvas) DeleteElement(id valueobjects.ElementID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.elements[id]; !exists {
		return nil
	}

	var removed []valueobjects.ConnectionID
	for _, connID := range c.connectionOrder {
		if c.connections[connID].Touches(id) {
			removed = append(removed, connID)
		}
	}
	for _, connID := range removed {
		c.removeConnectionLocked(connID)
	}

	delete(c.elements, id)
	c.elementOrder = removeID(c.elementOrder, id)

	if c.selection.Equals(id) {
		c.selection = ""
	}
	c.bump()

	c.publish(events.NewElementDeleted(c.id, id, removed, c.updatedAt))
	return nil
}

// AddConnection inserts a directed edge. Both endpoints must exist.
// A duplicate of an existing edge, in either direction, is silently ignored:
// the graph is returned unchanged and no event is published. Callers that
// need feedback must re-check the edge set.
func (c *Canvas) AddConnection(conn *entities.Connection) error {
	_, err := c.addConnection(conn)
	return err
}

// addConnection reports whether the edge was actually inserted, so callers
// can tell an insert apart from a swallowed duplicate.
func (c *Canvas) addConnection(conn *entities.Connection) (bool, error) {
	if conn == nil {
		return false, pkgerrors.NewValidationError("connection cannot be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.elements[conn.From()]; !exists {
		return false, pkgerrors.NewValidationError("connection source does not exist: " + conn.From().String())
	}
	if _, exists := c.elements[conn.To()]; !exists {
		return false, pkgerrors.NewValidationError("connection target does not exist: " + conn.To().String())
	}

	if existing, dup := c.pairKeys[conn.UndirectedKey()]; dup {
		// Preserved quirk: duplicates are swallowed with only a log warning,
		// there is no user-facing signal.
		c.logger.Warn("duplicate connection ignored",
			zap.String("from", conn.From().String()),
			zap.String("to", conn.To().String()),
			zap.String("existing_id", existing.String()),
		)
		return false, nil
	}

	c.connections[conn.ID()] = conn
	c.connectionOrder = append(c.connectionOrder, conn.ID())
	c.pairKeys[conn.UndirectedKey()] = conn.ID()
	c.bump()

	c.publish(events.NewConnectionAdded(c.id, conn.ID(), conn.From(), conn.To(), c.updatedAt))
	return true, nil
}

// Connect creates and inserts a connection between two existing elements.
// A swallowed duplicate returns (nil, nil); the edge set is unchanged.
func (c *Canvas) Connect(from, to valueobjects.ElementID) (*entities.Connection, error) {
	conn, err := entities.NewConnection(valueobjects.NewConnectionID(), from, to)
	if err != nil {
		return nil, err
	}
	added, err := c.addConnection(conn)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, nil
	}
	return conn, nil
}

// DeleteConnection removes a single edge. A missing ID is a no-op.
func (c *Canvas) DeleteConnection(id valueobjects.ConnectionID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.connections[id]; !exists {
		return nil
	}

	c.removeConnectionLocked(id)
	c.bump()

	c.publish(events.NewConnectionDeleted(c.id, id, c.updatedAt))
	return nil
}

// SetSelection selects an element, or clears the selection when id is empty.
// Selecting an absent element is a validation error.
func (c *Canvas) SetSelection(id valueobjects.ElementID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !id.IsZero() {
		if _, exists := c.elements[id]; !exists {
			return pkgerrors.NewValidationError("cannot select absent element: " + id.String())
		}
	}
	if c.selection.Equals(id) {
		return nil
	}

	c.selection = id
	c.bump()

	c.publish(events.NewSelectionChanged(c.id, id, c.updatedAt))
	return nil
}

// SetViewport replaces the camera transform
func (c *Canvas) SetViewport(v valueobjects.Viewport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.viewport = v
	c.bump()

	c.publish(events.NewViewportChanged(c.id, v, c.updatedAt))
}

// Element returns the element with the given ID
func (c *Canvas) Element(id valueobjects.ElementID) (*entities.Element, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.elements[id]
	return e, ok
}

// Elements returns all elements in insertion order
func (c *Canvas) Elements() []*entities.Element {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*entities.Element, 0, len(c.elementOrder))
	for _, id := range c.elementOrder {
		out = append(out, c.elements[id])
	}
	return out
}

// Connections returns all connections in insertion order
func (c *Canvas) Connections() []*entities.Connection {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*entities.Connection, 0, len(c.connectionOrder))
	for _, id := range c.connectionOrder {
		out = append(out, c.connections[id])
	}
	return out
}

// HasConnection reports whether an edge exists between two elements in
// either direction
func (c *Canvas) HasConnection(a, b valueobjects.ElementID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.pairKeys[entities.UndirectedKey(a, b)]
	return ok
}

// Selection returns the selected element ID, if any
func (c *Canvas) Selection() (valueobjects.ElementID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.selection, !c.selection.IsZero()
}

// Viewport returns the current camera transform
func (c *Canvas) Viewport() valueobjects.Viewport {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.viewport
}

// ElementCount returns the number of elements
func (c *Canvas) ElementCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.elements)
}

// ConnectionCount returns the number of connections
func (c *Canvas) ConnectionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.connections)
}

// ConnectedContentFor returns all content elements with an edge pointing
// into the given chat element, in connection insertion order. Used to build
// the additional-context block of an AI prompt.
func (c *Canvas) ConnectedContentFor(chatID valueobjects.ElementID) []*entities.Element {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*entities.Element
	for _, connID := range c.connectionOrder {
		conn := c.connections[connID]
		if !conn.To().Equals(chatID) {
			continue
		}
		if e, ok := c.elements[conn.From()]; ok && e.Kind() == entities.KindContent {
			out = append(out, e)
		}
	}
	return out
}

// LoadElement adds an element during reconstruction from storage.
// Unlike AddElement this publishes no event and does not bump the version;
// the state is already persisted, not a new change.
func (c *Canvas) LoadElement(e *entities.Element) error {
	if e == nil {
		return pkgerrors.NewValidationError("element cannot be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := e.ID()
	if _, exists := c.elements[id]; exists {
		return nil
	}
	c.elements[id] = e
	c.elementOrder = append(c.elementOrder, id)
	return nil
}

// LoadConnection adds a connection during reconstruction from storage.
// Dangling or duplicate persisted edges are dropped rather than failing the
// whole load.
func (c *Canvas) LoadConnection(conn *entities.Connection) error {
	if conn == nil {
		return pkgerrors.NewValidationError("connection cannot be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.elements[conn.From()]; !exists {
		c.logger.Warn("dropping persisted connection with missing source",
			zap.String("connection_id", conn.ID().String()))
		return nil
	}
	if _, exists := c.elements[conn.To()]; !exists {
		c.logger.Warn("dropping persisted connection with missing target",
			zap.String("connection_id", conn.ID().String()))
		return nil
	}
	if _, dup := c.pairKeys[conn.UndirectedKey()]; dup {
		return nil
	}

	c.connections[conn.ID()] = conn
	c.connectionOrder = append(c.connectionOrder, conn.ID())
	c.pairKeys[conn.UndirectedKey()] = conn.ID()
	return nil
}

// LoadViewport restores the camera transform without publishing an event
func (c *Canvas) LoadViewport(v valueobjects.Viewport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport = v
}

// TakeSnapshot returns a deep copy of the current state for persistence
func (c *Canvas) TakeSnapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Elements:    make([]*entities.Element, 0, len(c.elementOrder)),
		Connections: make([]*entities.Connection, 0, len(c.connectionOrder)),
		Viewport:    c.viewport,
		Version:     c.version,
	}
	for _, id := range c.elementOrder {
		snap.Elements = append(snap.Elements, c.elements[id].Clone())
	}
	for _, id := range c.connectionOrder {
		snap.Connections = append(snap.Connections, c.connections[id].Clone())
	}
	return snap
}

// removeConnectionLocked deletes a connection from all indexes; the caller
// holds the mutex.
func (c *Canvas) removeConnectionLocked(id valueobjects.ConnectionID) {
	conn := c.connections[id]
	delete(c.connections, id)
	delete(c.pairKeys, conn.UndirectedKey())
	c.connectionOrder = removeConnID(c.connectionOrder, id)
}

func (c *Canvas) bump() {
	c.version++
	c.updatedAt = time.Now()
}

func (c *Canvas) publish(event events.DomainEvent) {
	for _, fn := range c.subscribers {
		fn(event)
	}
}

func removeID(ids []valueobjects.ElementID, id valueobjects.ElementID) []valueobjects.ElementID {
	for i, candidate := range ids {
		if candidate.Equals(id) {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func removeConnID(ids []valueobjects.ConnectionID, id valueobjects.ConnectionID) []valueobjects.ConnectionID {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
