package entities

import (
	"time"

	"canvas-backend/domain/core/valueobjects"
	pkgerrors "canvas-backend/pkg/errors"
)

// ElementKind discriminates the payload carried by an element
type ElementKind string

const (
	KindContent ElementKind = "content"
	KindChat    ElementKind = "chat"
	KindFolder  ElementKind = "folder"
	KindText    ElementKind = "text"
)

// IsValid checks if the kind is one of the known element kinds
func (k ElementKind) IsValid() bool {
	switch k {
	case KindContent, KindChat, KindFolder, KindText:
		return true
	}
	return false
}

// IngestionStatus represents the ingestion state of a content element
type IngestionStatus string

const (
	StatusIdle      IngestionStatus = "idle"
	StatusCreating  IngestionStatus = "creating"
	StatusPending   IngestionStatus = "pending"
	StatusScraping  IngestionStatus = "scraping"
	StatusAnalyzing IngestionStatus = "analyzing"
	StatusCompleted IngestionStatus = "completed"
	StatusFailed    IngestionStatus = "failed"
)

// IsTerminal checks whether the status is a terminal ingestion state
func (s IngestionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ChatMessage is a single turn in a chat element's history
type ChatMessage struct {
	Role    string
	Content string
	SentAt  time.Time
}

// Element is a node placed on the canvas.
// This is a rich domain model: all state changes go through mutators that
// validate input and bump the updated timestamp.
type Element struct {
	id       valueobjects.ElementID
	kind     ElementKind
	title    string
	position valueobjects.Point
	size     valueobjects.Size

	// content payload
	url       string
	platform  string
	thumbnail string
	analysis  map[string]interface{}
	status    IngestionStatus

	// chat payload
	messages []ChatMessage

	// folder payload
	children []valueobjects.ElementID

	// text payload
	body string

	metadata  map[string]interface{}
	createdAt time.Time
	updatedAt time.Time
}

// NewElement creates an element of the given kind with validation
func NewElement(id valueobjects.ElementID, kind ElementKind, title string, position valueobjects.Point, size valueobjects.Size) (*Element, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("element ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, pkgerrors.NewValidationError("unknown element kind: " + string(kind))
	}
	if size.IsZero() {
		return nil, pkgerrors.NewValidationError("element dimensions are required")
	}

	now := time.Now()
	e := &Element{
		id:        id,
		kind:      kind,
		title:     title,
		position:  position,
		size:      size,
		status:    StatusIdle,
		metadata:  make(map[string]interface{}),
		createdAt: now,
		updatedAt: now,
	}
	return e, nil
}

// NewContentElement creates a content element carrying a URL payload
func NewContentElement(id valueobjects.ElementID, title, url, platform string, position valueobjects.Point, size valueobjects.Size) (*Element, error) {
	if url == "" {
		return nil, pkgerrors.NewValidationError("content element requires a URL")
	}

	e, err := NewElement(id, KindContent, title, position, size)
	if err != nil {
		return nil, err
	}
	e.url = url
	e.platform = platform
	return e, nil
}

// NewTextElement creates a text element with a body
func NewTextElement(id valueobjects.ElementID, title, body string, position valueobjects.Point, size valueobjects.Size) (*Element, error) {
	e, err := NewElement(id, KindText, title, position, size)
	if err != nil {
		return nil, err
	}
	e.body = body
	return e, nil
}

// ReconstructElement recreates an element from persisted data.
// Unlike the constructors it performs no payload validation and preserves
// timestamps; storage is trusted.
func ReconstructElement(
	id valueobjects.ElementID,
	kind ElementKind,
	title string,
	position valueobjects.Point,
	size valueobjects.Size,
	status IngestionStatus,
	createdAt, updatedAt time.Time,
) (*Element, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("element ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, pkgerrors.NewValidationError("unknown element kind: " + string(kind))
	}
	if status == "" {
		status = StatusIdle
	}

	return &Element{
		id:        id,
		kind:      kind,
		title:     title,
		position:  position,
		size:      size,
		status:    status,
		metadata:  make(map[string]interface{}),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

// ID returns the element's identifier
func (e *Element) ID() valueobjects.ElementID {
	return e.id
}

// Kind returns the element's kind
func (e *Element) Kind() ElementKind {
	return e.kind
}

// Title returns the element's title
func (e *Element) Title() string {
	return e.title
}

// Position returns the element's canvas-space position
func (e *Element) Position() valueobjects.Point {
	return e.position
}

// Size returns the element's dimensions
func (e *Element) Size() valueobjects.Size {
	return e.size
}

// Bounds returns the element's axis-aligned bounding box
func (e *Element) Bounds() valueobjects.Rect {
	return valueobjects.NewRect(e.position, e.size)
}

// URL returns the content URL (content elements only)
func (e *Element) URL() string {
	return e.url
}

// Platform returns the detected content platform (content elements only)
func (e *Element) Platform() string {
	return e.platform
}

// Thumbnail returns the content thumbnail URL
func (e *Element) Thumbnail() string {
	return e.thumbnail
}

// Analysis returns the structured analysis payload, nil until ingestion completes
func (e *Element) Analysis() map[string]interface{} {
	return e.analysis
}

// Status returns the element's ingestion status
func (e *Element) Status() IngestionStatus {
	return e.status
}

// Messages returns the chat history (chat elements only)
func (e *Element) Messages() []ChatMessage {
	return e.messages
}

// Children returns the contained element IDs (folder elements only)
func (e *Element) Children() []valueobjects.ElementID {
	return e.children
}

// Body returns the text body (text elements only)
func (e *Element) Body() string {
	return e.body
}

// Metadata returns the element's free-form metadata bag
func (e *Element) Metadata() map[string]interface{} {
	return e.metadata
}

// CreatedAt returns when the element was created
func (e *Element) CreatedAt() time.Time {
	return e.createdAt
}

// UpdatedAt returns when the element was last mutated
func (e *Element) UpdatedAt() time.Time {
	return e.updatedAt
}

// MoveTo moves the element to a new position
func (e *Element) MoveTo(position valueobjects.Point) {
	if position.Equals(e.position) {
		return
	}
	e.position = position
	e.touch()
}

// Resize changes the element's dimensions
func (e *Element) Resize(size valueobjects.Size) error {
	if size.IsZero() {
		return pkgerrors.NewValidationError("element dimensions are required")
	}
	e.size = size
	e.touch()
	return nil
}

// AppendMessage appends a turn to a chat element's history
func (e *Element) AppendMessage(msg ChatMessage) error {
	if e.kind != KindChat {
		return pkgerrors.NewValidationError("only chat elements carry message history")
	}
	e.messages = append(e.messages, msg)
	e.touch()
	return nil
}

// AddChild records a child element inside a folder
func (e *Element) AddChild(childID valueobjects.ElementID) error {
	if e.kind != KindFolder {
		return pkgerrors.NewValidationError("only folder elements contain children")
	}
	for _, existing := range e.children {
		if existing.Equals(childID) {
			return nil
		}
	}
	e.children = append(e.children, childID)
	e.touch()
	return nil
}

// SetMetadata stores a key in the element's metadata bag
func (e *Element) SetMetadata(key string, value interface{}) {
	e.metadata[key] = value
	e.touch()
}

// Apply merges a partial update into the element.
// Nil patch fields leave the current value untouched; metadata is merged
// key by key rather than replaced.
func (e *Element) Apply(patch ElementPatch) error {
	if patch.Size != nil && patch.Size.IsZero() {
		return pkgerrors.NewValidationError("element dimensions are required")
	}

	if patch.Title != nil {
		e.title = *patch.Title
	}
	if patch.Position != nil {
		e.position = *patch.Position
	}
	if patch.Size != nil {
		e.size = *patch.Size
	}
	if patch.Status != nil {
		e.status = *patch.Status
	}
	if patch.URL != nil {
		e.url = *patch.URL
	}
	if patch.Platform != nil {
		e.platform = *patch.Platform
	}
	if patch.Thumbnail != nil {
		e.thumbnail = *patch.Thumbnail
	}
	if patch.Analysis != nil {
		e.analysis = patch.Analysis
	}
	if patch.Body != nil {
		e.body = *patch.Body
	}
	if patch.Messages != nil {
		e.messages = patch.Messages
	}
	if patch.Children != nil {
		e.children = patch.Children
	}
	for k, v := range patch.Metadata {
		e.metadata[k] = v
	}

	e.touch()
	return nil
}

func (e *Element) touch() {
	e.updatedAt = time.Now()
}

// Restore* setters repopulate kind-specific payloads during reconstruction
// from storage. They trust persisted data and do not bump the updated
// timestamp.

// RestoreContentPayload restores a content element's payload
func (e *Element) RestoreContentPayload(url, platform, thumbnail string, analysis map[string]interface{}) {
	e.url = url
	e.platform = platform
	e.thumbnail = thumbnail
	e.analysis = analysis
}

// RestoreMessages restores a chat element's history
func (e *Element) RestoreMessages(messages []ChatMessage) {
	e.messages = messages
}

// RestoreChildren restores a folder element's contents
func (e *Element) RestoreChildren(children []valueobjects.ElementID) {
	e.children = children
}

// RestoreBody restores a text element's body
func (e *Element) RestoreBody(body string) {
	e.body = body
}

// RestoreMetadata restores the metadata bag
func (e *Element) RestoreMetadata(metadata map[string]interface{}) {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	e.metadata = metadata
}

// Clone returns a deep copy of the element. Snapshots hand clones to the
// persistence layer so a save never observes a half-applied mutation.
func (e *Element) Clone() *Element {
	clone := *e

	if e.analysis != nil {
		clone.analysis = make(map[string]interface{}, len(e.analysis))
		for k, v := range e.analysis {
			clone.analysis[k] = v
		}
	}
	clone.metadata = make(map[string]interface{}, len(e.metadata))
	for k, v := range e.metadata {
		clone.metadata[k] = v
	}
	if e.messages != nil {
		clone.messages = append([]ChatMessage(nil), e.messages...)
	}
	if e.children != nil {
		clone.children = append([]valueobjects.ElementID(nil), e.children...)
	}

	return &clone
}

// ElementPatch is a partial element update. Pointer fields distinguish
// "leave unchanged" from "set to zero value".
type ElementPatch struct {
	Title     *string
	Position  *valueobjects.Point
	Size      *valueobjects.Size
	Status    *IngestionStatus
	URL       *string
	Platform  *string
	Thumbnail *string
	Analysis  map[string]interface{}
	Body      *string
	Messages  []ChatMessage
	Children  []valueobjects.ElementID
	Metadata  map[string]interface{}
}
