package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"canvas-backend/application/services"
	"canvas-backend/domain/core/entities"
	"canvas-backend/domain/core/valueobjects"
	domainservices "canvas-backend/domain/services"
	pkgerrors "canvas-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CanvasHandler serves the canvas CRUD and query routes. Each request
// resolves its workspace through the workspace service; unknown workspaces
// are opened on first use.
type CanvasHandler struct {
	workspaces *services.WorkspaceService
	ingestion  *services.IngestionService
	snap       float64
	cull       domainservices.CullConfig
	logger     *zap.Logger
}

// NewCanvasHandler creates the handler
func NewCanvasHandler(
	workspaces *services.WorkspaceService,
	ingestion *services.IngestionService,
	snapThreshold float64,
	cull domainservices.CullConfig,
	logger *zap.Logger,
) *CanvasHandler {
	if snapThreshold <= 0 {
		snapThreshold = domainservices.DefaultSnapThreshold
	}
	return &CanvasHandler{
		workspaces: workspaces,
		ingestion:  ingestion,
		snap:       snapThreshold,
		cull:       cull,
		logger:     logger,
	}
}

func (h *CanvasHandler) workspace(w http.ResponseWriter, r *http.Request) (*services.Workspace, bool) {
	ws, err := h.workspaces.Open(r.Context(), chi.URLParam(r, "workspaceID"))
	if err != nil {
		respondError(w, h.logger, err)
		return nil, false
	}
	return ws, true
}

func (h *CanvasHandler) decode(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		respondError(w, h.logger, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return false
	}
	if err := validate.Struct(target); err != nil {
		respondError(w, h.logger, pkgerrors.NewValidationError(err.Error()))
		return false
	}
	return true
}

// GetCanvas returns the whole canvas state
func (h *CanvasHandler) GetCanvas(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	connections := ws.Canvas.Connections()
	connOut := make([]connectionResponse, 0, len(connections))
	for _, conn := range connections {
		connOut = append(connOut, toConnectionResponse(conn))
	}

	var selection string
	if id, ok := ws.Canvas.Selection(); ok {
		selection = id.String()
	}

	vp := ws.Canvas.Viewport()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"workspaceId": ws.ID,
		"elements":    toElementResponses(ws.Canvas.Elements()),
		"connections": connOut,
		"viewport":    viewportResponse{X: vp.X(), Y: vp.Y(), Zoom: vp.Zoom()},
		"selection":   selection,
	})
}

// CreateElement adds an element. Content elements with a URL start
// ingestion immediately.
func (h *CanvasHandler) CreateElement(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req createElementRequest
	if !h.decode(w, r, &req) {
		return
	}

	pos, err := valueobjects.NewPoint(req.X, req.Y)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	size, err := valueobjects.NewSize(req.Width, req.Height)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	id := valueobjects.NewElementID()
	var element *entities.Element
	switch entities.ElementKind(req.Kind) {
	case entities.KindContent:
		element, err = entities.NewContentElement(id, req.Title, req.URL, req.Platform, pos, size)
	case entities.KindText:
		element, err = entities.NewTextElement(id, req.Title, req.Body, pos, size)
	default:
		element, err = entities.NewElement(id, entities.ElementKind(req.Kind), req.Title, pos, size)
	}
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if err := ws.Canvas.AddElement(element); err != nil {
		respondError(w, h.logger, err)
		return
	}

	if element.Kind() == entities.KindContent && element.URL() != "" {
		if err := h.ingestion.Start(r.Context(), ws.Canvas, id, element.URL(), element.Platform()); err != nil {
			h.logger.Warn("ingestion start rejected",
				zap.String("element_id", id.String()),
				zap.Error(err))
		}
	}

	created, _ := ws.Canvas.Element(id)
	respondJSON(w, http.StatusCreated, toElementResponse(created))
}

// GetElement returns one element
func (h *CanvasHandler) GetElement(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	id, err := valueobjects.NewElementIDFromString(chi.URLParam(r, "elementID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	element, found := ws.Canvas.Element(id)
	if !found {
		respondError(w, h.logger, pkgerrors.NewNotFoundError("element not found: "+id.String()))
		return
	}
	respondJSON(w, http.StatusOK, toElementResponse(element))
}

// ListElements returns every element on the canvas
func (h *CanvasHandler) ListElements(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toElementResponses(ws.Canvas.Elements()))
}

// UpdateElement applies a partial update
func (h *CanvasHandler) UpdateElement(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	id, err := valueobjects.NewElementIDFromString(chi.URLParam(r, "elementID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if _, found := ws.Canvas.Element(id); !found {
		respondError(w, h.logger, pkgerrors.NewNotFoundError("element not found: "+id.String()))
		return
	}

	var req updateElementRequest
	if !h.decode(w, r, &req) {
		return
	}

	patch := entities.ElementPatch{
		Title:    req.Title,
		Body:     req.Body,
		Metadata: req.Metadata,
	}
	if req.X != nil || req.Y != nil {
		current, _ := ws.Canvas.Element(id)
		x := current.Position().X()
		y := current.Position().Y()
		if req.X != nil {
			x = *req.X
		}
		if req.Y != nil {
			y = *req.Y
		}
		pos, err := valueobjects.NewPoint(x, y)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		patch.Position = &pos
	}
	if req.Width != nil || req.Height != nil {
		current, _ := ws.Canvas.Element(id)
		width := current.Size().Width()
		height := current.Size().Height()
		if req.Width != nil {
			width = *req.Width
		}
		if req.Height != nil {
			height = *req.Height
		}
		size, err := valueobjects.NewSize(width, height)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		patch.Size = &size
	}

	if err := ws.Canvas.UpdateElement(id, patch); err != nil {
		respondError(w, h.logger, err)
		return
	}

	updated, _ := ws.Canvas.Element(id)
	respondJSON(w, http.StatusOK, toElementResponse(updated))
}

// DeleteElement removes an element and its connections
func (h *CanvasHandler) DeleteElement(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	id, err := valueobjects.NewElementIDFromString(chi.URLParam(r, "elementID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := ws.Canvas.DeleteElement(id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Ingest starts or retries content ingestion for an element
func (h *CanvasHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	id, err := valueobjects.NewElementIDFromString(chi.URLParam(r, "elementID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var req ingestRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.ingestion.Start(r.Context(), ws.Canvas, id, req.URL, req.Platform); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": string(entities.StatusCreating)})
}

// ConnectedContent returns the content elements wired to a chat element, in
// connection order
func (h *CanvasHandler) ConnectedContent(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	id, err := valueobjects.NewElementIDFromString(chi.URLParam(r, "elementID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toElementResponses(ws.Canvas.ConnectedContentFor(id)))
}

// CreateConnection connects two elements
func (h *CanvasHandler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req createConnectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	from, err := valueobjects.NewElementIDFromString(req.From)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	to, err := valueobjects.NewElementIDFromString(req.To)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	conn, err := ws.Canvas.Connect(from, to)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if conn == nil {
		// Duplicate of an existing connection, nothing created
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusCreated, toConnectionResponse(conn))
}

// ListConnections returns all connections
func (h *CanvasHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	connections := ws.Canvas.Connections()
	out := make([]connectionResponse, 0, len(connections))
	for _, conn := range connections {
		out = append(out, toConnectionResponse(conn))
	}
	respondJSON(w, http.StatusOK, out)
}

// DeleteConnection removes one connection
func (h *CanvasHandler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	id, err := valueobjects.NewConnectionIDFromString(chi.URLParam(r, "connectionID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := ws.Canvas.DeleteConnection(id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetSelection sets or clears the selected element
func (h *CanvasHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req selectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	var id valueobjects.ElementID
	if req.ElementID != "" {
		parsed, err := valueobjects.NewElementIDFromString(req.ElementID)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		id = parsed
	}

	if err := ws.Canvas.SetSelection(id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetViewport replaces the camera transform
func (h *CanvasHandler) SetViewport(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req viewportRequest
	if !h.decode(w, r, &req) {
		return
	}

	vp, err := valueobjects.NewViewport(req.X, req.Y, req.Zoom)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	ws.Canvas.SetViewport(vp)
	respondJSON(w, http.StatusOK, viewportResponse{X: vp.X(), Y: vp.Y(), Zoom: vp.Zoom()})
}

// VisibleElements returns the elements intersecting the current view. The
// canvas dimensions come from query parameters; the camera defaults to the
// stored viewport unless overridden.
func (h *CanvasHandler) VisibleElements(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	width := queryFloat(r, "width", 1920)
	height := queryFloat(r, "height", 1080)

	vp := ws.Canvas.Viewport()
	if r.URL.Query().Get("zoom") != "" || r.URL.Query().Get("x") != "" || r.URL.Query().Get("y") != "" {
		override, err := valueobjects.NewViewport(
			queryFloat(r, "x", vp.X()),
			queryFloat(r, "y", vp.Y()),
			queryFloat(r, "zoom", vp.Zoom()),
		)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		vp = override
	}

	visible := domainservices.CullVisible(ws.Canvas.Elements(), vp, width, height, h.cull)
	respondJSON(w, http.StatusOK, toElementResponses(visible))
}

// GuidePreview computes alignment guides for a proposed element position
// without mutating anything
func (h *CanvasHandler) GuidePreview(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req guidePreviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := valueobjects.NewElementIDFromString(req.ElementID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	element, found := ws.Canvas.Element(id)
	if !found {
		respondError(w, h.logger, pkgerrors.NewNotFoundError("element not found: "+id.String()))
		return
	}

	dragged := valueobjects.Rect{
		X:      req.X,
		Y:      req.Y,
		Width:  element.Size().Width(),
		Height: element.Size().Height(),
	}
	result := domainservices.ComputeGuides(dragged, id, ws.Canvas.Elements(), h.snap)

	resp := guidePreviewResponse{Guides: make([]guideResponse, 0, len(result.Guides))}
	if result.HasSnapX {
		resp.SnappedX = &result.SnappedX
	}
	if result.HasSnapY {
		resp.SnappedY = &result.SnappedY
	}
	for _, g := range result.Guides {
		resp.Guides = append(resp.Guides, guideResponse{
			Axis:      string(g.Axis),
			Position:  g.Position,
			SpanStart: g.SpanStart,
			SpanEnd:   g.SpanEnd,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// Flush forces an immediate save
func (h *CanvasHandler) Flush(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.workspace(w, r); !ok {
		return
	}
	if err := h.workspaces.Flush(r.Context(), chi.URLParam(r, "workspaceID")); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CloseWorkspace flushes and releases a workspace
func (h *CanvasHandler) CloseWorkspace(w http.ResponseWriter, r *http.Request) {
	h.workspaces.Close(r.Context(), chi.URLParam(r, "workspaceID"))
	w.WriteHeader(http.StatusNoContent)
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	if v := r.URL.Query().Get(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
