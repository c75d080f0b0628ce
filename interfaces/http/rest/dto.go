package rest

import (
	"time"

	"canvas-backend/domain/core/entities"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type createElementRequest struct {
	Kind     string  `json:"kind" validate:"required,oneof=content chat folder text"`
	Title    string  `json:"title"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width" validate:"gt=0"`
	Height   float64 `json:"height" validate:"gt=0"`
	URL      string  `json:"url,omitempty" validate:"omitempty,url"`
	Platform string  `json:"platform,omitempty"`
	Body     string  `json:"body,omitempty"`
}

type updateElementRequest struct {
	Title    *string                `json:"title,omitempty"`
	X        *float64               `json:"x,omitempty"`
	Y        *float64               `json:"y,omitempty"`
	Width    *float64               `json:"width,omitempty" validate:"omitempty,gt=0"`
	Height   *float64               `json:"height,omitempty" validate:"omitempty,gt=0"`
	Body     *string                `json:"body,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type createConnectionRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

type selectionRequest struct {
	ElementID string `json:"elementId"`
}

type viewportRequest struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom" validate:"gt=0"`
}

type ingestRequest struct {
	URL      string `json:"url" validate:"required,url"`
	Platform string `json:"platform,omitempty"`
}

type guidePreviewRequest struct {
	ElementID string  `json:"elementId" validate:"required"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type elementResponse struct {
	ID        string                 `json:"id"`
	Kind      string                 `json:"kind"`
	Title     string                 `json:"title"`
	X         float64                `json:"x"`
	Y         float64                `json:"y"`
	Width     float64                `json:"width"`
	Height    float64                `json:"height"`
	URL       string                 `json:"url,omitempty"`
	Platform  string                 `json:"platform,omitempty"`
	Thumbnail string                 `json:"thumbnail,omitempty"`
	Status    string                 `json:"status,omitempty"`
	Analysis  map[string]interface{} `json:"analysis,omitempty"`
	Body      string                 `json:"body,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

type connectionResponse struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	CreatedAt time.Time `json:"createdAt"`
}

type viewportResponse struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

type guideResponse struct {
	Axis      string  `json:"axis"`
	Position  float64 `json:"position"`
	SpanStart float64 `json:"spanStart"`
	SpanEnd   float64 `json:"spanEnd"`
}

type guidePreviewResponse struct {
	SnappedX *float64        `json:"snappedX,omitempty"`
	SnappedY *float64        `json:"snappedY,omitempty"`
	Guides   []guideResponse `json:"guides"`
}

func toElementResponse(e *entities.Element) elementResponse {
	return elementResponse{
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
		Status:    string(e.Status()),
		Analysis:  e.Analysis(),
		Body:      e.Body(),
		Metadata:  e.Metadata(),
		CreatedAt: e.CreatedAt(),
		UpdatedAt: e.UpdatedAt(),
	}
}

func toElementResponses(elements []*entities.Element) []elementResponse {
	out := make([]elementResponse, 0, len(elements))
	for _, e := range elements {
		out = append(out, toElementResponse(e))
	}
	return out
}

func toConnectionResponse(conn *entities.Connection) connectionResponse {
	return connectionResponse{
		ID:        conn.ID().String(),
		From:      conn.From().String(),
		To:        conn.To().String(),
		CreatedAt: conn.CreatedAt(),
	}
}
