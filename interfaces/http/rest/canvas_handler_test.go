package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"canvas-backend/application/ports"
	"canvas-backend/application/services"
	domainservices "canvas-backend/domain/services"
	"canvas-backend/infrastructure/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubScraper struct{}

func (stubScraper) StartScrape(ctx context.Context, req ports.ScrapeRequest) (*ports.ScrapeResponse, error) {
	return &ports.ScrapeResponse{ScrapeID: "scrape-1", Status: ports.ScrapeStatusCompleted, Cached: true}, nil
}

func (stubScraper) ScrapeStatus(ctx context.Context, scrapeID string) (*ports.ScrapeStatusResponse, error) {
	return &ports.ScrapeStatusResponse{Status: ports.ScrapeStatusCompleted}, nil
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(ctx context.Context, scrapeID string) (map[string]interface{}, error) {
	return map[string]interface{}{"summary": "stub"}, nil
}

type testServer struct {
	server     *httptest.Server
	workspaces *services.WorkspaceService
	ingestion  *services.IngestionService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	workspaces := services.NewWorkspaceService(memory.NewGateway(), time.Hour, zap.NewNop(), nil)
	ingestion := services.NewIngestionService(stubScraper{}, stubAnalyzer{},
		services.IngestionConfig{PollInterval: time.Millisecond, MaxPollAttempts: 3}, zap.NewNop(), nil)

	router := NewRouter(workspaces, ingestion, 10, domainservices.DefaultCullConfig(), zap.NewNop(), nil)
	server := httptest.NewServer(router.Setup())
	t.Cleanup(func() {
		server.Close()
		workspaces.CloseAll(context.Background())
	})

	return &testServer{server: server, workspaces: workspaces, ingestion: ingestion}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateAndGetElement(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/elements", map[string]interface{}{
		"kind": "text", "title": "note", "x": 10, "y": 20, "width": 200, "height": 100, "body": "hello",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[elementResponse](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 10.0, created.X)

	resp = ts.do(t, http.MethodGet, "/api/v1/workspaces/ws-1/elements/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[elementResponse](t, resp)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "hello", got.Body)
}

func TestCreateElementValidation(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/elements", map[string]interface{}{
		"kind": "widget", "width": 100, "height": 100,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/elements", map[string]interface{}{
		"kind": "text", "width": 0, "height": 100,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetMissingElement(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/api/v1/workspaces/ws-1/elements/nope", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateElementPartial(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/elements", map[string]interface{}{
		"kind": "text", "title": "before", "x": 0, "y": 0, "width": 100, "height": 100,
	})
	created := decodeBody[elementResponse](t, resp)

	resp = ts.do(t, http.MethodPatch, "/api/v1/workspaces/ws-1/elements/"+created.ID, map[string]interface{}{
		"x": 50,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[elementResponse](t, resp)
	assert.Equal(t, 50.0, updated.X)
	assert.Equal(t, 0.0, updated.Y)
	assert.Equal(t, "before", updated.Title, "untouched fields survive a partial update")
}

func TestConnectionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	mkElement := func(x float64) string {
		resp := ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/elements", map[string]interface{}{
			"kind": "text", "x": x, "y": 0, "width": 100, "height": 100,
		})
		return decodeBody[elementResponse](t, resp).ID
	}
	a := mkElement(0)
	b := mkElement(200)

	resp := ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/connections", map[string]string{"from": a, "to": b})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	conn := decodeBody[connectionResponse](t, resp)

	// Reversed direction duplicates the same undirected pair
	resp = ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/connections", map[string]string{"from": b, "to": a})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/v1/workspaces/ws-1/connections", nil)
	list := decodeBody[[]connectionResponse](t, resp)
	assert.Len(t, list, 1)

	resp = ts.do(t, http.MethodDelete, "/api/v1/workspaces/ws-1/connections/"+conn.ID, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/v1/workspaces/ws-1/connections", nil)
	assert.Empty(t, decodeBody[[]connectionResponse](t, resp))
}

func TestSelfConnectionRejected(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/elements", map[string]interface{}{
		"kind": "text", "width": 100, "height": 100,
	})
	id := decodeBody[elementResponse](t, resp).ID

	resp = ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/connections", map[string]string{"from": id, "to": id})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSelectionEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/elements", map[string]interface{}{
		"kind": "text", "width": 100, "height": 100,
	})
	id := decodeBody[elementResponse](t, resp).ID

	resp = ts.do(t, http.MethodPut, "/api/v1/workspaces/ws-1/selection", map[string]string{"elementId": id})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodPut, "/api/v1/workspaces/ws-1/selection", map[string]string{"elementId": "missing"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPut, "/api/v1/workspaces/ws-1/selection", map[string]string{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, "empty id clears the selection")
}

func TestViewportEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPut, "/api/v1/workspaces/ws-1/viewport", map[string]float64{"x": -100, "y": 50, "zoom": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	vp := decodeBody[viewportResponse](t, resp)
	assert.Equal(t, -100.0, vp.X)
	assert.Equal(t, 2.0, vp.Zoom)

	resp = ts.do(t, http.MethodPut, "/api/v1/workspaces/ws-1/viewport", map[string]float64{"zoom": 0})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVisibleElementsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	for _, x := range []float64{0, 5000} {
		resp := ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/elements", map[string]interface{}{
			"kind": "text", "x": x, "y": 0, "width": 100, "height": 100,
		})
		resp.Body.Close()
	}

	resp := ts.do(t, http.MethodGet, "/api/v1/workspaces/ws-1/visible?width=1000&height=1000", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	visible := decodeBody[[]elementResponse](t, resp)
	require.Len(t, visible, 1)
	assert.Equal(t, 0.0, visible[0].X)
}

func TestGuidePreviewEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/elements", map[string]interface{}{
		"kind": "text", "x": 100, "y": 100, "width": 200, "height": 100,
	})
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/elements", map[string]interface{}{
		"kind": "text", "x": 500, "y": 500, "width": 200, "height": 100,
	})
	dragged := decodeBody[elementResponse](t, resp).ID

	resp = ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/guides", map[string]interface{}{
		"elementId": dragged, "x": 104, "y": 500,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	preview := decodeBody[guidePreviewResponse](t, resp)
	require.NotNil(t, preview.SnappedX)
	assert.Equal(t, 100.0, *preview.SnappedX)
	assert.NotEmpty(t, preview.Guides)
}

func TestContentElementStartsIngestion(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/elements", map[string]interface{}{
		"kind": "content", "title": "clip", "x": 0, "y": 0, "width": 320, "height": 240,
		"url": "https://www.youtube.com/watch?v=xyz",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[elementResponse](t, resp)
	assert.Equal(t, "youtube", created.Platform)

	ts.ingestion.Wait()

	resp = ts.do(t, http.MethodGet, "/api/v1/workspaces/ws-1/elements/"+created.ID, nil)
	final := decodeBody[elementResponse](t, resp)
	assert.Equal(t, "completed", final.Status)
	assert.Equal(t, "stub", final.Analysis["summary"])
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/health", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeleteElementCascades(t *testing.T) {
	ts := newTestServer(t)

	mk := func(x float64) string {
		resp := ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/elements", map[string]interface{}{
			"kind": "text", "x": x, "y": 0, "width": 100, "height": 100,
		})
		return decodeBody[elementResponse](t, resp).ID
	}
	a := mk(0)
	b := mk(200)

	resp := ts.do(t, http.MethodPost, "/api/v1/workspaces/ws-1/connections", map[string]string{"from": a, "to": b})
	resp.Body.Close()

	resp = ts.do(t, http.MethodDelete, "/api/v1/workspaces/ws-1/elements/"+a, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/v1/workspaces/ws-1/connections", nil)
	assert.Empty(t, decodeBody[[]connectionResponse](t, resp))
}
