package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"flowcanvas/application/commands/bus"
	cmdhandlers "flowcanvas/application/commands/handlers"
	querybus "flowcanvas/application/queries/bus"
	queryhandlers "flowcanvas/application/queries/handlers"
	"flowcanvas/application/services"
	"flowcanvas/domain/core/aggregates"
	"flowcanvas/infrastructure/persistence/memory"
	"flowcanvas/pkg/auth"
	pkgerrors "flowcanvas/pkg/errors"
	"flowcanvas/pkg/observability"
)

type apiFixture struct {
	handler http.Handler
}

func newAPI(t *testing.T, validator *auth.JWTValidator) *apiFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	metrics := observability.NewCollector("flowcanvas_test")

	svc := services.NewCanvasService(
		memory.NewCanvasRepository(logger),
		memory.NewWorkflowSaver(logger),
		nil, nil, logger,
		services.WithMetrics(metrics),
	)

	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	require.NoError(t, cmdhandlers.NewCanvasCommandHandler(svc).Register(commandBus))
	queryBus := querybus.NewQueryBus(querybus.LoggingMiddleware(logger, time.Second))
	require.NoError(t, queryhandlers.NewCanvasQueryHandler(svc).Register(queryBus))

	router := NewRouter(commandBus, queryBus, svc, nil, validator, metrics, RouterConfig{EnableCORS: true}, logger)
	return &apiFixture{handler: router.Setup()}
}

func (a *apiFixture) do(t *testing.T, method, path string, body interface{}, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error bool   `json:"error"`
		Code  string `json:"code"`
	}
	decode(t, rec, &body)
	require.True(t, body.Error)
	return body.Code
}

func TestRouter_Health(t *testing.T) {
	api := newAPI(t, nil)

	for _, path := range []string{"/health", "/ready"} {
		rec := api.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	api.do(t, http.MethodGet, "/api/v1/palette", nil)
	rec := api.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "flowcanvas_test_http_requests_total")
}

func TestRouter_CanvasWorkflow(t *testing.T) {
	api := newAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/api/v1/palette", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pal struct {
		Items []struct {
			Label string `json:"label"`
		} `json:"items"`
	}
	decode(t, rec, &pal)
	require.Len(t, pal.Items, 4)
	assert.Equal(t, "Task", pal.Items[0].Label)

	rec = api.do(t, http.MethodPost, "/api/v1/canvases", map[string]interface{}{"id": "c1", "name": "Onboarding", "seedStartNode": false})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var summary services.CanvasSummary
	decode(t, rec, &summary)
	assert.Equal(t, aggregates.CanvasID("c1"), summary.ID)
	assert.Equal(t, 0, summary.NodeCount)

	rec = api.do(t, http.MethodPost, "/api/v1/canvases/c1/nodes", map[string]interface{}{"kind": "task", "x": 10, "y": 20})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var a aggregates.NodeSnapshot
	decode(t, rec, &a)
	assert.Equal(t, "Task", a.Data.Label)

	rec = api.do(t, http.MethodPost, "/api/v1/canvases/c1/nodes", map[string]interface{}{"kind": "approval", "x": 0, "y": 200, "label": "Manager"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var b aggregates.NodeSnapshot
	decode(t, rec, &b)

	edgeReq := map[string]interface{}{"source": a.ID.String(), "target": b.ID.String()}
	rec = api.do(t, http.MethodPost, "/api/v1/canvases/c1/edges", edgeReq)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var edge aggregates.EdgeSnapshot
	decode(t, rec, &edge)
	assert.Equal(t, a.ID, edge.Source)

	rec = api.do(t, http.MethodPost, "/api/v1/canvases/c1/edges", edgeReq)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, pkgerrors.CodeDuplicateEdge, errorCode(t, rec))

	rec = api.do(t, http.MethodPost, "/api/v1/canvases/c1/edges", map[string]interface{}{"source": a.ID.String(), "target": "ghost"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, pkgerrors.CodeInvalidEndpoint, errorCode(t, rec))

	rec = api.do(t, http.MethodPatch, "/api/v1/canvases/c1/nodes/"+b.ID.String(), map[string]interface{}{"x": 40, "y": 240, "label": "Director"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/v1/canvases/c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap aggregates.Snapshot
	decode(t, rec, &snap)
	require.Len(t, snap.Nodes, 2)
	require.Len(t, snap.Edges, 1)
	assert.Equal(t, "Director", snap.Nodes[1].Data.Label)
	assert.Equal(t, 40.0, snap.Nodes[1].Position.X())

	rec = api.do(t, http.MethodGet, "/api/v1/canvases/c1/frame?minimapWidth=200&minimapHeight=150", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"minimap"`)

	rec = api.do(t, http.MethodPost, "/api/v1/canvases/c1/save", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/v1/canvases/c1/versions?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var versions struct {
		Items []struct {
			NodeCount int `json:"nodeCount"`
		} `json:"items"`
	}
	decode(t, rec, &versions)
	require.Len(t, versions.Items, 1)
	assert.Equal(t, 2, versions.Items[0].NodeCount)

	rec = api.do(t, http.MethodDelete, "/api/v1/canvases/c1/nodes/"+a.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var removed struct {
		RemovedEdges []string `json:"removedEdges"`
	}
	decode(t, rec, &removed)
	assert.Equal(t, []string{edge.ID.String()}, removed.RemovedEdges)

	rec = api.do(t, http.MethodDelete, "/api/v1/canvases/c1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/canvases/c1/restore", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &summary)
	assert.Equal(t, 2, summary.NodeCount)
	assert.False(t, summary.Dirty)
}

func TestRouter_GesturesAndViewport(t *testing.T) {
	api := newAPI(t, nil)
	rec := api.do(t, http.MethodPost, "/api/v1/canvases", map[string]interface{}{"id": "c1", "seedStartNode": false})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPut, "/api/v1/canvases/c1/viewport", map[string]interface{}{"action": "pan", "dx": 100, "dy": 50})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/api/v1/canvases/c1/gestures", map[string]interface{}{
		"type":    "drop",
		"payload": "Notification",
		"client":  map[string]float64{"x": 150, "y": 100},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result services.GestureResult
	decode(t, rec, &result)
	require.NotNil(t, result.Node)
	assert.Equal(t, 50.0, result.Node.Position.X())
	assert.Equal(t, 50.0, result.Node.Position.Y())

	rec = api.do(t, http.MethodPost, "/api/v1/canvases/c1/gestures", map[string]interface{}{
		"type":    "drop",
		"payload": "Spaceship",
		"client":  map[string]float64{"x": 1, "y": 1},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &result)
	assert.True(t, result.Ignored)
	assert.Equal(t, pkgerrors.CodeUnknownDropPayload, result.Reason)
}

func TestRouter_BadRequests(t *testing.T) {
	api := newAPI(t, nil)
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/v1/canvases", map[string]interface{}{"id": "c1"}).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{name: "unknown canvas", method: http.MethodGet, path: "/api/v1/canvases/missing", status: http.StatusNotFound},
		{name: "malformed json", method: http.MethodPost, path: "/api/v1/canvases/c1/nodes", body: "{", status: http.StatusBadRequest},
		{name: "unknown kind", method: http.MethodPost, path: "/api/v1/canvases/c1/nodes", body: map[string]interface{}{"kind": "rocket"}, status: http.StatusBadRequest},
		{name: "empty patch", method: http.MethodPatch, path: "/api/v1/canvases/c1/nodes/n1", body: map[string]interface{}{}, status: http.StatusBadRequest},
		{name: "x without y", method: http.MethodPatch, path: "/api/v1/canvases/c1/nodes/n1", body: map[string]interface{}{"x": 1}, status: http.StatusBadRequest},
		{name: "bad gesture type", method: http.MethodPost, path: "/api/v1/canvases/c1/gestures", body: map[string]interface{}{"type": "wiggle"}, status: http.StatusBadRequest},
		{name: "bad viewport action", method: http.MethodPut, path: "/api/v1/canvases/c1/viewport", body: map[string]interface{}{"action": "spin"}, status: http.StatusBadRequest},
		{name: "bad limit", method: http.MethodGet, path: "/api/v1/canvases/c1/versions?limit=many", status: http.StatusBadRequest},
		{name: "limit too large", method: http.MethodGet, path: "/api/v1/canvases/c1/versions?limit=1000", status: http.StatusBadRequest},
		{name: "negative minimap", method: http.MethodGet, path: "/api/v1/canvases/c1/frame?minimapWidth=-1", status: http.StatusBadRequest},
		{name: "unknown edge", method: http.MethodDelete, path: "/api/v1/canvases/c1/edges/xy-edge__a-b", status: http.StatusNotFound},
		{name: "duplicate canvas", method: http.MethodPost, path: "/api/v1/canvases", body: map[string]interface{}{"id": "c1"}, status: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))
		})
	}
}

func TestRouter_Authentication(t *testing.T) {
	validator, err := auth.NewJWTValidator("test-secret", "flowcanvas")
	require.NoError(t, err)
	api := newAPI(t, validator)

	token, err := validator.GenerateToken("user-1", []string{"editor"}, time.Hour)
	require.NoError(t, err)
	expired, err := validator.GenerateToken("user-1", nil, -time.Hour)
	require.NoError(t, err)

	rec := api.do(t, http.MethodGet, "/api/v1/palette", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/palette", nil, "Authorization", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/palette", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/palette?token="+token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CreateCanvasGeneratesTimeOrderedID(t *testing.T) {
	api := newAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/api/v1/canvases", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var summary services.CanvasSummary
	decode(t, rec, &summary)

	id, err := uuid.Parse(summary.ID.String())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}
