package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"flowcanvas/application/services"
	"flowcanvas/domain/config"
	"flowcanvas/domain/core/aggregates"
	"flowcanvas/domain/palette"
	"flowcanvas/domain/viewport"
	"flowcanvas/infrastructure/persistence/memory"
	pkgerrors "flowcanvas/pkg/errors"
)

type streamFixture struct {
	svc    *services.CanvasService
	hub    *Hub
	server *httptest.Server
}

func newStreamFixture(t *testing.T) *streamFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	hub := NewHub(logger, nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	svc := services.NewCanvasService(
		memory.NewCanvasRepository(logger),
		memory.NewWorkflowSaver(logger),
		palette.DefaultRegistry(),
		config.DefaultDomainConfig(),
		logger,
		services.WithNotifier(hub),
	)

	r := chi.NewRouter()
	r.Get("/canvases/{canvasID}/stream", NewServer(hub, svc, nil, logger).HandleStream)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &streamFixture{svc: svc, hub: hub, server: server}
}

func (f *streamFixture) dial(t *testing.T, id aggregates.CanvasID) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/canvases/" + string(id) + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	hello := readMessage(t, conn)
	require.Equal(t, MessageConnectionEstablished, hello.Type)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestStream_GestureAndBroadcast(t *testing.T) {
	f := newStreamFixture(t)
	seed := false
	summary, err := f.svc.CreateCanvas(context.Background(), services.CreateCanvasInput{ID: "c1", SeedStartNode: &seed})
	require.NoError(t, err)

	actor := f.dial(t, summary.ID)
	observer := f.dial(t, summary.ID)

	require.Eventually(t, func() bool { return f.hub.ConnectionCount(summary.ID) == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, actor.WriteJSON(services.Gesture{
		Type:    services.GestureDrop,
		Payload: "Task",
		Client:  &viewport.Point{X: 10, Y: 20},
	}))

	got := map[string]Message{}
	for i := 0; i < 2; i++ {
		msg := readMessage(t, actor)
		got[msg.Type] = msg
	}
	require.Contains(t, got, MessageGestureResult)
	require.Contains(t, got, MessageCanvasChanged)

	var result services.GestureResult
	require.NoError(t, json.Unmarshal(got[MessageGestureResult].Data, &result))
	require.NotNil(t, result.Node)
	assert.False(t, result.Ignored)
	assert.Equal(t, "Task", result.Node.Data.Label)

	changed := readMessage(t, observer)
	assert.Equal(t, MessageCanvasChanged, changed.Type)
	var payload canvasChanged
	require.NoError(t, json.Unmarshal(changed.Data, &payload))
	assert.Equal(t, summary.ID, payload.CanvasID)
	assert.Equal(t, result.Version, payload.Version)
}

func TestStream_MalformedGesture(t *testing.T) {
	f := newStreamFixture(t)
	summary, err := f.svc.CreateCanvas(context.Background(), services.CreateCanvasInput{ID: "c1"})
	require.NoError(t, err)

	conn := f.dial(t, summary.ID)

	tests := []struct {
		name    string
		message string
	}{
		{name: "not json", message: "drop it"},
		{name: "unknown type", message: `{"type":"wiggle"}`},
		{name: "drop without client", message: `{"type":"drop","payload":"Task"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.message)))
			msg := readMessage(t, conn)
			assert.Equal(t, MessageError, msg.Type)

			var payload errorPayload
			require.NoError(t, json.Unmarshal(msg.Data, &payload))
			assert.Equal(t, pkgerrors.CodeInvalidGesture, payload.Code)
		})
	}
}

func TestStream_UnknownCanvas(t *testing.T) {
	f := newStreamFixture(t)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/canvases/missing/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHub_CanvasChangedWithoutStreams(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t), nil)
	go hub.Run()
	defer hub.Stop()

	assert.NotPanics(t, func() { hub.CanvasChanged("nobody", 3) })
	assert.Equal(t, 0, hub.ConnectionCount("nobody"))
}
