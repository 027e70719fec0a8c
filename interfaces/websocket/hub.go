package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"flowcanvas/domain/core/aggregates"
	"flowcanvas/pkg/observability"

	"go.uber.org/zap"
)

// Message types pushed to stream clients
const (
	MessageConnectionEstablished = "CONNECTION_ESTABLISHED"
	MessageCanvasChanged         = "CANVAS_CHANGED"
	MessageGestureResult         = "GESTURE_RESULT"
	MessageError                 = "ERROR"
)

// Hub maintains the stream connections of every open canvas and fans change
// notifications out to them. All writes to a client's send channel happen on
// the hub goroutine.
type Hub struct {
	connections map[aggregates.CanvasID]map[*Client]bool
	mu          sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	direct     chan directMessage

	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger
	metrics *observability.Collector
}

// Message is the envelope of everything written to a stream
type Message struct {
	CanvasID  aggregates.CanvasID `json:"-"`
	Type      string              `json:"type"`
	Data      json.RawMessage     `json:"data"`
	Timestamp int64               `json:"timestamp"`
}

type directMessage struct {
	client *Client
	data   []byte
}

type canvasChanged struct {
	CanvasID aggregates.CanvasID `json:"canvasId"`
	Version  int                 `json:"version"`
}

// NewHub creates a new stream hub
func NewHub(logger *zap.Logger, metrics *observability.Collector) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		connections: make(map[aggregates.CanvasID]map[*Client]bool),
		register:    make(chan *Client, 100),
		unregister:  make(chan *Client, 100),
		broadcast:   make(chan *Message, 1000),
		direct:      make(chan directMessage, 1000),
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run starts the hub's main event loop. It returns once Stop is called.
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("Hub shutting down")
			h.closeAllConnections()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToCanvas(message)

		case msg := <-h.direct:
			h.sendToClient(msg.client, msg.data)

		case <-ticker.C:
			h.logStats()
		}
	}
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.logger.Info("Stopping stream hub")
	h.cancel()
}

// CanvasChanged queues a change notification for every stream of the canvas.
// It never blocks the caller; when the queue is full the notification is dropped.
func (h *Hub) CanvasChanged(canvasID aggregates.CanvasID, version int) {
	message, err := newMessage(canvasID, MessageCanvasChanged, canvasChanged{CanvasID: canvasID, Version: version})
	if err != nil {
		h.logger.Error("Failed to build change notification", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Broadcast queue full, change notification dropped",
			zap.String("canvasID", string(canvasID)),
			zap.Int("version", version),
		)
	}
}

// ConnectionCount returns the number of streams attached to a canvas
func (h *Hub) ConnectionCount(canvasID aggregates.CanvasID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[canvasID])
}

// reply queues a message for one client
func (h *Hub) reply(c *Client, messageType string, data interface{}) {
	message, err := newMessage(c.canvasID, messageType, data)
	if err != nil {
		h.logger.Error("Failed to build reply", zap.Error(err))
		return
	}
	encoded, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal reply", zap.Error(err))
		return
	}

	select {
	case h.direct <- directMessage{client: c, data: encoded}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

func (h *Hub) join(c *Client) {
	select {
	case h.register <- c:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.connections[client.canvasID] == nil {
		h.connections[client.canvasID] = make(map[*Client]bool)
	}
	h.connections[client.canvasID][client] = true
	count := len(h.connections[client.canvasID])
	h.mu.Unlock()

	h.metrics.StreamConnected()
	h.logger.Info("Client registered",
		zap.String("canvasID", string(client.canvasID)),
		zap.String("connectionID", client.id),
		zap.Int("canvasConnections", count),
	)

	message, err := newMessage(client.canvasID, MessageConnectionEstablished, map[string]string{
		"connectionId": client.id,
		"canvasId":     string(client.canvasID),
	})
	if err == nil {
		if data, err := json.Marshal(message); err == nil {
			h.sendToClient(client, data)
		}
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.connections[client.canvasID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.connections, client.canvasID)
	}

	h.metrics.StreamDisconnected()
	h.logger.Info("Client unregistered",
		zap.String("canvasID", string(client.canvasID)),
		zap.String("connectionID", client.id),
		zap.Int("remainingConnections", len(clients)),
	)
}

func (h *Hub) broadcastToCanvas(message *Message) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.connections[message.CanvasID]))
	for c := range h.connections[message.CanvasID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	// Marshal once for all clients
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message",
			zap.Error(err),
			zap.String("messageType", message.Type),
		)
		return
	}

	for _, client := range clients {
		h.sendToClient(client, data)
	}
}

// sendToClient must only run on the hub goroutine
func (h *Hub) sendToClient(client *Client, data []byte) {
	h.mu.RLock()
	registered := h.connections[client.canvasID][client]
	h.mu.RUnlock()
	if !registered {
		return
	}

	select {
	case client.send <- data:
	default:
		h.logger.Warn("Closing slow client",
			zap.String("canvasID", string(client.canvasID)),
			zap.String("connectionID", client.id),
		)
		h.unregisterClient(client)
		client.conn.Close()
	}
}

func (h *Hub) logStats() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.connections {
		total += len(clients)
	}
	h.logger.Debug("Stream hub stats",
		zap.Int("totalConnections", total),
		zap.Int("canvases", len(h.connections)),
	)
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for canvasID, clients := range h.connections {
		for client := range clients {
			close(client.send)
			client.conn.Close()
			h.metrics.StreamDisconnected()
		}
		delete(h.connections, canvasID)
	}

	h.logger.Info("All connections closed")
}

func newMessage(canvasID aggregates.CanvasID, messageType string, data interface{}) (*Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		CanvasID:  canvasID,
		Type:      messageType,
		Data:      raw,
		Timestamp: time.Now().Unix(),
	}, nil
}
