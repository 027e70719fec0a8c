package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"flowcanvas/application/services"
	"flowcanvas/domain/core/aggregates"
	pkgerrors "flowcanvas/pkg/errors"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024

	sendBufferSize = 256

	gestureTimeout = 5 * time.Second
)

// GestureHandler applies a gesture received on a stream
type GestureHandler interface {
	HandleGesture(ctx context.Context, id aggregates.CanvasID, g services.Gesture) (services.GestureResult, error)
}

// Client is one stream attached to a canvas
type Client struct {
	id       string
	canvasID aggregates.CanvasID
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	gestures GestureHandler
	logger   *zap.Logger
}

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewClient creates a new stream client
func NewClient(canvasID aggregates.CanvasID, hub *Hub, conn *websocket.Conn, gestures GestureHandler, logger *zap.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		id:       id,
		canvasID: canvasID,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		gestures: gestures,
		logger: logger.With(
			zap.String("canvasID", string(canvasID)),
			zap.String("connectionID", id),
		),
	}
}

// Start registers the client and begins its read and write pumps
func (c *Client) Start() {
	c.hub.join(c)

	go c.writePump()
	go c.readPump()
}

// ID returns the client's connection ID
func (c *Client) ID() string {
	return c.id
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
		c.logger.Debug("Read pump stopped")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("Stream read error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.handleTextMessage(message)
		case websocket.BinaryMessage:
			c.logger.Warn("Binary messages not supported")
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.Debug("Write pump stopped")
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Error("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// handleTextMessage treats every text frame as one gesture
func (c *Client) handleTextMessage(message []byte) {
	message = bytes.TrimSpace(message)
	if string(message) == `{"type":"pong"}` {
		return
	}

	var g services.Gesture
	if err := json.Unmarshal(message, &g); err != nil {
		c.hub.reply(c, MessageError, errorPayload{
			Message: "malformed gesture",
			Code:    pkgerrors.CodeInvalidGesture,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.hub.ctx, gestureTimeout)
	defer cancel()

	result, err := c.gestures.HandleGesture(ctx, c.canvasID, g)
	if err != nil {
		payload := errorPayload{Message: err.Error()}
		if appErr := pkgerrors.GetAppError(err); appErr != nil {
			payload = errorPayload{Message: appErr.Message, Code: appErr.Code}
		}
		c.logger.Debug("Gesture rejected", zap.String("gesture", string(g.Type)), zap.Error(err))
		c.hub.reply(c, MessageError, payload)
		return
	}

	c.hub.reply(c, MessageGestureResult, result)
}
