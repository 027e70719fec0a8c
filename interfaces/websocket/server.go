package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"flowcanvas/application/services"
	"flowcanvas/domain/core/aggregates"
	pkgerrors "flowcanvas/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// CanvasSession is what a stream needs from the canvas service
type CanvasSession interface {
	GestureHandler
	GetCanvas(ctx context.Context, id aggregates.CanvasID) (services.CanvasSummary, error)
}

// Server upgrades stream requests and attaches them to the hub
type Server struct {
	hub      *Hub
	session  CanvasSession
	upgrader websocket.Upgrader
	logger   *zap.Logger

	maxConnectionsPerCanvas int
}

// ServerConfig holds stream server configuration
type ServerConfig struct {
	ReadBufferSize          int
	WriteBufferSize         int
	CheckOrigin             func(r *http.Request) bool
	MaxConnectionsPerCanvas int
}

// DefaultServerConfig returns default stream server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		MaxConnectionsPerCanvas: 32,
	}
}

// NewServer creates a new stream server
func NewServer(hub *Hub, session CanvasSession, config *ServerConfig, logger *zap.Logger) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}

	return &Server{
		hub:     hub,
		session: session,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger:                  logger,
		maxConnectionsPerCanvas: config.MaxConnectionsPerCanvas,
	}
}

// HandleStream upgrades GET /canvases/{canvasID}/stream
func (s *Server) HandleStream(w http.ResponseWriter, r *http.Request) {
	canvasID := aggregates.CanvasID(chi.URLParam(r, "canvasID"))

	if _, err := s.session.GetCanvas(r.Context(), canvasID); err != nil {
		writeError(w, err)
		return
	}

	if s.maxConnectionsPerCanvas > 0 && s.hub.ConnectionCount(canvasID) >= s.maxConnectionsPerCanvas {
		s.logger.Warn("Connection limit exceeded for canvas",
			zap.String("canvasID", string(canvasID)),
			zap.Int("currentConnections", s.hub.ConnectionCount(canvasID)),
		)
		writeError(w, pkgerrors.NewLimitError("too many streams for canvas").WithStatus(http.StatusTooManyRequests))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection",
			zap.Error(err),
			zap.String("remoteAddr", r.RemoteAddr),
		)
		return
	}

	client := NewClient(canvasID, s.hub, conn, s.session, s.logger)
	client.Start()

	s.logger.Info("New stream connection established",
		zap.String("canvasID", string(canvasID)),
		zap.String("connectionID", client.ID()),
		zap.String("remoteAddr", r.RemoteAddr),
	)
}

func writeError(w http.ResponseWriter, err error) {
	payload := map[string]interface{}{
		"error":   true,
		"message": err.Error(),
	}
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		payload["message"] = appErr.Message
		payload["code"] = appErr.Code
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(pkgerrors.StatusOf(err))
	json.NewEncoder(w).Encode(payload)
}
