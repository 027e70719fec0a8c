package handlers

import (
	"net/http"

	"flowcanvas/application/commands"
	"flowcanvas/application/commands/bus"
	"flowcanvas/application/services"
	"flowcanvas/domain/core/aggregates"
	"flowcanvas/domain/core/entities"
	"flowcanvas/domain/core/valueobjects"
	"flowcanvas/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GraphHandler handles direct node and edge edits
type GraphHandler struct {
	commandBus *bus.CommandBus
	service    *services.CanvasService
	logger     *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(commandBus *bus.CommandBus, service *services.CanvasService, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		commandBus: commandBus,
		service:    service,
		logger:     logger,
	}
}

// AddNodeRequest represents the request body for placing a node
type AddNodeRequest struct {
	Kind  string  `json:"kind" validate:"required"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty" validate:"max=200"`
}

// UpdateNodeRequest moves and/or relabels a node. X and Y travel together.
type UpdateNodeRequest struct {
	X     *float64 `json:"x,omitempty" validate:"required_with=Y"`
	Y     *float64 `json:"y,omitempty" validate:"required_with=X"`
	Label *string  `json:"label,omitempty" validate:"omitempty,max=200"`
}

// AddEdgeRequest represents the request body for connecting two nodes
type AddEdgeRequest struct {
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// AddNode handles POST /canvases/{canvasID}/nodes
func (h *GraphHandler) AddNode(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req AddNodeRequest
	if err := utils.DecodeAndValidate(body, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	kind, err := valueobjects.ParseNodeKind(req.Kind)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	pos, err := valueobjects.NewPosition(req.X, req.Y)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	node, err := h.service.AddNode(r.Context(), aggregates.CanvasID(chi.URLParam(r, "canvasID")), services.AddNodeInput{
		Kind:     kind,
		Position: pos,
		Label:    req.Label,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, node)
}

// UpdateNode handles PATCH /canvases/{canvasID}/nodes/{nodeID}
func (h *GraphHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req UpdateNodeRequest
	if err := utils.DecodeAndValidate(body, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.X == nil && req.Label == nil {
		respondError(w, h.logger, utils.FieldError("body", "position or label is required"))
		return
	}

	canvasID := chi.URLParam(r, "canvasID")
	nodeID := chi.URLParam(r, "nodeID")

	if req.X != nil {
		cmd := commands.MoveNodeCommand{CanvasID: canvasID, NodeID: nodeID, X: *req.X, Y: *req.Y}
		if err := h.commandBus.Send(r.Context(), cmd); err != nil {
			respondError(w, h.logger, err)
			return
		}
	}
	if req.Label != nil {
		cmd := commands.RenameNodeCommand{CanvasID: canvasID, NodeID: nodeID, Label: *req.Label}
		if err := h.commandBus.Send(r.Context(), cmd); err != nil {
			respondError(w, h.logger, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteNode handles DELETE /canvases/{canvasID}/nodes/{nodeID}
func (h *GraphHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	removed, err := h.service.RemoveNode(r.Context(), aggregates.CanvasID(chi.URLParam(r, "canvasID")), nodeID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if removed == nil {
		removed = []valueobjects.EdgeID{}
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"nodeId":       nodeID,
		"removedEdges": removed,
	})
}

// AddEdge handles POST /canvases/{canvasID}/edges
func (h *GraphHandler) AddEdge(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req AddEdgeRequest
	if err := utils.DecodeAndValidate(body, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	source, err := valueobjects.NewNodeIDFromString(req.Source)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	target, err := valueobjects.NewNodeIDFromString(req.Target)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	edge, err := h.service.AddEdge(r.Context(), aggregates.CanvasID(chi.URLParam(r, "canvasID")), source, target, entities.Handles{
		Source: valueobjects.HandleID(req.SourceHandle),
		Target: valueobjects.HandleID(req.TargetHandle),
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, edge)
}

// DeleteEdge handles DELETE /canvases/{canvasID}/edges/{edgeID}
func (h *GraphHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	cmd := commands.RemoveEdgeCommand{
		CanvasID: chi.URLParam(r, "canvasID"),
		EdgeID:   chi.URLParam(r, "edgeID"),
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
