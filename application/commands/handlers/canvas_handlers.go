// Package handlers binds canvas commands to the canvas service.
package handlers

import (
	"context"
	"fmt"

	"flowcanvas/application/commands"
	"flowcanvas/application/commands/bus"
	"flowcanvas/application/services"
	"flowcanvas/domain/core/aggregates"
	"flowcanvas/domain/core/valueobjects"
)

// CanvasCommandHandler handles every canvas command
type CanvasCommandHandler struct {
	service *services.CanvasService
}

// NewCanvasCommandHandler creates a new handler instance
func NewCanvasCommandHandler(service *services.CanvasService) *CanvasCommandHandler {
	return &CanvasCommandHandler{service: service}
}

// Register registers the handler for every canvas command
func (h *CanvasCommandHandler) Register(b *bus.CommandBus) error {
	for _, cmd := range []bus.Command{
		commands.CreateCanvasCommand{},
		commands.RestoreCanvasCommand{},
		commands.DeleteCanvasCommand{},
		commands.MoveNodeCommand{},
		commands.RenameNodeCommand{},
		commands.RemoveNodeCommand{},
		commands.RemoveEdgeCommand{},
		commands.UpdateViewportCommand{},
	} {
		if err := b.Register(cmd, h); err != nil {
			return err
		}
	}
	return nil
}

// Handle executes a canvas command
func (h *CanvasCommandHandler) Handle(ctx context.Context, cmd bus.Command) error {
	switch c := cmd.(type) {
	case commands.CreateCanvasCommand:
		_, err := h.service.CreateCanvas(ctx, services.CreateCanvasInput{
			ID:            aggregates.CanvasID(c.CanvasID),
			Name:          c.Name,
			SeedStartNode: c.SeedStartNode,
		})
		return err

	case commands.RestoreCanvasCommand:
		_, err := h.service.RestoreCanvas(ctx, aggregates.CanvasID(c.CanvasID))
		return err

	case commands.DeleteCanvasCommand:
		return h.service.DeleteCanvas(ctx, aggregates.CanvasID(c.CanvasID))

	case commands.MoveNodeCommand:
		nodeID, err := valueobjects.NewNodeIDFromString(c.NodeID)
		if err != nil {
			return err
		}
		pos, err := valueobjects.NewPosition(c.X, c.Y)
		if err != nil {
			return err
		}
		return h.service.MoveNode(ctx, aggregates.CanvasID(c.CanvasID), nodeID, pos)

	case commands.RenameNodeCommand:
		nodeID, err := valueobjects.NewNodeIDFromString(c.NodeID)
		if err != nil {
			return err
		}
		return h.service.RenameNode(ctx, aggregates.CanvasID(c.CanvasID), nodeID, c.Label)

	case commands.RemoveNodeCommand:
		nodeID, err := valueobjects.NewNodeIDFromString(c.NodeID)
		if err != nil {
			return err
		}
		_, err = h.service.RemoveNode(ctx, aggregates.CanvasID(c.CanvasID), nodeID)
		return err

	case commands.RemoveEdgeCommand:
		return h.service.RemoveEdge(ctx, aggregates.CanvasID(c.CanvasID), valueobjects.EdgeID(c.EdgeID))

	case commands.UpdateViewportCommand:
		_, err := h.service.UpdateViewport(ctx, aggregates.CanvasID(c.CanvasID), c.Change)
		return err
	}
	return fmt.Errorf("%w: %T", bus.ErrUnexpectedCommand, cmd)
}
