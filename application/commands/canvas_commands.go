// Package commands holds the state-changing canvas operations dispatched
// through the command bus.
package commands

import (
	"math"

	"flowcanvas/application/services"
	"flowcanvas/pkg/utils"
)

// CreateCanvasCommand opens a new canvas. The caller mints CanvasID so it can
// answer with the new ID without a result channel on the bus.
type CreateCanvasCommand struct {
	CanvasID      string `json:"canvasId" validate:"required"`
	Name          string `json:"name" validate:"max=120"`
	SeedStartNode *bool  `json:"seedStartNode,omitempty"`
}

// Validate validates the command
func (c CreateCanvasCommand) Validate() error { return utils.ValidateStruct(c) }

// RestoreCanvasCommand reopens a canvas from its newest saved snapshot
type RestoreCanvasCommand struct {
	CanvasID string `json:"canvasId" validate:"required"`
}

// Validate validates the command
func (c RestoreCanvasCommand) Validate() error { return utils.ValidateStruct(c) }

// DeleteCanvasCommand closes a canvas
type DeleteCanvasCommand struct {
	CanvasID string `json:"canvasId" validate:"required"`
}

// Validate validates the command
func (c DeleteCanvasCommand) Validate() error { return utils.ValidateStruct(c) }

// MoveNodeCommand sets a node position in canvas space
type MoveNodeCommand struct {
	CanvasID string  `json:"canvasId" validate:"required"`
	NodeID   string  `json:"nodeId" validate:"required"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Validate validates the command
func (c MoveNodeCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	if math.IsNaN(c.X) || math.IsInf(c.X, 0) || math.IsNaN(c.Y) || math.IsInf(c.Y, 0) {
		return utils.FieldError("x", "position must be finite")
	}
	return nil
}

// RenameNodeCommand replaces a node label
type RenameNodeCommand struct {
	CanvasID string `json:"canvasId" validate:"required"`
	NodeID   string `json:"nodeId" validate:"required"`
	Label    string `json:"label" validate:"max=200"`
}

// Validate validates the command
func (c RenameNodeCommand) Validate() error { return utils.ValidateStruct(c) }

// RemoveNodeCommand deletes a node and every edge touching it
type RemoveNodeCommand struct {
	CanvasID string `json:"canvasId" validate:"required"`
	NodeID   string `json:"nodeId" validate:"required"`
}

// Validate validates the command
func (c RemoveNodeCommand) Validate() error { return utils.ValidateStruct(c) }

// RemoveEdgeCommand deletes an edge
type RemoveEdgeCommand struct {
	CanvasID string `json:"canvasId" validate:"required"`
	EdgeID   string `json:"edgeId" validate:"required"`
}

// Validate validates the command
func (c RemoveEdgeCommand) Validate() error { return utils.ValidateStruct(c) }

// UpdateViewportCommand applies a pan/zoom control
type UpdateViewportCommand struct {
	CanvasID string                  `json:"canvasId" validate:"required"`
	Change   services.ViewportChange `json:"change"`
}

// Validate validates the command
func (c UpdateViewportCommand) Validate() error { return utils.ValidateStruct(c) }
