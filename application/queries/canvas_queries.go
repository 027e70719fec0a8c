// Package queries holds the read-only canvas operations dispatched through
// the query bus.
package queries

import (
	"errors"

	"flowcanvas/pkg/utils"
)

// GetCanvasQuery describes one open canvas
type GetCanvasQuery struct {
	CanvasID string `validate:"required"`
}

// Validate validates the query
func (q GetCanvasQuery) Validate() error { return utils.ValidateStruct(q) }

// ListCanvasesQuery describes every open canvas
type ListCanvasesQuery struct{}

// Validate validates the query
func (ListCanvasesQuery) Validate() error { return nil }

// ExportCanvasQuery returns the canvas graph snapshot
type ExportCanvasQuery struct {
	CanvasID string `validate:"required"`
}

// Validate validates the query
func (q ExportCanvasQuery) Validate() error { return utils.ValidateStruct(q) }

// GetFrameQuery renders the canvas. A zero minimap size uses the default.
type GetFrameQuery struct {
	CanvasID      string `validate:"required"`
	MinimapWidth  float64
	MinimapHeight float64
}

// Validate validates the query
func (q GetFrameQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return err
	}
	if q.MinimapWidth < 0 || q.MinimapHeight < 0 {
		return utils.FieldError("minimap", "minimap size cannot be negative")
	}
	return nil
}

// ListVersionsQuery lists saved snapshots of a canvas, newest first
type ListVersionsQuery struct {
	CanvasID string `validate:"required"`
	Limit    int    `validate:"min=0,max=100"`
}

// Validate validates the query
func (q ListVersionsQuery) Validate() error { return utils.ValidateStruct(q) }

// GetPaletteQuery lists the draggable node kinds
type GetPaletteQuery struct{}

// Validate validates the query
func (GetPaletteQuery) Validate() error { return nil }

// ErrUnexpectedResult means a handler answered with the wrong type
var ErrUnexpectedResult = errors.New("unexpected query result type")
