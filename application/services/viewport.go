package services

import (
	"context"

	"flowcanvas/domain/canvas"
	"flowcanvas/domain/core/aggregates"
	"flowcanvas/domain/viewport"
	pkgerrors "flowcanvas/pkg/errors"
)

// ViewportAction names a pan/zoom control
type ViewportAction string

const (
	ViewportPan     ViewportAction = "pan"
	ViewportZoom    ViewportAction = "zoom"
	ViewportZoomIn  ViewportAction = "zoom_in"
	ViewportZoomOut ViewportAction = "zoom_out"
	ViewportFit     ViewportAction = "fit"
	ViewportReset   ViewportAction = "reset"
	ViewportResize  ViewportAction = "resize"
	ViewportSet     ViewportAction = "set"
)

// ViewportChange is one pan/zoom control event
type ViewportChange struct {
	Action    ViewportAction      `json:"action" validate:"required,oneof=pan zoom zoom_in zoom_out fit reset resize set"`
	DX        float64             `json:"dx,omitempty"`
	DY        float64             `json:"dy,omitempty"`
	Factor    float64             `json:"factor,omitempty"`
	Anchor    viewport.Point      `json:"anchor,omitempty"`
	Size      *viewport.Size      `json:"size,omitempty"`
	Transform *viewport.Transform `json:"transform,omitempty"`
}

// ViewportState is the view after a change
type ViewportState struct {
	Transform viewport.Transform `json:"transform"`
	Size      viewport.Size      `json:"size"`
}

// UpdateViewport applies a pan/zoom control. Node positions are never touched.
func (s *CanvasService) UpdateViewport(ctx context.Context, id aggregates.CanvasID, change ViewportChange) (ViewportState, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return ViewportState{}, err
	}

	c.Lock()
	err = applyViewport(c, change)
	state := ViewportState{Transform: c.Viewport().Transform(), Size: c.Viewport().Size()}
	c.Unlock()

	if err != nil {
		return ViewportState{}, err
	}
	return state, nil
}

func applyViewport(c *canvas.Canvas, change ViewportChange) error {
	v := c.Viewport()
	var err error
	switch change.Action {
	case ViewportPan:
		err = v.Pan(change.DX, change.DY)
	case ViewportZoom:
		err = v.ZoomAt(change.Factor, change.Anchor)
	case ViewportZoomIn:
		v.ZoomIn()
	case ViewportZoomOut:
		v.ZoomOut()
	case ViewportFit:
		size := v.Size()
		if change.Size != nil {
			size = *change.Size
		}
		err = c.FitView(size)
	case ViewportReset:
		v.Reset()
	case ViewportResize:
		if change.Size == nil {
			return pkgerrors.NewValidationError("resize requires size")
		}
		err = v.SetSize(*change.Size)
	case ViewportSet:
		if change.Transform == nil {
			return pkgerrors.NewValidationError("set requires transform")
		}
		err = v.SetTransform(*change.Transform)
	default:
		return pkgerrors.NewValidationError("unknown viewport action").
			WithDetails(map[string]interface{}{"action": string(change.Action)})
	}
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return nil
}
