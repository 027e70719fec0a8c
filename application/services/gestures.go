package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"flowcanvas/domain/canvas"
	"flowcanvas/domain/core/aggregates"
	"flowcanvas/domain/interaction"
	"flowcanvas/domain/viewport"
	pkgerrors "flowcanvas/pkg/errors"
)

// GestureType names a pointer or drag event forwarded by the host
type GestureType string

const (
	GestureDragStart   GestureType = "drag_start"
	GestureDragOver    GestureType = "drag_over"
	GestureDrop        GestureType = "drop"
	GesturePressHandle GestureType = "press_handle"
	GesturePointerMove GestureType = "pointer_move"
	GestureRelease     GestureType = "release"
	GestureCancel      GestureType = "cancel"
)

// Gesture is one host event. Coordinates are screen space; Origin is the
// canvas container's top-left corner in the same space as Client.
type Gesture struct {
	Type    GestureType            `json:"type" validate:"required,oneof=drag_start drag_over drop press_handle pointer_move release cancel"`
	Payload string                 `json:"payload,omitempty"`
	Client  *viewport.Point        `json:"client,omitempty"`
	Origin  *viewport.Point        `json:"origin,omitempty"`
	Pointer *viewport.Point        `json:"pointer,omitempty"`
	Handle  *interaction.HandleRef `json:"handle,omitempty"`
}

// GestureResult reports what a gesture did. Ignored gestures left the graph
// untouched; Reason carries the error code that caused it.
type GestureResult struct {
	State      interaction.State        `json:"state"`
	DropEffect interaction.DropEffect   `json:"dropEffect,omitempty"`
	Node       *aggregates.NodeSnapshot `json:"node,omitempty"`
	Edge       *aggregates.EdgeSnapshot `json:"edge,omitempty"`
	Ignored    bool                     `json:"ignored,omitempty"`
	Reason     string                   `json:"reason,omitempty"`
	Version    int                      `json:"version"`
}

// HandleGesture feeds one host event into the canvas interaction controller.
// Recoverable failures never surface as errors: the gesture is abandoned and
// the result is marked ignored. Only a missing canvas or a malformed gesture
// returns an error.
func (s *CanvasService) HandleGesture(ctx context.Context, id aggregates.CanvasID, g Gesture) (GestureResult, error) {
	if err := g.check(); err != nil {
		return GestureResult{}, err
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return GestureResult{}, err
	}

	c.Lock()
	before := c.Graph().Version()
	res, failure := s.apply(c, g)
	res.State = c.Controller().State()
	res.Version = c.Graph().Version()
	evts := drain(c)
	c.Unlock()

	outcome := "applied"
	switch {
	case failure != nil:
		res.Ignored = true
		res.Reason = reason(failure)
		outcome = "ignored"
		s.logIgnored(id, g, failure)
		if g.Type == GestureRelease {
			s.metrics.EdgeRejected(res.Reason)
		}
	case res.Node != nil:
		s.metrics.NodeCreated()
	case res.Edge != nil:
		s.metrics.EdgeCreated()
	}
	s.metrics.Gesture(string(g.Type), outcome)

	if res.Version != before {
		s.afterChange(ctx, id, res.Version, evts)
	}
	return res, nil
}

func (s *CanvasService) apply(c *canvas.Canvas, g Gesture) (GestureResult, error) {
	ctl := c.Controller()
	var res GestureResult

	switch g.Type {
	case GestureDragStart:
		kind, ok := c.Registry().Parse(g.Payload)
		if !ok {
			ctl.Cancel()
			return res, interaction.ErrUnknownDropPayload
		}
		return res, ctl.StartPaletteDrag(kind)

	case GestureDragOver:
		// A host that never sent drag_start may name the payload here.
		if ctl.State() == interaction.StateIdle && g.Payload != "" {
			if kind, ok := c.Registry().Parse(g.Payload); ok {
				_ = ctl.StartPaletteDrag(kind)
			}
		}
		res.DropEffect = ctl.DragOver()
		return res, nil

	case GestureDrop:
		if g.Payload != "" {
			kind, ok := c.Registry().Parse(g.Payload)
			if !ok {
				ctl.Cancel()
				return res, interaction.ErrUnknownDropPayload
			}
			if err := ctl.StartPaletteDrag(kind); err != nil {
				return res, err
			}
		}
		var origin viewport.Point
		if g.Origin != nil {
			origin = *g.Origin
		}
		node, err := ctl.Drop(*g.Client, origin)
		if err != nil {
			return res, err
		}
		snap := nodeSnapshot(node)
		res.Node = &snap
		return res, nil

	case GesturePressHandle:
		if err := ctl.PressHandle(*g.Handle); err != nil {
			return res, err
		}
		if g.Pointer != nil {
			ctl.MovePointer(*g.Pointer)
		}
		return res, nil

	case GesturePointerMove:
		ctl.MovePointer(*g.Pointer)
		return res, nil

	case GestureRelease:
		target := g.Handle
		if target == nil && g.Pointer != nil {
			if hit, ok := c.Render(viewport.Size{}).Frame.HandleAt(*g.Pointer); ok {
				target = hit
			}
		}
		edge, err := ctl.Release(target)
		if err != nil {
			return res, err
		}
		if edge != nil {
			snap := edgeSnapshot(edge)
			res.Edge = &snap
		}
		return res, nil

	case GestureCancel:
		ctl.Cancel()
		return res, nil
	}
	return res, nil
}

func (s *CanvasService) logIgnored(id aggregates.CanvasID, g Gesture, err error) {
	fields := []zap.Field{
		zap.String("canvasID", id.String()),
		zap.String("gesture", string(g.Type)),
		zap.Error(err),
	}
	if errors.Is(err, aggregates.ErrInvalidEndpoint) {
		s.logger.Warn("Gesture referenced a missing node", fields...)
		return
	}
	s.logger.Debug("Gesture ignored", fields...)
}

// check rejects gestures that lack the fields their type needs
func (g Gesture) check() error {
	missing := func(field string) error {
		return pkgerrors.NewValidationError(string(g.Type) + " gesture requires " + field).
			WithCode(pkgerrors.CodeInvalidGesture)
	}
	switch g.Type {
	case GestureDragStart:
		if g.Payload == "" {
			return missing("payload")
		}
	case GestureDrop:
		if g.Client == nil || !g.Client.Finite() {
			return missing("client")
		}
		if g.Origin != nil && !g.Origin.Finite() {
			return missing("a finite origin")
		}
	case GesturePressHandle:
		if g.Handle == nil {
			return missing("handle")
		}
	case GesturePointerMove:
		if g.Pointer == nil {
			return missing("pointer")
		}
	case GestureDragOver, GestureRelease, GestureCancel:
	default:
		return pkgerrors.NewValidationError("unknown gesture type").
			WithCode(pkgerrors.CodeInvalidGesture).
			WithDetails(map[string]interface{}{"type": string(g.Type)})
	}
	return nil
}
