// Package handlers binds canvas queries to the canvas service.
package handlers

import (
	"context"
	"fmt"

	"flowcanvas/application/queries"
	"flowcanvas/application/queries/bus"
	"flowcanvas/application/services"
	"flowcanvas/domain/core/aggregates"
	"flowcanvas/domain/viewport"
)

// CanvasQueryHandler answers every canvas query
type CanvasQueryHandler struct {
	service *services.CanvasService
}

// NewCanvasQueryHandler creates a new handler instance
func NewCanvasQueryHandler(service *services.CanvasService) *CanvasQueryHandler {
	return &CanvasQueryHandler{service: service}
}

// Register registers the handler for every canvas query
func (h *CanvasQueryHandler) Register(b *bus.QueryBus) error {
	for _, q := range []bus.Query{
		queries.GetCanvasQuery{},
		queries.ListCanvasesQuery{},
		queries.ExportCanvasQuery{},
		queries.GetFrameQuery{},
		queries.ListVersionsQuery{},
		queries.GetPaletteQuery{},
	} {
		if err := b.Register(q, h); err != nil {
			return err
		}
	}
	return nil
}

// Handle answers a canvas query
func (h *CanvasQueryHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	switch q := query.(type) {
	case queries.GetCanvasQuery:
		return h.service.GetCanvas(ctx, aggregates.CanvasID(q.CanvasID))
	case queries.ListCanvasesQuery:
		return h.service.ListCanvases(ctx)
	case queries.ExportCanvasQuery:
		return h.service.Export(ctx, aggregates.CanvasID(q.CanvasID))
	case queries.GetFrameQuery:
		return h.service.Render(ctx, aggregates.CanvasID(q.CanvasID), viewport.Size{Width: q.MinimapWidth, Height: q.MinimapHeight})
	case queries.ListVersionsQuery:
		return h.service.ListVersions(ctx, aggregates.CanvasID(q.CanvasID), q.Limit)
	case queries.GetPaletteQuery:
		return h.service.Palette(ctx), nil
	}
	return nil, fmt.Errorf("%w: %T", bus.ErrUnexpectedQuery, query)
}
