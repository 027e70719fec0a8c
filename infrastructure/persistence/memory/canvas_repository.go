// Package memory keeps open canvases and saved snapshots in process memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"flowcanvas/application/ports"
	"flowcanvas/domain/canvas"
	"flowcanvas/domain/core/aggregates"
	pkgerrors "flowcanvas/pkg/errors"
)

// CanvasRepository implements ports.CanvasRepository with a map
type CanvasRepository struct {
	mu       sync.RWMutex
	canvases map[aggregates.CanvasID]*canvas.Canvas
	logger   *zap.Logger
}

// NewCanvasRepository creates an empty repository
func NewCanvasRepository(logger *zap.Logger) ports.CanvasRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CanvasRepository{
		canvases: make(map[aggregates.CanvasID]*canvas.Canvas),
		logger:   logger,
	}
}

// Add stores a newly opened canvas
func (r *CanvasRepository) Add(ctx context.Context, c *canvas.Canvas) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.canvases[c.ID()]; exists {
		return pkgerrors.NewConflictError("canvas already open").
			WithDetails(map[string]interface{}{"canvasId": c.ID().String()})
	}
	r.canvases[c.ID()] = c
	r.logger.Debug("Canvas stored", zap.String("canvasID", c.ID().String()), zap.Int("open", len(r.canvases)))
	return nil
}

// Get retrieves an open canvas by ID
func (r *CanvasRepository) Get(ctx context.Context, id aggregates.CanvasID) (*canvas.Canvas, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.canvases[id]
	if !ok {
		return nil, canvasNotFound(id)
	}
	return c, nil
}

// Delete closes a canvas
func (r *CanvasRepository) Delete(ctx context.Context, id aggregates.CanvasID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.canvases[id]; !ok {
		return canvasNotFound(id)
	}
	delete(r.canvases, id)
	return nil
}

// List returns every open canvas, oldest first
func (r *CanvasRepository) List(ctx context.Context) ([]*canvas.Canvas, error) {
	r.mu.RLock()
	out := make([]*canvas.Canvas, 0, len(r.canvases))
	for _, c := range r.canvases {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenedAt().Equal(out[j].OpenedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].OpenedAt().Before(out[j].OpenedAt())
	})
	return out, nil
}

// Count returns the number of open canvases
func (r *CanvasRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.canvases), nil
}

func canvasNotFound(id aggregates.CanvasID) error {
	return pkgerrors.NewNotFoundError("canvas").
		WithCode(pkgerrors.CodeCanvasNotFound).
		WithDetails(map[string]interface{}{"canvasId": id.String()})
}
