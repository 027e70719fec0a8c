package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"flowcanvas/application/ports"
	"flowcanvas/domain/core/aggregates"
	pkgerrors "flowcanvas/pkg/errors"
)

// WorkflowSaver keeps every saved snapshot in memory. It stands in for the
// DynamoDB saver in development and tests.
type WorkflowSaver struct {
	mu     sync.RWMutex
	saves  map[aggregates.CanvasID][]ports.SavedWorkflow
	logger *zap.Logger
}

// NewWorkflowSaver creates an empty saver
func NewWorkflowSaver(logger *zap.Logger) *WorkflowSaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowSaver{
		saves:  make(map[aggregates.CanvasID][]ports.SavedWorkflow),
		logger: logger,
	}
}

// Save stores a copy of the snapshot
func (s *WorkflowSaver) Save(ctx context.Context, req ports.SaveRequest) (ports.SaveReceipt, error) {
	if err := ctx.Err(); err != nil {
		return ports.SaveReceipt{}, err
	}

	saved := ports.SavedWorkflow{
		SavedVersion: ports.SavedVersion{
			SaveID:    uuid.NewString(),
			CanvasID:  req.CanvasID,
			Name:      req.Name,
			Version:   req.Version,
			NodeCount: len(req.Snapshot.Nodes),
			EdgeCount: len(req.Snapshot.Edges),
			SavedAt:   req.SavedAt,
		},
		Snapshot: req.Snapshot.Clone(),
	}

	s.mu.Lock()
	s.saves[req.CanvasID] = append(s.saves[req.CanvasID], saved)
	s.mu.Unlock()

	s.logger.Info("Workflow snapshot stored",
		zap.String("canvasID", req.CanvasID.String()),
		zap.String("saveID", saved.SaveID),
		zap.Int("nodes", saved.NodeCount),
		zap.Int("edges", saved.EdgeCount),
	)

	return ports.SaveReceipt{
		SaveID:    saved.SaveID,
		CanvasID:  saved.CanvasID,
		Version:   saved.Version,
		NodeCount: saved.NodeCount,
		EdgeCount: saved.EdgeCount,
		SavedAt:   saved.SavedAt,
	}, nil
}

// ListVersions returns the stored snapshots of a canvas, newest first
func (s *WorkflowSaver) ListVersions(ctx context.Context, canvasID aggregates.CanvasID, limit int) ([]ports.SavedVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	saves := s.saves[canvasID]
	out := make([]ports.SavedVersion, 0, len(saves))
	for i := len(saves) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, saves[i].SavedVersion)
	}
	return out, nil
}

// LoadLatest returns the newest stored snapshot of a canvas
func (s *WorkflowSaver) LoadLatest(ctx context.Context, canvasID aggregates.CanvasID) (*ports.SavedWorkflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	saves := s.saves[canvasID]
	if len(saves) == 0 {
		return nil, pkgerrors.NewNotFoundError("saved workflow").
			WithDetails(map[string]interface{}{"canvasId": canvasID.String()})
	}
	latest := saves[len(saves)-1]
	latest.Snapshot = latest.Snapshot.Clone()
	return &latest, nil
}
