package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"flowcanvas/application/ports"
	"flowcanvas/domain/canvas"
	"flowcanvas/domain/config"
	"flowcanvas/domain/core/aggregates"
	"flowcanvas/domain/core/entities"
	"flowcanvas/domain/core/valueobjects"
	"flowcanvas/domain/events"
	"flowcanvas/domain/palette"
	"flowcanvas/domain/viewport"
	pkgerrors "flowcanvas/pkg/errors"
	"flowcanvas/pkg/observability"
)

// PaletteSource yields the palette new canvases are opened with
type PaletteSource interface {
	Current() *palette.Registry
}

// CanvasSummary describes an open canvas
type CanvasSummary struct {
	ID        aggregates.CanvasID `json:"id"`
	Name      string              `json:"name"`
	NodeCount int                 `json:"nodeCount"`
	EdgeCount int                 `json:"edgeCount"`
	Version   int                 `json:"version"`
	Dirty     bool                `json:"dirty"`
	OpenedAt  time.Time           `json:"openedAt"`
}

// CreateCanvasInput describes a canvas to open
type CreateCanvasInput struct {
	ID            aggregates.CanvasID
	Name          string
	SeedStartNode *bool
}

// AddNodeInput describes a node placed without a gesture
type AddNodeInput struct {
	Kind     valueobjects.NodeKind
	Position valueobjects.Position
	Label    string
}

// CanvasService runs builder sessions. Every event for a canvas is handled
// under that canvas's lock; different canvases proceed in parallel. Save I/O
// happens outside the lock.
type CanvasService struct {
	repo      ports.CanvasRepository
	saver     ports.WorkflowSaver
	publisher ports.EventPublisher
	notifier  ports.ChangeNotifier
	palettes  PaletteSource
	rules     *config.DomainConfig
	metrics   *observability.Collector
	tracer    *observability.Tracer
	logger    *zap.Logger

	maxCanvases int
}

// Option configures a CanvasService
type Option func(*CanvasService)

// WithPublisher publishes graph events after each change
func WithPublisher(p ports.EventPublisher) Option {
	return func(s *CanvasService) { s.publisher = p }
}

// WithNotifier tells n about every change
func WithNotifier(n ports.ChangeNotifier) Option {
	return func(s *CanvasService) { s.notifier = n }
}

// WithMetrics records service metrics
func WithMetrics(m *observability.Collector) Option {
	return func(s *CanvasService) { s.metrics = m }
}

// WithTracer traces saves
func WithTracer(t *observability.Tracer) Option {
	return func(s *CanvasService) { s.tracer = t }
}

// WithMaxCanvases bounds the number of open canvases. Zero means unlimited.
func WithMaxCanvases(n int) Option {
	return func(s *CanvasService) { s.maxCanvases = n }
}

// NewCanvasService creates a new canvas service
func NewCanvasService(
	repo ports.CanvasRepository,
	saver ports.WorkflowSaver,
	palettes PaletteSource,
	rules *config.DomainConfig,
	logger *zap.Logger,
	opts ...Option,
) *CanvasService {
	if palettes == nil {
		palettes = palette.DefaultRegistry()
	}
	if rules == nil {
		rules = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CanvasService{
		repo:     repo,
		saver:    saver,
		palettes: palettes,
		rules:    rules,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Palette returns the draggable entries new canvases offer
func (s *CanvasService) Palette(ctx context.Context) []palette.Descriptor {
	return s.palettes.Current().Palette()
}

// CreateCanvas opens a new canvas with the current palette
func (s *CanvasService) CreateCanvas(ctx context.Context, in CreateCanvasInput) (CanvasSummary, error) {
	if err := s.checkCapacity(ctx); err != nil {
		return CanvasSummary{}, err
	}

	var opts []aggregates.GraphOption
	if in.ID != "" {
		opts = append(opts, aggregates.WithCanvasID(in.ID))
	}
	if in.SeedStartNode != nil && !*in.SeedStartNode {
		opts = append(opts, aggregates.WithoutStartNode())
	}

	c, err := canvas.New(in.Name, s.palettes.Current(), s.rules, opts...)
	if err != nil {
		return CanvasSummary{}, translate(err)
	}
	if err := s.repo.Add(ctx, c); err != nil {
		return CanvasSummary{}, err
	}
	s.metrics.CanvasOpened()

	c.Lock()
	summary := summarize(c)
	evts := drain(c)
	c.Unlock()

	s.logger.Info("Canvas opened",
		zap.String("canvasID", summary.ID.String()),
		zap.String("name", summary.Name),
		zap.Int("nodes", summary.NodeCount),
	)
	s.publish(ctx, summary.ID, evts)
	return summary, nil
}

// RestoreCanvas reopens a canvas from its newest saved snapshot. An already
// open canvas is returned as is.
func (s *CanvasService) RestoreCanvas(ctx context.Context, id aggregates.CanvasID) (CanvasSummary, error) {
	if c, err := s.repo.Get(ctx, id); err == nil {
		c.Lock()
		defer c.Unlock()
		return summarize(c), nil
	}
	if err := s.checkCapacity(ctx); err != nil {
		return CanvasSummary{}, err
	}

	saved, err := s.saver.LoadLatest(ctx, id)
	if err != nil {
		return CanvasSummary{}, s.saverError(err)
	}

	c, err := canvas.Restore(id, saved.Name, saved.Snapshot, s.palettes.Current(), s.rules)
	if err != nil {
		return CanvasSummary{}, translate(err)
	}
	if err := s.repo.Add(ctx, c); err != nil {
		return CanvasSummary{}, err
	}
	s.metrics.CanvasOpened()
	s.logger.Info("Canvas restored",
		zap.String("canvasID", id.String()),
		zap.String("saveID", saved.SaveID),
		zap.Int("version", saved.Version),
	)

	c.Lock()
	defer c.Unlock()
	return summarize(c), nil
}

// GetCanvas describes an open canvas
func (s *CanvasService) GetCanvas(ctx context.Context, id aggregates.CanvasID) (CanvasSummary, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return CanvasSummary{}, err
	}
	c.Lock()
	defer c.Unlock()
	return summarize(c), nil
}

// ListCanvases describes every open canvas
func (s *CanvasService) ListCanvases(ctx context.Context) ([]CanvasSummary, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CanvasSummary, 0, len(all))
	for _, c := range all {
		c.Lock()
		out = append(out, summarize(c))
		c.Unlock()
	}
	return out, nil
}

// DeleteCanvas closes a canvas. Saved snapshots are kept.
func (s *CanvasService) DeleteCanvas(ctx context.Context, id aggregates.CanvasID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.CanvasClosed()
	s.logger.Info("Canvas closed", zap.String("canvasID", id.String()))
	return nil
}

// Export returns an immutable snapshot of the canvas graph
func (s *CanvasService) Export(ctx context.Context, id aggregates.CanvasID) (aggregates.Snapshot, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return aggregates.Snapshot{}, err
	}
	c.Lock()
	defer c.Unlock()
	return c.Graph().Snapshot(), nil
}

// AddNode places a node directly, without a palette gesture
func (s *CanvasService) AddNode(ctx context.Context, id aggregates.CanvasID, in AddNodeInput) (aggregates.NodeSnapshot, error) {
	var out aggregates.NodeSnapshot
	err := s.mutate(ctx, id, func(c *canvas.Canvas) error {
		node, err := c.Graph().AddNode(in.Kind, in.Position, in.Label)
		if err != nil {
			return err
		}
		out = nodeSnapshot(node)
		return nil
	})
	if err != nil {
		return aggregates.NodeSnapshot{}, err
	}
	s.metrics.NodeCreated()
	return out, nil
}

// MoveNode updates a node position. A missing node is a silent no-op unless
// strict position updates are configured.
func (s *CanvasService) MoveNode(ctx context.Context, id aggregates.CanvasID, nodeID valueobjects.NodeID, pos valueobjects.Position) error {
	return s.mutate(ctx, id, func(c *canvas.Canvas) error {
		if !c.Graph().HasNode(nodeID) {
			s.logger.Debug("Position update for missing node",
				zap.String("canvasID", id.String()),
				zap.String("nodeID", nodeID.String()),
			)
		}
		return c.Graph().UpdateNodePosition(nodeID, pos)
	})
}

// RenameNode replaces a node label
func (s *CanvasService) RenameNode(ctx context.Context, id aggregates.CanvasID, nodeID valueobjects.NodeID, label string) error {
	return s.mutate(ctx, id, func(c *canvas.Canvas) error {
		return c.Graph().RenameNode(nodeID, label)
	})
}

// RemoveNode deletes a node and its edges
func (s *CanvasService) RemoveNode(ctx context.Context, id aggregates.CanvasID, nodeID valueobjects.NodeID) ([]valueobjects.EdgeID, error) {
	var removed []valueobjects.EdgeID
	err := s.mutate(ctx, id, func(c *canvas.Canvas) error {
		var err error
		removed, err = c.Graph().RemoveNode(nodeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.NodeDeleted()
	return removed, nil
}

// AddEdge connects two nodes directly, without a pointer gesture
func (s *CanvasService) AddEdge(ctx context.Context, id aggregates.CanvasID, source, target valueobjects.NodeID, handles entities.Handles) (aggregates.EdgeSnapshot, error) {
	var out aggregates.EdgeSnapshot
	err := s.mutate(ctx, id, func(c *canvas.Canvas) error {
		edge, err := c.Graph().AddEdge(source, target, handles)
		if err != nil {
			return err
		}
		out = edgeSnapshot(edge)
		return nil
	})
	if err != nil {
		if r := reason(err); r != pkgerrors.CodeCanvasNotFound {
			s.metrics.EdgeRejected(r)
			s.logger.Warn("Edge rejected",
				zap.String("canvasID", id.String()),
				zap.String("source", source.String()),
				zap.String("target", target.String()),
				zap.String("reason", r),
			)
		}
		return aggregates.EdgeSnapshot{}, err
	}
	s.metrics.EdgeCreated()
	return out, nil
}

// RemoveEdge deletes an edge
func (s *CanvasService) RemoveEdge(ctx context.Context, id aggregates.CanvasID, edgeID valueobjects.EdgeID) error {
	return s.mutate(ctx, id, func(c *canvas.Canvas) error {
		return c.Graph().RemoveEdge(edgeID)
	})
}

// Render paints the canvas and its minimap
func (s *CanvasService) Render(ctx context.Context, id aggregates.CanvasID, minimap viewport.Size) (canvas.View, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return canvas.View{}, err
	}
	c.Lock()
	defer c.Unlock()
	return c.Render(minimap), nil
}

// Save exports the canvas and hands the snapshot to the save collaborator
func (s *CanvasService) Save(ctx context.Context, id aggregates.CanvasID) (ports.SaveReceipt, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return ports.SaveReceipt{}, err
	}

	c.Lock()
	req := ports.SaveRequest{
		CanvasID: c.ID(),
		Name:     c.Name(),
		Version:  c.Graph().Version(),
		Snapshot: c.Graph().Snapshot(),
		SavedAt:  time.Now().UTC(),
	}
	c.Unlock()

	var receipt ports.SaveReceipt
	start := time.Now()
	err = s.tracer.TraceFunction(ctx, "SaveWorkflow", func(ctx context.Context) error {
		s.tracer.AddAnnotation(ctx, "canvas_id", id.String())
		s.tracer.AddMetadata(ctx, "nodes", len(req.Snapshot.Nodes))
		s.tracer.AddMetadata(ctx, "edges", len(req.Snapshot.Edges))
		var err error
		receipt, err = s.saver.Save(ctx, req)
		return err
	})
	if err != nil {
		s.metrics.SaveFinished("error", time.Since(start))
		s.logger.Error("Failed to save workflow",
			zap.String("canvasID", id.String()),
			zap.Int("version", req.Version),
			zap.Error(err),
		)
		return ports.SaveReceipt{}, s.saverError(err)
	}
	s.metrics.SaveFinished("success", time.Since(start))

	c.Lock()
	c.MarkSaved(req.Version, receipt.SaveID, req.Snapshot)
	evts := drain(c)
	c.Unlock()

	s.logger.Info("Workflow saved",
		zap.String("canvasID", id.String()),
		zap.String("saveID", receipt.SaveID),
		zap.Int("nodes", receipt.NodeCount),
		zap.Int("edges", receipt.EdgeCount),
	)
	s.publish(ctx, id, evts)
	return receipt, nil
}

// ListVersions lists saved snapshots of a canvas, newest first
func (s *CanvasService) ListVersions(ctx context.Context, id aggregates.CanvasID, limit int) ([]ports.SavedVersion, error) {
	versions, err := s.saver.ListVersions(ctx, id, limit)
	if err != nil {
		return nil, s.saverError(err)
	}
	return versions, nil
}

// mutate runs fn under the canvas lock, then publishes what changed
func (s *CanvasService) mutate(ctx context.Context, id aggregates.CanvasID, fn func(c *canvas.Canvas) error) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	c.Lock()
	before := c.Graph().Version()
	err = fn(c)
	version := c.Graph().Version()
	evts := drain(c)
	c.Unlock()

	if err != nil {
		return translate(err)
	}
	if version != before {
		s.afterChange(ctx, id, version, evts)
	}
	return nil
}

func (s *CanvasService) afterChange(ctx context.Context, id aggregates.CanvasID, version int, evts []events.DomainEvent) {
	if s.notifier != nil {
		s.notifier.CanvasChanged(id, version)
	}
	s.publish(ctx, id, evts)
}

func (s *CanvasService) publish(ctx context.Context, id aggregates.CanvasID, evts []events.DomainEvent) {
	if s.publisher == nil || len(evts) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, evts); err != nil {
		s.logger.Warn("Failed to publish canvas events",
			zap.String("canvasID", id.String()),
			zap.Int("events", len(evts)),
			zap.Error(err),
		)
	}
}

func (s *CanvasService) checkCapacity(ctx context.Context) error {
	if s.maxCanvases <= 0 {
		return nil
	}
	n, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if n >= s.maxCanvases {
		return pkgerrors.NewLimitError("too many open canvases").
			WithCode(pkgerrors.CodeGraphLimit).
			WithDetails(map[string]interface{}{"max": s.maxCanvases})
	}
	return nil
}

func (s *CanvasService) saverError(err error) error {
	if pkgerrors.IsAppError(err) {
		return err
	}
	return pkgerrors.NewExternalError("workflow-saver", err)
}

func drain(c *canvas.Canvas) []events.DomainEvent {
	evts := c.Graph().Events()
	c.Graph().ClearEvents()
	return evts
}

func summarize(c *canvas.Canvas) CanvasSummary {
	return CanvasSummary{
		ID:        c.ID(),
		Name:      c.Name(),
		NodeCount: c.Graph().NodeCount(),
		EdgeCount: c.Graph().EdgeCount(),
		Version:   c.Graph().Version(),
		Dirty:     c.Dirty(),
		OpenedAt:  c.OpenedAt(),
	}
}

func nodeSnapshot(n *entities.Node) aggregates.NodeSnapshot {
	return aggregates.NodeSnapshot{
		ID:       n.ID(),
		Kind:     n.Kind(),
		Position: n.Position(),
		Data:     aggregates.NodeData{Label: n.Label()},
	}
}

func edgeSnapshot(e *entities.Edge) aggregates.EdgeSnapshot {
	return aggregates.EdgeSnapshot{
		ID:           e.ID(),
		Source:       e.Source(),
		Target:       e.Target(),
		SourceHandle: e.SourceHandle(),
		TargetHandle: e.TargetHandle(),
	}
}
