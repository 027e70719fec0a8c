// Package canvas ties one builder session together: the graph store, the
// palette it was opened with, the viewport, the interaction controller and
// the renderer.
package canvas

import (
	"sync"
	"time"

	"flowcanvas/domain/config"
	"flowcanvas/domain/core/aggregates"
	"flowcanvas/domain/interaction"
	"flowcanvas/domain/palette"
	"flowcanvas/domain/render"
	"flowcanvas/domain/viewport"
)

// Canvas is one independent workflow builder. Its parts are not safe for
// concurrent use; callers hold Lock while handling an event.
type Canvas struct {
	mu sync.Mutex

	graph      *aggregates.Graph
	registry   *palette.Registry
	view       *viewport.Viewport
	controller *interaction.Controller
	renderer   *render.Renderer

	openedAt     time.Time
	savedVersion int
}

// View is a rendered frame together with its minimap
type View struct {
	Frame   render.Frame   `json:"frame"`
	Minimap render.Minimap `json:"minimap"`
}

// New opens a canvas on a fresh graph
func New(name string, registry *palette.Registry, rules *config.DomainConfig, opts ...aggregates.GraphOption) (*Canvas, error) {
	g, err := aggregates.NewGraph(name, rules, opts...)
	if err != nil {
		return nil, err
	}
	return assemble(g, registry, rules)
}

// Restore opens a canvas on a graph rebuilt from a saved snapshot. The
// restored graph starts clean.
func Restore(id aggregates.CanvasID, name string, snap aggregates.Snapshot, registry *palette.Registry, rules *config.DomainConfig) (*Canvas, error) {
	g, err := aggregates.RestoreGraph(id, name, snap, rules)
	if err != nil {
		return nil, err
	}
	c, err := assemble(g, registry, rules)
	if err != nil {
		return nil, err
	}
	c.savedVersion = g.Version()
	return c, nil
}

func assemble(g *aggregates.Graph, registry *palette.Registry, rules *config.DomainConfig) (*Canvas, error) {
	if registry == nil {
		registry = palette.DefaultRegistry()
	}
	renderer, err := render.NewRenderer(render.DescriptorsFrom(registry))
	if err != nil {
		return nil, err
	}
	view := viewport.New(rules)
	return &Canvas{
		graph:      g,
		registry:   registry,
		view:       view,
		controller: interaction.NewController(g, registry, view),
		renderer:   renderer,
		openedAt:   time.Now(),
	}, nil
}

// Lock serialises events for this canvas
func (c *Canvas) Lock() { c.mu.Lock() }

// Unlock releases the event lock
func (c *Canvas) Unlock() { c.mu.Unlock() }

func (c *Canvas) ID() aggregates.CanvasID             { return c.graph.ID() }
func (c *Canvas) Name() string                        { return c.graph.Name() }
func (c *Canvas) Graph() *aggregates.Graph            { return c.graph }
func (c *Canvas) Registry() *palette.Registry         { return c.registry }
func (c *Canvas) Viewport() *viewport.Viewport        { return c.view }
func (c *Canvas) Controller() *interaction.Controller { return c.controller }
func (c *Canvas) Renderer() *render.Renderer          { return c.renderer }
func (c *Canvas) OpenedAt() time.Time                 { return c.openedAt }
func (c *Canvas) SavedVersion() int                   { return c.savedVersion }

// MarkSaved records the graph version that was last persisted together with
// the snapshot taken at that version
func (c *Canvas) MarkSaved(version int, saveID string, snap aggregates.Snapshot) {
	c.savedVersion = version
	c.graph.RecordSaved(version, saveID, snap)
}

// Dirty reports whether the graph changed since the last save
func (c *Canvas) Dirty() bool {
	return c.graph.Version() != c.savedVersion
}

// Render paints the current graph, pending edge included
func (c *Canvas) Render(minimap viewport.Size) View {
	snap := c.graph.Snapshot()
	return View{
		Frame:   c.renderer.Render(snap, c.view, c.controller.PendingEdge()),
		Minimap: c.renderer.Minimap(snap, c.view, minimap),
	}
}

// FitView fits every node into a host of the given size
func (c *Canvas) FitView(size viewport.Size) error {
	return c.view.Fit(c.renderer.Bounds(c.graph.Snapshot()), size)
}
