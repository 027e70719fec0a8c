package render

import (
	"math"

	"flowcanvas/domain/core/aggregates"
	"flowcanvas/domain/core/valueobjects"
	"flowcanvas/domain/viewport"
)

// DefaultMinimapSize is the minimap box of the stock controls overlay
var DefaultMinimapSize = viewport.Size{Width: 200, Height: 150}

// Minimap is a scaled overview of the whole canvas
type Minimap struct {
	Size     viewport.Size `json:"size"`
	Scale    float64       `json:"scale"`
	Nodes    []MinimapNode `json:"nodes"`
	ViewRect viewport.Rect `json:"viewRect"`
}

// MinimapNode is one node rectangle inside the minimap
type MinimapNode struct {
	ID    valueobjects.NodeID `json:"id"`
	Class string              `json:"class"`
	Rect  viewport.Rect       `json:"rect"`
}

// Minimap fits every node box and the visible area into size
func (r *Renderer) Minimap(snap aggregates.Snapshot, view *viewport.Viewport, size viewport.Size) Minimap {
	if size.Empty() {
		size = DefaultMinimapSize
	}
	m := Minimap{Size: size, Nodes: make([]MinimapNode, 0, len(snap.Nodes))}

	visible := view.VisibleRect()
	world := r.Bounds(snap)
	switch {
	case world.Empty() && visible.Empty():
		m.Scale = 1
		return m
	case world.Empty():
		world = visible
	case !visible.Empty():
		world = viewport.BoundsOf(world, visible)
	}

	m.Scale = math.Min(size.Width/world.Width, size.Height/world.Height)
	// Center the world inside the minimap box.
	offX := (size.Width - world.Width*m.Scale) / 2
	offY := (size.Height - world.Height*m.Scale) / 2
	project := func(rc viewport.Rect) viewport.Rect {
		return viewport.Rect{
			X:      (rc.X-world.X)*m.Scale + offX,
			Y:      (rc.Y-world.Y)*m.Scale + offY,
			Width:  rc.Width * m.Scale,
			Height: rc.Height * m.Scale,
		}
	}

	for _, n := range snap.Nodes {
		m.Nodes = append(m.Nodes, MinimapNode{
			ID:    n.ID,
			Class: r.Descriptor(n.Kind).Class,
			Rect:  project(r.canvasBox(n)),
		})
	}
	if !visible.Empty() {
		m.ViewRect = project(visible)
	}
	return m
}
