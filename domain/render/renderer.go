// Package render maps a graph snapshot and a viewport to a drawable frame.
// Rendering is read-only: it never touches the graph.
package render

import (
	"fmt"
	"math"

	"flowcanvas/domain/core/aggregates"
	"flowcanvas/domain/core/valueobjects"
	"flowcanvas/domain/interaction"
	"flowcanvas/domain/palette"
	"flowcanvas/domain/viewport"
)

// Default node box, in canvas units
const (
	DefaultNodeWidth  = 150
	DefaultNodeHeight = 40
)

// HandleRadius is the hit radius of a handle, in screen pixels
const HandleRadius = 8

// Descriptor is how one node kind is drawn
type Descriptor struct {
	Class   string               `json:"class"`
	Icon    string               `json:"icon,omitempty"`
	Width   float64              `json:"width"`
	Height  float64              `json:"height"`
	Handles []palette.HandleSpec `json:"handles"`
}

// FallbackDescriptor draws a kind the renderer was not given
var FallbackDescriptor = Descriptor{
	Class:  "node-default",
	Width:  DefaultNodeWidth,
	Height: DefaultNodeHeight,
	Handles: []palette.HandleSpec{
		{Type: palette.HandleTarget, Side: palette.SideTop},
		{Type: palette.HandleSource, Side: palette.SideBottom},
	},
}

// DescriptorsFrom builds the render descriptors of every kind in a registry
func DescriptorsFrom(reg *palette.Registry) map[valueobjects.NodeKind]Descriptor {
	out := make(map[valueobjects.NodeKind]Descriptor, reg.Len())
	for _, d := range reg.ListTypes() {
		out[d.Kind] = Descriptor{
			Class:   d.Class,
			Icon:    d.Icon,
			Width:   DefaultNodeWidth,
			Height:  DefaultNodeHeight,
			Handles: d.Handles,
		}
	}
	return out
}

// Renderer draws snapshots with a fixed set of per-kind descriptors
type Renderer struct {
	descriptors map[valueobjects.NodeKind]Descriptor
}

// NewRenderer creates a renderer for the given kinds. The map is copied.
func NewRenderer(descriptors map[valueobjects.NodeKind]Descriptor) (*Renderer, error) {
	r := &Renderer{descriptors: make(map[valueobjects.NodeKind]Descriptor, len(descriptors))}
	for kind, d := range descriptors {
		if !kind.Valid() {
			return nil, fmt.Errorf("render descriptor for unknown kind %d", kind)
		}
		if d.Width <= 0 || d.Height <= 0 {
			return nil, fmt.Errorf("render descriptor for %s needs a positive size", kind)
		}
		d.Handles = append([]palette.HandleSpec(nil), d.Handles...)
		r.descriptors[kind] = d
	}
	return r, nil
}

// Descriptor returns how kind is drawn
func (r *Renderer) Descriptor(kind valueobjects.NodeKind) Descriptor {
	if d, ok := r.descriptors[kind]; ok {
		return d
	}
	return FallbackDescriptor
}

// Frame is one painted state of a canvas in screen space
type Frame struct {
	Transform viewport.Transform `json:"transform"`
	Viewport  viewport.Rect      `json:"viewport"`
	Nodes     []NodeSprite       `json:"nodes"`
	Edges     []EdgePath         `json:"edges"`
	Pending   *PendingPath       `json:"pending,omitempty"`
}

// NodeSprite is a drawn node
type NodeSprite struct {
	ID       valueobjects.NodeID   `json:"id"`
	Kind     valueobjects.NodeKind `json:"type"`
	Label    string                `json:"label"`
	Class    string                `json:"class"`
	Icon     string                `json:"icon,omitempty"`
	Position valueobjects.Position `json:"position"`
	Box      viewport.Rect         `json:"box"`
	Visible  bool                  `json:"visible"`
	Handles  []HandleAnchor        `json:"handles"`
}

// HandleAnchor is a drawn connection handle
type HandleAnchor struct {
	ID     valueobjects.HandleID `json:"id,omitempty"`
	Type   palette.HandleType    `json:"type"`
	Side   palette.Side          `json:"side"`
	Screen viewport.Point        `json:"screen"`
}

// EdgePath is a drawn edge as a cubic bezier in screen space
type EdgePath struct {
	ID     valueobjects.EdgeID `json:"id"`
	Source valueobjects.NodeID `json:"source"`
	Target valueobjects.NodeID `json:"target"`
	From   viewport.Point      `json:"from"`
	To     viewport.Point      `json:"to"`
	Path   string              `json:"path"`
}

// PendingPath is the in-progress connection drawn to the pointer
type PendingPath struct {
	From viewport.Point `json:"from"`
	To   viewport.Point `json:"to"`
	Path string         `json:"path"`
}

type anchorKey struct {
	node   valueobjects.NodeID
	handle valueobjects.HandleID
	typ    palette.HandleType
}

// anchorIndex finds drawn handles by node, handle ID and type
type anchorIndex struct {
	exact map[anchorKey]HandleAnchor
	first map[anchorKey]HandleAnchor
}

func (ix anchorIndex) add(node valueobjects.NodeID, h HandleAnchor) {
	ix.exact[anchorKey{node, h.ID, h.Type}] = h
	k := anchorKey{node: node, typ: h.Type}
	if _, ok := ix.first[k]; !ok {
		ix.first[k] = h
	}
}

// lookup falls back to the first handle of the right type on the node
func (ix anchorIndex) lookup(node valueobjects.NodeID, handle valueobjects.HandleID, typ palette.HandleType) (HandleAnchor, bool) {
	if a, ok := ix.exact[anchorKey{node, handle, typ}]; ok {
		return a, true
	}
	a, ok := ix.first[anchorKey{node: node, typ: typ}]
	return a, ok
}

// Render paints snapshot through view. pending may be nil.
func (r *Renderer) Render(snap aggregates.Snapshot, view *viewport.Viewport, pending *interaction.PendingEdge) Frame {
	frame := Frame{
		Transform: view.Transform(),
		Viewport:  view.VisibleRect(),
		Nodes:     make([]NodeSprite, 0, len(snap.Nodes)),
		Edges:     make([]EdgePath, 0, len(snap.Edges)),
	}
	screen := viewport.Rect{Width: view.Size().Width, Height: view.Size().Height}
	anchors := anchorIndex{exact: map[anchorKey]HandleAnchor{}, first: map[anchorKey]HandleAnchor{}}

	for _, n := range snap.Nodes {
		d := r.Descriptor(n.Kind)
		box := view.CanvasRectToScreen(r.canvasBox(n))
		sprite := NodeSprite{
			ID:       n.ID,
			Kind:     n.Kind,
			Label:    n.Data.Label,
			Class:    d.Class,
			Icon:     d.Icon,
			Position: n.Position,
			Box:      box,
			Visible:  screen.Empty() || box.Intersects(screen),
			Handles:  layoutHandles(d.Handles, box),
		}
		for _, h := range sprite.Handles {
			anchors.add(n.ID, h)
		}
		frame.Nodes = append(frame.Nodes, sprite)
	}

	for _, e := range snap.Edges {
		from, _ := anchors.lookup(e.Source, e.SourceHandle, palette.HandleSource)
		to, _ := anchors.lookup(e.Target, e.TargetHandle, palette.HandleTarget)
		frame.Edges = append(frame.Edges, EdgePath{
			ID:     e.ID,
			Source: e.Source,
			Target: e.Target,
			From:   from.Screen,
			To:     to.Screen,
			Path:   bezier(from.Screen, from.Side, to.Screen, to.Side),
		})
	}

	if pending != nil {
		if from, ok := anchors.lookup(pending.From.Node, pending.From.Handle, pending.From.Type); ok {
			frame.Pending = &PendingPath{
				From: from.Screen,
				To:   pending.Pointer,
				Path: bezier(from.Screen, from.Side, pending.Pointer, opposite(from.Side)),
			}
		}
	}

	return frame
}

// Bounds is the canvas-space rectangle around every node box
func (r *Renderer) Bounds(snap aggregates.Snapshot) viewport.Rect {
	boxes := make([]viewport.Rect, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		boxes = append(boxes, r.canvasBox(n))
	}
	return viewport.BoundsOf(boxes...)
}

// HandleAt finds the handle within HandleRadius of a screen point
func (f Frame) HandleAt(p viewport.Point) (*interaction.HandleRef, bool) {
	best := math.Inf(1)
	var hit *interaction.HandleRef
	for _, n := range f.Nodes {
		for _, h := range n.Handles {
			d := math.Hypot(h.Screen.X-p.X, h.Screen.Y-p.Y)
			if d <= HandleRadius && d < best {
				best = d
				hit = &interaction.HandleRef{Node: n.ID, Handle: h.ID, Type: h.Type}
			}
		}
	}
	return hit, hit != nil
}

func (r *Renderer) canvasBox(n aggregates.NodeSnapshot) viewport.Rect {
	d := r.Descriptor(n.Kind)
	return viewport.Rect{X: n.Position.X(), Y: n.Position.Y(), Width: d.Width, Height: d.Height}
}

// layoutHandles spreads the handles of each side evenly along it
func layoutHandles(specs []palette.HandleSpec, box viewport.Rect) []HandleAnchor {
	perSide := make(map[palette.Side]int)
	for _, h := range specs {
		perSide[h.Side]++
	}
	seen := make(map[palette.Side]int)

	out := make([]HandleAnchor, 0, len(specs))
	for _, h := range specs {
		seen[h.Side]++
		frac := float64(seen[h.Side]) / float64(perSide[h.Side]+1)
		var p viewport.Point
		switch h.Side {
		case palette.SideTop:
			p = viewport.Point{X: box.X + box.Width*frac, Y: box.Y}
		case palette.SideBottom:
			p = viewport.Point{X: box.X + box.Width*frac, Y: box.Y + box.Height}
		case palette.SideLeft:
			p = viewport.Point{X: box.X, Y: box.Y + box.Height*frac}
		case palette.SideRight:
			p = viewport.Point{X: box.X + box.Width, Y: box.Y + box.Height*frac}
		}
		out = append(out, HandleAnchor{ID: h.ID, Type: h.Type, Side: h.Side, Screen: p})
	}
	return out
}

func bezier(from viewport.Point, fromSide palette.Side, to viewport.Point, toSide palette.Side) string {
	dist := math.Max(math.Hypot(to.X-from.X, to.Y-from.Y)/2, 25)
	c1 := control(from, fromSide, dist)
	c2 := control(to, toSide, dist)
	return fmt.Sprintf("M%.2f,%.2f C%.2f,%.2f %.2f,%.2f %.2f,%.2f",
		from.X, from.Y, c1.X, c1.Y, c2.X, c2.Y, to.X, to.Y)
}

func control(p viewport.Point, side palette.Side, d float64) viewport.Point {
	switch side {
	case palette.SideTop:
		return viewport.Point{X: p.X, Y: p.Y - d}
	case palette.SideLeft:
		return viewport.Point{X: p.X - d, Y: p.Y}
	case palette.SideRight:
		return viewport.Point{X: p.X + d, Y: p.Y}
	default:
		return viewport.Point{X: p.X, Y: p.Y + d}
	}
}

func opposite(side palette.Side) palette.Side {
	switch side {
	case palette.SideTop:
		return palette.SideBottom
	case palette.SideBottom:
		return palette.SideTop
	case palette.SideLeft:
		return palette.SideRight
	default:
		return palette.SideLeft
	}
}
