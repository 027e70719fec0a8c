// Package interaction turns palette drags and handle-to-handle pointer
// gestures into graph mutations.
//
// The controller is a small state machine:
//
//	Idle --StartPaletteDrag--> DraggingFromPalette(kind) --Drop/Cancel--> Idle
//	Idle --PressHandle-------> ConnectingEdge(handle)    --Release/Cancel--> Idle
//
// It is not safe for concurrent use; the caller serialises events per canvas.
package interaction

import (
	"errors"
	"fmt"

	"flowcanvas/domain/core/entities"
	"flowcanvas/domain/core/valueobjects"
	"flowcanvas/domain/palette"
	"flowcanvas/domain/viewport"
)

// TransferFormat is the drag data type a host uses to carry the node kind
const TransferFormat = "application/reactflow"

var (
	// ErrUnknownDropPayload means a drop carried no recognisable node kind
	ErrUnknownDropPayload = errors.New("drop payload is not a known node kind")
	// ErrInvalidHandle means a press did not hit a handle of an existing node
	ErrInvalidHandle = errors.New("no such connection handle")
)

// State is the controller's gesture state
type State uint8

const (
	StateIdle State = iota
	StateDraggingFromPalette
	StateConnectingEdge
)

func (s State) String() string {
	switch s {
	case StateDraggingFromPalette:
		return "dragging_from_palette"
	case StateConnectingEdge:
		return "connecting_edge"
	default:
		return "idle"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StateIdle
	case "dragging_from_palette":
		*s = StateDraggingFromPalette
	case "connecting_edge":
		*s = StateConnectingEdge
	default:
		return fmt.Errorf("unknown gesture state %q", text)
	}
	return nil
}

// DropEffect is what the canvas tells the host during drag-over
type DropEffect string

// DropEffectMove is the only effect the canvas reports
const DropEffectMove DropEffect = "move"

// HandleRef points at one handle of one node
type HandleRef struct {
	Node   valueobjects.NodeID   `json:"node"`
	Handle valueobjects.HandleID `json:"handle,omitempty"`
	Type   palette.HandleType    `json:"type"`
}

// PendingEdge is the transient edge drawn from the pressed handle to the
// pointer while a connection gesture is in progress.
type PendingEdge struct {
	From    HandleRef      `json:"from"`
	Pointer viewport.Point `json:"pointer"`
}

// Store is the part of the graph store the controller mutates
type Store interface {
	AddNode(kind valueobjects.NodeKind, pos valueobjects.Position, label ...string) (*entities.Node, error)
	AddEdge(source, target valueobjects.NodeID, handles entities.Handles) (*entities.Edge, error)
	Node(id valueobjects.NodeID) (*entities.Node, bool)
}

// Projection maps container-relative screen points into canvas space
type Projection interface {
	ScreenToCanvas(p viewport.Point) viewport.Point
}

// Controller mediates palette placement and node connection gestures
type Controller struct {
	store    Store
	registry *palette.Registry
	view     Projection

	state   State
	kind    valueobjects.NodeKind
	from    HandleRef
	pointer viewport.Point
}

// NewController creates an idle controller. A nil view means identity.
func NewController(store Store, registry *palette.Registry, view Projection) *Controller {
	if view == nil {
		view = viewport.New(nil)
	}
	return &Controller{
		store:    store,
		registry: registry,
		view:     view,
	}
}

// State returns the current gesture state
func (c *Controller) State() State {
	return c.state
}

// DraggedKind returns the kind in the transfer slot during a palette drag
func (c *Controller) DraggedKind() (valueobjects.NodeKind, bool) {
	if c.state != StateDraggingFromPalette {
		return valueobjects.KindUnspecified, false
	}
	return c.kind, true
}

// StartPaletteDrag puts kind into the transfer slot. Only draggable palette
// entries can be dragged; anything else leaves the controller idle. Any
// gesture already in progress is abandoned.
func (c *Controller) StartPaletteDrag(kind valueobjects.NodeKind) error {
	c.reset()
	d, ok := c.registry.Lookup(kind)
	if !ok || !d.Draggable {
		return fmt.Errorf("%w: %s", ErrUnknownDropPayload, kind)
	}
	c.state = StateDraggingFromPalette
	c.kind = kind
	return nil
}

// DragOver reports the drop effect while something is dragged over the
// canvas. The canvas is always a drop target: the payload is only checked on
// drop.
func (c *Controller) DragOver() DropEffect {
	return DropEffectMove
}

// Drop places the dragged kind at client minus canvasOrigin, projected into
// canvas space. An empty transfer slot yields ErrUnknownDropPayload and no
// node. The gesture ends either way.
func (c *Controller) Drop(client, canvasOrigin viewport.Point) (*entities.Node, error) {
	kind, ok := c.DraggedKind()
	c.reset()
	if !ok {
		return nil, ErrUnknownDropPayload
	}

	p := c.view.ScreenToCanvas(client.Sub(canvasOrigin))
	pos, err := valueobjects.NewPosition(p.X, p.Y)
	if err != nil {
		return nil, err
	}
	return c.store.AddNode(kind, pos)
}

// PressHandle starts a connection gesture from a handle. The press is
// rejected with ErrInvalidHandle, and the controller stays idle, unless the
// node exists and its kind declares the handle.
func (c *Controller) PressHandle(ref HandleRef) error {
	c.reset()
	if !c.handleExists(ref) {
		return fmt.Errorf("%w: %s/%q", ErrInvalidHandle, ref.Node, ref.Handle)
	}
	c.state = StateConnectingEdge
	c.from = ref
	return nil
}

// MovePointer tracks the pointer in container-relative screen coordinates
func (c *Controller) MovePointer(p viewport.Point) {
	if c.state == StateIdle || !p.Finite() {
		return
	}
	c.pointer = p
}

// PendingEdge returns the in-progress connection, or nil when not connecting
func (c *Controller) PendingEdge() *PendingEdge {
	if c.state != StateConnectingEdge {
		return nil
	}
	return &PendingEdge{From: c.from, Pointer: c.pointer}
}

// Release ends a connection gesture. Releasing over nothing, over a handle
// that cannot complete the connection, or outside a connection gesture
// abandons it without error. A target whose node no longer exists is
// reported by the store as an invalid endpoint.
func (c *Controller) Release(target *HandleRef) (*entities.Edge, error) {
	if c.state != StateConnectingEdge {
		c.reset()
		return nil, nil
	}
	from := c.from
	c.reset()

	if target == nil || target.Type == from.Type {
		return nil, nil
	}
	if _, ok := c.store.Node(target.Node); ok && !c.handleExists(*target) {
		return nil, nil
	}

	source, sink := from, *target
	if from.Type == palette.HandleTarget {
		source, sink = sink, source
	}
	return c.store.AddEdge(source.Node, sink.Node, entities.Handles{Source: source.Handle, Target: sink.Handle})
}

// Cancel abandons whatever gesture is in progress. The store is not touched.
func (c *Controller) Cancel() {
	c.reset()
}

func (c *Controller) handleExists(ref HandleRef) bool {
	node, ok := c.store.Node(ref.Node)
	if !ok {
		return false
	}
	d, ok := c.registry.Lookup(node.Kind())
	if !ok {
		return false
	}
	_, ok = d.Handle(ref.Handle, ref.Type)
	return ok
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.kind = valueobjects.KindUnspecified
	c.from = HandleRef{}
	c.pointer = viewport.Point{}
}
