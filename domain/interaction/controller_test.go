package interaction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcanvas/domain/core/aggregates"
	"flowcanvas/domain/core/valueobjects"
	"flowcanvas/domain/palette"
	"flowcanvas/domain/viewport"
)

func newFixture(t *testing.T) (*Controller, *aggregates.Graph, *viewport.Viewport) {
	t.Helper()
	g, err := aggregates.NewGraph("test", nil, aggregates.WithoutStartNode())
	require.NoError(t, err)
	v := viewport.New(nil)
	return NewController(g, palette.DefaultRegistry(), v), g, v
}

func place(t *testing.T, c *Controller, kind valueobjects.NodeKind, x, y float64) valueobjects.NodeID {
	t.Helper()
	require.NoError(t, c.StartPaletteDrag(kind))
	n, err := c.Drop(viewport.Point{X: x, Y: y}, viewport.Point{})
	require.NoError(t, err)
	return n.ID()
}

// A palette drop lands at the container-relative point, projected to canvas space.
func TestController_DropComputesCanvasPosition(t *testing.T) {
	c, g, _ := newFixture(t)

	require.NoError(t, c.StartPaletteDrag(valueobjects.KindTask))
	assert.Equal(t, StateDraggingFromPalette, c.State())
	assert.Equal(t, DropEffectMove, c.DragOver())

	node, err := c.Drop(viewport.Point{X: 300, Y: 150}, viewport.Point{X: 50, Y: 50})
	require.NoError(t, err)

	assert.Equal(t, valueobjects.KindTask, node.Kind())
	assert.Equal(t, 250.0, node.Position().X())
	assert.Equal(t, 100.0, node.Position().Y())
	assert.Equal(t, "Task", node.Label())
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 1, g.NodeCount())
}

func TestController_DropProjectsThroughViewport(t *testing.T) {
	c, _, v := newFixture(t)
	require.NoError(t, v.SetTransform(viewport.Transform{X: 100, Y: 50, Zoom: 2}))

	require.NoError(t, c.StartPaletteDrag(valueobjects.KindApproval))
	node, err := c.Drop(viewport.Point{X: 350, Y: 200}, viewport.Point{X: 50, Y: 50})
	require.NoError(t, err)

	// (300,150) on screen is ((300-100)/2, (150-50)/2) on the canvas.
	assert.Equal(t, 100.0, node.Position().X())
	assert.Equal(t, 50.0, node.Position().Y())
}

// Two drops of the same kind at the same point create distinct nodes.
func TestController_RepeatedDropsAreIndependent(t *testing.T) {
	c, g, _ := newFixture(t)

	first := place(t, c, valueobjects.KindTask, 10, 10)
	second := place(t, c, valueobjects.KindTask, 10, 10)
	assert.NotEqual(t, first, second)

	require.NoError(t, g.UpdateNodePosition(first, valueobjects.MustPosition(500, 500)))
	n2, _ := g.Node(second)
	assert.True(t, n2.Position().Equals(valueobjects.MustPosition(10, 10)))
}

func TestController_DropWithoutPayloadIsIgnored(t *testing.T) {
	c, g, _ := newFixture(t)

	assert.Equal(t, DropEffectMove, c.DragOver())
	node, err := c.Drop(viewport.Point{X: 1, Y: 1}, viewport.Point{})
	assert.ErrorIs(t, err, ErrUnknownDropPayload)
	assert.Nil(t, node)
	assert.Equal(t, 0, g.NodeCount())
}

func TestController_StartPaletteDrag_Rejected(t *testing.T) {
	tests := []struct {
		name string
		kind valueobjects.NodeKind
	}{
		{name: "unspecified", kind: valueobjects.KindUnspecified},
		{name: "registered but not draggable", kind: valueobjects.KindInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, g, _ := newFixture(t)
			err := c.StartPaletteDrag(tt.kind)
			assert.ErrorIs(t, err, ErrUnknownDropPayload)
			assert.Equal(t, StateIdle, c.State())

			_, err = c.Drop(viewport.Point{}, viewport.Point{})
			assert.ErrorIs(t, err, ErrUnknownDropPayload)
			assert.Equal(t, 0, g.NodeCount())
		})
	}
}

func TestController_CancelLeavesStoreUnmodified(t *testing.T) {
	c, g, _ := newFixture(t)
	a := place(t, c, valueobjects.KindTask, 0, 0)
	before := g.Snapshot()

	require.NoError(t, c.StartPaletteDrag(valueobjects.KindCondition))
	c.MovePointer(viewport.Point{X: 40, Y: 40})
	c.Cancel()
	assert.Equal(t, StateIdle, c.State())
	_, err := c.Drop(viewport.Point{X: 40, Y: 40}, viewport.Point{})
	assert.ErrorIs(t, err, ErrUnknownDropPayload)

	require.NoError(t, c.PressHandle(HandleRef{Node: a, Type: palette.HandleSource}))
	c.Cancel()
	assert.Nil(t, c.PendingEdge())

	assert.Equal(t, before, g.Snapshot())
}

func TestController_ConnectNodes(t *testing.T) {
	c, g, _ := newFixture(t)
	a := place(t, c, valueobjects.KindTask, 0, 0)
	b := place(t, c, valueobjects.KindApproval, 0, 200)

	require.NoError(t, c.PressHandle(HandleRef{Node: a, Type: palette.HandleSource}))
	assert.Equal(t, StateConnectingEdge, c.State())

	c.MovePointer(viewport.Point{X: 75, Y: 120})
	pending := c.PendingEdge()
	require.NotNil(t, pending)
	assert.Equal(t, a, pending.From.Node)
	assert.Equal(t, viewport.Point{X: 75, Y: 120}, pending.Pointer)

	edge, err := c.Release(&HandleRef{Node: b, Type: palette.HandleTarget})
	require.NoError(t, err)
	require.NotNil(t, edge)
	assert.Equal(t, a, edge.Source())
	assert.Equal(t, b, edge.Target())
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 1, g.EdgeCount())
}

func TestController_ConnectFromTargetHandle(t *testing.T) {
	c, g, _ := newFixture(t)
	cond := place(t, c, valueobjects.KindCondition, 0, 0)
	task := place(t, c, valueobjects.KindTask, 0, 200)

	require.NoError(t, c.PressHandle(HandleRef{Node: task, Type: palette.HandleTarget}))
	edge, err := c.Release(&HandleRef{Node: cond, Handle: "no", Type: palette.HandleSource})
	require.NoError(t, err)

	assert.Equal(t, cond, edge.Source())
	assert.Equal(t, task, edge.Target())
	assert.Equal(t, valueobjects.HandleID("no"), edge.SourceHandle())
	require.NoError(t, g.Validate())
}

func TestController_ReleaseAbandons(t *testing.T) {
	c, g, _ := newFixture(t)
	a := place(t, c, valueobjects.KindTask, 0, 0)
	b := place(t, c, valueobjects.KindTask, 0, 100)

	tests := []struct {
		name   string
		target *HandleRef
	}{
		{name: "empty canvas", target: nil},
		{name: "same handle type", target: &HandleRef{Node: b, Type: palette.HandleSource}},
		{name: "handle the kind does not declare", target: &HandleRef{Node: b, Handle: "side", Type: palette.HandleTarget}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, c.PressHandle(HandleRef{Node: a, Type: palette.HandleSource}))
			edge, err := c.Release(tt.target)
			assert.NoError(t, err)
			assert.Nil(t, edge)
			assert.Equal(t, StateIdle, c.State())
			assert.Equal(t, 0, g.EdgeCount())
		})
	}

	edge, err := c.Release(&HandleRef{Node: b, Type: palette.HandleTarget})
	assert.NoError(t, err)
	assert.Nil(t, edge)
}

func TestController_ReleaseOnRemovedNode(t *testing.T) {
	c, g, _ := newFixture(t)
	a := place(t, c, valueobjects.KindTask, 0, 0)
	b := place(t, c, valueobjects.KindTask, 0, 100)

	require.NoError(t, c.PressHandle(HandleRef{Node: a, Type: palette.HandleSource}))
	_, err := g.RemoveNode(b)
	require.NoError(t, err)

	edge, err := c.Release(&HandleRef{Node: b, Type: palette.HandleTarget})
	assert.ErrorIs(t, err, aggregates.ErrInvalidEndpoint)
	assert.Nil(t, edge)
	assert.Equal(t, 0, g.EdgeCount())
}

func TestController_PressHandle_Invalid(t *testing.T) {
	c, _, _ := newFixture(t)
	start := place(t, c, valueobjects.KindTask, 0, 0)

	tests := []struct {
		name string
		ref  HandleRef
	}{
		{name: "missing node", ref: HandleRef{Node: valueobjects.NewNodeID(), Type: palette.HandleSource}},
		{name: "unknown handle", ref: HandleRef{Node: start, Handle: "yes", Type: palette.HandleSource}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.PressHandle(tt.ref)
			assert.ErrorIs(t, err, ErrInvalidHandle)
			assert.Equal(t, StateIdle, c.State())
		})
	}
}

func TestController_NewGestureAbandonsPrevious(t *testing.T) {
	c, _, _ := newFixture(t)
	a := place(t, c, valueobjects.KindTask, 0, 0)

	require.NoError(t, c.PressHandle(HandleRef{Node: a, Type: palette.HandleSource}))
	require.NoError(t, c.StartPaletteDrag(valueobjects.KindTask))
	assert.Nil(t, c.PendingEdge())
	kind, ok := c.DraggedKind()
	assert.True(t, ok)
	assert.Equal(t, valueobjects.KindTask, kind)
}

func TestState_TextRoundTrip(t *testing.T) {
	for _, st := range []State{StateIdle, StateDraggingFromPalette, StateConnectingEdge} {
		t.Run(st.String(), func(t *testing.T) {
			raw, err := json.Marshal(st)
			require.NoError(t, err)

			var got State
			require.NoError(t, json.Unmarshal(raw, &got))
			assert.Equal(t, st, got)
		})
	}

	var bad State
	assert.Error(t, json.Unmarshal([]byte(`"hovering"`), &bad))
}

func TestController_DragOverWithoutDragStart(t *testing.T) {
	c, _, _ := newFixture(t)

	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, DropEffectMove, c.DragOver())
	assert.Equal(t, StateIdle, c.State())
}
