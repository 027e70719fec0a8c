package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcanvas/domain/config"
	"flowcanvas/domain/core/aggregates"
	"flowcanvas/domain/core/entities"
	"flowcanvas/domain/core/valueobjects"
	"flowcanvas/domain/events"
	"flowcanvas/domain/render"
	"flowcanvas/domain/viewport"
)

func TestCanvas_DirtyTracking(t *testing.T) {
	c, err := New("flow", nil, config.DefaultDomainConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Graph().NodeCount())
	assert.True(t, c.Dirty())

	c.Graph().ClearEvents()
	c.MarkSaved(c.Graph().Version(), "save-1", c.Graph().Snapshot())
	assert.False(t, c.Dirty())
	evts := c.Graph().Events()
	require.Len(t, evts, 1)
	assert.Equal(t, events.TypeWorkflowSaved, evts[0].GetEventType())

	_, err = c.Graph().AddNode(valueobjects.KindTask, valueobjects.MustPosition(10, 10))
	require.NoError(t, err)
	assert.True(t, c.Dirty())
}

func TestCanvas_Restore(t *testing.T) {
	src, err := New("flow", nil, config.DefaultDomainConfig())
	require.NoError(t, err)
	task, err := src.Graph().AddNode(valueobjects.KindTask, valueobjects.MustPosition(0, 200))
	require.NoError(t, err)
	start := src.Graph().Snapshot().Nodes[0]
	_, err = src.Graph().AddEdge(start.ID, task.ID(), entities.Handles{})
	require.NoError(t, err)

	restored, err := Restore("c1", "flow", src.Graph().Snapshot(), nil, config.DefaultDomainConfig())
	require.NoError(t, err)
	assert.Equal(t, aggregates.CanvasID("c1"), restored.ID())
	assert.False(t, restored.Dirty())
	assert.Empty(t, restored.Graph().Events())
	assert.Equal(t, src.Graph().Snapshot(), restored.Graph().Snapshot())
}

func TestCanvas_RenderAndFit(t *testing.T) {
	c, err := New("flow", nil, config.DefaultDomainConfig())
	require.NoError(t, err)

	view := c.Render(viewport.Size{})
	assert.Len(t, view.Frame.Nodes, 1)
	assert.Equal(t, render.DefaultMinimapSize, view.Minimap.Size)
	assert.Len(t, view.Minimap.Nodes, 1)

	size := viewport.Size{Width: 800, Height: 600}
	require.NoError(t, c.FitView(size))
	assert.Equal(t, size, c.Viewport().Size())
	assert.GreaterOrEqual(t, c.Viewport().Zoom(), 0.1)
	assert.LessOrEqual(t, c.Viewport().Zoom(), 4.0)
}
