package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcanvas/domain/core/valueobjects"
)

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()

	var all []string
	for _, d := range reg.ListTypes() {
		all = append(all, d.Label)
	}
	assert.Equal(t, []string{"Start", "Task", "Approval", "Notification", "Condition"}, all)

	var draggable []valueobjects.NodeKind
	for _, d := range reg.Palette() {
		draggable = append(draggable, d.Kind)
	}
	assert.Equal(t, []valueobjects.NodeKind{
		valueobjects.KindTask,
		valueobjects.KindApproval,
		valueobjects.KindNotification,
		valueobjects.KindCondition,
	}, draggable)

	// Restartable: listing twice yields the same sequence.
	assert.Equal(t, reg.ListTypes(), reg.ListTypes())
}

func TestRegistry_ListTypesIsACopy(t *testing.T) {
	reg := DefaultRegistry()
	list := reg.ListTypes()
	list[0].Label = "changed"
	list[0].Handles[0].ID = "changed"

	d, ok := reg.Lookup(valueobjects.KindInput)
	require.True(t, ok)
	assert.Equal(t, "Start", d.Label)
	assert.Equal(t, valueobjects.HandleID(""), d.Handles[0].ID)
}

func TestRegistry_Parse(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		payload string
		want    valueobjects.NodeKind
		ok      bool
	}{
		{payload: "Task", want: valueobjects.KindTask, ok: true},
		{payload: "task", want: valueobjects.KindTask, ok: true},
		{payload: " CONDITION ", want: valueobjects.KindCondition, ok: true},
		{payload: "Start", want: valueobjects.KindInput, ok: true},
		{payload: ""},
		{payload: "webhook"},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			kind, ok := reg.Parse(tt.payload)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, kind)
		})
	}

	narrow := MustRegistry(Descriptor{Kind: valueobjects.KindTask, Draggable: true})
	_, ok := narrow.Parse("approval")
	assert.False(t, ok)
}

func TestNewRegistry_Defaults(t *testing.T) {
	reg, err := NewRegistry(Descriptor{Kind: valueobjects.KindApproval})
	require.NoError(t, err)

	d, ok := reg.Lookup(valueobjects.KindApproval)
	require.True(t, ok)
	assert.Equal(t, "Approval", d.Label)
	assert.Equal(t, "node-approval", d.Class)
	assert.Len(t, d.Handles, 2)

	_, ok = d.Handle("", HandleTarget)
	assert.True(t, ok)
	_, ok = d.Handle("", HandleSource)
	assert.True(t, ok)
	_, ok = d.Handle("yes", HandleSource)
	assert.False(t, ok)

	_, ok = reg.Lookup(valueobjects.KindTask)
	assert.False(t, ok)
}

func TestNewRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		descriptors []Descriptor
	}{
		{name: "empty"},
		{name: "unspecified kind", descriptors: []Descriptor{{Label: "X"}}},
		{
			name: "duplicate kind",
			descriptors: []Descriptor{
				{Kind: valueobjects.KindTask},
				{Kind: valueobjects.KindTask, Label: "Other"},
			},
		},
		{
			name: "bad handle type",
			descriptors: []Descriptor{
				{Kind: valueobjects.KindTask, Handles: []HandleSpec{{Type: "both", Side: SideTop}}},
			},
		},
		{
			name: "bad handle side",
			descriptors: []Descriptor{
				{Kind: valueobjects.KindTask, Handles: []HandleSpec{{Type: HandleSource, Side: "middle"}}},
			},
		},
		{
			name: "duplicate handle",
			descriptors: []Descriptor{
				{Kind: valueobjects.KindTask, Handles: []HandleSpec{
					{ID: "a", Type: HandleSource, Side: SideTop},
					{ID: "a", Type: HandleSource, Side: SideBottom},
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.descriptors...)
			assert.Error(t, err)
		})
	}
}
