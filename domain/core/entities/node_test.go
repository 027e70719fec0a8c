package entities

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcanvas/domain/core/valueobjects"
	pkgerrors "flowcanvas/pkg/errors"
)

func TestNewNode(t *testing.T) {
	tests := []struct {
		name      string
		kind      valueobjects.NodeKind
		label     string
		wantLabel string
		wantErr   bool
	}{
		{name: "explicit label", kind: valueobjects.KindTask, label: "Review PR", wantLabel: "Review PR"},
		{name: "default label", kind: valueobjects.KindApproval, wantLabel: "Approval"},
		{name: "blank label trimmed to default", kind: valueobjects.KindCondition, label: "   ", wantLabel: "Condition"},
		{name: "unspecified kind", kind: valueobjects.KindUnspecified, wantErr: true},
		{name: "label too long", kind: valueobjects.KindTask, label: strings.Repeat("a", MaxLabelLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := NewNode(tt.kind, valueobjects.MustPosition(10, 20), tt.label)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.False(t, node.ID().IsZero())
			assert.Equal(t, tt.kind, node.Kind())
			assert.Equal(t, tt.wantLabel, node.Label())
			assert.Equal(t, 1, node.Version())
		})
	}
}

func TestNode_MoveTo(t *testing.T) {
	node, err := NewNode(valueobjects.KindTask, valueobjects.Origin, "")
	require.NoError(t, err)

	assert.False(t, node.MoveTo(valueobjects.Origin))
	assert.Equal(t, 1, node.Version())

	assert.True(t, node.MoveTo(valueobjects.MustPosition(5, 7)))
	assert.Equal(t, 5.0, node.Position().X())
	assert.Equal(t, 7.0, node.Position().Y())
	assert.Equal(t, 2, node.Version())
}

func TestNode_Relabel(t *testing.T) {
	node, err := NewNode(valueobjects.KindNotification, valueobjects.Origin, "Email")
	require.NoError(t, err)

	require.NoError(t, node.Relabel("Slack"))
	assert.Equal(t, "Slack", node.Label())

	require.NoError(t, node.Relabel(""))
	assert.Equal(t, "Notification", node.Label())

	assert.Error(t, node.Relabel(strings.Repeat("x", MaxLabelLength+1)))
	assert.Equal(t, "Notification", node.Label())
}

func TestNode_CloneIsIndependent(t *testing.T) {
	node, err := NewNode(valueobjects.KindTask, valueobjects.Origin, "")
	require.NoError(t, err)

	clone := node.Clone()
	clone.MoveTo(valueobjects.MustPosition(100, 100))

	assert.True(t, node.Position().Equals(valueobjects.Origin))
	assert.True(t, node.ID().Equals(clone.ID()))
}
