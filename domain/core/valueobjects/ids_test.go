package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewNodeID()
		require.False(t, id.IsZero())
		require.False(t, seen[id.String()], "duplicate id %s", id)
		seen[id.String()] = true
	}
}

func TestNewNodeIDFromString(t *testing.T) {
	id, err := NewNodeIDFromString("n1")
	require.NoError(t, err)
	assert.Equal(t, "n1", id.String())

	_, err = NewNodeIDFromString("  ")
	assert.Error(t, err)
}

func TestNodeID_JSON(t *testing.T) {
	id, _ := NewNodeIDFromString("abc")
	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, string(data))

	var decoded NodeID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equals(id))

	assert.Error(t, json.Unmarshal([]byte(`42`), &decoded))
}

func TestNewEdgeID_Deterministic(t *testing.T) {
	a, _ := NewNodeIDFromString("a")
	b, _ := NewNodeIDFromString("b")

	assert.Equal(t, EdgeID("xy-edge__a-b"), NewEdgeID(a, "", b, ""))
	assert.Equal(t, NewEdgeID(a, "out", b, "in"), NewEdgeID(a, "out", b, "in"))
	assert.NotEqual(t, NewEdgeID(a, "", b, ""), NewEdgeID(b, "", a, ""))
	assert.True(t, HandleID("").IsDefault())
}
