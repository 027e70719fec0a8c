package valueobjects

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPosition(t *testing.T) {
	tests := []struct {
		name    string
		x, y    float64
		wantErr bool
	}{
		{name: "origin", x: 0, y: 0},
		{name: "positive", x: 250, y: 100},
		{name: "negative", x: -40.5, y: -12.25},
		{name: "NaN x", x: math.NaN(), y: 0, wantErr: true},
		{name: "NaN y", x: 0, y: math.NaN(), wantErr: true},
		{name: "infinite x", x: math.Inf(1), y: 0, wantErr: true},
		{name: "negative infinite y", x: 0, y: math.Inf(-1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := NewPosition(tt.x, tt.y)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid coordinates")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.x, pos.X())
			assert.Equal(t, tt.y, pos.Y())
		})
	}
}

func TestPosition_Arithmetic(t *testing.T) {
	p := MustPosition(300, 150)
	origin := MustPosition(50, 50)

	local := p.Sub(origin)
	assert.True(t, local.Equals(MustPosition(250, 100)))

	moved, err := local.Translate(10, -20)
	require.NoError(t, err)
	assert.True(t, moved.Equals(MustPosition(260, 80)))

	assert.InDelta(t, 5.0, MustPosition(0, 0).DistanceTo(MustPosition(3, 4)), 1e-9)

	_, err = local.Translate(math.Inf(1), 0)
	assert.Error(t, err)
}

func TestPosition_JSON(t *testing.T) {
	data, err := json.Marshal(MustPosition(1.5, -2))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1.5,"y":-2}`, string(data))

	var pos Position
	require.NoError(t, json.Unmarshal([]byte(`{"x":10,"y":20}`), &pos))
	assert.True(t, pos.Equals(MustPosition(10, 20)))
}
