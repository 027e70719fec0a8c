package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNodeKind(t *testing.T) {
	tests := []struct {
		in      string
		want    NodeKind
		wantErr bool
	}{
		{in: "task", want: KindTask},
		{in: "Task", want: KindTask},
		{in: " APPROVAL ", want: KindApproval},
		{in: "notification", want: KindNotification},
		{in: "Condition", want: KindCondition},
		{in: "input", want: KindInput},
		{in: "", wantErr: true},
		{in: "default", wantErr: true},
		{in: "unspecified", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			kind, err := ParseNodeKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, kind.Valid())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestNodeKind_Labels(t *testing.T) {
	assert.Equal(t, "Task", KindTask.DefaultLabel())
	assert.Equal(t, "Start", KindInput.DefaultLabel())
	assert.Equal(t, "", KindUnspecified.DefaultLabel())
	assert.Len(t, AllKinds, 5)
	for _, k := range AllKinds {
		assert.True(t, k.Valid(), k.String())
	}
}

func TestNodeKind_JSON(t *testing.T) {
	data, err := json.Marshal(KindApproval)
	require.NoError(t, err)
	assert.Equal(t, `"approval"`, string(data))

	var k NodeKind
	require.NoError(t, json.Unmarshal([]byte(`"Notification"`), &k))
	assert.Equal(t, KindNotification, k)

	assert.Error(t, json.Unmarshal([]byte(`"webhook"`), &k))
	_, err = json.Marshal(KindUnspecified)
	assert.Error(t, err)
}
