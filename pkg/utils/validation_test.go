package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "flowcanvas/pkg/errors"
)

type sampleRequest struct {
	Kind  string  `json:"kind" validate:"required,oneof=task approval"`
	Label string  `json:"label,omitempty" validate:"max=5"`
	Zoom  float64 `json:"zoom" validate:"omitempty,gt=0"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		req     sampleRequest
		wantErr string
	}{
		{name: "valid", req: sampleRequest{Kind: "task"}},
		{name: "missing kind", req: sampleRequest{}, wantErr: "kind is required"},
		{name: "bad kind", req: sampleRequest{Kind: "x"}, wantErr: "kind must be one of: task approval"},
		{name: "long label", req: sampleRequest{Kind: "task", Label: "toolong"}, wantErr: "label must be at most 5"},
		{name: "negative zoom", req: sampleRequest{Kind: "task", Zoom: -1}, wantErr: "zoom must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecodeAndValidate(t *testing.T) {
	var req sampleRequest
	require.NoError(t, DecodeAndValidate([]byte(`{"kind":"approval"}`), &req))
	assert.Equal(t, "approval", req.Kind)

	err := DecodeAndValidate([]byte(`{"kind":`), &req)
	assert.True(t, pkgerrors.IsValidation(err))
}
