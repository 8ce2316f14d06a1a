package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapServiceError(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name      string
		operation string
		err       error
		wantMsg   string
	}{
		{
			name:      "save",
			operation: OpSaveABI,
			err:       cause,
			wantMsg:   "failed to save ABI: connection refused",
		},
		{
			name:      "publish",
			operation: OpPublishABI,
			err:       cause,
			wantMsg:   "failed to publish ABI event: connection refused",
		},
		{
			name:      "nested",
			operation: OpHandleRequest,
			err:       WrapServiceError(OpExtractABI, cause),
			wantMsg:   "failed to handle extraction request: failed to extract ABI: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapServiceError(tt.operation, tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.ErrorIs(t, err, cause)
		})
	}
}

func TestWrapServiceError_NilError(t *testing.T) {
	assert.NoError(t, WrapServiceError(OpSaveABI, nil))
}

func TestServiceError_As(t *testing.T) {
	err := fmt.Errorf("worker: %w", WrapServiceError(OpRetrieveABI, errors.New("timeout")))

	var svcErr ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, OpRetrieveABI, svcErr.Operation)
	assert.EqualError(t, svcErr.Unwrap(), "timeout")
}
