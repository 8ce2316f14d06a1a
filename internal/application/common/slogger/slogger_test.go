package slogger

import (
	"context"
	"testing"

	"contractabi/internal/application/common/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	require.NoError(t, Configure("debug", "text"))
	assert.Error(t, Configure("loud", "json"))
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, Fields{"a": 1}, Field("a", 1))
	assert.Equal(t, Fields{"a": 1, "b": 2}, Fields2("a", 1, "b", 2))
	assert.Equal(t, Fields{"a": 1, "b": 2, "c": 3}, Fields3("a", 1, "b", 2, "c", 3))
}

func TestSetGlobalLogger(t *testing.T) {
	logger, err := logging.NewApplicationLogger(logging.Config{Level: "INFO", Format: "json", Output: "buffer"})
	require.NoError(t, err)
	SetGlobalLogger(logger)

	assert.NotPanics(t, func() {
		Info(context.Background(), "hello", Field("k", "v"))
		WarnNoCtx("warn", nil)
		WithComponent("test").Debug(context.Background(), "dropped", nil)
	})
}
