package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceLoggerLifecycle(t *testing.T) {
	// Before initialization the accessor hands out a usable no-op logger.
	logger := GetServiceLogger()
	require.NotNil(t, logger)
	logger.Info("uninitialized logging is a no-op")

	cfg := NewDefaultConfig(RelayerProcess)
	cfg.LogDir = t.TempDir()
	require.NoError(t, InitServiceLogger(cfg))
	initialized := GetServiceLogger()
	require.NotNil(t, initialized)
	assert.IsType(t, &ZapLogger{}, initialized)

	// A second Init keeps the first logger.
	require.NoError(t, InitServiceLogger(cfg))
	assert.Same(t, initialized, GetServiceLogger())

	Shutdown()
}
