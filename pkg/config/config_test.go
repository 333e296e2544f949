package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_BindsZeroFlagContract(t *testing.T) {
	cfg := Default()
	require.NotEmpty(t, cfg.Addr)

	assert.Equal(t, "0.0.0.0:5000", cfg.Addr)
	assert.Greater(t, cfg.AuditRingSize, 0)
	assert.NotEmpty(t, cfg.LogLevel)
	assert.NotEmpty(t, cfg.LogFormat)
}

func TestShutdownTimeout_IsPositive(t *testing.T) {
	cfg := Default()
	assert.Greater(t, cfg.ShutdownTimeout().Seconds(), 0.0)
}
