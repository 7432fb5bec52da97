package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, StoreMemory, cfg.Store)
		assert.Equal(t, "customers.json", cfg.DataFile)
		assert.True(t, cfg.StrictLoad)
		assert.Empty(t, cfg.TelemetryAddr)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("reads overrides", func(t *testing.T) {
		t.Setenv("ATM_STORE", StoreJSON)
		t.Setenv("ATM_DATA_FILE", "/tmp/accounts.json")
		t.Setenv("ATM_STRICT_LOAD", "false")
		t.Setenv("ATM_TELEMETRY_ADDR", ":9091")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, StoreJSON, cfg.Store)
		assert.Equal(t, "/tmp/accounts.json", cfg.DataFile)
		assert.False(t, cfg.StrictLoad)
		assert.Equal(t, ":9091", cfg.TelemetryAddr)
	})

	t.Run("rejects unknown backend", func(t *testing.T) {
		t.Setenv("ATM_STORE", "tape")
		_, err := FromEnv()
		require.Error(t, err)
	})
}
