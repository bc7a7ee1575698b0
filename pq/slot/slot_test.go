package slot

import (
	"testing"

	"github.com/grove/pgoutput-stream/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInfo(t *testing.T) {
	t.Run("should compute lag and retained wal size", func(t *testing.T) {
		// Given
		restart, confirmed := "0/1000", "0/1800"

		// When
		info, err := newInfo("cdc_slot", true, &restart, &confirmed, "0/2000")

		// Then
		require.NoError(t, err)
		assert.Equal(t, pq.LSN(0x1000), info.RestartLSN)
		assert.Equal(t, pq.LSN(0x1800), info.ConfirmedFlushLSN)
		assert.Equal(t, uint64(0x1000), info.RetainedWALSize)
		assert.Equal(t, uint64(0x800), info.Lag)
		assert.Equal(t, "slot cdc_slot: active=true, restart_lsn=0/1000, confirmed_flush_lsn=0/1800, current_lsn=0/2000, lag=2048", info.String())
	})

	t.Run("should accept null positions", func(t *testing.T) {
		// When
		info, err := newInfo("cdc_slot", false, nil, nil, "1/0")

		// Then
		require.NoError(t, err)
		assert.Equal(t, pq.LSN(0), info.ConfirmedFlushLSN)
		assert.Equal(t, uint64(0), info.Lag)
	})

	t.Run("should fail on malformed current lsn", func(t *testing.T) {
		_, err := newInfo("cdc_slot", false, nil, nil, "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "current lsn")
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("should apply default interval", func(t *testing.T) {
		cfg := Config{Name: "cdc_slot"}
		cfg.SetDefault()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("should reject short interval", func(t *testing.T) {
		err := Config{Name: "cdc_slot", SlotActivityCheckerInterval: 10}.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be lower than 1000 ms")
	})

	t.Run("should reject empty name", func(t *testing.T) {
		err := Config{SlotActivityCheckerInterval: 1000}.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "slot name cannot be empty")
	})
}
