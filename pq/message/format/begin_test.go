package format

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/grove/pgoutput-stream/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBegin(t *testing.T) {
	t.Run("should decode begin message successfully", func(t *testing.T) {
		// Given
		data := []byte{
			66,                             // Message type 'B'
			0, 0, 0, 0, 1, 0x6B, 0x2D, 0x50, // FinalLSN: 0/16B2D50
			0, 2, 0x98, 0xAE, 0xCC, 0x24, 0xE7, 0xC0, // Timestamp: 730826470123456
			0, 0, 2, 218, // Xid: 730
		}

		// When
		begin, err := NewBegin(data)

		// Then
		require.NoError(t, err)
		assert.Equal(t, pq.LSN(0x016B2D50), begin.FinalLSN)
		assert.Equal(t, "0/16B2D50", begin.FinalLSN.String())
		assert.Equal(t, int64(730826470123456), begin.Timestamp)
		assert.Equal(t, uint32(730), begin.Xid)
	})

	t.Run("should serialize with the variant as outer key", func(t *testing.T) {
		// Given
		begin := &Begin{FinalLSN: 0x016B2D50, Timestamp: 730826470123456, Xid: 730}

		// When
		b, err := json.Marshal(begin)

		// Then
		require.NoError(t, err)
		assert.Equal(t, `{"Begin":{"lsn":"0/16B2D50","timestamp":730826470123456,"xid":730}}`, string(b))
	})

	t.Run("should return malformed error when data is too short", func(t *testing.T) {
		// Given
		data := []byte{
			66,                          // Message type 'B'
			0, 0, 0, 0, 1, 150, 157, 24, // FinalLSN
			0, 2, 234, // Incomplete data
		}

		// When
		begin, err := NewBegin(data)

		// Then
		assert.Nil(t, begin)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformed))
		assert.Contains(t, err.Error(), "begin message length must be at least 21 byte, but got 12")
	})

	t.Run("should decode begin message with maximum values", func(t *testing.T) {
		// Given
		data := []byte{
			66,
			0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
			0x7F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
			0xFF, 0xFF, 0xFF, 0xFF,
		}

		// When
		begin, err := NewBegin(data)

		// Then
		require.NoError(t, err)
		assert.Equal(t, "FFFFFFFF/FFFFFFFF", begin.FinalLSN.String())
		assert.Equal(t, int64(0x7FFFFFFFFFFFFFFF), begin.Timestamp)
		assert.Equal(t, uint32(0xFFFFFFFF), begin.Xid)
	})
}

func TestBegin_CommitTime(t *testing.T) {
	t.Run("should count microseconds from 2000-01-01", func(t *testing.T) {
		begin := &Begin{Timestamp: 1_500_000}
		assert.Equal(t, time.Date(2000, 1, 1, 0, 0, 1, 500_000_000, time.UTC), begin.CommitTime())
	})
}
