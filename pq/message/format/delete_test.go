package format

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDelete(t *testing.T) {
	t.Run("should decode delete with key tuple", func(t *testing.T) {
		// Given
		data := rowMessage('D', 16384, tupleBlock('K', str("1"), nil))

		// When
		msg, err := NewDelete(data, usersRelation())

		// Then
		require.NoError(t, err)
		assert.Equal(t, uint8('K'), msg.OldTupleType)

		b, err := json.Marshal(msg)
		require.NoError(t, err)
		assert.Equal(t, `{"Delete":{"relation_id":16384,"schema":"public","table":"users","old_tuple":{"id":"1","name":null}}}`, string(b))
	})

	t.Run("should decode delete with full old tuple", func(t *testing.T) {
		// Given
		data := rowMessage('D', 16384, tupleBlock('O', str("1"), str("Alice")))

		// When
		msg, err := NewDelete(data, usersRelation())

		// Then
		require.NoError(t, err)
		assert.Equal(t, uint8('O'), msg.OldTupleType)
		assert.Equal(t, 2, msg.OldTuple.Len())
	})

	t.Run("should fail when tuple marker is N", func(t *testing.T) {
		// Given
		data := rowMessage('D', 16384, tupleBlock('N', str("1"), nil))

		// When
		_, err := NewDelete(data, usersRelation())

		// Then
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformed))
		assert.Contains(t, err.Error(), "delete message undefined tuple type")
	})

	t.Run("should fail when data is too short", func(t *testing.T) {
		_, err := NewDelete([]byte{'D', 0, 0}, usersRelation())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "delete message length must be at least 8 byte, but got 3")
	})
}

func TestNewDelete_TrailingBytes(t *testing.T) {
	t.Run("should fail when bytes follow the old tuple block", func(t *testing.T) {
		// Given
		data := append(rowMessage('D', 16384, tupleBlock('K', str("1"), nil)), 0xde, 0xad)

		// When
		msg, err := NewDelete(data, usersRelation())

		// Then
		assert.Nil(t, msg)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformed))
		assert.Contains(t, err.Error(), "delete message has 2 trailing byte after tuple data")
	})
}
