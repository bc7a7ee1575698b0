package format

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnknown(t *testing.T) {
	t.Run("should carry the tag and a non fatal error", func(t *testing.T) {
		// When
		msg, err := NewUnknown([]byte{'O', 1, 2, 3})

		// Then
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownMessageType))
		assert.False(t, IsFatal(err))
		assert.Equal(t, byte('O'), msg.Tag)
		assert.Equal(t, VariantUnknown, msg.Variant())

		b, err := json.Marshal(msg)
		require.NoError(t, err)
		assert.Equal(t, `{"Unknown":{"tag":"O"}}`, string(b))
	})
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.True(t, IsFatal(NewUnknownRelationError(1)))
	assert.True(t, IsFatal(malformed('I', errors.New("x"))))
	assert.True(t, IsFatal(errors.New("other")))
	assert.Equal(t, "unknown relation: 42", NewUnknownRelationError(42).Error())
}
