package tuple

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTuple_MarshalJSON(t *testing.T) {
	t.Run("should keep column order and render null as null", func(t *testing.T) {
		tp := New()
		tp.Set("name", Text("Alice"))
		tp.Set("id", Text("1"))
		tp.Set("email", Null())

		b, err := json.Marshal(tp)
		require.NoError(t, err)
		assert.Equal(t, `{"name":"Alice","id":"1","email":null}`, string(b))
	})

	t.Run("should leave unchanged values out", func(t *testing.T) {
		tp := New()
		tp.Set("id", Text("1"))
		tp.Set("blob", Unchanged())

		b, err := json.Marshal(tp)
		require.NoError(t, err)
		assert.Equal(t, `{"id":"1"}`, string(b))
	})

	t.Run("should never render null as an empty string", func(t *testing.T) {
		tp := New()
		tp.Set("a", Null())

		b, err := json.Marshal(tp)
		require.NoError(t, err)
		assert.NotContains(t, string(b), `""`)
	})

	t.Run("should render a nil tuple as null", func(t *testing.T) {
		var tp *Tuple
		b, err := json.Marshal(tp)
		require.NoError(t, err)
		assert.Equal(t, "null", string(b))
	})
}

func TestTuple_Equal(t *testing.T) {
	a := New()
	a.Set("id", Text("1"))
	a.Set("name", Null())

	b := New()
	b.Set("id", Text("1"))
	b.Set("name", Null())

	c := New()
	c.Set("name", Null())
	c.Set("id", Text("1"))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "order matters")
	assert.False(t, a.Equal(nil))
	assert.True(t, (*Tuple)(nil).Equal(nil))
}

func TestValue(t *testing.T) {
	s, ok := Text("x").Text()
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	_, ok = Null().Text()
	assert.False(t, ok)
	_, ok = Unchanged().Text()
	assert.False(t, ok)

	assert.Equal(t, "NULL", Null().String())
	assert.Equal(t, "<unchanged>", Unchanged().String())
}
