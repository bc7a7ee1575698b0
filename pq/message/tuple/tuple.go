package tuple

import (
	"bytes"
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Tuple maps column names to values in relation column order.
type Tuple struct {
	values *orderedmap.OrderedMap[string, Value]
}

func New() *Tuple {
	return &Tuple{values: orderedmap.New[string, Value]()}
}

func (t *Tuple) Set(name string, v Value) {
	t.values.Set(name, v)
}

func (t *Tuple) Get(name string) (Value, bool) {
	if t == nil {
		return Value{}, false
	}
	return t.values.Get(name)
}

func (t *Tuple) Len() int {
	if t == nil {
		return 0
	}
	return t.values.Len()
}

func (t *Tuple) Keys() []string {
	keys := make([]string, 0, t.Len())
	t.Each(func(name string, _ Value) {
		keys = append(keys, name)
	})
	return keys
}

// Each calls fn for every column in order.
func (t *Tuple) Each(fn func(name string, v Value)) {
	if t == nil {
		return
	}
	for pair := t.values.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

func (t *Tuple) Equal(other *Tuple) bool {
	if t.Len() != other.Len() {
		return false
	}
	if t == nil || other == nil {
		return t == other
	}

	a, b := t.values.Oldest(), other.values.Oldest()
	for ; a != nil && b != nil; a, b = a.Next(), b.Next() {
		if a.Key != b.Key || a.Value != b.Value {
			return false
		}
	}
	return true
}

// MarshalJSON writes columns in order. Unchanged columns are left out: their
// value is not known and must not read as null.
func (t *Tuple) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for pair := t.values.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.IsUnchanged() {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := json.Marshal(pair.Key)
		if err != nil {
			return nil, err
		}
		val, err := pair.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}
