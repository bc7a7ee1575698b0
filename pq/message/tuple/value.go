package tuple

import (
	"encoding/json"
)

// Kind is the per-column marker byte of a tuple block.
type Kind uint8

const (
	KindNull      Kind = 'n'
	KindUnchanged Kind = 'u'
	KindText      Kind = 't'
)

// Value is a single column value. Unchanged means the server kept the value
// but did not send it; it is unknown, not null.
type Value struct {
	data string
	kind Kind
}

func Text(s string) Value {
	return Value{kind: KindText, data: s}
}

func Null() Value {
	return Value{kind: KindNull}
}

func Unchanged() Value {
	return Value{kind: KindUnchanged}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) IsUnchanged() bool {
	return v.kind == KindUnchanged
}

// Text returns the text value and whether one is present.
func (v Value) Text() (string, bool) {
	return v.data, v.kind == KindText
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindUnchanged:
		return "<unchanged>"
	default:
		return v.data
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindText {
		return json.Marshal(v.data)
	}
	return []byte("null"), nil
}
