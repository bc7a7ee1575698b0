package format

import (
	"bytes"
	"encoding/binary"
	"unicode/utf8"

	"github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/pq/message/tuple"
)

type Relation struct {
	OID       uint32                 `json:"relation_id"`
	Namespace string                 `json:"schema"`
	Name      string                 `json:"table"`
	Columns   []tuple.RelationColumn `json:"columns"`
	ReplicaID uint8                  `json:"-"`
}

func NewRelation(data []byte) (*Relation, error) {
	msg := &Relation{}
	if err := msg.decode(data); err != nil {
		return nil, malformed(tagOf(data), err)
	}

	return msg, nil
}

func (m *Relation) decode(data []byte) error {
	skipByte := 1

	if len(data) < 5 {
		return errors.Newf("relation message length must be at least 5 byte, but got %d", len(data))
	}

	m.OID = binary.BigEndian.Uint32(data[skipByte:])
	skipByte += 4

	var usedByteCount int
	m.Namespace, usedByteCount = decodeString(data[skipByte:])
	if usedByteCount < 0 {
		return errors.New("relation message namespace decode error")
	}
	skipByte += usedByteCount

	m.Name, usedByteCount = decodeString(data[skipByte:])
	if usedByteCount < 0 {
		return errors.New("relation message name decode error")
	}
	skipByte += usedByteCount

	if len(data) < skipByte+3 {
		return errors.New("relation message column header truncated")
	}

	m.ReplicaID = data[skipByte]
	skipByte++

	columnNumbers := binary.BigEndian.Uint16(data[skipByte:])
	skipByte += 2

	m.Columns = make([]tuple.RelationColumn, columnNumbers)
	for i := range m.Columns {
		if skipByte >= len(data) {
			return errors.Newf("relation message columns[%d] truncated", i)
		}
		col := tuple.RelationColumn{}
		col.Flags = data[skipByte]
		skipByte++

		col.Name, usedByteCount = decodeString(data[skipByte:])
		if usedByteCount < 0 {
			return errors.Newf("relation message columns[%d].name decode error", i)
		}
		skipByte += usedByteCount

		if len(data) < skipByte+8 {
			return errors.Newf("relation message columns[%d].type truncated", i)
		}
		col.DataType = binary.BigEndian.Uint32(data[skipByte:])
		skipByte += 4

		col.TypeModifier = int32(binary.BigEndian.Uint32(data[skipByte:]))
		skipByte += 4

		m.Columns[i] = col
	}

	return nil
}

func (m *Relation) Table() TableRef {
	return TableRef{RelationID: m.OID, Namespace: m.Namespace, Name: m.Name}
}

func (m *Relation) Variant() Variant { return VariantRelation }

func (*Relation) change() {}

func (m *Relation) MarshalJSON() ([]byte, error) {
	type fields Relation
	return wrap(VariantRelation, (*fields)(m))
}

// decodeString reads a null-terminated string and returns the number of
// bytes consumed, or -1 when there is no terminator or the text is not utf-8.
func decodeString(data []byte) (string, int) {
	end := bytes.IndexByte(data, byte(0))
	if end == -1 || !utf8.Valid(data[:end]) {
		return "", -1
	}

	return string(data[:end]), end + 1
}
