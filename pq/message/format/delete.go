package format

import (
	"encoding/binary"

	"github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/pq/message/tuple"
)

type Delete struct {
	OID            uint32       `json:"relation_id"`
	TableNamespace string       `json:"schema"`
	TableName      string       `json:"table"`
	OldTuple       *tuple.Tuple `json:"old_tuple"`

	OldTupleType uint8                  `json:"-"`
	Columns      []tuple.RelationColumn `json:"-"`
}

func NewDelete(data []byte, relations RelationGetter) (*Delete, error) {
	msg := &Delete{}
	oldData, err := msg.decode(data)
	if err != nil {
		return nil, malformed(tagOf(data), err)
	}

	rel, err := relations.Get(msg.OID)
	if err != nil {
		return nil, err
	}

	msg.TableNamespace = rel.Namespace
	msg.TableName = rel.Name
	msg.Columns = rel.Columns

	msg.OldTuple, err = oldData.DecodeWithColumn(rel.Columns)
	if err != nil {
		return nil, malformed(tagOf(data), err)
	}

	return msg, nil
}

func (m *Delete) decode(data []byte) (*tuple.Data, error) {
	skipByte := 1

	if len(data) < 8 {
		return nil, errors.Newf("delete message length must be at least 8 byte, but got %d", len(data))
	}

	m.OID = binary.BigEndian.Uint32(data[skipByte:])
	skipByte += 4

	m.OldTupleType = data[skipByte]
	if m.OldTupleType != UpdateTupleTypeKey && m.OldTupleType != UpdateTupleTypeOld {
		return nil, errors.Newf("delete message undefined tuple type %q", rune(m.OldTupleType))
	}

	oldData, err := tuple.NewData(data, m.OldTupleType, skipByte)
	if err != nil {
		return nil, errors.Wrap(err, "delete message old tuple data")
	}

	if err = checkTrailing("delete", data, oldData.SkipByte); err != nil {
		return nil, err
	}

	return oldData, nil
}

func (m *Delete) Table() TableRef {
	return TableRef{RelationID: m.OID, Namespace: m.TableNamespace, Name: m.TableName}
}

func (m *Delete) Variant() Variant { return VariantDelete }

func (*Delete) change() {}

func (m *Delete) MarshalJSON() ([]byte, error) {
	type fields Delete
	return wrap(VariantDelete, (*fields)(m))
}
