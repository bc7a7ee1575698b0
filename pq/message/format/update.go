package format

import (
	"encoding/binary"

	"github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/pq/message/tuple"
)

const (
	UpdateTupleTypeKey = 'K'
	UpdateTupleTypeOld = 'O'
	UpdateTupleTypeNew = 'N'
)

type Update struct {
	OID            uint32       `json:"relation_id"`
	TableNamespace string       `json:"schema"`
	TableName      string       `json:"table"`
	OldTuple       *tuple.Tuple `json:"old_tuple"`
	NewTuple       *tuple.Tuple `json:"new_tuple"`

	// OldTupleType is 'K' (key columns only), 'O' (full row) or 0 when absent.
	OldTupleType uint8                  `json:"-"`
	Columns      []tuple.RelationColumn `json:"-"`
}

func NewUpdate(data []byte, relations RelationGetter) (*Update, error) {
	msg := &Update{}
	oldData, newData, err := msg.decode(data)
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

	if oldData != nil {
		msg.OldTuple, err = oldData.DecodeWithColumn(rel.Columns)
		if err != nil {
			return nil, malformed(tagOf(data), errors.Wrap(err, "update message old tuple"))
		}
	}

	msg.NewTuple, err = newData.DecodeWithColumn(rel.Columns)
	if err != nil {
		return nil, malformed(tagOf(data), errors.Wrap(err, "update message new tuple"))
	}

	return msg, nil
}

func (m *Update) decode(data []byte) (oldData, newData *tuple.Data, err error) {
	skipByte := 1

	if len(data) < 8 {
		return nil, nil, errors.Newf("update message length must be at least 8 byte, but got %d", len(data))
	}

	m.OID = binary.BigEndian.Uint32(data[skipByte:])
	skipByte += 4

	switch data[skipByte] {
	case UpdateTupleTypeKey, UpdateTupleTypeOld:
		m.OldTupleType = data[skipByte]
		oldData, err = tuple.NewData(data, m.OldTupleType, skipByte)
		if err != nil {
			return nil, nil, errors.Wrap(err, "update message old tuple data")
		}
		skipByte = oldData.SkipByte
		fallthrough
	case UpdateTupleTypeNew:
		newData, err = tuple.NewData(data, UpdateTupleTypeNew, skipByte)
		if err != nil {
			return nil, nil, errors.Wrap(err, "update message new tuple data")
		}
		if err = checkTrailing("update", data, newData.SkipByte); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, errors.Newf("update message undefined tuple type %q", rune(data[skipByte]))
	}

	return oldData, newData, nil
}

func (m *Update) Table() TableRef {
	return TableRef{RelationID: m.OID, Namespace: m.TableNamespace, Name: m.TableName}
}

func (m *Update) Variant() Variant { return VariantUpdate }

func (*Update) change() {}

func (m *Update) MarshalJSON() ([]byte, error) {
	type fields Update
	return wrap(VariantUpdate, (*fields)(m))
}
