package format

import (
	"encoding/binary"

	"github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/pq/message/tuple"
)

const (
	InsertTupleDataType = 'N'
)

// checkTrailing rejects bytes left after the last tuple block of a row
// message.
func checkTrailing(kind string, data []byte, end int) error {
	if end != len(data) {
		return errors.Newf("%s message has %d trailing byte after tuple data", kind, len(data)-end)
	}
	return nil
}

// RelationGetter resolves a relation id to the last cached Relation.
type RelationGetter interface {
	Get(relationID uint32) (*Relation, error)
}

type Insert struct {
	OID            uint32       `json:"relation_id"`
	TableNamespace string       `json:"schema"`
	TableName      string       `json:"table"`
	NewTuple       *tuple.Tuple `json:"new_tuple"`

	// Columns is the relation layout the tuple was decoded with.
	Columns []tuple.RelationColumn `json:"-"`
}

func NewInsert(data []byte, relations RelationGetter) (*Insert, error) {
	msg := &Insert{}
	tupleData, err := msg.decode(data)
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

	msg.NewTuple, err = tupleData.DecodeWithColumn(rel.Columns)
	if err != nil {
		return nil, malformed(tagOf(data), err)
	}

	return msg, nil
}

func (m *Insert) decode(data []byte) (*tuple.Data, error) {
	skipByte := 1

	if len(data) < 8 {
		return nil, errors.Newf("insert message length must be at least 8 byte, but got %d", len(data))
	}

	m.OID = binary.BigEndian.Uint32(data[skipByte:])
	skipByte += 4

	tupleData, err := tuple.NewData(data, InsertTupleDataType, skipByte)
	if err != nil {
		return nil, errors.Wrap(err, "insert message")
	}

	if err = checkTrailing("insert", data, tupleData.SkipByte); err != nil {
		return nil, err
	}

	return tupleData, nil
}

func (m *Insert) Table() TableRef {
	return TableRef{RelationID: m.OID, Namespace: m.TableNamespace, Name: m.TableName}
}

func (m *Insert) Variant() Variant { return VariantInsert }

func (*Insert) change() {}

func (m *Insert) MarshalJSON() ([]byte, error) {
	type fields Insert
	return wrap(VariantInsert, (*fields)(m))
}
