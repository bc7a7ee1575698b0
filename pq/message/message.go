package message

import (
	"github.com/grove/pgoutput-stream/pq/message/format"
)

const (
	BeginByte    Type = 'B'
	CommitByte   Type = 'C'
	DeleteByte   Type = 'D'
	InsertByte   Type = 'I'
	LogicalByte  Type = 'M'
	OriginByte   Type = 'O'
	RelationByte Type = 'R'
	TruncateByte Type = 'T'
	UpdateByte   Type = 'U'
	TypeByte     Type = 'Y'
)

type Type uint8

// Decoder turns raw pgoutput (protocol version 1) records into changes,
// keeping the relation cache in step with Relation messages.
type Decoder struct {
	relations *RelationCache
}

func NewDecoder(relations *RelationCache) *Decoder {
	return &Decoder{relations: relations}
}

func (d *Decoder) Relations() *RelationCache {
	return d.relations
}

// Decode returns the change for one record, or nil for an empty record.
//
// An unrecognised tag yields a *format.Unknown together with a non-fatal
// *format.DecodeError of kind UnknownMessageType; callers that only care
// about fatal errors check format.IsFatal.
func (d *Decoder) Decode(data []byte) (format.Change, error) {
	if len(data) == 0 {
		return nil, nil
	}

	switch Type(data[0]) {
	case BeginByte:
		return nilSafe(format.NewBegin(data))
	case CommitByte:
		return nilSafe(format.NewCommit(data))
	case RelationByte:
		msg, err := format.NewRelation(data)
		if err != nil {
			return nil, err
		}
		d.relations.Put(msg)
		return msg, nil
	case InsertByte:
		return nilSafe(format.NewInsert(data, d.relations))
	case UpdateByte:
		return nilSafe(format.NewUpdate(data, d.relations))
	case DeleteByte:
		return nilSafe(format.NewDelete(data, d.relations))
	default:
		return format.NewUnknown(data)
	}
}

// nilSafe keeps a typed nil pointer from turning into a non-nil Change.
func nilSafe[T format.Change](msg T, err error) (format.Change, error) {
	if err != nil {
		return nil, err
	}
	return msg, nil
}
