package format

import (
	"encoding/binary"

	"github.com/grove/pgoutput-stream/pq/message/tuple"
)

type relations map[uint32]*Relation

func (r relations) Get(relationID uint32) (*Relation, error) {
	rel, ok := r[relationID]
	if !ok {
		return nil, NewUnknownRelationError(relationID)
	}
	return rel, nil
}

func usersRelation() relations {
	return relations{
		16384: {
			OID:       16384,
			Namespace: "public",
			Name:      "users",
			Columns: []tuple.RelationColumn{
				{Name: "id", DataType: 23, Flags: 1, TypeModifier: -1},
				{Name: "name", DataType: 1043, TypeModifier: -1},
			},
		},
	}
}

// tupleBlock encodes values as a tuple block; nil is null, "\x00u" is unchanged.
func tupleBlock(marker byte, values ...*string) []byte {
	buf := []byte{marker}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(values)))
	for _, v := range values {
		switch {
		case v == nil:
			buf = append(buf, 'n')
		case *v == "\x00u":
			buf = append(buf, 'u')
		default:
			buf = append(buf, 't')
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(*v)))
			buf = append(buf, *v...)
		}
	}
	return buf
}

func str(s string) *string { return &s }

func rowMessage(tag byte, relationID uint32, blocks ...[]byte) []byte {
	buf := []byte{tag}
	buf = binary.BigEndian.AppendUint32(buf, relationID)
	for _, b := range blocks {
		buf = append(buf, b...)
	}
	return buf
}
