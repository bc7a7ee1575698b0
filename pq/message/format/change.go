package format

import (
	"encoding/json"
	"time"
)

type Variant string

const (
	VariantBegin    Variant = "Begin"
	VariantCommit   Variant = "Commit"
	VariantRelation Variant = "Relation"
	VariantInsert   Variant = "Insert"
	VariantUpdate   Variant = "Update"
	VariantDelete   Variant = "Delete"
	VariantUnknown  Variant = "Unknown"
)

// Change is one decoded replication event. The set of implementations is
// closed: Begin, Commit, Relation, Insert, Update, Delete and Unknown.
//
// JSON encoding wraps the fields in an object keyed by the variant name,
// e.g. {"Begin":{"lsn":"0/16B2D50","timestamp":730826470123456,"xid":730}}.
type Change interface {
	Variant() Variant
	change()
}

// RowChange is implemented by Insert, Update and Delete. Relation also
// satisfies it but carries no row.
type RowChange interface {
	Change
	Table() TableRef
}

type TableRef struct {
	Namespace  string
	Name       string
	RelationID uint32
}

func (t TableRef) String() string {
	return t.Namespace + "." + t.Name
}

func wrap(v Variant, fields any) ([]byte, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[Variant]json.RawMessage{v: body})
}

// microSecFromUnixEpochToY2K is the offset between the Unix epoch and the
// server epoch 2000-01-01 in microseconds.
const microSecFromUnixEpochToY2K = 946684800 * 1000000

// PgTime converts a server timestamp (microseconds since 2000-01-01) to time.Time.
func PgTime(micros int64) time.Time {
	return time.UnixMicro(micros + microSecFromUnixEpochToY2K).UTC()
}
