package output

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/grove/pgoutput-stream/pq/message/format"
	"github.com/grove/pgoutput-stream/pq/message/tuple"
	"github.com/jackc/pgx/v5/pgtype"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is one typed row in column order.
type Record = orderedmap.OrderedMap[string, any]

// Row is one element of an insert_delete array: exactly one side is set.
type Row struct {
	Insert *Record `json:"insert,omitempty"`
	Delete *Record `json:"delete,omitempty"`
}

// Converter turns row changes into insert_delete rows routed to
// <schema>_<table>.
type Converter struct {
	tables map[string]struct{}
}

// NewConverter restricts routing to tables when it is not empty. Entries
// are schema.table, or table for the public schema.
func NewConverter(tables []string) *Converter {
	c := &Converter{}
	if len(tables) == 0 {
		return c
	}

	c.tables = make(map[string]struct{}, len(tables))
	for _, t := range tables {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !strings.Contains(t, ".") {
			t = "public." + t
		}
		c.tables[t] = struct{}{}
	}

	return c
}

// Route returns the destination table, or false when the allow-list
// excludes it.
func (c *Converter) Route(ref format.TableRef) (string, bool) {
	if c.tables != nil {
		if _, ok := c.tables[ref.String()]; !ok {
			return "", false
		}
	}
	return ref.Namespace + "_" + ref.Name, true
}

// Rows converts a row change. Begin, Commit, Relation and Unknown carry no
// rows and yield nil.
func (c *Converter) Rows(change format.Change) []Row {
	switch ch := change.(type) {
	case *format.Insert:
		return []Row{{Insert: typed(ch.NewTuple, nil, ch.Columns)}}
	case *format.Delete:
		return []Row{{Delete: typed(ch.OldTuple, nil, ch.Columns)}}
	case *format.Update:
		old := ch.OldTuple
		if old == nil {
			old = ch.NewTuple
		}
		return []Row{
			{Delete: typed(old, nil, ch.Columns)},
			{Insert: typed(ch.NewTuple, ch.OldTuple, ch.Columns)},
		}
	default:
		return nil
	}
}

// typed coerces every value of t by its column type. An unchanged value
// takes the present value of the same column in fallback, or is left out.
func typed(t, fallback *tuple.Tuple, columns []tuple.RelationColumn) *Record {
	types := make(map[string]uint32, len(columns))
	for _, col := range columns {
		types[col.Name] = col.DataType
	}

	rec := orderedmap.New[string, any]()
	t.Each(func(name string, v tuple.Value) {
		if v.IsUnchanged() {
			prev, ok := fallback.Get(name)
			if !ok || prev.Kind() != tuple.KindText {
				return
			}
			v = prev
		}
		rec.Set(name, Coerce(v, types[name]))
	})

	return rec
}

// Coerce maps a text value to its JSON type: numbers for integer, float and
// numeric types, booleans for bool, strings otherwise. Values that do not
// parse keep their text.
func Coerce(v tuple.Value, oid uint32) any {
	text, ok := v.Text()
	if !ok {
		return nil
	}

	switch oid {
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID, pgtype.OIDOID,
		pgtype.Float4OID, pgtype.Float8OID, pgtype.NumericOID:
		if isJSONNumber(text) {
			return json.Number(text)
		}
	case pgtype.BoolOID:
		if b, err := strconv.ParseBool(text); err == nil {
			return b
		}
	}

	return text
}

func isJSONNumber(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return false
	}
	return json.Valid([]byte(s))
}
