package output

import (
	"github.com/grove/pgoutput-stream/pq/message/format"
	"github.com/grove/pgoutput-stream/pq/message/tuple"
)

// tupleOf builds a tuple from name/value pairs; a nil value is NULL and
// tuple.Unchanged() can be passed as is.
func tupleOf(pairs ...any) *tuple.Tuple {
	t := tuple.New()
	for i := 0; i < len(pairs); i += 2 {
		name := pairs[i].(string)
		switch v := pairs[i+1].(type) {
		case nil:
			t.Set(name, tuple.Null())
		case tuple.Value:
			t.Set(name, v)
		case string:
			t.Set(name, tuple.Text(v))
		}
	}
	return t
}

var usersColumns = []tuple.RelationColumn{
	{Name: "id", DataType: 23, Flags: 1},
	{Name: "name", DataType: 1043},
}

func usersInsert() *format.Insert {
	return &format.Insert{
		OID:            16384,
		TableNamespace: "public",
		TableName:      "users",
		NewTuple:       tupleOf("id", "1", "name", "Alice"),
		Columns:        usersColumns,
	}
}

var accountsColumns = []tuple.RelationColumn{
	{Name: "id", DataType: 23, Flags: 1},
	{Name: "email", DataType: 25},
}

func accountsUpdate(old, updated *tuple.Tuple) *format.Update {
	return &format.Update{
		OID:            16390,
		TableNamespace: "public",
		TableName:      "accounts",
		OldTuple:       old,
		NewTuple:       updated,
		OldTupleType:   'O',
		Columns:        accountsColumns,
	}
}
