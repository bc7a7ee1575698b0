package tuple

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/go-playground/errors"
)

// RelationColumn is one column of a relation as sent in a Relation message.
type RelationColumn struct {
	Name         string `json:"name"`
	DataType     uint32 `json:"type_id"`
	TypeModifier int32  `json:"-"`
	Flags        uint8  `json:"flags"`
}

// IsKey reports whether the column is part of the replica identity.
func (c RelationColumn) IsKey() bool {
	return c.Flags&1 == 1
}

// Data is a raw tuple block: 2-byte column count, then a kind byte per
// column, text columns followed by a 4-byte length and the bytes.
type Data struct {
	Columns      DataColumns
	SkipByte     int
	ColumnNumber uint16
}

type DataColumns []*DataColumn

type DataColumn struct {
	Data     []byte
	Length   uint32
	DataType Kind
}

// NewData checks the tuple marker at skipByteLength and decodes the block
// that follows it.
func NewData(data []byte, tupleDataType uint8, skipByteLength int) (*Data, error) {
	if skipByteLength >= len(data) {
		return nil, errors.Newf("tuple data marker missing at offset %d", skipByteLength)
	}
	if data[skipByteLength] != tupleDataType {
		return nil, errors.New("invalid tuple data type: " + string(data[skipByteLength]))
	}
	skipByteLength++

	d := &Data{}
	if err := d.Decode(data, skipByteLength); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Data) Decode(data []byte, skipByteLength int) error {
	if len(data) < skipByteLength+2 {
		return errors.Newf("tuple data column count truncated at offset %d", skipByteLength)
	}
	d.ColumnNumber = binary.BigEndian.Uint16(data[skipByteLength:])
	skipByteLength += 2

	d.Columns = make(DataColumns, 0, d.ColumnNumber)
	for i := range int(d.ColumnNumber) {
		if skipByteLength >= len(data) {
			return errors.Newf("tuple data column[%d] kind truncated", i)
		}
		col := &DataColumn{DataType: Kind(data[skipByteLength])}
		skipByteLength++

		switch col.DataType {
		case KindNull, KindUnchanged:
		case KindText:
			if len(data) < skipByteLength+4 {
				return errors.Newf("tuple data column[%d] length truncated", i)
			}
			col.Length = binary.BigEndian.Uint32(data[skipByteLength:])
			skipByteLength += 4

			if uint64(col.Length) > uint64(len(data)-skipByteLength) {
				return errors.Newf("tuple data column[%d] length %d exceeds remaining %d byte", i, col.Length, len(data)-skipByteLength)
			}
			col.Data = make([]byte, int(col.Length))
			copy(col.Data, data[skipByteLength:])
			skipByteLength += int(col.Length)
		default:
			return errors.Newf("tuple data column[%d] has unknown kind %q", i, rune(col.DataType))
		}

		d.Columns = append(d.Columns, col)
	}
	d.SkipByte = skipByteLength

	return nil
}

// DecodeWithColumn zips the block with the relation columns. The column
// count on the wire must match the cached relation.
func (d *Data) DecodeWithColumn(columns []RelationColumn) (*Tuple, error) {
	if len(d.Columns) != len(columns) {
		return nil, errors.Newf("tuple has %d columns but relation has %d", len(d.Columns), len(columns))
	}

	decoded := New()
	for idx, col := range d.Columns {
		colName := columns[idx].Name
		switch col.DataType {
		case KindNull:
			decoded.Set(colName, Null())
		case KindUnchanged:
			decoded.Set(colName, Unchanged())
		case KindText:
			if !utf8.Valid(col.Data) {
				return nil, errors.Newf("column %q is not valid utf-8", colName)
			}
			decoded.Set(colName, Text(string(col.Data)))
		}
	}

	return decoded, nil
}
