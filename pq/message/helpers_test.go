package message

import (
	"encoding/binary"
)

type column struct {
	name  string
	oid   uint32
	flags uint8
}

func relationRecord(relationID uint32, schema, table string, columns ...column) []byte {
	buf := []byte{'R'}
	buf = binary.BigEndian.AppendUint32(buf, relationID)
	buf = append(buf, schema...)
	buf = append(buf, 0)
	buf = append(buf, table...)
	buf = append(buf, 0, 'd')
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(columns)))
	for _, c := range columns {
		buf = append(buf, c.flags)
		buf = append(buf, c.name...)
		buf = append(buf, 0)
		buf = binary.BigEndian.AppendUint32(buf, c.oid)
		buf = binary.BigEndian.AppendUint32(buf, 0xFFFFFFFF)
	}
	return buf
}

func insertRecord(relationID uint32, values ...string) []byte {
	buf := []byte{'I'}
	buf = binary.BigEndian.AppendUint32(buf, relationID)
	buf = append(buf, 'N')
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(values)))
	for _, v := range values {
		buf = append(buf, 't')
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(v)))
		buf = append(buf, v...)
	}
	return buf
}
