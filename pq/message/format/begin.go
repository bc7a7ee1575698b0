package format

import (
	"encoding/binary"
	"time"

	"github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/pq"
)

const beginMessageLength = 21

type Begin struct {
	// FinalLSN is the final LSN of the transaction.
	FinalLSN pq.LSN `json:"lsn"`
	// Timestamp is the commit time in microseconds since 2000-01-01.
	Timestamp int64  `json:"timestamp"`
	Xid       uint32 `json:"xid"`
}

func NewBegin(data []byte) (*Begin, error) {
	msg := &Begin{}
	if err := msg.decode(data); err != nil {
		return nil, malformed(tagOf(data), err)
	}
	return msg, nil
}

func (b *Begin) decode(data []byte) error {
	skipByte := 1

	if len(data) < beginMessageLength {
		return errors.Newf("begin message length must be at least %d byte, but got %d", beginMessageLength, len(data))
	}

	b.FinalLSN = pq.LSN(binary.BigEndian.Uint64(data[skipByte:]))
	skipByte += 8
	b.Timestamp = int64(binary.BigEndian.Uint64(data[skipByte:]))
	skipByte += 8
	b.Xid = binary.BigEndian.Uint32(data[skipByte:])

	return nil
}

func (b *Begin) CommitTime() time.Time {
	return PgTime(b.Timestamp)
}

func (b *Begin) Variant() Variant { return VariantBegin }

func (*Begin) change() {}

func (b *Begin) MarshalJSON() ([]byte, error) {
	type fields Begin
	return wrap(VariantBegin, (*fields)(b))
}
