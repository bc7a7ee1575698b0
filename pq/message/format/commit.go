package format

import (
	"encoding/binary"
	"time"

	"github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/pq"
)

const commitMessageLength = 26

type Commit struct {
	// Flags currently unused (must be 0).
	Flags uint8 `json:"-"`
	// CommitLSN is the LSN of the commit.
	CommitLSN pq.LSN `json:"lsn"`
	// TransactionEndLSN is the end LSN of the transaction.
	TransactionEndLSN pq.LSN `json:"-"`
	// Timestamp is the commit time in microseconds since 2000-01-01.
	Timestamp int64 `json:"timestamp"`
}

func NewCommit(data []byte) (*Commit, error) {
	msg := &Commit{}
	if err := msg.decode(data); err != nil {
		return nil, malformed(tagOf(data), err)
	}
	return msg, nil
}

func (c *Commit) decode(data []byte) error {
	skipByte := 1

	if len(data) < commitMessageLength {
		return errors.Newf("commit message length must be at least %d byte, but got %d", commitMessageLength, len(data))
	}

	c.Flags = data[skipByte]
	skipByte++
	c.CommitLSN = pq.LSN(binary.BigEndian.Uint64(data[skipByte:]))
	skipByte += 8
	c.TransactionEndLSN = pq.LSN(binary.BigEndian.Uint64(data[skipByte:]))
	skipByte += 8
	c.Timestamp = int64(binary.BigEndian.Uint64(data[skipByte:]))

	return nil
}

func (c *Commit) CommitTime() time.Time {
	return PgTime(c.Timestamp)
}

func (c *Commit) Variant() Variant { return VariantCommit }

func (*Commit) change() {}

func (c *Commit) MarshalJSON() ([]byte, error) {
	type fields Commit
	return wrap(VariantCommit, (*fields)(c))
}
