package replication

import (
	"context"
	"time"

	"github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/pq"
	"github.com/grove/pgoutput-stream/pq/slot"
	"github.com/jackc/pgx/v5"
)

// Record is one raw pgoutput message and the log position it was read at.
type Record struct {
	Data []byte
	LSN  pq.LSN
	Xid  uint32
}

// Source yields raw records in log order. Records returned by Poll are
// consumed: the slot will not return them again.
type Source interface {
	Poll(ctx context.Context) ([]Record, error)
	SlotStatus(ctx context.Context) (*slot.Info, error)
}

type SlotInfoProvider interface {
	Info(ctx context.Context) (*slot.Info, error)
}

const changesSQL = `SELECT lsn::text, xid::text::bigint, data
FROM pg_logical_slot_get_binary_changes($1, NULL, $2, 'proto_version', '1', 'publication_names', $3)`

type PostgresSource struct {
	conn         pq.Connection
	slot         SlotInfoProvider
	slotName     string
	publication  string
	batchSize    int
	pollInterval time.Duration
}

func NewPostgresSource(conn pq.Connection, slot SlotInfoProvider, slotName, publication string, batchSize int, pollInterval time.Duration) *PostgresSource {
	return &PostgresSource{
		conn:         conn,
		slot:         slot,
		slotName:     slotName,
		publication:  publication,
		batchSize:    batchSize,
		pollInterval: pollInterval,
	}
}

// Poll fetches up to batchSize changes, or all pending ones when batchSize
// is not positive. An empty batch waits pollInterval before returning, or
// less if ctx is done.
func (s *PostgresSource) Poll(ctx context.Context) ([]Record, error) {
	if err := s.conn.EnsureConnection(ctx); err != nil {
		return nil, errors.Wrap(err, "poll connection")
	}

	// NULL reads every pending change
	var upto any
	if s.batchSize > 0 {
		upto = s.batchSize
	}

	rows, err := s.conn.Query(ctx, changesSQL, s.slotName, upto, s.publication)
	if err != nil {
		return nil, errors.Wrap(err, "poll changes")
	}

	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, errors.Wrap(err, "poll changes result")
	}

	if len(records) == 0 {
		idle := time.NewTimer(s.pollInterval)
		defer idle.Stop()

		select {
		case <-ctx.Done():
		case <-idle.C:
		}
	}

	return records, nil
}

func (s *PostgresSource) SlotStatus(ctx context.Context) (*slot.Info, error) {
	return s.slot.Info(ctx)
}

func scanRecord(row pgx.CollectableRow) (Record, error) {
	var (
		lsn string
		xid int64
		rec Record
	)

	if err := row.Scan(&lsn, &xid, &rec.Data); err != nil {
		return rec, err
	}

	parsed, err := pq.ParseLSN(lsn)
	if err != nil {
		return rec, err
	}
	rec.LSN = parsed
	rec.Xid = uint32(xid)

	return rec, nil
}
