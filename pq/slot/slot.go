package slot

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/internal/metric"
	"github.com/grove/pgoutput-stream/logger"
	"github.com/grove/pgoutput-stream/pq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrorSlotIsNotExists = goerrors.New("slot is not exists")

const (
	infoSQL = `SELECT slot_name, active, restart_lsn::text, confirmed_flush_lsn::text, pg_current_wal_lsn()::text
FROM pg_replication_slots WHERE slot_name = $1 AND slot_type = 'logical'`
	createSQL  = "SELECT pg_create_logical_replication_slot($1, 'pgoutput')"
	advanceSQL = "SELECT pg_replication_slot_advance($1, $2::pg_lsn)"

	duplicateObjectCode = "42710"
)

type Slot struct {
	conn   pq.Querier
	metric metric.Metric
	cfg    Config
}

func NewSlot(conn pq.Querier, cfg Config, m metric.Metric) *Slot {
	return &Slot{conn: conn, cfg: cfg, metric: m}
}

func (s *Slot) Name() string {
	return s.cfg.Name
}

// Create returns the slot status, creating a pgoutput slot first when it is
// missing and creation is enabled.
func (s *Slot) Create(ctx context.Context) (*Info, error) {
	info, err := s.Info(ctx)
	if err == nil {
		logger.Debug("replication slot already exists", "name", s.cfg.Name)
		return info, nil
	}
	if !goerrors.Is(err, ErrorSlotIsNotExists) || !s.cfg.CreateIfNotExists {
		return nil, errors.Wrap(err, "replication slot info")
	}

	if _, err = s.conn.Exec(ctx, createSQL, s.cfg.Name); err != nil {
		var pgErr *pgconn.PgError
		if !goerrors.As(err, &pgErr) || pgErr.Code != duplicateObjectCode {
			return nil, errors.Wrap(err, "replication slot create")
		}
	} else {
		logger.Info("replication slot created", "name", s.cfg.Name)
	}

	return s.Info(ctx)
}

func (s *Slot) Info(ctx context.Context) (*Info, error) {
	var (
		name, current      string
		active             bool
		restart, confirmed *string
	)

	err := s.conn.QueryRow(ctx, infoSQL, s.cfg.Name).Scan(&name, &active, &restart, &confirmed, &current)
	if err != nil {
		if goerrors.Is(err, pgx.ErrNoRows) {
			return nil, ErrorSlotIsNotExists
		}
		return nil, errors.Wrap(err, "replication slot info query")
	}

	return newInfo(name, active, restart, confirmed, current)
}

// Advance moves the slot forward to lsn. A position at or behind the
// confirmed flush position is left alone.
func (s *Slot) Advance(ctx context.Context, lsn pq.LSN) error {
	info, err := s.Info(ctx)
	if err != nil {
		return err
	}

	if lsn <= info.ConfirmedFlushLSN {
		logger.Info("replication slot already past start lsn", "startLSN", lsn, "confirmedFlushLSN", info.ConfirmedFlushLSN)
		return nil
	}

	if _, err = s.conn.Exec(ctx, advanceSQL, s.cfg.Name, lsn.String()); err != nil {
		return errors.Wrap(err, "replication slot advance")
	}

	logger.Info("replication slot advanced", "name", s.cfg.Name, "lsn", lsn)

	return nil
}

// Metrics polls the slot status until ctx is done.
func (s *Slot) Metrics(ctx context.Context) {
	ticker := time.NewTicker(time.Millisecond * s.cfg.SlotActivityCheckerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		info, err := s.Info(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("slot metrics", "error", err)
			}
			continue
		}

		s.metric.SetSlotActivity(info.Active)
		s.metric.SetSlotCurrentLSN(float64(info.CurrentLSN))
		s.metric.SetSlotConfirmedFlushLSN(float64(info.ConfirmedFlushLSN))
		s.metric.SetSlotRetainedWALSize(float64(info.RetainedWALSize))
		s.metric.SetSlotLag(float64(info.Lag))

		logger.Debug("slot metrics", "info", info.String())
	}
}
