package slot

import (
	"fmt"

	"github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/pq"
)

type Info struct {
	Name              string `json:"name"`
	RestartLSN        pq.LSN `json:"restartLSN"`
	ConfirmedFlushLSN pq.LSN `json:"confirmedFlushLSN"`
	CurrentLSN        pq.LSN `json:"currentLSN"`
	RetainedWALSize   uint64 `json:"retainedWALSize"`
	Lag               uint64 `json:"lag"`
	Active            bool   `json:"active"`
}

func (i *Info) String() string {
	return fmt.Sprintf("slot %s: active=%t, restart_lsn=%s, confirmed_flush_lsn=%s, current_lsn=%s, lag=%d",
		i.Name, i.Active, i.RestartLSN, i.ConfirmedFlushLSN, i.CurrentLSN, i.Lag)
}

// newInfo builds Info from the text columns of pg_replication_slots. The
// restart and confirmed positions are null on a slot that never streamed.
func newInfo(name string, active bool, restartLSN, confirmedFlushLSN *string, currentLSN string) (*Info, error) {
	info := &Info{Name: name, Active: active}

	var err error
	if restartLSN != nil {
		if info.RestartLSN, err = pq.ParseLSN(*restartLSN); err != nil {
			return nil, errors.Wrap(err, "restart lsn")
		}
	}
	if confirmedFlushLSN != nil {
		if info.ConfirmedFlushLSN, err = pq.ParseLSN(*confirmedFlushLSN); err != nil {
			return nil, errors.Wrap(err, "confirmed flush lsn")
		}
	}
	if info.CurrentLSN, err = pq.ParseLSN(currentLSN); err != nil {
		return nil, errors.Wrap(err, "current lsn")
	}

	info.RetainedWALSize = distance(info.CurrentLSN, info.RestartLSN)
	info.Lag = distance(info.CurrentLSN, info.ConfirmedFlushLSN)

	return info, nil
}

func distance(current, pos pq.LSN) uint64 {
	if pos == 0 || pos > current {
		return 0
	}
	return uint64(current - pos)
}
