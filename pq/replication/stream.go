package replication

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/grove/pgoutput-stream/internal/metric"
	"github.com/grove/pgoutput-stream/internal/slice"
	"github.com/grove/pgoutput-stream/logger"
	"github.com/grove/pgoutput-stream/pq"
	"github.com/grove/pgoutput-stream/pq/message"
	"github.com/grove/pgoutput-stream/pq/message/format"
	"github.com/grove/pgoutput-stream/pq/slot"
)

const reportTimeout = 5 * time.Second

// Dispatcher delivers one change to every configured output.
type Dispatcher interface {
	Deliver(ctx context.Context, change format.Change) error
}

// Report is the shutdown summary of a stream.
type Report struct {
	Slot             *slot.Info
	SlotErr          error
	State            State
	LastCommittedLSN pq.LSN
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "last committed lsn: %s", r.LastCommittedLSN)
	switch {
	case r.SlotErr != nil:
		fmt.Fprintf(&b, ", slot status unavailable: %s", r.SlotErr)
	case r.Slot != nil:
		b.WriteString(", " + r.Slot.String())
	}
	return b.String()
}

type queued struct {
	change format.Change
	lsn    pq.LSN
}

// Stream is the poll loop: fetch a batch, decode it in order, deliver every
// change, then commit the batch position. Cancellation is only observed
// between batches.
type Stream struct {
	source     Source
	decoder    *message.Decoder
	dispatcher Dispatcher
	metric     metric.Metric
	startLSN   pq.LSN

	state         atomic.Int32
	lastCommitted atomic.Uint64
}

// NewStream builds a stream. Records below startLSN are decoded, keeping the
// relation cache current, but not delivered.
func NewStream(source Source, decoder *message.Decoder, dispatcher Dispatcher, m metric.Metric, startLSN pq.LSN) *Stream {
	return &Stream{
		source:     source,
		decoder:    decoder,
		dispatcher: dispatcher,
		metric:     m,
		startLSN:   startLSN,
	}
}

// Run blocks until ctx is cancelled, which returns nil, or until a fatal
// decode, poll or delivery error.
func (s *Stream) Run(ctx context.Context) error {
	s.setState(Connecting)
	defer s.setState(Stopped)

	// in-flight batches are finished even after cancellation
	dispatchCtx := context.WithoutCancel(ctx)

	for {
		if ctx.Err() != nil {
			s.shutdown()
			return nil
		}

		records, err := s.source.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.shutdown()
				return nil
			}
			return fmt.Errorf("poll replication source: %w", err)
		}

		if s.State() == Connecting {
			s.setState(Streaming)
			logger.Info("replication stream started", "startLSN", s.startLSN)
		}

		if err = s.process(dispatchCtx, records); err != nil {
			return err
		}
	}
}

func (s *Stream) process(ctx context.Context, records []Record) error {
	queue := make([]queued, 0, len(records))

	var decodeErr error
	for _, r := range records {
		change, err := s.decoder.Decode(r.Data)
		if err != nil {
			if format.IsFatal(err) {
				decodeErr = fmt.Errorf("decode record at %s: %w", r.LSN, err)
				break
			}
			s.metric.OpIncrement(strings.ToLower(string(format.VariantUnknown)))
			logger.Debug("skipping message", "error", err, "lsn", r.LSN, "data", slice.ConvertToInt(r.Data, 64))
			continue
		}

		if change == nil || r.LSN < s.startLSN {
			continue
		}

		queue = append(queue, queued{change: change, lsn: r.LSN})
	}

	// records decoded before a fatal error are still delivered
	for i, q := range queue {
		if err := s.dispatch(ctx, q); err != nil {
			if i > 0 {
				s.commit(queue[i-1].lsn)
			}
			return err
		}
	}

	if decodeErr != nil {
		if len(queue) > 0 {
			s.commit(queue[len(queue)-1].lsn)
		}
		return decodeErr
	}

	if len(records) > 0 {
		s.commit(records[len(records)-1].LSN)
	}

	return nil
}

func (s *Stream) dispatch(ctx context.Context, q queued) error {
	variant := q.change.Variant()
	s.metric.OpIncrement(strings.ToLower(string(variant)))

	if begin, ok := q.change.(*format.Begin); ok {
		s.metric.SetCDCLatency(time.Since(begin.CommitTime()).Milliseconds())
	}

	start := time.Now()
	if err := s.dispatcher.Deliver(ctx, q.change); err != nil {
		return fmt.Errorf("deliver %s at %s: %w", variant, q.lsn, err)
	}
	s.metric.SetProcessLatency(time.Since(start).Nanoseconds())

	return nil
}

func (s *Stream) commit(lsn pq.LSN) {
	if lsn <= s.LastCommittedLSN() {
		return
	}
	s.lastCommitted.Store(uint64(lsn))
	s.metric.SetCommittedLSN(float64(lsn))
}

func (s *Stream) shutdown() {
	s.setState(ShuttingDown)
	logger.Info("replication stream shutting down", "lastCommittedLSN", s.LastCommittedLSN())
}

func (s *Stream) LastCommittedLSN() pq.LSN {
	return pq.LSN(s.lastCommitted.Load())
}

func (s *Stream) State() State {
	return State(s.state.Load())
}

func (s *Stream) setState(state State) {
	s.state.Store(int32(state))
}

// Report queries the slot status even when ctx is already cancelled.
func (s *Stream) Report(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
	defer cancel()

	r := Report{State: s.State(), LastCommittedLSN: s.LastCommittedLSN()}
	r.Slot, r.SlotErr = s.source.SlotStatus(ctx)

	return r
}
