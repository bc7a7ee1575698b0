package output

import (
	"context"
	"errors"
	"testing"

	"github.com/grove/pgoutput-stream/internal/metric"
	"github.com/grove/pgoutput-stream/pq/message/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	calls []string
}

type stubTarget struct {
	deliverErr error
	closeErr   error
	log        *callLog
	name       string
}

func (s *stubTarget) Name() string { return s.name }

func (s *stubTarget) Deliver(_ context.Context, change format.Change) error {
	s.log.calls = append(s.log.calls, s.name+":"+string(change.Variant()))
	return s.deliverErr
}

func (s *stubTarget) Close() error { return s.closeErr }

func TestComposite_Deliver(t *testing.T) {
	t.Run("should deliver to every target in order", func(t *testing.T) {
		// Given
		log := &callLog{}
		composite := NewComposite(metric.NewMetric("test_slot"),
			&stubTarget{name: "a", log: log},
			&stubTarget{name: "b", log: log},
			&stubTarget{name: "c", log: log},
		)

		// When
		require.NoError(t, composite.Deliver(context.Background(), &format.Begin{}))
		require.NoError(t, composite.Deliver(context.Background(), &format.Commit{}))

		// Then
		assert.Equal(t, []string{"a:Begin", "b:Begin", "c:Begin", "a:Commit", "b:Commit", "c:Commit"}, log.calls)
	})

	t.Run("should stop at the first failing target", func(t *testing.T) {
		// Given
		log := &callLog{}
		errDown := errors.New("down")
		composite := NewComposite(metric.NewMetric("test_slot"),
			&stubTarget{name: "a", log: log},
			&stubTarget{name: "b", log: log, deliverErr: errDown},
			&stubTarget{name: "c", log: log},
		)

		// When
		err := composite.Deliver(context.Background(), usersInsert())

		// Then
		require.Error(t, err)
		var de *DeliveryError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "b", de.Target)
		assert.True(t, errors.Is(err, errDown))
		assert.Equal(t, "output b: down", err.Error())
		assert.Equal(t, []string{"a:Insert", "b:Insert"}, log.calls)
	})

	t.Run("should join close errors", func(t *testing.T) {
		log := &callLog{}
		composite := NewComposite(metric.NewMetric("test_slot"),
			&stubTarget{name: "a", log: log, closeErr: errors.New("a failed")},
			&stubTarget{name: "b", log: log},
			&stubTarget{name: "c", log: log, closeErr: errors.New("c failed")},
		)

		err := composite.Close()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "output a: a failed")
		assert.Contains(t, err.Error(), "output c: c failed")
	})
}
