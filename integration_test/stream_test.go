package integration

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/grove/pgoutput-stream/config"
	"github.com/grove/pgoutput-stream/internal/metric"
	"github.com/grove/pgoutput-stream/output"
	"github.com/grove/pgoutput-stream/pq"
	"github.com/grove/pgoutput-stream/pq/message"
	"github.com/grove/pgoutput-stream/pq/message/format"
	"github.com/grove/pgoutput-stream/pq/publication"
	"github.com/grove/pgoutput-stream/pq/replication"
	"github.com/grove/pgoutput-stream/pq/slot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	changes chan format.Change
}

func newRecorder() *recorder {
	return &recorder{changes: make(chan format.Change, 64)}
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) Deliver(_ context.Context, change format.Change) error {
	r.changes <- change
	return nil
}

func (r *recorder) Close() error { return nil }

// next waits for the next change that is not a Relation.
func (r *recorder) next(t *testing.T) format.Change {
	t.Helper()
	for {
		select {
		case c := <-r.changes:
			if _, ok := c.(*format.Relation); ok {
				continue
			}
			return c
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for a change")
			return nil
		}
	}
}

type running struct {
	stream *replication.Stream
	cancel context.CancelFunc
	done   chan error
}

func (r *running) stop(t *testing.T) {
	t.Helper()
	r.cancel()
	select {
	case err := <-r.done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("stream did not stop")
	}
}

func startStream(t *testing.T, cfg config.Config, targets ...output.Target) *running {
	t.Helper()
	ctx := context.Background()
	cfg.SetDefault()
	require.NoError(t, cfg.Validate())

	conn, err := pq.NewConnection(ctx, cfg.DSN())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(ctx) })

	require.NoError(t, publication.New(cfg.Publication, conn).Ensure(ctx))

	m := metric.NewMetric(cfg.Slot.Name)
	sl := slot.NewSlot(conn, cfg.Slot, m)
	_, err = sl.Create(ctx)
	require.NoError(t, err)

	startLSN, err := cfg.StartPosition()
	require.NoError(t, err)

	source := replication.NewPostgresSource(conn, sl, cfg.Slot.Name, cfg.Publication.Name, cfg.BatchSize, 20*time.Millisecond)
	stream := replication.NewStream(source, message.NewDecoder(message.NewRelationCache()), output.NewComposite(m, targets...), m, startLSN)

	runCtx, cancel := context.WithCancel(ctx)
	r := &running{stream: stream, cancel: cancel, done: make(chan error, 1)}
	go func() { r.done <- stream.Run(runCtx) }()

	return r
}

func TestStream(t *testing.T) {
	ctx := context.Background()

	t.Run("should deliver insert update and delete in commit order", func(t *testing.T) {
		// Given
		cfg := Config
		require.NoError(t, SetupTestDB(ctx, cfg))
		rec := newRecorder()
		r := startStream(t, cfg, rec)
		defer r.stop(t)

		// When
		err := execAll(ctx,
			"INSERT INTO books (name, price, in_stock) VALUES ('dune', 9.99, true)",
			"UPDATE books SET price = 12.5 WHERE id = 1",
			"DELETE FROM books WHERE id = 1",
		)
		require.NoError(t, err)

		// Then
		require.IsType(t, &format.Begin{}, rec.next(t))
		insert, ok := rec.next(t).(*format.Insert)
		require.True(t, ok)
		assert.Equal(t, "books", insert.TableName)
		assert.Equal(t, []string{"id", "name", "price", "in_stock"}, insert.NewTuple.Keys())
		name, _ := insert.NewTuple.Get("name")
		assert.Equal(t, "dune", name.String())
		require.IsType(t, &format.Commit{}, rec.next(t))

		require.IsType(t, &format.Begin{}, rec.next(t))
		update, ok := rec.next(t).(*format.Update)
		require.True(t, ok)
		price, _ := update.NewTuple.Get("price")
		assert.Equal(t, "12.5", price.String())
		require.IsType(t, &format.Commit{}, rec.next(t))

		require.IsType(t, &format.Begin{}, rec.next(t))
		del, ok := rec.next(t).(*format.Delete)
		require.True(t, ok)
		id, _ := del.OldTuple.Get("id")
		assert.Equal(t, "1", id.String())
		commit, ok := rec.next(t).(*format.Commit)
		require.True(t, ok)

		assert.Eventually(t, func() bool {
			return r.stream.LastCommittedLSN() >= commit.CommitLSN
		}, 5*time.Second, 20*time.Millisecond)
	})

	t.Run("should push typed rows to an ingest endpoint", func(t *testing.T) {
		// Given
		cfg := Config
		require.NoError(t, SetupTestDB(ctx, cfg))

		var (
			mu     sync.Mutex
			bodies []string
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			buf, _ := io.ReadAll(req.Body)
			mu.Lock()
			bodies = append(bodies, req.URL.Path+" "+string(buf))
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		ingest := output.NewIngest(output.IngestConfig{URL: srv.URL, Pipeline: "books"})
		r := startStream(t, cfg, ingest)
		defer r.stop(t)

		// When
		require.NoError(t, execAll(ctx, "INSERT INTO books (name, price, in_stock) VALUES ('emma', 7.5, false)"))

		// Then
		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(bodies) == 1
		}, 10*time.Second, 20*time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, `/books/ingress/public_books [{"insert":{"id":1,"name":"emma","price":7.5,"in_stock":false}}]`, bodies[0])
	})
}
