package pq

import (
	"context"
	goerrors "errors"

	"github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/internal/retry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by both a Connection and a *pgxpool.Pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Connection interface {
	Querier
	IsClosed() bool
	Close(ctx context.Context) error
	EnsureConnection(ctx context.Context) error
}

type connection struct {
	*pgx.Conn
	dsn string
}

func NewConnection(ctx context.Context, dsn string) (Connection, error) {
	conn, err := connect(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "postgres connection")
	}

	return &connection{
		Conn: conn,
		dsn:  dsn,
	}, nil
}

func (c *connection) EnsureConnection(ctx context.Context) error {
	if !c.IsClosed() && c.Ping(ctx) == nil {
		return nil
	}

	conn, err := connect(ctx, c.dsn)
	if err != nil {
		return errors.Wrap(err, "reconnect postgres connection")
	}
	c.Conn = conn

	return nil
}

func connect(ctx context.Context, dsn string) (*pgx.Conn, error) {
	retryConfig := retry.OnErrorConfig[*pgx.Conn](5, isRetryable)
	conn, err := retryConfig.Do(func() (*pgx.Conn, error) {
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return nil, err
		}

		if err = conn.Ping(ctx); err != nil {
			_ = conn.Close(ctx)
			return nil, err
		}

		return conn, nil
	})

	if err != nil {
		return nil, errors.Wrap(err, "postgres connect")
	}

	return conn, nil
}

// isRetryable rejects server-side errors such as bad credentials or a
// missing database; those will not go away on the next attempt.
func isRetryable(err error) bool {
	if goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	return !goerrors.As(err, &pgErr)
}
