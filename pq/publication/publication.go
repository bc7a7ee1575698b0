package publication

import (
	"context"
	goerrors "errors"
	"strconv"

	"github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/logger"
	"github.com/grove/pgoutput-stream/pq"
)

var ErrorPublicationIsNotExists = goerrors.New("publication is not exists")

type Publication struct {
	conn pq.Connection
	cfg  Config
}

func New(cfg Config, conn pq.Connection) *Publication {
	return &Publication{cfg: cfg, conn: conn}
}

// Ensure checks that the publication exists, creating it when configured to.
func (p *Publication) Ensure(ctx context.Context) error {
	exists, err := p.Exists(ctx)
	if err != nil {
		return err
	}

	if !exists {
		if !p.cfg.CreateIfNotExists {
			return errors.Wrap(ErrorPublicationIsNotExists, strconv.Quote(p.cfg.Name))
		}

		if _, err = p.conn.Exec(ctx, p.cfg.createQuery()); err != nil {
			return errors.Wrap(err, "publication create")
		}
		logger.Info("publication created", "name", p.cfg.Name)
	} else {
		logger.Debug("publication already exists", "name", p.cfg.Name)
	}

	if !p.cfg.CreateIfNotExists || len(p.cfg.Tables) == 0 {
		return nil
	}

	return p.SetReplicaIdentities(ctx)
}

func (p *Publication) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := p.conn.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM pg_publication WHERE pubname = $1)", p.cfg.Name).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "publication info")
	}

	return exists, nil
}
