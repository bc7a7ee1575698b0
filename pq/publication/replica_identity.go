package publication

import (
	"context"
	"fmt"

	"github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/logger"
	"github.com/jackc/pgx/v5"
)

const (
	ReplicaIdentityDefault = "DEFAULT"
	ReplicaIdentityFull    = "FULL"
	ReplicaIdentityNothing = "NOTHING"
)

var ReplicaIdentityOptions = []string{ReplicaIdentityDefault, ReplicaIdentityFull, ReplicaIdentityNothing}

const replicaIdentitiesSQL = `SELECT n.nspname, c.relname, c.relreplident::text
FROM pg_class c JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname || '.' || c.relname = ANY($1)`

// SetReplicaIdentities alters configured tables whose replica identity
// differs from the server. FULL makes updates and deletes carry the whole
// old row.
func (p *Publication) SetReplicaIdentities(ctx context.Context) error {
	current, err := p.ReplicaIdentities(ctx)
	if err != nil {
		return err
	}

	for _, t := range p.cfg.Tables.Diff(current) {
		sql := fmt.Sprintf("ALTER TABLE %s REPLICA IDENTITY %s", t.quoted(), t.ReplicaIdentity)
		if _, err = p.conn.Exec(ctx, sql); err != nil {
			return errors.Wrap(err, "alter replica identity of "+t.QualifiedName())
		}

		logger.Info("table replica identity updated", "table", t.QualifiedName(), "replicaIdentity", t.ReplicaIdentity)
	}

	return nil
}

func (p *Publication) ReplicaIdentities(ctx context.Context) (Tables, error) {
	names := make([]string, len(p.cfg.Tables))
	for i, t := range p.cfg.Tables {
		names[i] = t.QualifiedName()
	}

	rows, err := p.conn.Query(ctx, replicaIdentitiesSQL, names)
	if err != nil {
		return nil, errors.Wrap(err, "replica identities query")
	}

	tables, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Table, error) {
		var t Table
		var code string
		if err := row.Scan(&t.Schema, &t.Name, &code); err != nil {
			return t, err
		}
		t.ReplicaIdentity = mapReplicaIdentity(code)
		return t, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "replica identities result")
	}

	return tables, nil
}

func mapReplicaIdentity(code string) string {
	switch code {
	case "d":
		return ReplicaIdentityDefault
	case "f":
		return ReplicaIdentityFull
	case "n":
		return ReplicaIdentityNothing
	default:
		return code
	}
}
