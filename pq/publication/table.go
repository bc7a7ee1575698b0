package publication

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/go-playground/errors"
	"github.com/lib/pq"
)

type Table struct {
	Name            string `json:"name" yaml:"name"`
	Schema          string `json:"schema,omitempty" yaml:"schema,omitempty"`
	ReplicaIdentity string `json:"replicaIdentity,omitempty" yaml:"replicaIdentity,omitempty"`
}

func (t Table) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("table name cannot be empty")
	}

	if t.ReplicaIdentity != "" && !slices.Contains(ReplicaIdentityOptions, t.ReplicaIdentity) {
		return errors.Newf("undefined replica identity option. valid identity options are: %v", ReplicaIdentityOptions)
	}

	return nil
}

func (t Table) QualifiedName() string {
	return t.Schema + "." + t.Name
}

func (t Table) quoted() string {
	return pq.QuoteIdentifier(t.Schema) + "." + pq.QuoteIdentifier(t.Name)
}

type Tables []Table

// Diff returns the tables whose replica identity differs from the current
// state, or which are missing from it. Tables without a configured replica
// identity are never part of the diff.
func (ts Tables) Diff(current Tables) Tables {
	res := Tables{}
	currentMap := make(map[string]Table, len(current))

	for _, t := range current {
		currentMap[t.QualifiedName()] = t
	}

	for _, t := range ts {
		if t.ReplicaIdentity == "" {
			continue
		}
		if v, found := currentMap[t.QualifiedName()]; !found || v.ReplicaIdentity != t.ReplicaIdentity {
			res = append(res, t)
		}
	}

	return res
}

func (t *Table) UnmarshalJSON(data []byte) error {
	type Alias Table
	aux := (*Alias)(t)

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if t.Schema == "" {
		t.Schema = "public"
	}

	return nil
}

func (t *Table) UnmarshalYAML(unmarshal func(any) error) error {
	type Alias Table
	aux := (*Alias)(t)

	if err := unmarshal(aux); err != nil {
		return err
	}

	if t.Schema == "" {
		t.Schema = "public"
	}

	return nil
}
