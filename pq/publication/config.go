package publication

import (
	"fmt"
	"strings"

	"github.com/go-playground/errors"
	"github.com/lib/pq"
)

type Config struct {
	Name              string     `json:"name" yaml:"name"`
	Operations        Operations `json:"operations" yaml:"operations"`
	Tables            Tables     `json:"tables" yaml:"tables"`
	CreateIfNotExists bool       `json:"createIfNotExists" yaml:"createIfNotExists"`
}

func (c *Config) SetDefault() {
	if len(c.Operations) == 0 {
		c.Operations = Operations{OperationInsert, OperationUpdate, OperationDelete}
	}

	for i := range c.Tables {
		if c.Tables[i].Schema == "" {
			c.Tables[i].Schema = "public"
		}
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("publication name cannot be empty")
	}

	if !c.CreateIfNotExists {
		return nil
	}

	if err := c.Operations.Validate(); err != nil {
		return errors.Wrap(err, "publication operations")
	}

	for i, t := range c.Tables {
		if err := t.Validate(); err != nil {
			return errors.Wrap(err, fmt.Sprintf("publication tables[%d]", i))
		}
	}

	return nil
}

// createQuery publishes every table when no table is configured.
func (c Config) createQuery() string {
	sql := "CREATE PUBLICATION " + pq.QuoteIdentifier(c.Name)

	if len(c.Tables) == 0 {
		sql += " FOR ALL TABLES"
	} else {
		quoted := make([]string, len(c.Tables))
		for i, t := range c.Tables {
			quoted[i] = t.quoted()
		}
		sql += " FOR TABLE " + strings.Join(quoted, ", ")
	}

	return sql + fmt.Sprintf(" WITH (publish = %s)", pq.QuoteLiteral(strings.ToLower(c.Operations.String())))
}
