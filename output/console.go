package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/pq/message/format"
	"github.com/grove/pgoutput-stream/pq/message/tuple"
)

type Format string

const (
	FormatJSON       Format = "json"
	FormatJSONPretty Format = "json-pretty"
	FormatText       Format = "text"
)

// ParseFormat accepts json, json-pretty and text in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatJSONPretty, FormatText:
		return f, nil
	default:
		return "", errors.Newf("unknown output format: %s. Valid options: json, json-pretty, text", s)
	}
}

// Console writes one change per line as JSON, or as an indented text block.
type Console struct {
	w      io.Writer
	format Format
	mu     sync.Mutex
}

func NewConsole(w io.Writer, format Format) *Console {
	return &Console{w: w, format: format}
}

func (c *Console) Name() string {
	return TypeConsole
}

func (c *Console) Deliver(_ context.Context, change format.Change) error {
	var (
		b   []byte
		err error
	)

	switch c.format {
	case FormatJSONPretty:
		b, err = json.MarshalIndent(change, "", "  ")
	case FormatText:
		b = []byte(Text(change))
	default:
		b, err = json.Marshal(change)
	}
	if err != nil {
		return errors.Wrap(err, "console encode")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err = c.w.Write(append(b, '\n')); err != nil {
		return errors.Wrap(err, "console write")
	}

	return nil
}

func (c *Console) Close() error {
	return nil
}

// Text renders the human readable form of a change without a trailing newline.
func Text(change format.Change) string {
	var b strings.Builder

	switch c := change.(type) {
	case *format.Begin:
		fmt.Fprintf(&b, "BEGIN [LSN: %s, XID: %d, Time: %d]", c.FinalLSN, c.Xid, c.Timestamp)
	case *format.Commit:
		fmt.Fprintf(&b, "COMMIT [LSN: %s, Time: %d]", c.CommitLSN, c.Timestamp)
	case *format.Relation:
		fmt.Fprintf(&b, "RELATION [%s.%s (ID: %d)]\n  Columns:", c.Namespace, c.Name, c.OID)
		for _, col := range c.Columns {
			fmt.Fprintf(&b, "\n    - %s (type_id: %d, flags: %d)", col.Name, col.DataType, col.Flags)
		}
	case *format.Insert:
		fmt.Fprintf(&b, "INSERT into %s.%s (ID: %d)", c.TableNamespace, c.TableName, c.OID)
		writeValues(&b, "New values", c.NewTuple)
	case *format.Update:
		fmt.Fprintf(&b, "UPDATE %s.%s (ID: %d)", c.TableNamespace, c.TableName, c.OID)
		if c.OldTuple != nil {
			writeValues(&b, "Old values", c.OldTuple)
		}
		writeValues(&b, "New values", c.NewTuple)
	case *format.Delete:
		fmt.Fprintf(&b, "DELETE from %s.%s (ID: %d)", c.TableNamespace, c.TableName, c.OID)
		writeValues(&b, "Old values", c.OldTuple)
	case *format.Unknown:
		fmt.Fprintf(&b, "UNKNOWN [Tag: %c]", c.Tag)
	}

	return b.String()
}

func writeValues(b *strings.Builder, title string, t *tuple.Tuple) {
	fmt.Fprintf(b, "\n  %s:", title)
	t.Each(func(name string, v tuple.Value) {
		fmt.Fprintf(b, "\n    %s: %s", name, v)
	})
}
