package output

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/logger"
	"github.com/grove/pgoutput-stream/pq/message/format"
	"github.com/nats-io/nats.go"
)

const (
	DefaultSubjectPrefix = "postgres"
	flushTimeout         = 5 * time.Second
)

type BusConfig struct {
	URLs          []string `json:"urls" yaml:"urls"`
	SubjectPrefix string   `json:"subjectPrefix" yaml:"subjectPrefix"`
	Name          string   `json:"name" yaml:"name"`
}

func (c BusConfig) Validate() error {
	if len(c.URLs) == 0 {
		return errors.New("nats urls cannot be empty")
	}
	return nil
}

// Publisher is the part of *nats.Conn the bus uses.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
}

// Bus publishes every change as its JSON form on a subject derived from the
// change. Publishes are flushed at each commit.
type Bus struct {
	publisher Publisher
	closer    func() error
	prefix    string
}

func NewBus(cfg BusConfig) (*Bus, error) {
	name := cfg.Name
	if name == "" {
		name = "pgoutput-stream"
	}

	conn, err := nats.Connect(strings.Join(cfg.URLs, ","),
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "nats connect")
	}

	logger.Info("publishing changes to nats", "url", conn.ConnectedUrl(), "prefix", cfg.prefix())

	return &Bus{publisher: conn, closer: conn.Drain, prefix: cfg.prefix()}, nil
}

// NewBusWithPublisher builds a bus over an existing publisher; Close does not
// close it.
func NewBusWithPublisher(p Publisher, prefix string) *Bus {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Bus{publisher: p, prefix: prefix}
}

func (c BusConfig) prefix() string {
	if c.SubjectPrefix == "" {
		return DefaultSubjectPrefix
	}
	return c.SubjectPrefix
}

func (b *Bus) Name() string {
	return TypeNATS
}

func (b *Bus) Deliver(_ context.Context, change format.Change) error {
	subject, ok := Subject(b.prefix, change)
	if !ok {
		return nil
	}

	payload, err := json.Marshal(change)
	if err != nil {
		return errors.Wrap(err, "nats encode")
	}

	if err = b.publisher.Publish(subject, payload); err != nil {
		return errors.Wrap(err, "nats publish "+subject)
	}

	if change.Variant() == format.VariantCommit {
		if err = b.publisher.FlushTimeout(flushTimeout); err != nil {
			return errors.Wrap(err, "nats flush")
		}
	}

	return nil
}

func (b *Bus) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

// Subject returns the subject for change:
//
//	<prefix>.<schema>.<table>.<insert|update|delete|relation>
//	<prefix>.transactions.<begin|commit>.event
//
// Unknown changes have no subject.
func Subject(prefix string, change format.Change) (string, bool) {
	switch c := change.(type) {
	case *format.Begin:
		return prefix + ".transactions.begin.event", true
	case *format.Commit:
		return prefix + ".transactions.commit.event", true
	case *format.Relation:
		return tableSubject(prefix, c.Table(), "relation"), true
	case format.RowChange:
		return tableSubject(prefix, c.Table(), strings.ToLower(string(c.Variant()))), true
	default:
		return "", false
	}
}

func tableSubject(prefix string, ref format.TableRef, op string) string {
	return prefix + "." + ref.Namespace + "." + ref.Name + "." + op
}
