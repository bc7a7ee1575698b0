package output

import (
	"context"

	"github.com/grove/pgoutput-stream/pq/message/format"
)

const (
	TypeConsole = "console"
	TypeNATS    = "nats"
	TypeFeldera = "feldera"
)

var TypeOptions = []string{TypeConsole, TypeNATS, TypeFeldera}

// Target delivers changes to one destination. Deliver is called for one
// change at a time, in stream order.
type Target interface {
	Name() string
	Deliver(ctx context.Context, change format.Change) error
	Close() error
}

// DeliveryError reports which target failed to take a change.
type DeliveryError struct {
	Err    error
	Target string
}

func (e *DeliveryError) Error() string {
	return "output " + e.Target + ": " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
