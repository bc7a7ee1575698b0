package output

import (
	"context"
	"errors"

	"github.com/grove/pgoutput-stream/internal/metric"
	"github.com/grove/pgoutput-stream/pq/message/format"
)

// Composite fans a change out to its targets in order and stops at the
// first failure; later targets do not see that change.
type Composite struct {
	metric  metric.Metric
	targets []Target
}

func NewComposite(m metric.Metric, targets ...Target) *Composite {
	return &Composite{metric: m, targets: targets}
}

func (c *Composite) Name() string {
	return "composite"
}

func (c *Composite) Targets() []Target {
	return c.targets
}

func (c *Composite) Deliver(ctx context.Context, change format.Change) error {
	for _, t := range c.targets {
		if err := t.Deliver(ctx, change); err != nil {
			c.metric.DeliveryFailureIncrement(t.Name())

			var de *DeliveryError
			if errors.As(err, &de) {
				return err
			}
			return &DeliveryError{Target: t.Name(), Err: err}
		}
	}

	return nil
}

// Close closes every target and joins their errors.
func (c *Composite) Close() error {
	var err error
	for _, t := range c.targets {
		if cErr := t.Close(); cErr != nil {
			err = errors.Join(err, &DeliveryError{Target: t.Name(), Err: cErr})
		}
	}

	return err
}
