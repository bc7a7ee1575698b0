package relay

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/config"
	"github.com/grove/pgoutput-stream/internal/http"
	"github.com/grove/pgoutput-stream/internal/metric"
	"github.com/grove/pgoutput-stream/logger"
	"github.com/grove/pgoutput-stream/output"
	"github.com/grove/pgoutput-stream/pq"
	"github.com/grove/pgoutput-stream/pq/message"
	"github.com/grove/pgoutput-stream/pq/publication"
	"github.com/grove/pgoutput-stream/pq/replication"
	"github.com/grove/pgoutput-stream/pq/slot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

type Relay interface {
	// Start streams until ctx is cancelled, SIGINT or SIGTERM arrives, or a
	// fatal error occurs.
	Start(ctx context.Context) error
	Report(ctx context.Context) replication.Report
	Close()
	GetConfig() *config.Config
	SetMetricCollectors(collectors ...prometheus.Collector)
}

type relay struct {
	cfg                *config.Config
	conn               pq.Connection
	pool               *pgxpool.Pool
	slot               *slot.Slot
	stream             *replication.Stream
	targets            *output.Composite
	prometheusRegistry metric.Registry
	server             http.Server
}

func NewWithConfigFile(ctx context.Context, configFilePath string) (Relay, error) {
	cfg, err := config.ReadConfig(configFilePath)
	if err != nil {
		return nil, err
	}

	return New(ctx, cfg)
}

func New(ctx context.Context, cfg config.Config) (_ Relay, err error) {
	cfg.SetDefault()
	if err = cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation")
	}
	logger.InitLogger(cfg.Logger.Logger)
	cfg.Print()

	startLSN, err := cfg.StartPosition()
	if err != nil {
		return nil, errors.Wrap(err, "start lsn")
	}

	r := &relay{cfg: &cfg}
	defer func() {
		if err != nil {
			r.Close()
		}
	}()

	r.conn, err = pq.NewConnection(ctx, cfg.DSN())
	if err != nil {
		return nil, err
	}

	if err = publication.New(cfg.Publication, r.conn).Ensure(ctx); err != nil {
		return nil, err
	}

	// slot status is polled concurrently with the stream
	r.pool, err = pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "postgres pool")
	}

	m := metric.NewMetric(cfg.Slot.Name)

	r.slot = slot.NewSlot(r.pool, cfg.Slot, m)
	slotInfo, err := r.slot.Create(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("replication slot", "info", slotInfo.String())

	if startLSN > 0 {
		if err = r.slot.Advance(ctx, startLSN); err != nil {
			return nil, err
		}
	}

	targets, err := newTargets(cfg.Outputs, os.Stdout)
	if err != nil {
		return nil, err
	}
	r.targets = output.NewComposite(m, targets...)

	relations := message.NewRelationCache()
	source := replication.NewPostgresSource(r.conn, r.slot, cfg.Slot.Name, cfg.Publication.Name, cfg.BatchSize, time.Millisecond*cfg.PollInterval)
	r.stream = replication.NewStream(source, message.NewDecoder(relations), r.targets, m, startLSN)

	r.prometheusRegistry = metric.NewRegistry(m)
	r.prometheusRegistry.AddMetricCollectors(relationsGauge(relations))

	if cfg.Metric.Port > 0 {
		r.server = http.NewServer(cfg.Metric.Port, cfg.DebugMode, r.prometheusRegistry, r.slot, cursor{r.stream})
	}

	return r, nil
}

func (r *relay) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go r.slot.Metrics(ctx)

	if r.server != nil {
		go r.server.Listen()
	}

	logger.Info("relay started", "slot", r.cfg.Slot.Name, "publication", r.cfg.Publication.Name, "outputs", len(r.targets.Targets()))

	return r.stream.Run(ctx)
}

func (r *relay) Report(ctx context.Context) replication.Report {
	return r.stream.Report(ctx)
}

func (r *relay) Close() {
	if r.server != nil {
		r.server.Shutdown()
	}

	if r.targets != nil {
		if err := r.targets.Close(); err != nil {
			logger.Error("close outputs", "error", err)
		}
	}

	if r.pool != nil {
		r.pool.Close()
	}

	if r.conn != nil {
		if err := r.conn.Close(context.Background()); err != nil {
			logger.Error("close postgres connection", "error", err)
		}
	}
}

func (r *relay) GetConfig() *config.Config {
	return r.cfg
}

func (r *relay) SetMetricCollectors(metricCollectors ...prometheus.Collector) {
	r.prometheusRegistry.AddMetricCollectors(metricCollectors...)
}

// newTargets builds the outputs in configured order. Console outputs write to w.
func newTargets(outputs []config.OutputConfig, w io.Writer) ([]output.Target, error) {
	targets := make([]output.Target, 0, len(outputs))
	for i, o := range outputs {
		t, err := newTarget(o, w)
		if err != nil {
			_ = output.NewComposite(nil, targets...).Close()
			return nil, errors.Wrap(err, "output "+o.Type)
		}
		logger.Debug("output configured", "index", i, "type", o.Type)
		targets = append(targets, t)
	}

	return targets, nil
}

func newTarget(o config.OutputConfig, w io.Writer) (output.Target, error) {
	switch o.Type {
	case output.TypeConsole:
		f, err := output.ParseFormat(o.Console.Format)
		if err != nil {
			return nil, err
		}
		return output.NewConsole(w, f), nil
	case output.TypeNATS:
		bus, err := output.NewBus(o.NATS)
		if err != nil {
			return nil, err
		}
		return bus, nil
	case output.TypeFeldera:
		return output.NewIngest(o.Feldera), nil
	default:
		return nil, errors.Newf("unknown output type: %s", o.Type)
	}
}

func relationsGauge(relations *message.RelationCache) prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "pgoutput_stream",
		Name:      "cached_relations",
		Help:      "number of relations known to the decoder",
	}, func() float64 {
		return float64(relations.Len())
	})
}

// cursor exposes the stream state as text for the status server.
type cursor struct {
	*replication.Stream
}

func (c cursor) State() string {
	return c.Stream.State().String()
}
