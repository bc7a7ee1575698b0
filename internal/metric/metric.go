package metric

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	relayNamespace           = "pgoutput_stream"
	replicationSlotSubsystem = "replication_slot"
)

type Metric interface {
	OpIncrement(op string)
	DeliveryFailureIncrement(target string)
	SetCDCLatency(latency int64)
	SetProcessLatency(latency int64)
	SetCommittedLSN(lsn float64)
	SetSlotActivity(active bool)
	SetSlotCurrentLSN(lsn float64)
	SetSlotConfirmedFlushLSN(lsn float64)
	SetSlotRetainedWALSize(size float64)
	SetSlotLag(lag float64)

	PrometheusCollectors() []prometheus.Collector
}

type metric struct {
	totalOp          *prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec

	cdcLatency            prometheus.Gauge
	processLatency        prometheus.Gauge
	committedLSN          prometheus.Gauge
	slotActivity          prometheus.Gauge
	slotConfirmedFlushLSN prometheus.Gauge
	slotCurrentLSN        prometheus.Gauge
	slotRetainedWALSize   prometheus.Gauge
	slotLag               prometheus.Gauge
}

func NewMetric(slotName string) Metric {
	hostname, _ := os.Hostname()
	labels := prometheus.Labels{
		"slot_name": slotName,
		"host":      hostname,
	}

	gauge := func(subsystem, name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   relayNamespace,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	return &metric{
		totalOp: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   relayNamespace,
			Subsystem:   "change",
			Name:        "total",
			Help:        "total number of decoded changes by operation",
			ConstLabels: labels,
		}, []string{"op"}),
		deliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   relayNamespace,
			Subsystem:   "delivery",
			Name:        "failures_total",
			Help:        "total number of failed deliveries by output target",
			ConstLabels: labels,
		}, []string{"target"}),
		cdcLatency:            gauge("cdc_latency", "current", "latest commit to relay latency ms"),
		processLatency:        gauge("process_latency", "current", "latest dispatch latency ns"),
		committedLSN:          gauge("cursor", "committed_lsn", "last committed lsn of the poll loop"),
		slotActivity:          gauge(replicationSlotSubsystem, "slot_is_active", "whether the replication slot is active or not"),
		slotConfirmedFlushLSN: gauge(replicationSlotSubsystem, "slot_confirmed_flush_lsn", "last lsn confirmed flushed to the replication slot"),
		slotCurrentLSN:        gauge(replicationSlotSubsystem, "slot_current_lsn", "current lsn"),
		slotRetainedWALSize:   gauge(replicationSlotSubsystem, "slot_retained_wal_size", "current lsn - restart lsn"),
		slotLag:               gauge(replicationSlotSubsystem, "slot_lag", "current lsn - confirmed flush lsn"),
	}
}

func (m *metric) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.totalOp,
		m.deliveryFailures,
		m.cdcLatency,
		m.processLatency,
		m.committedLSN,
		m.slotActivity,
		m.slotCurrentLSN,
		m.slotConfirmedFlushLSN,
		m.slotRetainedWALSize,
		m.slotLag,
	}
}

func (m *metric) OpIncrement(op string) {
	m.totalOp.WithLabelValues(op).Inc()
}

func (m *metric) DeliveryFailureIncrement(target string) {
	m.deliveryFailures.WithLabelValues(target).Inc()
}

func (m *metric) SetCDCLatency(latency int64) {
	m.cdcLatency.Set(float64(latency))
}

func (m *metric) SetProcessLatency(latency int64) {
	m.processLatency.Set(float64(latency))
}

func (m *metric) SetCommittedLSN(lsn float64) {
	m.committedLSN.Set(lsn)
}

func (m *metric) SetSlotActivity(active bool) {
	slotActivity := 0.0
	if active {
		slotActivity = 1.0
	}

	m.slotActivity.Set(slotActivity)
}

func (m *metric) SetSlotCurrentLSN(lsn float64) {
	m.slotCurrentLSN.Set(lsn)
}

func (m *metric) SetSlotConfirmedFlushLSN(lsn float64) {
	m.slotConfirmedFlushLSN.Set(lsn)
}

func (m *metric) SetSlotRetainedWALSize(size float64) {
	m.slotRetainedWALSize.Set(size)
}

func (m *metric) SetSlotLag(lag float64) {
	m.slotLag.Set(lag)
}
