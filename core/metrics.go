package core

import "github.com/prometheus/client_golang/prometheus"

// Metrics is optional Prometheus instrumentation for a DataChain and its
// accumulator. A nil *Metrics is always safe to use — every call site
// guards on it being non-nil — so attaching metrics is never a correctness
// dependency, only an observability one.
type Metrics struct {
	blocksCommitted prometheus.Counter
	mergeFailures   prometheus.Counter
	pendingGauge    prometheus.Gauge
}

// NewMetrics creates and registers the chain's collectors against reg. Pass
// prometheus.NewRegistry() for an isolated registry, or
// prometheus.DefaultRegisterer to publish alongside the rest of a process's
// metrics.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		blocksCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datachain_blocks_committed_total",
			Help:      "Blocks successfully appended to the chain.",
		}),
		mergeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datachain_merge_failures_total",
			Help:      "Merge attempts that failed (NoCommonAnchor or MergeInvalid).",
		}),
		pendingGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "datachain_accumulator_pending",
			Help:      "Identifiers currently accumulating votes.",
		}),
	}
	for _, c := range []prometheus.Collector{m.blocksCommitted, m.mergeFailures, m.pendingGauge} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeCommit() {
	if m == nil {
		return
	}
	m.blocksCommitted.Inc()
}

func (m *Metrics) observeMergeFailure() {
	if m == nil {
		return
	}
	m.mergeFailures.Inc()
}

func (m *Metrics) setPending(n int) {
	if m == nil {
		return
	}
	m.pendingGauge.Set(float64(n))
}
