package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "posw"

// Collector owns all the router collectors. One collector is shared by all
// the groups, series are distinguished by the group label
type Collector struct {
	used       *prometheus.GaugeVec
	capacity   *prometheus.GaugeVec
	difficulty *prometheus.GaugeVec
	selected   *prometheus.GaugeVec

	pollFailures *prometheus.CounterVec
	launches     *prometheus.CounterVec
	terminations *prometheus.CounterVec
	workerErrors *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		used: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "allowance_used",
			Help:      "Blocks mined by the target within the recent 256 blocks",
		}, []string{"group", "address"}),
		capacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "allowance_capacity",
			Help:      "Allowances derived from the target balance or stake",
		}, []string{"group", "address"}),
		difficulty: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "difficulty",
			Help:      "Scaled difficulty of the target chain, zero for root chain targets",
		}, []string{"group", "address"}),
		selected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "selected",
			Help:      "1 for the target the miner is currently running for",
		}, []string{"group", "address"}),
		pollFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_failures_total",
			Help:      "Failed allowance poll cycles",
		}, []string{"group", "address"}),
		launches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_launches_total",
			Help:      "Miner processes started",
		}, []string{"group"}),
		terminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_terminations_total",
			Help:      "Miner processes killed",
		}, []string{"group"}),
		workerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_errors_total",
			Help:      "Miner process control errors",
		}, []string{"group", "kind"}),
	}

	reg.MustRegister(
		c.used,
		c.capacity,
		c.difficulty,
		c.selected,
		c.pollFailures,
		c.launches,
		c.terminations,
		c.workerErrors,
	)

	return c
}

// ForGroup returns a recorder bound to a single group
func (c *Collector) ForGroup(group string) *GroupMetrics {
	return &GroupMetrics{c: c, group: group}
}

// GroupMetrics is safe to use as a nil pointer, in which case nothing is recorded
type GroupMetrics struct {
	c     *Collector
	group string
}

func (m *GroupMetrics) ObserveAllowance(address string, used, capacity uint32, difficulty uint64) {
	if m == nil {
		return
	}
	m.c.used.WithLabelValues(m.group, address).Set(float64(used))
	m.c.capacity.WithLabelValues(m.group, address).Set(float64(capacity))
	m.c.difficulty.WithLabelValues(m.group, address).Set(float64(difficulty))
}

func (m *GroupMetrics) RecordPollFailure(address string) {
	if m == nil {
		return
	}
	m.c.pollFailures.WithLabelValues(m.group, address).Inc()
}

// SetSelected marks address as the only selected target of the group, empty
// address clears the selection
func (m *GroupMetrics) SetSelected(address string) {
	if m == nil {
		return
	}
	m.c.selected.DeletePartialMatch(prometheus.Labels{"group": m.group})
	if address != "" {
		m.c.selected.WithLabelValues(m.group, address).Set(1)
	}
}

func (m *GroupMetrics) RecordLaunch() {
	if m == nil {
		return
	}
	m.c.launches.WithLabelValues(m.group).Inc()
}

func (m *GroupMetrics) RecordTermination() {
	if m == nil {
		return
	}
	m.c.terminations.WithLabelValues(m.group).Inc()
}

func (m *GroupMetrics) RecordWorkerError(kind string) {
	if m == nil {
		return
	}
	m.c.workerErrors.WithLabelValues(m.group, kind).Inc()
}
