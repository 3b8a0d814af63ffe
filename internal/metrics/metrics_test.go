package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAllowance(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	m := c.ForGroup("main")

	m.ObserveAllowance("0xaa", 3, 10, 500)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.used.WithLabelValues("main", "0xaa")))
	assert.Equal(t, 10.0, testutil.ToFloat64(c.capacity.WithLabelValues("main", "0xaa")))
	assert.Equal(t, 500.0, testutil.ToFloat64(c.difficulty.WithLabelValues("main", "0xaa")))
}

func TestSetSelectedKeepsSingleSeries(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	main := c.ForGroup("main")
	other := c.ForGroup("other")

	main.SetSelected("0xaa")
	other.SetSelected("0xcc")
	main.SetSelected("0xbb")

	require.Equal(t, 2, testutil.CollectAndCount(c.selected))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.selected.WithLabelValues("main", "0xbb")))

	main.SetSelected("")
	require.Equal(t, 1, testutil.CollectAndCount(c.selected))
}

func TestCounters(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	m := c.ForGroup("main")

	m.RecordLaunch()
	m.RecordLaunch()
	m.RecordTermination()
	m.RecordWorkerError("launch")
	m.RecordPollFailure("0xaa")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.launches.WithLabelValues("main")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.terminations.WithLabelValues("main")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.workerErrors.WithLabelValues("main", "launch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.pollFailures.WithLabelValues("main", "0xaa")))
}

func TestNilGroupMetricsIsNoop(t *testing.T) {
	var m *GroupMetrics

	assert.NotPanics(t, func() {
		m.ObserveAllowance("0xaa", 1, 2, 3)
		m.RecordPollFailure("0xaa")
		m.SetSelected("0xaa")
		m.RecordLaunch()
		m.RecordTermination()
		m.RecordWorkerError("launch")
	})
}
