package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector_LazyRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewPrometheus(reg, "test")

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Empty(t, families)
}

func TestPrometheusCollector_DefaultNamespace(t *testing.T) {
	p := NewPrometheus(prometheus.NewRegistry(), "")
	require.Equal(t, "radicchio", p.namespace)
}

func TestPrometheusCollector_RecordOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.RecordOperation("start", "success", 0.002)
	p.RecordOperation("start", "success", 0.003)
	p.RecordOperation("delete", "not_found", 0.001)

	require.InDelta(t, 2, testutil.ToFloat64(p.operations.WithLabelValues("start", "success")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.operations.WithLabelValues("delete", "not_found")), 0)
	require.Equal(t, 2, testutil.CollectAndCount(p.operationLatency))
}

func TestPrometheusCollector_BridgeMetrics(t *testing.T) {
	p := NewPrometheus(prometheus.NewRegistry(), "test")

	p.RecordNotification("expired")
	p.RecordNotification("expired")
	p.RecordNotificationFailure("expired")
	p.RecordEvent("expired")
	p.RecordGenerationRotation()

	require.InDelta(t, 2, testutil.ToFloat64(p.notifications.WithLabelValues("expired")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.notificationFailures.WithLabelValues("expired")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.events.WithLabelValues("expired")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.rotations), 0)
}

func TestPrometheusCollector_RecordSweep(t *testing.T) {
	p := NewPrometheus(prometheus.NewRegistry(), "test")

	p.RecordSweep(0.01, 3, 5, true)
	require.InDelta(t, 3, testutil.ToFloat64(p.activeTimers), 0)
	require.InDelta(t, 5, testutil.ToFloat64(p.retainedTimer), 0)

	// failed pass keeps the last observed counts
	p.RecordSweep(0.02, 0, 0, false)
	require.InDelta(t, 3, testutil.ToFloat64(p.activeTimers), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.sweeps.WithLabelValues("false")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.sweeps.WithLabelValues("true")), 0)
}
