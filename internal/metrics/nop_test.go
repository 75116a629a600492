package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tibrahul/Radicchio/types"
)

func TestNewNop(t *testing.T) {
	metrics := NewNop()

	require.NotNil(t, metrics)
	require.IsType(t, &NopMetrics{}, metrics)
}

func TestNopMetrics_AllMethods(t *testing.T) {
	metrics := NewNop()

	require.NotPanics(t, func() {
		metrics.RecordOperation("start", "success", 0.001)
		metrics.RecordOperation("", "", -1)
		metrics.RecordNotification("expired")
		metrics.RecordNotificationFailure("deleted")
		metrics.RecordEvent("suspended")
		metrics.RecordGenerationRotation()
		metrics.RecordSweep(0.01, 3, 4, true)
		metrics.RecordSweep(0, 0, 0, false)
	})
}

func TestOrNop(t *testing.T) {
	require.IsType(t, &NopMetrics{}, OrNop(nil))

	var custom types.MetricsCollector = NewPrometheus(nil, "unused")
	require.Same(t, custom, OrNop(custom))
}

func BenchmarkNopMetrics_RecordOperation(b *testing.B) {
	metrics := NewNop()
	for b.Loop() {
		metrics.RecordOperation("start", "success", 0.001)
	}
}
