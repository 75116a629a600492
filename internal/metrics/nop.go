// Package metrics provides types.MetricsCollector implementations.
package metrics

import "github.com/tibrahul/Radicchio/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. It is the manager's default collector.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Example:
//
//	mgr, err := radicchio.NewManager(&cfg, st, radicchio.WithMetrics(metrics.NewNop()))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// OperationMetrics implementation

// RecordOperation discards the operation metric.
func (n *NopMetrics) RecordOperation(_ /* op */, _ /* result */ string, _ /* duration */ float64) {
	// No-op
}

// BridgeMetrics implementation

// RecordNotification discards the notification metric.
func (n *NopMetrics) RecordNotification(_ /* kind */ string) {
	// No-op
}

// RecordNotificationFailure discards the notification failure metric.
func (n *NopMetrics) RecordNotificationFailure(_ /* kind */ string) {
	// No-op
}

// RecordEvent discards the event metric.
func (n *NopMetrics) RecordEvent(_ /* name */ string) {
	// No-op
}

// RecordGenerationRotation discards the rotation metric.
func (n *NopMetrics) RecordGenerationRotation() {
	// No-op
}

// SweeperMetrics implementation

// RecordSweep discards the sweep metric.
func (n *NopMetrics) RecordSweep(_ /* duration */ float64, _ /* active */, _ /* retained */ int, _ /* success */ bool) {
	// No-op
}

// OrNop returns mc, or a NopMetrics when mc is nil.
func OrNop(mc types.MetricsCollector) types.MetricsCollector {
	if mc == nil {
		return NewNop()
	}

	return mc
}
