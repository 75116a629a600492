package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tibrahul/Radicchio/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use, so constructing
// one that is never used leaves the registerer untouched.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	operations       *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec

	notifications        *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
	events               *prometheus.CounterVec
	rotations            prometheus.Counter

	sweeps        *prometheus.CounterVec
	sweepLatency  prometheus.Histogram
	activeTimers  prometheus.Gauge
	retainedTimer prometheus.Gauge
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "radicchio" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "radicchio"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.operations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "timer",
			Name:      "operations_total",
			Help:      "Total timer operations by operation and result.",
		}, []string{"op", "result"})

		p.operationLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "timer",
			Name:      "operation_duration_seconds",
			Help:      "Latency of timer operations in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms .. ~1s
		}, []string{"op"})

		p.notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "bridge",
			Name:      "notifications_total",
			Help:      "Total store notifications received by kind.",
		}, []string{"kind"})

		p.notificationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "bridge",
			Name:      "notification_failures_total",
			Help:      "Total store notifications whose handling failed, by kind.",
		}, []string{"kind"})

		p.events = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "bridge",
			Name:      "events_total",
			Help:      "Total domain events emitted by name.",
		}, []string{"event"})

		p.rotations = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "generation_rotations_total",
			Help:      "Total registry generations minted after retirement.",
		})

		p.sweeps = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "sweeper",
			Name:      "passes_total",
			Help:      "Total reconciliation passes by outcome (success|failure).",
		}, []string{"success"})

		p.sweepLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "sweeper",
			Name:      "pass_duration_seconds",
			Help:      "Duration of reconciliation passes in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		})

		p.activeTimers = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "sweeper",
			Name:      "active_timers",
			Help:      "Active timers observed by the last reconciliation pass.",
		})

		p.retainedTimer = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "sweeper",
			Name:      "retained_timers",
			Help:      "Timers with a retained payload observed by the last reconciliation pass.",
		})

		p.reg.MustRegister(p.operations)
		p.reg.MustRegister(p.operationLatency)
		p.reg.MustRegister(p.notifications)
		p.reg.MustRegister(p.notificationFailures)
		p.reg.MustRegister(p.events)
		p.reg.MustRegister(p.rotations)
		p.reg.MustRegister(p.sweeps)
		p.reg.MustRegister(p.sweepLatency)
		p.reg.MustRegister(p.activeTimers)
		p.reg.MustRegister(p.retainedTimer)
	})
}

// RecordOperation counts the operation by result and observes its latency.
func (p *PrometheusCollector) RecordOperation(op string, result string, duration float64) {
	p.ensureRegistered()
	p.operations.WithLabelValues(op, result).Inc()
	p.operationLatency.WithLabelValues(op).Observe(duration)
}

// RecordNotification increments the notification counter for kind.
func (p *PrometheusCollector) RecordNotification(kind string) {
	p.ensureRegistered()
	p.notifications.WithLabelValues(kind).Inc()
}

// RecordNotificationFailure increments the notification failure counter for kind.
func (p *PrometheusCollector) RecordNotificationFailure(kind string) {
	p.ensureRegistered()
	p.notificationFailures.WithLabelValues(kind).Inc()
}

// RecordEvent increments the event counter for name.
func (p *PrometheusCollector) RecordEvent(name string) {
	p.ensureRegistered()
	p.events.WithLabelValues(name).Inc()
}

// RecordGenerationRotation increments the rotation counter.
func (p *PrometheusCollector) RecordGenerationRotation() {
	p.ensureRegistered()
	p.rotations.Inc()
}

// RecordSweep records the pass outcome, its latency and the observed timer counts.
//
// Gauges are only updated by successful passes.
func (p *PrometheusCollector) RecordSweep(duration float64, active, retained int, success bool) {
	p.ensureRegistered()
	p.sweeps.WithLabelValues(strconv.FormatBool(success)).Inc()
	p.sweepLatency.Observe(duration)
	if success {
		p.activeTimers.Set(float64(active))
		p.retainedTimer.Set(float64(retained))
	}
}
