package radicchio

import (
	"context"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tibrahul/Radicchio/internal/metrics"
)

// Option configures a Manager with optional dependencies.
type Option func(*managerOptions)

// SweepObserver receives the outcome of every successful reconciliation pass.
type SweepObserver func(ctx context.Context, result SweepResult)

// managerOptions holds optional Manager configuration.
type managerOptions struct {
	hooks         *Hooks
	metrics       MetricsCollector
	logger        Logger
	codec         Codec
	newID         IDGenerator
	sweepObserver SweepObserver
}

// WithHooks sets background event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewManager
//
// Example:
//
//	hooks := &radicchio.Hooks{
//	    OnGenerationRotated: func(ctx context.Context, from, to radicchio.Generation) error {
//	        log.Printf("registries rotated %s -> %s", from.ID, to.ID)
//	        return nil
//	    },
//	}
//	mgr, err := radicchio.NewManager(&cfg, st, radicchio.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *managerOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewManager
//
// Example:
//
//	collector := radicchio.NewPrometheusMetrics(prometheus.DefaultRegisterer, "")
//	mgr, err := radicchio.NewManager(&cfg, st, radicchio.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *managerOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for NewManager
//
// Example:
//
//	logger := zap.NewExample().Sugar()
//	mgr, err := radicchio.NewManager(&cfg, st, radicchio.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// WithCodec sets the payload serialization.
//
// Every process sharing a store must use the same codec, because payloads are
// decoded by whichever process observes the expiry.
//
// Parameters:
//   - codec: Codec implementation (default: codec.NewJSON())
//
// Returns:
//   - Option: Functional option for NewManager
func WithCodec(codec Codec) Option {
	return func(o *managerOptions) {
		o.codec = codec
	}
}

// WithIDGenerator sets the generator for timer and generation ids.
//
// Ids must be collision-free: StartTimer fails with ErrTimerExists instead of
// retrying on a collision.
//
// Parameters:
//   - gen: Id generator (default: random UUIDs)
//
// Returns:
//   - Option: Functional option for NewManager
func WithIDGenerator(gen IDGenerator) Option {
	return func(o *managerOptions) {
		o.newID = gen
	}
}

// WithSweepObserver exposes the result of every successful reconciliation pass.
//
// The observer runs on the sweeper goroutine; a slow observer delays the next pass.
//
// Parameters:
//   - observer: Callback receiving each pass's live timers and retained payloads
//
// Returns:
//   - Option: Functional option for NewManager
//
// Example:
//
//	mgr, err := radicchio.NewManager(&cfg, st,
//	    radicchio.WithSweepObserver(func(ctx context.Context, r radicchio.SweepResult) {
//	        activeGauge.Set(float64(len(r.TimesLeft)))
//	    }),
//	)
func WithSweepObserver(observer SweepObserver) Option {
	return func(o *managerOptions) {
		o.sweepObserver = observer
	}
}

// NewPrometheusMetrics creates a MetricsCollector backed by Prometheus.
//
// Collectors are registered lazily on first use.
//
// Parameters:
//   - reg: Registerer to register collectors with (nil uses prometheus.DefaultRegisterer)
//   - namespace: Metric namespace (empty uses "radicchio")
//
// Returns:
//   - MetricsCollector: Prometheus-backed collector
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) MetricsCollector {
	return metrics.NewPrometheus(reg, namespace)
}

func defaultIDGenerator() string {
	return uuid.NewString()
}
