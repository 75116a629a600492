package registry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tibrahul/Radicchio/internal/keys"
	"github.com/tibrahul/Radicchio/internal/logging"
	"github.com/tibrahul/Radicchio/internal/metrics"
	"github.com/tibrahul/Radicchio/types"
)

// Half identifies one registry of a generation.
type Half int

const (
	// TimerHalf is the timer registry.
	TimerHalf Half = iota + 1

	// DataHalf is the data registry.
	DataHalf
)

// String returns the string representation of the half.
func (h Half) String() string {
	switch h {
	case TimerHalf:
		return "timer_registry"
	case DataHalf:
		return "data_registry"
	default:
		return "unknown"
	}
}

// Verifier reports how many of the given keys currently exist.
//
// types.Store satisfies it through CountExisting.
type Verifier interface {
	CountExisting(ctx context.Context, keys ...string) (int, error)
}

// RotateFunc is invoked after every rotation.
type RotateFunc func(ctx context.Context, from, to types.Generation)

// Manager owns the current registry generation.
//
// Current and Previous are lock-free and safe to call from any goroutine.
// Retire is meant for the single goroutine processing store notifications.
type Manager struct {
	verifier Verifier
	newID    types.IDGenerator
	logger   types.Logger
	metrics  types.MetricsCollector
	onRotate RotateFunc

	current  atomic.Pointer[types.Generation]
	previous atomic.Pointer[types.Generation]

	mu            sync.Mutex
	timerRetired  bool
	dataRetired   bool
	rotationCount uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger types.Logger) Option {
	return func(m *Manager) {
		m.logger = logging.OrNop(logger)
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(mc types.MetricsCollector) Option {
	return func(m *Manager) {
		m.metrics = metrics.OrNop(mc)
	}
}

// WithOnRotate sets the callback invoked after each rotation.
func WithOnRotate(fn RotateFunc) Option {
	return func(m *Manager) {
		m.onRotate = fn
	}
}

// New creates a registry manager and mints its first generation.
//
// Parameters:
//   - verifier: Store used to confirm a retirement before rotating
//   - newID: Generator for generation ids
//   - opts: Optional configuration
//
// Returns:
//   - *Manager: Manager holding a freshly minted generation
func New(verifier Verifier, newID types.IDGenerator, opts ...Option) *Manager {
	m := &Manager{
		verifier: verifier,
		newID:    newID,
		logger:   logging.NewNop(),
		metrics:  metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	first := m.mint()
	m.current.Store(&first)

	return m
}

// NewGeneration derives both registry keys from id.
func NewGeneration(id string) types.Generation {
	return types.Generation{
		ID:            id,
		TimerRegistry: keys.TimerRegistry(id),
		DataRegistry:  keys.DataRegistry(id),
	}
}

func (m *Manager) mint() types.Generation {
	return NewGeneration(m.newID())
}

// Current returns the generation new operations must target.
func (m *Manager) Current() types.Generation {
	return *m.current.Load()
}

// Previous returns the generation replaced by the last rotation.
//
// Returns:
//   - types.Generation: The previous generation
//   - bool: false before the first rotation
func (m *Manager) Previous() (types.Generation, bool) {
	prev := m.previous.Load()
	if prev == nil {
		return types.Generation{}, false
	}

	return *prev, true
}

// Rotations returns how many times the manager minted a new generation.
func (m *Manager) Rotations() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.rotationCount
}

// Retired reports the retirement flags of the current generation.
func (m *Manager) Retired() (timer bool, data bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.timerRetired, m.dataRetired
}

// Retire records that a registry key of the current generation was deleted and
// rotates once both halves retired.
//
// Deletions of registry keys from any other generation are ignored. Before
// rotating, the store is asked whether either registry key exists again: a
// create racing the deletion notification may have re-populated it, in which
// case the flags are cleared and the generation is kept.
//
// Parameters:
//   - ctx: Context for the store verification
//   - registryKey: The deleted key, as reported by the store
//
// Returns:
//   - bool: true if a new generation was minted
//   - error: Store failure during verification; the flags are kept so the
//     next retirement notification retries
func (m *Manager) Retire(ctx context.Context, registryKey string) (bool, error) {
	kind, genID := keys.Classify(registryKey)

	var half Half
	switch kind {
	case keys.KindTimerRegistry:
		half = TimerHalf
	case keys.KindDataRegistry:
		half = DataHalf
	default:
		return false, fmt.Errorf("registry: %q is not a registry key", registryKey)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.Current()
	if genID != cur.ID {
		m.logger.Debug("ignoring retirement of non-current generation",
			"generation_id", genID,
			"current_generation_id", cur.ID,
			"registry", half.String(),
		)

		return false, nil
	}

	switch half {
	case TimerHalf:
		m.timerRetired = true
	case DataHalf:
		m.dataRetired = true
	}

	m.logger.Debug("registry retired", "generation_id", cur.ID, "registry", half.String())

	if !m.timerRetired || !m.dataRetired {
		return false, nil
	}

	n, err := m.verifier.CountExisting(ctx, cur.TimerRegistry, cur.DataRegistry)
	if err != nil {
		return false, fmt.Errorf("registry: verify retirement of %s: %w", cur.ID, err)
	}
	if n > 0 {
		m.logger.Debug("retired registries were re-populated, keeping generation",
			"generation_id", cur.ID,
			"existing", n,
		)
		m.timerRetired = false
		m.dataRetired = false

		return false, nil
	}

	next := m.mint()
	m.previous.Store(&cur)
	m.current.Store(&next)
	m.timerRetired = false
	m.dataRetired = false
	m.rotationCount++

	m.metrics.RecordGenerationRotation()
	m.logger.Info("registry generation rotated",
		"from_generation_id", cur.ID,
		"to_generation_id", next.ID,
	)

	if m.onRotate != nil {
		m.onRotate(ctx, cur, next)
	}

	return true, nil
}
