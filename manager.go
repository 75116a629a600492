package radicchio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tibrahul/Radicchio/codec"
	"github.com/tibrahul/Radicchio/internal/bridge"
	"github.com/tibrahul/Radicchio/internal/hooks"
	"github.com/tibrahul/Radicchio/internal/logging"
	"github.com/tibrahul/Radicchio/internal/metrics"
	"github.com/tibrahul/Radicchio/internal/registry"
	"github.com/tibrahul/Radicchio/internal/sweeper"
	"github.com/tibrahul/Radicchio/types"
)

// lifecycle states of a Manager.
const (
	lifecycleNew int32 = iota
	lifecycleRunning
	lifecycleStopped
)

// Manager is the timer lifecycle controller.
//
// Manager is the main entry point of the Radicchio library. It handles:
//   - Timer operations (start, query, suspend, resume, delete, read payload)
//   - The current registry generation and its rotation
//   - The notification bridge turning store notifications into events
//   - The reconciliation sweeper backing up lost notifications
//
// Thread Safety:
//   - All public methods are safe for concurrent use
//   - Every store call snapshots the current generation, so a rotation during
//     an in-flight call only means that call completed against the old one
//
// Lifecycle:
//   - Create with NewManager()
//   - Register observers with On() (before or after Start)
//   - Call Start() to open the notification subscription and start sweeping
//   - Call Stop() for shutdown
//
// Testing:
// Consumers can define minimal interfaces for mocking:
//
//	type TimerStarter interface {
//	    StartTimer(ctx context.Context, ttl time.Duration, data any) (string, error)
//	}
type Manager struct {
	cfg   Config
	store Store

	// Optional dependencies
	codec         Codec
	newID         IDGenerator
	hooks         Hooks
	metrics       MetricsCollector
	logger        Logger
	sweepObserver SweepObserver

	// Internal components
	registry *registry.Manager
	bridge   *bridge.Bridge
	sweeper  *sweeper.Sweeper

	// Lifecycle management
	state atomic.Int32
	mu    sync.Mutex
}

// NewManager creates a new Manager instance with the provided configuration.
//
// The first registry generation is minted here; nothing touches the store
// until Start.
//
// Parameters:
//   - cfg: Runtime configuration; missing values are filled with defaults
//   - store: Backing store (store.NewRedis or store.NewMemory)
//   - opts: Optional configuration (hooks, metrics, logger, codec, id generator, sweep observer)
//
// Returns:
//   - *Manager: Initialized manager instance
//   - error: ErrInvalidConfig or ErrStoreRequired
//
// Example:
//
//	cfg := radicchio.DefaultConfig()
//	mgr, err := radicchio.NewManager(&cfg, store.NewRedis(client))
func NewManager(cfg *Config, store Store, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	// Fill in missing configuration values with defaults
	SetDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	m := &Manager{
		cfg:           *cfg,
		store:         store,
		codec:         options.codec,
		newID:         options.newID,
		hooks:         hooks.Fill(options.hooks),
		metrics:       metrics.OrNop(options.metrics),
		logger:        logging.OrNop(options.logger),
		sweepObserver: options.sweepObserver,
	}
	if m.codec == nil {
		c, err := codec.ByName(cfg.Codec)
		if err != nil {
			return nil, err
		}
		m.codec = c
	}
	if m.newID == nil {
		m.newID = defaultIDGenerator
	}

	// Validate with warnings after logger is available
	cfg.ValidateWithWarnings(m.logger)

	m.registry = registry.New(store, m.newID,
		registry.WithLogger(m.logger),
		registry.WithMetrics(m.metrics),
		registry.WithOnRotate(m.onRotate),
	)

	m.bridge = bridge.New(bridge.Config{
		Subscriber: store,
		Registry:   m.registry,
		FetchData:  m.timerData,
		Finalize:   m.finalizeExpired,
		Logger:     m.logger,
		Metrics:    m.metrics,
		Hooks:      &m.hooks,
	})

	var observer sweeper.Observer
	if m.sweepObserver != nil {
		observer = sweeper.Observer(m.sweepObserver)
	}
	m.sweeper = sweeper.New(sweepSource{m: m}, sweeper.Config{
		Interval:  m.cfg.SweepInterval,
		Observer:  observer,
		Reclaimer: sweepSource{m: m},
		Logger:    m.logger,
		Metrics:   m.metrics,
		Hooks:     &m.hooks,
	})

	return m, nil
}

// Start opens the notification subscription and starts the sweeper.
//
// Events for store mutations made after Start returns are delivered to
// observers, subject to the store's best-effort notification delivery.
//
// Parameters:
//   - ctx: Context for cancellation and timeout of the startup steps
//
// Returns:
//   - error: ErrAlreadyStarted, or the subscription failure
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Load() != lifecycleNew {
		return ErrAlreadyStarted
	}

	startupCtx := ctx
	if m.cfg.StartupTimeout > 0 {
		var cancel context.CancelFunc
		startupCtx, cancel = context.WithTimeout(ctx, m.cfg.StartupTimeout)
		defer cancel()
	}

	if err := m.bridge.Start(startupCtx); err != nil {
		return fmt.Errorf("failed to start notification bridge: %w", err)
	}

	if err := m.sweeper.Start(startupCtx); err != nil {
		if stopErr := m.bridge.Stop(); stopErr != nil {
			m.logger.Warn("failed to stop notification bridge after startup failure", "error", stopErr)
		}

		return fmt.Errorf("failed to start sweeper: %w", err)
	}

	m.state.Store(lifecycleRunning)
	m.logger.Info("manager started",
		"generation_id", m.registry.Current().ID,
		"codec", m.codec.Name(),
		"sweep_interval", m.cfg.SweepInterval,
	)

	return nil
}

// Stop shuts down the sweeper and the notification bridge.
//
// Timer operations fail with ErrNotStarted afterwards. Timers themselves live
// in the store and keep counting down.
//
// Parameters:
//   - ctx: Context for shutdown timeout (ShutdownTimeout applies when it has no deadline)
//
// Returns:
//   - error: ErrNotStarted, a component shutdown error, or the context error on timeout
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.state.Load() != lifecycleRunning {
		m.mu.Unlock()

		return ErrNotStarted
	}
	m.state.Store(lifecycleStopped)
	m.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok && m.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.ShutdownTimeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		// reverse of startup
		var shutdownErr error
		if err := m.sweeper.Stop(); err != nil {
			m.logger.Error("failed to stop sweeper", "error", err)
			shutdownErr = fmt.Errorf("sweeper stop failed: %w", err)
		}
		if err := m.bridge.Stop(); err != nil {
			m.logger.Error("failed to stop notification bridge", "error", err)
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("bridge stop failed: %w", err))
		}
		done <- shutdownErr
	}()

	select {
	case err := <-done:
		m.logger.Info("manager stopped")
		return err
	case <-ctx.Done():
		m.logger.Error("shutdown timeout exceeded, an observer may still be running")
		return ctx.Err()
	}
}

// On registers a handler for a domain event.
//
// Handlers for the same event run in registration order on the bridge's
// single processing goroutine. Handlers may be registered at any time.
//
// Parameters:
//   - name: One of EventDeleted, EventExpired, EventSuspended, EventResumed
//   - h: Handler to invoke
//
// Returns:
//   - error: ErrUnknownEvent for unsupported names
func (m *Manager) On(name EventName, h Handler) error {
	return m.bridge.On(name, h)
}

// Generation returns the current registry generation.
func (m *Manager) Generation() Generation {
	return m.registry.Current()
}

// Running reports whether the manager has been started and not yet stopped.
func (m *Manager) Running() bool {
	return m.state.Load() == lifecycleRunning
}

func (m *Manager) onRotate(ctx context.Context, from, to types.Generation) {
	if err := m.hooks.OnGenerationRotated(ctx, from, to); err != nil {
		m.logger.Warn("OnGenerationRotated hook failed", "error", err)
	}
}

// sweepSource feeds the sweeper without the running check, so a pass racing
// Stop is abandoned through its context rather than reported as a failure.
type sweepSource struct {
	m *Manager
}

func (s sweepSource) GetAllTimesLeft(ctx context.Context) ([]types.TimeLeft, error) {
	return s.m.allTimesLeft(ctx)
}

func (s sweepSource) GetDataFromAllTimers(ctx context.Context) ([]types.TimerData, error) {
	return s.m.allTimerData(ctx)
}

func (s sweepSource) Missing(ctx context.Context, ids []string) ([]string, error) {
	return s.m.missingTimers(ctx, ids)
}

// Reclaim routes a lost expiry through the bridge loop, so it is serialized
// with live notifications and an expiry is never emitted twice.
func (s sweepSource) Reclaim(ctx context.Context, id string) error {
	return s.m.bridge.Inject(ctx, types.Notification{Kind: types.NotificationExpired, Key: id})
}
