// Package sweeper implements the Reconciliation Sweeper.
//
// Store notifications can be lost without trace. The sweeper periodically
// re-derives what is live purely from registry state, which keeps the polling
// path exercised and surfaces store failures even when no caller is polling.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tibrahul/Radicchio/internal/hooks"
	"github.com/tibrahul/Radicchio/internal/logging"
	"github.com/tibrahul/Radicchio/internal/metrics"
	"github.com/tibrahul/Radicchio/types"
)

// Source answers the two registry-wide queries.
type Source interface {
	GetAllTimesLeft(ctx context.Context) ([]types.TimeLeft, error)
	GetDataFromAllTimers(ctx context.Context) ([]types.TimerData, error)
}

// Reclaimer recovers timers whose expiry notification was lost.
//
// A timer that expired while its notification was dropped keeps its payload
// entry forever, which also keeps its generation from retiring. The sweeper
// finds such payload entries and hands them back for the expiry path.
type Reclaimer interface {
	// Missing returns the subset of ids whose timer key no longer exists.
	Missing(ctx context.Context, ids []string) ([]string, error)

	// Reclaim runs the expiry path for id.
	Reclaim(ctx context.Context, id string) error
}

// Observer receives the result of every successful pass.
type Observer func(ctx context.Context, result types.SweepResult)

// Config configures a Sweeper.
type Config struct {
	// Interval between passes. Required.
	Interval time.Duration

	// Observer is optional.
	Observer Observer

	// Reclaimer is optional. Without it, payload entries of timers whose
	// expiry notification was lost are reported but never drained.
	Reclaimer Reclaimer

	Logger  types.Logger
	Metrics types.MetricsCollector
	Hooks   *types.Hooks
}

// Sweeper runs reconciliation passes at a fixed interval.
type Sweeper struct {
	source   Source
	interval time.Duration
	observer Observer
	reclaim  Reclaimer
	logger   types.Logger
	metrics  types.MetricsCollector
	hooks    types.Hooks

	// suspects holds ids found without a timer key on the previous pass.
	suspectsMu sync.Mutex
	suspects   map[string]struct{}

	// Lifecycle management
	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a sweeper over source.
func New(source Source, cfg Config) *Sweeper {
	return &Sweeper{
		source:   source,
		interval: cfg.Interval,
		observer: cfg.Observer,
		reclaim:  cfg.Reclaimer,
		logger:   logging.OrNop(cfg.Logger),
		metrics:  metrics.OrNop(cfg.Metrics),
		hooks:    hooks.Fill(cfg.Hooks),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins periodic passes in the background. The first pass runs one
// interval after Start.
//
// Returns:
//   - error: types.ErrSweeperAlreadyStarted if started before
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return types.ErrSweeperAlreadyStarted
	}
	if s.interval <= 0 {
		return fmt.Errorf("%w: sweep interval must be positive", types.ErrInvalidConfig)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.started = true

	go s.loop(runCtx)

	return nil
}

// Stop ends the loop, abandoning an in-flight pass, and waits for it to exit.
//
// It is safe to call Stop multiple times.
//
// Returns:
//   - error: types.ErrSweeperNotStarted if Start was never called
func (s *Sweeper) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return types.ErrSweeperNotStarted
	}
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.stopCh)
	s.cancel()
	<-s.doneCh

	return nil
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single reconciliation pass.
//
// Both queries always run. Failures are logged, counted and forwarded to
// Hooks.OnError; the observer only sees passes where both queries succeeded.
//
// Returns:
//   - types.SweepResult: What the pass observed
//   - error: Joined query failures, nil on success
func (s *Sweeper) RunOnce(ctx context.Context) (types.SweepResult, error) {
	start := time.Now()

	timesLeft, errTimes := s.source.GetAllTimesLeft(ctx)
	data, errData := s.source.GetDataFromAllTimers(ctx)

	result := types.SweepResult{
		TimesLeft: timesLeft,
		Data:      data,
		Duration:  time.Since(start),
	}
	err := errors.Join(errTimes, errData)

	s.metrics.RecordSweep(result.Duration.Seconds(), len(timesLeft), len(data), err == nil)

	if err != nil {
		if ctx.Err() != nil {
			// shutting down, the pass was abandoned
			return result, err
		}
		s.logger.Error("reconciliation pass failed", "error", err)
		if hookErr := s.hooks.OnError(ctx, fmt.Errorf("sweeper: %w", err)); hookErr != nil {
			s.logger.Warn("OnError hook failed", "error", hookErr)
		}

		return result, err
	}

	if s.reclaim != nil {
		result.Reclaimed = s.reclaimLost(ctx, timesLeft, data)
	}

	s.logger.Debug("reconciliation pass completed",
		"active", len(timesLeft),
		"retained", len(data),
		"reclaimed", len(result.Reclaimed),
		"duration", result.Duration,
	)
	if s.observer != nil {
		s.observer(ctx, result)
	}

	return result, nil
}

// reclaimLost drains payload entries whose timer key has been missing on two
// consecutive passes. The first sighting only marks a suspect: the bridge is
// usually still processing that expiry.
func (s *Sweeper) reclaimLost(ctx context.Context, timesLeft []types.TimeLeft, data []types.TimerData) []string {
	active := make(map[string]struct{}, len(timesLeft))
	for _, tl := range timesLeft {
		active[tl.TimerID] = struct{}{}
	}

	var candidates []string
	for _, d := range data {
		if _, ok := active[d.TimerID]; !ok {
			candidates = append(candidates, d.TimerID)
		}
	}

	var missing []string
	if len(candidates) > 0 {
		var err error
		if missing, err = s.reclaim.Missing(ctx, candidates); err != nil {
			s.report(ctx, "lost expiry lookup failed", err)
			return nil
		}
	}

	s.suspectsMu.Lock()
	prev := s.suspects
	s.suspects = make(map[string]struct{}, len(missing))
	var lost []string
	for _, id := range missing {
		if _, ok := prev[id]; ok {
			lost = append(lost, id)
		} else {
			s.suspects[id] = struct{}{}
		}
	}
	s.suspectsMu.Unlock()

	var reclaimed []string
	for _, id := range lost {
		if err := s.reclaim.Reclaim(ctx, id); err != nil {
			s.report(ctx, "lost expiry reclaim failed", fmt.Errorf("%s: %w", id, err))
			continue
		}
		reclaimed = append(reclaimed, id)
	}
	if len(reclaimed) > 0 {
		s.logger.Info("reclaimed timers with lost expiry notifications", "count", len(reclaimed))
	}

	return reclaimed
}

func (s *Sweeper) report(ctx context.Context, msg string, err error) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Error(msg, "error", err)
	if hookErr := s.hooks.OnError(ctx, fmt.Errorf("sweeper: %w", err)); hookErr != nil {
		s.logger.Warn("OnError hook failed", "error", hookErr)
	}
}
