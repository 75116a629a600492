package radicchio

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tibrahul/Radicchio/codec"
	"github.com/tibrahul/Radicchio/internal/keys"
	"github.com/tibrahul/Radicchio/types"
)

// Operation names used for metrics and logs.
const (
	opStart        = "start"
	opTimeLeft     = "time_left"
	opAllTimesLeft = "all_times_left"
	opSuspend      = "suspend"
	opResume       = "resume"
	opDelete       = "delete"
	opData         = "data"
	opAllData      = "all_data"
	opState        = "state"
)

// StartTimer creates an Active timer and returns its id.
//
// The payload is serialized with the manager's codec and retained until the
// timer expires or is deleted. A nil payload round-trips as nil.
//
// Parameters:
//   - ctx: Context for the store call
//   - ttl: Timer duration, millisecond resolution, at least 1ms
//   - data: Payload delivered with the expired event and returned by DeleteTimer
//
// Returns:
//   - string: The new timer id
//   - error: ErrInvalidTTL, ErrTimerExists, ErrStore, or a codec error
//
// Example:
//
//	id, err := mgr.StartTimer(ctx, 10*time.Second, map[string]any{"order": 42})
func (m *Manager) StartTimer(ctx context.Context, ttl time.Duration, data any) (id string, err error) {
	start := time.Now()
	defer func() { m.record(opStart, start, err) }()

	ctx, cancel, err := m.begin(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	if ttl < time.Millisecond {
		return "", fmt.Errorf("%w: %v is below 1ms", ErrInvalidTTL, ttl)
	}

	payload, err := m.codec.Marshal(data)
	if err != nil {
		return "", err
	}

	id = m.newID()
	gen := m.registry.Current()
	if err := m.store.Create(ctx, gen.TimerRegistry, id, gen.DataRegistry, ttl, payload); err != nil {
		return "", err
	}

	m.logger.Debug("timer started", "timer_id", id, "ttl", ttl, "generation_id", gen.ID)

	return id, nil
}

// GetTimeLeft returns the remaining lifetime of an Active timer.
//
// Absence is not an error: ok is false when the timer is Suspended, expired,
// deleted or was never created.
//
// Parameters:
//   - ctx: Context for the store call
//   - id: Timer id
//
// Returns:
//   - TimeLeft: Remaining lifetime, valid when ok is true
//   - bool: true if the timer is Active
//   - error: ErrStore on store failure
func (m *Manager) GetTimeLeft(ctx context.Context, id string) (tl TimeLeft, ok bool, err error) {
	start := time.Now()
	defer func() {
		if err == nil && !ok {
			m.metrics.RecordOperation(opTimeLeft, "not_found", time.Since(start).Seconds())
			return
		}
		m.record(opTimeLeft, start, err)
	}()

	ctx, cancel, err := m.begin(ctx)
	if err != nil {
		return TimeLeft{}, false, err
	}
	defer cancel()

	return m.timeLeft(ctx, id)
}

// GetAllTimesLeft returns every Active, unexpired timer of the current and
// previous generation.
//
// Members are queried concurrently (bounded by MaxConcurrentQueries). Members
// that are no longer Active or have no time left are filtered out; a store
// failure of any query fails the whole call. Order is not guaranteed.
//
// Returns:
//   - []TimeLeft: Live timers
//   - error: ErrStore on store failure
func (m *Manager) GetAllTimesLeft(ctx context.Context) (all []TimeLeft, err error) {
	start := time.Now()
	defer func() { m.record(opAllTimesLeft, start, err) }()

	ctx, cancel, err := m.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	return m.allTimesLeft(ctx)
}

// SuspendTimer freezes an Active timer's remaining time.
//
// The timer leaves the timer registry but keeps its payload. Observers receive
// EventSuspended once the store reports the completion marker.
//
// Returns:
//   - error: ErrNotFound if the timer is not Active, ErrStore on store failure
func (m *Manager) SuspendTimer(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { m.record(opSuspend, start, err) }()

	ctx, cancel, err := m.begin(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	gen := m.registry.Current()
	ok, err := m.store.Suspend(ctx, gen.TimerRegistry, id, keys.SuspendMarker(id))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("suspend %q: %w", id, ErrNotFound)
	}

	m.logger.Debug("timer suspended", "timer_id", id)

	return nil
}

// ResumeTimer restarts a Suspended timer with exactly the remaining time it
// had when it was suspended.
//
// Observers receive EventResumed once the store reports the completion marker.
//
// Returns:
//   - error: ErrNotFound if the timer is not Suspended, ErrStore on store failure
func (m *Manager) ResumeTimer(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { m.record(opResume, start, err) }()

	ctx, cancel, err := m.begin(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	gen := m.registry.Current()
	ok, err := m.store.Resume(ctx, gen.TimerRegistry, id, keys.ResumeMarker(id))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("resume %q: %w", id, ErrNotFound)
	}

	m.logger.Debug("timer resumed", "timer_id", id)

	return nil
}

// DeleteTimer removes an Active or Suspended timer and returns its payload.
//
// Deleting succeeds exactly once per timer; a timer that already expired is
// drained by the expiry path and cannot be deleted.
//
// Returns:
//   - any: The decoded payload
//   - error: ErrNotFound, ErrMalformedPayload, or ErrStore
func (m *Manager) DeleteTimer(ctx context.Context, id string) (data any, err error) {
	start := time.Now()
	defer func() { m.record(opDelete, start, err) }()

	ctx, cancel, err := m.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	gen := m.registry.Current()
	payload, err := m.store.Delete(ctx, gen.TimerRegistry, gen.DataRegistry, id)
	if types.IsAbsent(err) {
		if prev, ok := m.registry.Previous(); ok {
			payload, err = m.store.Delete(ctx, prev.TimerRegistry, prev.DataRegistry, id)
		}
	}
	if err != nil {
		if types.IsAbsent(err) {
			return nil, fmt.Errorf("delete %q: %w", id, ErrNotFound)
		}

		return nil, err
	}

	m.logger.Debug("timer deleted", "timer_id", id)

	return codec.DecodeAny(m.codec, payload)
}

// GetTimerData returns the retained payload of an Active or Suspended timer.
//
// Returns:
//   - TimerData: Timer id with decoded and raw payload
//   - error: ErrNotFound, ErrMalformedPayload, or ErrStore
func (m *Manager) GetTimerData(ctx context.Context, id string) (td TimerData, err error) {
	start := time.Now()
	defer func() { m.record(opData, start, err) }()

	ctx, cancel, err := m.begin(ctx)
	if err != nil {
		return TimerData{}, err
	}
	defer cancel()

	return m.timerData(ctx, id)
}

// GetDataFromAllTimers returns the retained payload of every Active and
// Suspended timer of the current and previous generation.
//
// Members are read concurrently (bounded by MaxConcurrentQueries). A member
// drained between listing and reading is skipped; any other failure fails the
// whole call. Order is not guaranteed.
//
// A timer whose expiry notification was lost keeps its payload entry until the
// sweeper has seen its key missing on two consecutive passes and drained it
// through the expiry path, so it can appear here for a few sweep intervals
// after it expired.
//
// Returns:
//   - []TimerData: Retained payloads
//   - error: ErrMalformedPayload or ErrStore
func (m *Manager) GetDataFromAllTimers(ctx context.Context) (all []TimerData, err error) {
	start := time.Now()
	defer func() { m.record(opAllData, start, err) }()

	ctx, cancel, err := m.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	return m.allTimerData(ctx)
}

// GetTimerState reports whether a timer is Active, Suspended, or absent.
//
// Expired, deleted and unknown ids are indistinguishable at the store and all
// report StateAbsent.
func (m *Manager) GetTimerState(ctx context.Context, id string) (state TimerState, err error) {
	start := time.Now()
	defer func() { m.record(opState, start, err) }()

	ctx, cancel, err := m.begin(ctx)
	if err != nil {
		return StateAbsent, err
	}
	defer cancel()

	ms, err := m.store.TimeLeft(ctx, id)
	if err != nil {
		return StateAbsent, err
	}

	return types.StateFromTimeLeft(ms), nil
}

func (m *Manager) timeLeft(ctx context.Context, id string) (TimeLeft, bool, error) {
	ms, err := m.store.TimeLeft(ctx, id)
	if err != nil {
		return TimeLeft{}, false, err
	}
	if ms < 0 {
		return TimeLeft{}, false, nil
	}

	return TimeLeft{TimerID: id, TimeLeft: time.Duration(ms) * time.Millisecond}, true, nil
}

func (m *Manager) allTimesLeft(ctx context.Context) ([]TimeLeft, error) {
	ids, err := m.members(ctx, func(g types.Generation) string { return g.TimerRegistry })
	if err != nil {
		return nil, err
	}

	results := make([]TimeLeft, len(ids))
	live := make([]bool, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if m.cfg.MaxConcurrentQueries > 0 {
		g.SetLimit(m.cfg.MaxConcurrentQueries)
	}
	for i, id := range ids {
		g.Go(func() error {
			tl, ok, err := m.timeLeft(gctx, id)
			if err != nil {
				return err
			}
			if ok && tl.TimeLeft > 0 {
				results[i] = tl
				live[i] = true
			}

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]TimeLeft, 0, len(ids))
	for i := range results {
		if live[i] {
			out = append(out, results[i])
		}
	}

	return out, nil
}

// missingTimers returns the ids among ids whose timer key no longer exists.
func (m *Manager) missingTimers(ctx context.Context, ids []string) ([]string, error) {
	missing := make([]bool, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if m.cfg.MaxConcurrentQueries > 0 {
		g.SetLimit(m.cfg.MaxConcurrentQueries)
	}
	for i, id := range ids {
		g.Go(func() error {
			ms, err := m.store.TimeLeft(gctx, id)
			if err != nil {
				return err
			}
			missing[i] = types.StateFromTimeLeft(ms) == StateAbsent

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []string
	for i, id := range ids {
		if missing[i] {
			out = append(out, id)
		}
	}

	return out, nil
}

func (m *Manager) allTimerData(ctx context.Context) ([]TimerData, error) {
	ids, err := m.members(ctx, func(g types.Generation) string { return g.DataRegistry })
	if err != nil {
		return nil, err
	}

	results := make([]TimerData, len(ids))
	found := make([]bool, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if m.cfg.MaxConcurrentQueries > 0 {
		g.SetLimit(m.cfg.MaxConcurrentQueries)
	}
	for i, id := range ids {
		g.Go(func() error {
			td, err := m.timerData(gctx, id)
			if types.IsAbsent(err) {
				// drained after listing
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = td
			found[i] = true

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]TimerData, 0, len(ids))
	for i := range results {
		if found[i] {
			out = append(out, results[i])
		}
	}

	return out, nil
}

// members lists one registry half of the current generation, plus the
// previous generation's so timers created just before a rotation stay visible.
func (m *Manager) members(ctx context.Context, half func(types.Generation) string) ([]string, error) {
	ids, err := m.store.Members(ctx, half(m.registry.Current()))
	if err != nil {
		return nil, err
	}

	prev, ok := m.registry.Previous()
	if !ok {
		return ids, nil
	}

	older, err := m.store.Members(ctx, half(prev))
	if err != nil {
		return nil, err
	}
	if len(older) == 0 {
		return ids, nil
	}

	seen := make(map[string]struct{}, len(ids)+len(older))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	for _, id := range older {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// timerData reads a payload from the current generation, falling back to the
// previous one.
func (m *Manager) timerData(ctx context.Context, id string) (TimerData, error) {
	gen := m.registry.Current()
	payload, err := m.store.Payload(ctx, gen.DataRegistry, id)
	if types.IsAbsent(err) {
		if prev, ok := m.registry.Previous(); ok {
			payload, err = m.store.Payload(ctx, prev.DataRegistry, id)
		}
	}
	if err != nil {
		if types.IsAbsent(err) {
			return TimerData{}, fmt.Errorf("data %q: %w", id, ErrNotFound)
		}

		return TimerData{}, err
	}

	data, err := codec.DecodeAny(m.codec, payload)
	if err != nil {
		return TimerData{}, fmt.Errorf("data %q: %w", id, err)
	}

	return TimerData{TimerID: id, Data: data, Raw: payload}, nil
}

// finalizeExpired drains an expired timer from both generations it could
// belong to.
func (m *Manager) finalizeExpired(ctx context.Context, id string) error {
	gen := m.registry.Current()
	if err := m.store.RemoveFromBoth(ctx, gen.TimerRegistry, gen.DataRegistry, id); err != nil {
		return err
	}

	if prev, ok := m.registry.Previous(); ok {
		return m.store.RemoveFromBoth(ctx, prev.TimerRegistry, prev.DataRegistry, id)
	}

	return nil
}

// begin checks that the manager is running and applies OperationTimeout.
func (m *Manager) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if m.state.Load() != lifecycleRunning {
		return ctx, func() {}, ErrNotStarted
	}

	if m.cfg.OperationTimeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			ctx, cancel := context.WithTimeout(ctx, m.cfg.OperationTimeout)
			return ctx, cancel, nil
		}
	}

	return ctx, func() {}, nil
}

func (m *Manager) record(op string, start time.Time, err error) {
	result := "success"
	switch {
	case err == nil:
	case types.IsAbsent(err):
		result = "not_found"
	default:
		result = "error"
	}

	m.metrics.RecordOperation(op, result, time.Since(start).Seconds())
}
