package bridge

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/tibrahul/Radicchio/internal/hooks"
	"github.com/tibrahul/Radicchio/internal/logging"
	"github.com/tibrahul/Radicchio/internal/metrics"
	"github.com/tibrahul/Radicchio/types"
)

// Subscriber opens the store's notification subscription.
type Subscriber interface {
	Subscribe(ctx context.Context) (types.Subscription, error)
}

// Retirer receives registry deletions.
type Retirer interface {
	Retire(ctx context.Context, registryKey string) (bool, error)
}

// Config wires a Bridge to its collaborators.
type Config struct {
	// Subscriber provides the standing subscription. Required.
	Subscriber Subscriber

	// Registry receives registry retirements. Required.
	Registry Retirer

	// FetchData reads the retained payload of an expired timer. Required.
	FetchData func(ctx context.Context, timerID string) (types.TimerData, error)

	// Finalize strips an expired timer from both registries. Required.
	Finalize func(ctx context.Context, timerID string) error

	Logger  types.Logger
	Metrics types.MetricsCollector
	Hooks   *types.Hooks

	// Now is the event clock. Defaults to time.Now.
	Now func() time.Time

	// ResubscribeBackoff is the first delay before reopening a subscription
	// the store closed. Default: 50ms
	ResubscribeBackoff time.Duration

	// ResubscribeMaxBackoff caps the resubscribe delay. Default: 5s
	ResubscribeMaxBackoff time.Duration

	// RetrySeed makes resubscribe jitter deterministic when non-zero.
	RetrySeed int64
}

const injectBuffer = 64

// Bridge turns store notifications into domain events.
type Bridge struct {
	subscriber Subscriber
	registry   Retirer
	fetchData  func(ctx context.Context, timerID string) (types.TimerData, error)
	finalize   func(ctx context.Context, timerID string) error
	observers  *Observers

	logger  types.Logger
	metrics types.MetricsCollector
	hooks   types.Hooks
	now     func() time.Time

	backoffBase time.Duration
	backoffCap  time.Duration
	rng         *rand.Rand

	// Lifecycle management
	mu      sync.Mutex
	started bool
	stopped bool
	sub     types.Subscription
	cancel  context.CancelFunc
	stopCh  chan struct{}
	doneCh  chan struct{}

	// inject feeds notifications from other components into the loop.
	inject chan types.Notification
}

// New creates a bridge. Observers may be registered before or after Start.
//
// Parameters:
//   - cfg: Collaborators; Logger, Metrics, Hooks and Now are optional
//
// Returns:
//   - *Bridge: A bridge ready to Start
func New(cfg Config) *Bridge {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	base := cfg.ResubscribeBackoff
	if base <= 0 {
		base = defaultResubscribeBase
	}
	capDur := cfg.ResubscribeMaxBackoff
	if capDur <= 0 {
		capDur = defaultResubscribeCap
	}

	return &Bridge{
		subscriber:  cfg.Subscriber,
		registry:    cfg.Registry,
		fetchData:   cfg.FetchData,
		finalize:    cfg.Finalize,
		observers:   NewObservers(),
		logger:      logging.OrNop(cfg.Logger),
		metrics:     metrics.OrNop(cfg.Metrics),
		hooks:       hooks.Fill(cfg.Hooks),
		now:         now,
		backoffBase: base,
		backoffCap:  capDur,
		rng:         newRetryRNG(cfg.RetrySeed),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		inject:      make(chan types.Notification, injectBuffer),
	}
}

// On registers h for the named event.
//
// Returns:
//   - error: types.ErrUnknownEvent for unsupported names
func (b *Bridge) On(name types.EventName, h types.Handler) error {
	return b.observers.Add(name, h)
}

// Start opens the subscription and begins processing notifications.
//
// The subscription is established before Start returns, so every store
// mutation made after Start is observed (subject to the store's delivery
// guarantees). The context passed to observers and hooks keeps ctx's values
// but is cancelled only by Stop.
//
// Parameters:
//   - ctx: Context for subscribing
//
// Returns:
//   - error: types.ErrBridgeAlreadyStarted, or the store's subscribe failure
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started || b.stopped {
		return types.ErrBridgeAlreadyStarted
	}

	sub, err := b.subscriber.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("bridge: subscribe: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b.sub = sub
	b.cancel = cancel
	b.started = true

	go b.run(runCtx, sub)

	b.logger.Info("notification bridge started")

	return nil
}

// Stop closes the subscription and waits for the processing goroutine to exit.
//
// It is safe to call Stop multiple times.
//
// Returns:
//   - error: types.ErrBridgeNotStarted if Start was never called
func (b *Bridge) Stop() error {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return types.ErrBridgeNotStarted
	}
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.stopped = true
	b.mu.Unlock()

	close(b.stopCh)
	b.cancel()
	<-b.doneCh

	b.mu.Lock()
	sub := b.sub
	b.mu.Unlock()

	var err error
	if sub != nil {
		err = sub.Close()
	}
	b.logger.Info("notification bridge stopped")

	return err
}

func (b *Bridge) run(ctx context.Context, sub types.Subscription) {
	defer close(b.doneCh)

	for {
		select {
		case <-b.stopCh:
			return
		case n, ok := <-sub.C():
			if !ok {
				b.logger.Warn("notification subscription closed by store, resubscribing")
				b.reportError(ctx, types.ErrSubscriptionClosed)

				if sub = b.resubscribe(ctx); sub == nil {
					return
				}

				continue
			}
			b.Handle(ctx, n)
		case n := <-b.inject:
			b.Handle(ctx, n)
		}
	}
}

// Inject queues n for the processing goroutine, as if the store had
// delivered it. Observers therefore never run concurrently with the loop.
//
// Parameters:
//   - ctx: Context bounding the wait for buffer space
//   - n: Notification to process
//
// Returns:
//   - error: types.ErrBridgeNotStarted before Start or after Stop, or ctx's error
func (b *Bridge) Inject(ctx context.Context, n types.Notification) error {
	b.mu.Lock()
	running := b.started && !b.stopped
	b.mu.Unlock()
	if !running {
		return types.ErrBridgeNotStarted
	}

	select {
	case b.inject <- n:
		return nil
	case <-b.stopCh:
		return types.ErrBridgeNotStarted
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resubscribe reopens the subscription with jittered backoff until it
// succeeds or Stop is called, in which case it returns nil.
func (b *Bridge) resubscribe(ctx context.Context) types.Subscription {
	var delay time.Duration
	for attempt := 1; ; attempt++ {
		delay = jitterBackoff(delay, b.backoffBase, resubscribeMultiplier, b.backoffCap, b.rng)

		if !b.wait(ctx, delay) {
			return nil
		}

		sub, err := b.subscriber.Subscribe(ctx)
		if err != nil {
			b.logger.Warn("resubscribe failed",
				"attempt", attempt,
				"next_delay", delay,
				"error", err,
			)

			continue
		}

		b.mu.Lock()
		b.sub = sub
		b.mu.Unlock()

		b.logger.Info("notification subscription restored", "attempts", attempt)

		return sub
	}
}

// wait sleeps for d while still serving injected notifications. It returns
// false when Stop was called.
func (b *Bridge) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-b.stopCh:
			return false
		case <-timer.C:
			return true
		case n := <-b.inject:
			b.Handle(ctx, n)
		}
	}
}

// Handle processes a single notification.
//
// It is exported for tests and for feeding notifications from a transport
// other than the standing subscription. Callers must not invoke it
// concurrently with the running loop.
func (b *Bridge) Handle(ctx context.Context, n types.Notification) {
	kind := n.Kind.String()
	b.metrics.RecordNotification(kind)

	d := Classify(n)
	b.logger.Debug("notification classified",
		"kind", kind,
		"key", n.Key,
		"action", d.Action.String(),
		"event", string(d.Event),
	)

	switch d.Action {
	case ActionEmit:
		b.emit(ctx, types.Event{Name: d.Event, TimerID: d.TimerID, At: b.now()})

	case ActionRetire:
		if _, err := b.registry.Retire(ctx, n.Key); err != nil {
			b.fail(ctx, n, err)
		}

	case ActionExpire:
		b.expire(ctx, n, d.TimerID)

	case ActionIgnore:
	}
}

// expire emits the expired event with the timer's payload, then drains it
// from both registries.
func (b *Bridge) expire(ctx context.Context, n types.Notification, timerID string) {
	data, err := b.fetchData(ctx, timerID)
	switch {
	case err == nil:
		b.emit(ctx, types.Event{
			Name:    types.EventExpired,
			TimerID: timerID,
			Data:    data.Data,
			Raw:     data.Raw,
			At:      b.now(),
		})

	case types.IsAbsent(err):
		// not one of ours, or already drained
		b.logger.Debug("expired key has no retained payload", "timer_id", timerID)
		return

	case errors.Is(err, types.ErrMalformedPayload):
		// the timer is terminal either way, drain it so the registry can retire
		b.fail(ctx, n, err)

	default:
		b.fail(ctx, n, err)
		return
	}

	if err := b.finalize(ctx, timerID); err != nil {
		b.fail(ctx, n, err)
	}
}

func (b *Bridge) emit(ctx context.Context, ev types.Event) {
	b.metrics.RecordEvent(string(ev.Name))

	for _, err := range b.observers.Emit(ctx, ev) {
		b.logger.Error("event observer failed",
			"event", string(ev.Name),
			"timer_id", ev.TimerID,
			"error", err,
		)
		b.reportError(ctx, err)
	}
}

func (b *Bridge) fail(ctx context.Context, n types.Notification, err error) {
	b.metrics.RecordNotificationFailure(n.Kind.String())
	b.logger.Error("notification handling failed",
		"kind", n.Kind.String(),
		"key", n.Key,
		"error", err,
	)
	b.reportError(ctx, fmt.Errorf("bridge: %s %q: %w", n.Kind, n.Key, err))
}

func (b *Bridge) reportError(ctx context.Context, err error) {
	if hookErr := b.hooks.OnError(ctx, err); hookErr != nil {
		b.logger.Warn("OnError hook failed", "error", hookErr)
	}
}
