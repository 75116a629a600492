// Package radicchio provides a Go library for distributed timers on a shared,
// TTL-capable key-value store such as Redis.
//
// Independent processes start named timers carrying an opaque payload, query
// their remaining lifetime, suspend and resume them, delete them early, and
// observe them expiring. Every mutation is a single atomic script at the store,
// and store keyspace notifications are turned into domain events.
//
// # Quick Start
//
// Basic usage with a Redis store:
//
//	import (
//	    "github.com/redis/go-redis/v9"
//	    "github.com/tibrahul/Radicchio"
//	    "github.com/tibrahul/Radicchio/store"
//	)
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	cfg := radicchio.DefaultConfig()
//	mgr, err := radicchio.NewManager(&cfg, store.NewRedis(client))
//
//	_ = mgr.On(radicchio.EventExpired, func(ctx context.Context, ev radicchio.Event) error {
//	    log.Printf("timer %s expired with %v", ev.TimerID, ev.Data)
//	    return nil
//	})
//
//	if err := mgr.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Stop(context.Background())
//
//	id, err := mgr.StartTimer(ctx, 30*time.Second, map[string]any{"order": 42})
//
// # Key Features
//
//   - Atomic Lifecycle: create, suspend, resume and delete each run as one store script
//   - Suspend/Resume: Resume restores exactly the remaining time frozen at suspend
//   - Domain Events: deleted, expired, suspended and resumed, delivered in registration order
//   - Self-Cleaning Registries: Empty registries vanish and a fresh generation takes over
//   - Polling Backstop: A reconciliation sweeper re-derives live state without notifications
//
// # Architecture
//
// Timers move through a small state machine:
//
//	create → Active ⇄ Suspended
//	Active → Expired | Deleted
//	Suspended → Deleted
//
// Active timer ids live in the current generation's timer registry
// (<generation>-ttl-set) and every payload lives in its data registry
// (<generation>-data-set). When both registries have emptied and the store has
// auto-removed them, the manager mints a new generation.
//
// Notifications are best-effort. GetAllTimesLeft and GetDataFromAllTimers
// answer purely from store state, and the sweeper calls them periodically so
// polling consumers converge even when notifications are dropped.
//
// # Advanced Usage
//
// Metrics, hooks and an in-process store:
//
//	reg := prometheus.NewRegistry()
//	hooks := &radicchio.Hooks{
//	    OnError: func(ctx context.Context, err error) error {
//	        log.Printf("background failure: %v", err)
//	        return nil
//	    },
//	}
//
//	mgr, err := radicchio.NewManager(&cfg, store.NewMemory(),
//	    radicchio.WithMetrics(radicchio.NewPrometheusMetrics(reg, "timers")),
//	    radicchio.WithHooks(hooks),
//	    radicchio.WithCodec(codec.NewCBOR()),
//	)
//
// See the examples/ directory for a complete working example, including the
// NATS relay that republishes events to other services.
package radicchio
