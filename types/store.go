package types

import (
	"context"
	"time"
)

// NotificationKind classifies a change notification reported by the store.
type NotificationKind int

const (
	// NotificationDeleted reports that a key was explicitly deleted, or that a
	// container key was auto-removed after its last member left.
	NotificationDeleted NotificationKind = iota + 1

	// NotificationExpired reports that a key timed out naturally.
	NotificationExpired

	// NotificationExpiryArmed reports that a TTL was just set on a key.
	NotificationExpiryArmed
)

// String returns the string representation of the notification kind.
func (k NotificationKind) String() string {
	switch k {
	case NotificationDeleted:
		return "deleted"
	case NotificationExpired:
		return "expired"
	case NotificationExpiryArmed:
		return "expiry_armed"
	default:
		return "unknown"
	}
}

// Notification is a single change notification carrying the affected key.
type Notification struct {
	Kind NotificationKind
	Key  string
}

// Subscription is a standing subscription to the store's change notifications.
//
// Delivery is best-effort: notifications may be dropped and are never replayed.
type Subscription interface {
	// C returns the channel notifications are delivered on.
	// The channel is closed when the subscription ends.
	C() <-chan Notification

	// Close ends the subscription and releases its resources.
	Close() error
}

// Store is the atomic operation set a backing store must provide.
//
// Each method executes as a single indivisible unit against a small, fixed key
// list. Registry ids are always passed explicitly so that an in-flight call
// completes against the generation it started with, even if a rotation happens
// concurrently.
//
// Key model shared by all backends:
//   - <timerID>: Active = live entry with TTL; Suspended = remaining millis, no TTL
//   - <timerRegistry>: set of Active timer ids
//   - <dataRegistry>: hash of timer id → serialized payload
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Create adds timerID to the timer registry, sets its live expiring entry and
	// stores payload under timerID in the data registry.
	//
	// Returns ErrTimerExists if a timer entry for timerID already exists.
	Create(ctx context.Context, timerRegistry, timerID, dataRegistry string, ttl time.Duration, payload []byte) error

	// TimeLeft returns the remaining lifetime of timerID's entry in milliseconds.
	//
	// The result follows PTTL semantics: -2 if no entry exists, -1 if the entry
	// carries no expiry (Suspended), otherwise the remaining milliseconds.
	TimeLeft(ctx context.Context, timerID string) (int64, error)

	// Delete removes timerID from both registries together with its entry and
	// returns the payload. Only a timer whose entry still exists (Active or
	// Suspended) can be deleted; otherwise ErrNotFound is returned.
	Delete(ctx context.Context, timerRegistry, dataRegistry, timerID string) ([]byte, error)

	// Suspend freezes the remaining time of an Active timer, removes it from the
	// timer registry, and deletes markerKey to signal completion.
	//
	// Returns false if timerID had no live expiring entry.
	Suspend(ctx context.Context, timerRegistry, timerID, markerKey string) (bool, error)

	// Resume restarts a Suspended timer with the captured remaining time, re-adds
	// it to the timer registry, and arms an imminent expiry on markerKey.
	//
	// Returns false if no captured remaining time existed.
	Resume(ctx context.Context, timerRegistry, timerID, markerKey string) (bool, error)

	// Members returns the member ids of a timer or data registry.
	// A missing registry has no members.
	Members(ctx context.Context, registry string) ([]string, error)

	// Payload returns the serialized payload stored for timerID.
	// Returns ErrNotFound if the data registry has no entry for timerID.
	Payload(ctx context.Context, dataRegistry, timerID string) ([]byte, error)

	// RemoveFromBoth strips timerID from both registries without returning the payload.
	RemoveFromBoth(ctx context.Context, timerRegistry, dataRegistry, timerID string) error

	// CountExisting returns how many of the given keys currently exist.
	CountExisting(ctx context.Context, keys ...string) (int, error)

	// Subscribe opens a standing subscription to deletion, expiry, and
	// expiry-armed notifications.
	Subscribe(ctx context.Context) (Subscription, error)
}
