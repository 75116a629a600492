package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the Radicchio library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// All components should use these sentinel errors for known error conditions
// and wrap external errors with context using fmt.Errorf("%s: %w", msg, err).
//
// Error Taxonomy:
//   - ErrStore: the backing store rejected or failed an operation (never retried)
//   - ErrNotFound: the target id has no live entry or no payload (expected steady state)
//   - ErrMalformedPayload: stored payload could not be deserialized

// Timer operation errors - returned by the public operation surface.
var (
	// ErrStore wraps every failure reported by the backing store.
	ErrStore = errors.New("store error")

	// ErrNotFound is returned when the target timer has no live entry or no retained payload.
	ErrNotFound = errors.New("timer not found")

	// ErrMalformedPayload is returned when a stored payload cannot be deserialized.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrTimerExists is returned by create when the timer id is already in use.
	ErrTimerExists = errors.New("timer already exists")

	// ErrInvalidTTL is returned when a timer duration is below one millisecond.
	ErrInvalidTTL = errors.New("invalid timer duration")

	// ErrUnknownEvent is returned when subscribing to an unsupported event name.
	ErrUnknownEvent = errors.New("unknown event name")
)

// Manager errors - lifecycle errors returned by Manager.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStoreRequired is returned when no backing store is supplied.
	ErrStoreRequired = errors.New("store is required")

	// ErrAlreadyStarted is returned when Start is called on an already running manager.
	ErrAlreadyStarted = errors.New("manager already started")

	// ErrNotStarted is returned when operations require a started manager.
	ErrNotStarted = errors.New("manager not started")
)

// Component errors - internal background component errors.
var (
	// ErrBridgeAlreadyStarted is returned when Start is called on a running notification bridge.
	ErrBridgeAlreadyStarted = errors.New("notification bridge already started")

	// ErrBridgeNotStarted is returned when Stop is called before Start.
	ErrBridgeNotStarted = errors.New("notification bridge not started")

	// ErrSweeperAlreadyStarted is returned when Start is called on a running sweeper.
	ErrSweeperAlreadyStarted = errors.New("sweeper already started")

	// ErrSweeperNotStarted is returned when Stop is called before Start.
	ErrSweeperNotStarted = errors.New("sweeper not started")

	// ErrSubscriptionClosed is returned when a store subscription is used after Close.
	ErrSubscriptionClosed = errors.New("subscription closed")
)

// StoreError wraps a backend failure with ErrStore and the operation name.
//
// Parameters:
//   - op: Atomic operation name (e.g., "create", "suspend")
//   - err: Underlying driver error
//
// Returns:
//   - error: nil if err is nil, otherwise an error matching both ErrStore and err
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

// IsAbsent reports whether err describes an expected absence rather than a fault.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrNotFound)
}
