package radicchio

import "github.com/tibrahul/Radicchio/types"

// Sentinel errors returned by the Manager and its timer operations.
//
// They are the same values as in the types package, so errors.Is works no
// matter which package a caller imports them from.
var (
	// ErrStore wraps every failure reported by the backing store.
	ErrStore = types.ErrStore

	// ErrNotFound is returned when the target timer has no live entry or no retained payload.
	ErrNotFound = types.ErrNotFound

	// ErrMalformedPayload is returned when a stored payload cannot be deserialized.
	ErrMalformedPayload = types.ErrMalformedPayload

	// ErrTimerExists is returned when a generated timer id is already in use.
	ErrTimerExists = types.ErrTimerExists

	// ErrInvalidTTL is returned when a timer duration is below one millisecond.
	ErrInvalidTTL = types.ErrInvalidTTL

	// ErrUnknownEvent is returned by On for an unsupported event name.
	ErrUnknownEvent = types.ErrUnknownEvent

	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrStoreRequired is returned when NewManager receives a nil store.
	ErrStoreRequired = types.ErrStoreRequired

	// ErrAlreadyStarted is returned when Start is called on an already running manager.
	ErrAlreadyStarted = types.ErrAlreadyStarted

	// ErrNotStarted is returned when an operation requires a started manager.
	ErrNotStarted = types.ErrNotStarted

	// ErrSubscriptionClosed is returned when a store subscription is used after Close.
	ErrSubscriptionClosed = types.ErrSubscriptionClosed
)
