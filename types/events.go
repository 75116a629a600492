package types

import (
	"context"
	"time"
)

// EventName identifies a domain event delivered to library consumers.
type EventName string

const (
	// EventDeleted fires when a timer is removed early by a caller.
	EventDeleted EventName = "deleted"

	// EventExpired fires when a timer times out naturally. The event carries the timer's payload.
	EventExpired EventName = "expired"

	// EventSuspended fires when a suspend operation completed.
	EventSuspended EventName = "suspended"

	// EventResumed fires when a resume operation completed.
	EventResumed EventName = "resumed"
)

// EventNames lists every supported domain event in a stable order.
func EventNames() []EventName {
	return []EventName{EventDeleted, EventExpired, EventSuspended, EventResumed}
}

// Valid reports whether the name is one of the supported domain events.
func (n EventName) Valid() bool {
	switch n {
	case EventDeleted, EventExpired, EventSuspended, EventResumed:
		return true
	default:
		return false
	}
}

// Event is a domain event produced by the notification bridge.
type Event struct {
	// Name is the event kind.
	Name EventName

	// TimerID is the timer the event refers to.
	TimerID string

	// Data is the decoded payload. Only set for EventExpired.
	Data any

	// Raw is the serialized payload as stored. Only set for EventExpired.
	Raw []byte

	// At is when the bridge processed the notification.
	At time.Time
}

// Handler receives domain events.
//
// Handlers run synchronously on the bridge's single processing goroutine, in
// registration order. A returned error (or a panic) is reported and does not
// prevent later handlers from running.
type Handler func(ctx context.Context, ev Event) error

// EventSource is anything that accepts per-event handler registrations.
type EventSource interface {
	On(name EventName, h Handler) error
}
