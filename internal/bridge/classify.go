package bridge

import (
	"github.com/tibrahul/Radicchio/internal/keys"
	"github.com/tibrahul/Radicchio/types"
)

// Action is what the bridge does with a notification.
type Action int

const (
	// ActionIgnore drops the notification.
	ActionIgnore Action = iota

	// ActionEmit emits Decision.Event for Decision.TimerID.
	ActionEmit

	// ActionRetire reports a registry deletion to the registry manager.
	ActionRetire

	// ActionExpire runs the expiry drain for Decision.TimerID.
	ActionExpire
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionIgnore:
		return "ignore"
	case ActionEmit:
		return "emit"
	case ActionRetire:
		return "retire"
	case ActionExpire:
		return "expire"
	default:
		return "unknown"
	}
}

// Decision is the classification of a single notification.
type Decision struct {
	Action  Action
	Event   types.EventName
	TimerID string
}

// Classify maps a store notification to the action the bridge takes.
//
// It is a pure function of the notification kind and the key suffix.
func Classify(n types.Notification) Decision {
	kind, id := keys.Classify(n.Key)

	switch n.Kind {
	case types.NotificationDeleted:
		switch kind {
		case keys.KindSuspendMarker:
			return Decision{Action: ActionEmit, Event: types.EventSuspended, TimerID: id}
		case keys.KindTimerRegistry, keys.KindDataRegistry:
			return Decision{Action: ActionRetire}
		case keys.KindTimer:
			return Decision{Action: ActionEmit, Event: types.EventDeleted, TimerID: id}
		}

	case types.NotificationExpired:
		// marker keys expire on their own and never surface as timer events
		if kind == keys.KindTimer {
			return Decision{Action: ActionExpire, TimerID: id}
		}

	case types.NotificationExpiryArmed:
		if kind == keys.KindResumeMarker {
			return Decision{Action: ActionEmit, Event: types.EventResumed, TimerID: id}
		}
	}

	return Decision{Action: ActionIgnore}
}
