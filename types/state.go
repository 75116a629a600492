package types

// TimerState is a timer's state as derived from the store.
//
//	create → Active → Suspended → Active → ...
//
// Expiry and deletion remove the timer key, so an expired or deleted timer
// is indistinguishable from an id that never existed and reports StateAbsent.
type TimerState int

const (
	// StateAbsent means no timer entry exists for the id (never created, expired, or deleted).
	StateAbsent TimerState = iota

	// StateActive means a live expiring entry backs the timer.
	StateActive

	// StateSuspended means the remaining time is frozen and recorded without an expiring entry.
	StateSuspended
)

// String returns the string representation of the state.
func (s TimerState) String() string {
	switch s {
	case StateAbsent:
		return "Absent"
	case StateActive:
		return "Active"
	case StateSuspended:
		return "Suspended"
	default:
		return "Unknown"
	}
}

// StateFromTimeLeft maps a query-remaining result (PTTL semantics) to a state.
//
// Parameters:
//   - ms: Remaining milliseconds, -1 for a key without TTL, -2 for a missing key
//
// Returns:
//   - TimerState: Active for ms >= 0, Suspended for -1, Absent otherwise
func StateFromTimeLeft(ms int64) TimerState {
	switch {
	case ms >= 0:
		return StateActive
	case ms == -1:
		return StateSuspended
	default:
		return StateAbsent
	}
}
