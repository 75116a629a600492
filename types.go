package radicchio

import "github.com/tibrahul/Radicchio/types"

// Re-export types from the internal types package.
//
// This file provides a stable public API for the library's core types and
// interfaces. It uses type aliases to re-export definitions from the `types`
// subpackage, which contains the actual implementations.
//
// This pattern solves the "import cycle" problem by allowing the store, codec
// and internal packages to depend on `types` without depending on the root
// `radicchio` package, while still providing a convenient `radicchio.Event`,
// `radicchio.Store`, etc. for users.
type (
	TimerState   = types.TimerState
	TimeLeft     = types.TimeLeft
	TimerData    = types.TimerData
	Generation   = types.Generation
	SweepResult  = types.SweepResult
	Event        = types.Event
	EventName    = types.EventName
	Notification = types.Notification
)

// Re-export interfaces and function types from the internal types package for convenience.
type (
	Store            = types.Store
	Subscription     = types.Subscription
	Codec            = types.Codec
	Handler          = types.Handler
	EventSource      = types.EventSource
	IDGenerator      = types.IDGenerator
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-export event names from the internal types package.
const (
	EventDeleted   = types.EventDeleted
	EventExpired   = types.EventExpired
	EventSuspended = types.EventSuspended
	EventResumed   = types.EventResumed
)

// Re-export TimerState constants from the internal types package.
const (
	StateAbsent    = types.StateAbsent
	StateActive    = types.StateActive
	StateSuspended = types.StateSuspended
)
