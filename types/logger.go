package types

// Logger is the structured logger used by the manager, the store backends and
// the relay.
//
// Arguments after msg are alternating keys and values, so a
// zap.SugaredLogger satisfies it directly. Keys are snake_case, for example
// "timer_id", "generation_id" and "error".
type Logger interface {
	// Debug logs per-notification and per-operation detail.
	Debug(msg string, keysAndValues ...any)

	// Info logs lifecycle changes such as start, stop and generation rotation.
	Info(msg string, keysAndValues ...any)

	// Warn logs recoverable conditions, for example a dropped subscription.
	Warn(msg string, keysAndValues ...any)

	// Error logs background failures that were reported through Hooks.OnError.
	Error(msg string, keysAndValues ...any)

	// Fatal logs msg and terminates the process. The library never calls it.
	Fatal(msg string, keysAndValues ...any)
}
