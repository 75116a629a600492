package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from internal goroutines and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	OperationMetrics
	BridgeMetrics
	SweeperMetrics
}

// OperationMetrics defines metrics for the public timer operations.
type OperationMetrics interface {
	// RecordOperation records one timer operation.
	//
	// Parameters:
	//   - op: Operation name ("start", "time_left", "suspend", "resume", "delete", "data", ...)
	//   - result: Outcome ("success", "not_found", "error")
	//   - duration: Time taken in seconds
	RecordOperation(op string, result string, duration float64)
}

// BridgeMetrics defines metrics for notification processing.
type BridgeMetrics interface {
	// RecordNotification records a notification received from the store.
	//
	// Parameters:
	//   - kind: Notification kind ("deleted", "expired", "expiry_armed")
	RecordNotification(kind string)

	// RecordNotificationFailure records a notification whose handling failed.
	RecordNotificationFailure(kind string)

	// RecordEvent records a domain event emitted to observers.
	//
	// Parameters:
	//   - name: Event name ("deleted", "expired", "suspended", "resumed")
	RecordEvent(name string)

	// RecordGenerationRotation records that a new registry generation was minted.
	RecordGenerationRotation()
}

// SweeperMetrics defines metrics for reconciliation passes.
type SweeperMetrics interface {
	// RecordSweep records one reconciliation pass.
	//
	// Parameters:
	//   - duration: Time taken in seconds
	//   - active: Number of Active timers observed
	//   - retained: Number of timers with retained payload observed
	//   - success: false if either query failed
	RecordSweep(duration float64, active, retained int, success bool)
}
