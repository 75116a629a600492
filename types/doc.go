// Package types provides core type definitions and interfaces for the Radicchio library.
//
// This package contains shared types that are used across multiple packages in the
// Radicchio library. By keeping these types in a separate package, we avoid import cycles
// between the main radicchio package, its internal components, and the store backends.
//
// Key types:
//   - Store: The atomic operation set a backing store must provide
//   - Notification: A change notification reported by the store
//   - Event: A domain event (deleted, expired, suspended, resumed) delivered to observers
//   - Generation: A cohort of registries sharing one rotation id
//   - Codec: Reversible payload serialization
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
