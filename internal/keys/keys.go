// Package keys implements the store key-naming contract.
//
// Key Format:
//
//	<generationID>-ttl-set    timer registry (set of Active timer ids)
//	<generationID>-data-set   data registry (hash of timer id → payload)
//	<timerID>-suspended       suspend completion marker
//	<timerID>-resumed         resume completion marker
//
// The suffixes are part of the wire contract: notification classification
// depends on them, so they must stay bit-for-bit stable.
package keys

import "strings"

// Suffixes of derived keys.
const (
	TimerRegistrySuffix = "-ttl-set"
	DataRegistrySuffix  = "-data-set"
	SuspendedSuffix     = "-suspended"
	ResumedSuffix       = "-resumed"
)

// Kind classifies a key by its suffix.
type Kind int

const (
	// KindTimer is a plain timer id with no recognized suffix.
	KindTimer Kind = iota

	// KindTimerRegistry is a timer registry key.
	KindTimerRegistry

	// KindDataRegistry is a data registry key.
	KindDataRegistry

	// KindSuspendMarker is a suspend completion marker.
	KindSuspendMarker

	// KindResumeMarker is a resume completion marker.
	KindResumeMarker
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindTimer:
		return "timer"
	case KindTimerRegistry:
		return "timer_registry"
	case KindDataRegistry:
		return "data_registry"
	case KindSuspendMarker:
		return "suspend_marker"
	case KindResumeMarker:
		return "resume_marker"
	default:
		return "unknown"
	}
}

// TimerRegistry returns the timer registry key of a generation.
func TimerRegistry(generationID string) string {
	return generationID + TimerRegistrySuffix
}

// DataRegistry returns the data registry key of a generation.
func DataRegistry(generationID string) string {
	return generationID + DataRegistrySuffix
}

// SuspendMarker returns the suspend marker key of a timer.
func SuspendMarker(timerID string) string {
	return timerID + SuspendedSuffix
}

// ResumeMarker returns the resume marker key of a timer.
func ResumeMarker(timerID string) string {
	return timerID + ResumedSuffix
}

// Classify determines the kind of key and strips the recognized suffix.
//
// Parameters:
//   - key: Key as reported by a store notification
//
// Returns:
//   - Kind: The key's kind
//   - string: The timer id (markers, plain timers) or generation id (registries)
func Classify(key string) (Kind, string) {
	switch {
	case strings.HasSuffix(key, SuspendedSuffix):
		return KindSuspendMarker, strings.TrimSuffix(key, SuspendedSuffix)
	case strings.HasSuffix(key, ResumedSuffix):
		return KindResumeMarker, strings.TrimSuffix(key, ResumedSuffix)
	case strings.HasSuffix(key, DataRegistrySuffix):
		return KindDataRegistry, strings.TrimSuffix(key, DataRegistrySuffix)
	case strings.HasSuffix(key, TimerRegistrySuffix):
		return KindTimerRegistry, strings.TrimSuffix(key, TimerRegistrySuffix)
	default:
		return KindTimer, key
	}
}

// IsRegistry reports whether key names a timer or data registry.
func IsRegistry(key string) bool {
	kind, _ := Classify(key)
	return kind == KindTimerRegistry || kind == KindDataRegistry
}
