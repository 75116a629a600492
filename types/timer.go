package types

import "time"

// TimeLeft reports the remaining lifetime of an Active timer.
type TimeLeft struct {
	TimerID  string        `json:"timerId"`
	TimeLeft time.Duration `json:"timeLeft"`
}

// TimerData is a timer's retained payload.
type TimerData struct {
	TimerID string `json:"timerId"`
	Data    any    `json:"data"`

	// Raw is the serialized payload, useful for decoding into a concrete type
	// with the manager's codec.
	Raw []byte `json:"-"`
}

// Generation is a cohort of registries sharing one rotation id.
//
// The two registry ids are always derived from ID, so they are created and
// retired together.
type Generation struct {
	ID            string `json:"id"`
	TimerRegistry string `json:"timerRegistry"`
	DataRegistry  string `json:"dataRegistry"`
}

// IsZero reports whether the generation has not been minted.
func (g Generation) IsZero() bool {
	return g.ID == ""
}

// SweepResult is the outcome of one reconciliation pass.
type SweepResult struct {
	// TimesLeft holds every Active, unexpired timer.
	TimesLeft []TimeLeft

	// Data holds the retained payload of every Active or Suspended timer.
	Data []TimerData

	// Reclaimed lists timers whose expiry notification was lost and that
	// this pass sent through the expiry path.
	Reclaimed []string

	// Duration is how long the pass took.
	Duration time.Duration
}

// IDGenerator produces collision-free opaque identifiers.
type IDGenerator func() string
