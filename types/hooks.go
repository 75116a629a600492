package types

import "context"

// Hooks defines callbacks for Manager background events.
//
// All hooks are optional. They run on the goroutine that observed the event
// (the notification bridge or the sweeper), so they should complete quickly.
//
// IMPORTANT: Hook execution behavior:
//   - Hook errors are logged but don't fail manager operations
//   - The context passed to hooks is cancelled when the manager stops
//
// Example:
//
//	hooks := &radicchio.Hooks{
//	    OnError: func(ctx context.Context, err error) error {
//	        errorsTotal.Inc()
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnError is called when a background component hits a recoverable error:
	// a notification that could not be processed, a failing observer, or a
	// failed sweep.
	OnError func(ctx context.Context, err error) error

	// OnGenerationRotated is called after the registry manager minted a new generation.
	OnGenerationRotated func(ctx context.Context, from, to Generation) error
}
