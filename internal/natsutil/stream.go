// Package natsutil provides helpers for the NATS relay: JetStream stream
// provisioning and publish error classification.
package natsutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// EnsureStreamWithRetry creates or opens a JetStream stream with retry logic.
//
// This function handles race conditions when several processes provision the
// same relay stream concurrently. It will retry with exponential backoff if
// the creation fails due to transient errors.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - js: JetStream context
//   - config: Stream configuration
//   - maxRetries: Maximum number of retry attempts (default: 3)
//
// Returns:
//   - jetstream.Stream: The stream instance
//   - error: Any error that occurred after all retries
//
// Example:
//
//	stream, err := natsutil.EnsureStreamWithRetry(ctx, js, jetstream.StreamConfig{
//	    Name:     "TIMERS",
//	    Subjects: []string{"timers.>"},
//	    MaxAge:   time.Hour,
//	}, 3)
func EnsureStreamWithRetry(
	ctx context.Context,
	js jetstream.JetStream,
	config jetstream.StreamConfig,
	maxRetries int,
) (jetstream.Stream, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		stream, err := js.CreateStream(ctx, config)
		if err == nil {
			return stream, nil
		}

		// Another process won the race, open the existing stream
		if errors.Is(err, jetstream.ErrStreamNameAlreadyInUse) {
			stream, err := js.Stream(ctx, config.Name)
			if err == nil {
				return stream, nil
			}
			lastErr = fmt.Errorf("stream exists but failed to open: %w", err)
		} else {
			lastErr = err
		}

		// Don't retry if cancelled/timeout
		if ctx.Err() != nil {
			return nil, fmt.Errorf("context cancelled during stream creation: %w", ctx.Err())
		}

		// Exponential backoff: 10ms, 20ms, 40ms...
		if attempt < maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * 10 * time.Millisecond //nolint:gosec // attempt is bounded by maxRetries
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed to create/open stream %s after %d attempts: %w",
		config.Name, maxRetries, lastErr)
}
