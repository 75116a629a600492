package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	t.Run("errors.Is works correctly", func(t *testing.T) {
		require.True(t, errors.Is(ErrNotFound, ErrNotFound))
		require.False(t, errors.Is(ErrNotFound, ErrStore))

		wrapped := errors.Join(ErrNotFound, errors.New("additional context"))
		require.True(t, errors.Is(wrapped, ErrNotFound))
	})

	t.Run("all errors are distinct", func(t *testing.T) {
		allErrors := []error{
			ErrStore,
			ErrNotFound,
			ErrMalformedPayload,
			ErrTimerExists,
			ErrInvalidTTL,
			ErrUnknownEvent,
			ErrInvalidConfig,
			ErrStoreRequired,
			ErrAlreadyStarted,
			ErrNotStarted,
			ErrBridgeAlreadyStarted,
			ErrBridgeNotStarted,
			ErrSweeperAlreadyStarted,
			ErrSweeperNotStarted,
			ErrSubscriptionClosed,
		}

		for i, err1 := range allErrors {
			for j, err2 := range allErrors {
				if i == j {
					require.True(t, errors.Is(err1, err2), "error should equal itself: %v", err1)
				} else {
					require.False(t, errors.Is(err1, err2), "errors should be distinct: %v vs %v", err1, err2)
				}
			}
		}
	})
}

func TestStoreError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, StoreError("create", nil))
	})

	t.Run("wraps both sentinel and cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := StoreError("create", cause)

		require.ErrorIs(t, err, ErrStore)
		require.ErrorIs(t, err, cause)
		require.Contains(t, err.Error(), "create")
		require.False(t, IsAbsent(err))
	})
}

func TestIsAbsent(t *testing.T) {
	require.True(t, IsAbsent(ErrNotFound))
	require.True(t, IsAbsent(errors.Join(errors.New("ctx"), ErrNotFound)))
	require.False(t, IsAbsent(nil))
	require.False(t, IsAbsent(ErrMalformedPayload))
}
