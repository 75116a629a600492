package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventNames(t *testing.T) {
	names := EventNames()
	require.Equal(t, []EventName{EventDeleted, EventExpired, EventSuspended, EventResumed}, names)

	for _, name := range names {
		require.True(t, name.Valid(), "event %q should be valid", name)
	}

	require.False(t, EventName("started").Valid())
	require.False(t, EventName("").Valid())
}

func TestNotificationKindString(t *testing.T) {
	require.Equal(t, "deleted", NotificationDeleted.String())
	require.Equal(t, "expired", NotificationExpired.String())
	require.Equal(t, "expiry_armed", NotificationExpiryArmed.String())
	require.Equal(t, "unknown", NotificationKind(0).String())
}

func TestGenerationIsZero(t *testing.T) {
	require.True(t, Generation{}.IsZero())
	require.False(t, Generation{ID: "g1", TimerRegistry: "g1-ttl-set", DataRegistry: "g1-data-set"}.IsZero())
}
