package bridge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tibrahul/Radicchio/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		n    types.Notification
		want Decision
	}{
		{
			name: "suspend marker deleted",
			n:    types.Notification{Kind: types.NotificationDeleted, Key: "t1-suspended"},
			want: Decision{Action: ActionEmit, Event: types.EventSuspended, TimerID: "t1"},
		},
		{
			name: "timer registry deleted",
			n:    types.Notification{Kind: types.NotificationDeleted, Key: "g-ttl-set"},
			want: Decision{Action: ActionRetire},
		},
		{
			name: "data registry deleted",
			n:    types.Notification{Kind: types.NotificationDeleted, Key: "g-data-set"},
			want: Decision{Action: ActionRetire},
		},
		{
			name: "plain timer deleted",
			n:    types.Notification{Kind: types.NotificationDeleted, Key: "t1"},
			want: Decision{Action: ActionEmit, Event: types.EventDeleted, TimerID: "t1"},
		},
		{
			name: "resume marker deleted",
			n:    types.Notification{Kind: types.NotificationDeleted, Key: "t1-resumed"},
			want: Decision{Action: ActionIgnore},
		},
		{
			name: "timer expired",
			n:    types.Notification{Kind: types.NotificationExpired, Key: "t1"},
			want: Decision{Action: ActionExpire, TimerID: "t1"},
		},
		{
			name: "resume marker expired",
			n:    types.Notification{Kind: types.NotificationExpired, Key: "t1-resumed"},
			want: Decision{Action: ActionIgnore},
		},
		{
			name: "registry expired",
			n:    types.Notification{Kind: types.NotificationExpired, Key: "g-ttl-set"},
			want: Decision{Action: ActionIgnore},
		},
		{
			name: "resume marker armed",
			n:    types.Notification{Kind: types.NotificationExpiryArmed, Key: "t1-resumed"},
			want: Decision{Action: ActionEmit, Event: types.EventResumed, TimerID: "t1"},
		},
		{
			name: "timer armed",
			n:    types.Notification{Kind: types.NotificationExpiryArmed, Key: "t1"},
			want: Decision{Action: ActionIgnore},
		},
		{
			name: "unknown kind",
			n:    types.Notification{Kind: types.NotificationKind(99), Key: "t1"},
			want: Decision{Action: ActionIgnore},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Classify(tt.n))
		})
	}
}

func TestActionString(t *testing.T) {
	require.Equal(t, "ignore", ActionIgnore.String())
	require.Equal(t, "emit", ActionEmit.String())
	require.Equal(t, "retire", ActionRetire.String())
	require.Equal(t, "expire", ActionExpire.String())
	require.Equal(t, "unknown", Action(9).String())
}
