package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tibrahul/Radicchio/types"
)

func newTestMemory(t *testing.T, opts ...MemoryOption) *Memory {
	t.Helper()

	m := NewMemory(opts...)
	t.Cleanup(func() { _ = m.Close() })

	return m
}

// drain collects notifications until none arrives for quiet.
func drain(sub types.Subscription, quiet time.Duration) []types.Notification {
	var out []types.Notification
	for {
		select {
		case n, ok := <-sub.C():
			if !ok {
				return out
			}
			out = append(out, n)
		case <-time.After(quiet):
			return out
		}
	}
}

func TestMemory_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) types.Store {
		return newTestMemory(t)
	})
}

func TestMemory_CloseStopsGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewMemory()
	sub, err := m.Subscribe(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, ok := <-sub.C()
	require.False(t, ok, "close ends subscriptions")
	require.NoError(t, sub.Close())

	_, err = m.Subscribe(context.Background())
	require.ErrorIs(t, err, types.ErrStore)
	require.ErrorIs(t, err, types.ErrSubscriptionClosed)
}

func TestMemory_CreateAndDeleteNotifications(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	sub, err := m.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, m.Create(ctx, testTimerRegistry, "t1", testDataRegistry, 10*time.Second, []byte("1")))
	_, err = m.Delete(ctx, testTimerRegistry, testDataRegistry, "t1")
	require.NoError(t, err)

	require.Equal(t, []types.Notification{
		{Kind: types.NotificationExpiryArmed, Key: "t1"},
		{Kind: types.NotificationDeleted, Key: testDataRegistry},
		{Kind: types.NotificationDeleted, Key: testTimerRegistry},
		{Kind: types.NotificationDeleted, Key: "t1"},
	}, drain(sub, 50*time.Millisecond))
}

func TestMemory_SuspendResumeMarkers(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Create(ctx, testTimerRegistry, "keep", testDataRegistry, 10*time.Second, []byte("1")))
	require.NoError(t, m.Create(ctx, testTimerRegistry, "t1", testDataRegistry, 10*time.Second, []byte("1")))

	sub, err := m.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	ok, err := m.Suspend(ctx, testTimerRegistry, "t1", "t1-suspended")
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, []types.Notification{
		{Kind: types.NotificationDeleted, Key: "t1-suspended"},
	}, drain(sub, 50*time.Millisecond))

	ok, err = m.Resume(ctx, testTimerRegistry, "t1", "t1-resumed")
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, []types.Notification{
		{Kind: types.NotificationExpiryArmed, Key: "t1"},
		{Kind: types.NotificationExpiryArmed, Key: "t1-resumed"},
		{Kind: types.NotificationExpired, Key: "t1-resumed"},
	}, drain(sub, 100*time.Millisecond))
}

func TestMemory_NaturalExpiry(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	sub, err := m.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Create(ctx, testTimerRegistry, "t1", testDataRegistry, 20*time.Millisecond, []byte(`"p"`)))

	require.Eventually(t, func() bool {
		select {
		case n := <-sub.C():
			return n == types.Notification{Kind: types.NotificationExpired, Key: "t1"}
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	left, err := m.TimeLeft(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, int64(-2), left)

	// registries retain the id until the expiry drain removes it
	members, err := m.Members(ctx, testTimerRegistry)
	require.NoError(t, err)
	require.Equal(t, []string{"t1"}, members)

	payload, err := m.Payload(ctx, testDataRegistry, "t1")
	require.NoError(t, err)
	require.Equal(t, `"p"`, string(payload))

	_, err = m.Delete(ctx, testTimerRegistry, testDataRegistry, "t1")
	require.ErrorIs(t, err, types.ErrNotFound, "an expired timer belongs to the expiry drain")

	require.NoError(t, sub.Close())
	require.NoError(t, m.Close())
}

func TestMemory_StaleExpiryIgnored(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Create(ctx, testTimerRegistry, "t1", testDataRegistry, 30*time.Millisecond, []byte("1")))
	ok, err := m.Suspend(ctx, testTimerRegistry, "t1", "t1-suspended")
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)

	left, err := m.TimeLeft(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, int64(-1), left, "suspended timer must not expire with its old deadline")
}

func TestMemory_FullBufferDrops(t *testing.T) {
	m := newTestMemory(t, WithMemoryBuffer(1))
	ctx := context.Background()

	sub, err := m.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, m.Create(ctx, testTimerRegistry, "a", testDataRegistry, 10*time.Second, []byte("1")))
	require.NoError(t, m.Create(ctx, testTimerRegistry, "b", testDataRegistry, 10*time.Second, []byte("1")))

	require.Equal(t, uint64(1), m.Dropped())
	require.Len(t, drain(sub, 20*time.Millisecond), 1)
}

func TestMemory_WrongType(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Create(ctx, testTimerRegistry, "t1", testDataRegistry, 10*time.Second, []byte("1")))

	// the data registry is a hash, so it cannot double as a timer registry
	err := m.Create(ctx, testDataRegistry, "t2", testDataRegistry, time.Second, []byte("1"))
	require.ErrorIs(t, err, types.ErrStore)
}

func TestMemory_CanceledContext(t *testing.T) {
	m := newTestMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Create(ctx, testTimerRegistry, "t1", testDataRegistry, time.Second, nil)
	require.ErrorIs(t, err, types.ErrStore)
	require.ErrorIs(t, err, context.Canceled)

	_, err = m.TimeLeft(ctx, "t1")
	require.ErrorIs(t, err, context.Canceled)
}
