package store

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tibrahul/Radicchio/types"
)

const (
	testTimerRegistry = "g1-ttl-set"
	testDataRegistry  = "g1-data-set"
)

// runStoreContract exercises the atomic operation set without letting time pass.
func runStoreContract(t *testing.T, newStore func(t *testing.T) types.Store) {
	t.Helper()

	t.Run("create then time left", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		require.NoError(t, st.Create(ctx, testTimerRegistry, "t1", testDataRegistry, 10*time.Second, []byte(`{"x":1}`)))

		left, err := st.TimeLeft(ctx, "t1")
		require.NoError(t, err)
		require.Positive(t, left)
		require.LessOrEqual(t, left, int64(10000))

		members, err := st.Members(ctx, testTimerRegistry)
		require.NoError(t, err)
		require.Equal(t, []string{"t1"}, members)

		payload, err := st.Payload(ctx, testDataRegistry, "t1")
		require.NoError(t, err)
		require.JSONEq(t, `{"x":1}`, string(payload))
	})

	t.Run("create rejects existing id", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		require.NoError(t, st.Create(ctx, testTimerRegistry, "t1", testDataRegistry, time.Second, []byte("null")))
		err := st.Create(ctx, testTimerRegistry, "t1", testDataRegistry, time.Second, []byte("null"))
		require.ErrorIs(t, err, types.ErrTimerExists)
	})

	t.Run("time left of missing key", func(t *testing.T) {
		st := newStore(t)

		left, err := st.TimeLeft(context.Background(), "missing")
		require.NoError(t, err)
		require.Equal(t, int64(-2), left)
	})

	t.Run("delete returns payload exactly once", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		require.NoError(t, st.Create(ctx, testTimerRegistry, "t1", testDataRegistry, 10*time.Second, []byte(`"data"`)))

		payload, err := st.Delete(ctx, testTimerRegistry, testDataRegistry, "t1")
		require.NoError(t, err)
		require.Equal(t, `"data"`, string(payload))

		_, err = st.Delete(ctx, testTimerRegistry, testDataRegistry, "t1")
		require.ErrorIs(t, err, types.ErrNotFound)

		left, err := st.TimeLeft(ctx, "t1")
		require.NoError(t, err)
		require.Equal(t, int64(-2), left)

		n, err := st.CountExisting(ctx, testTimerRegistry, testDataRegistry)
		require.NoError(t, err)
		require.Zero(t, n, "empty registries must disappear")
	})

	t.Run("delete in wrong generation is not found", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		require.NoError(t, st.Create(ctx, testTimerRegistry, "t1", testDataRegistry, 10*time.Second, []byte("1")))

		_, err := st.Delete(ctx, "g2-ttl-set", "g2-data-set", "t1")
		require.ErrorIs(t, err, types.ErrNotFound)

		left, err := st.TimeLeft(ctx, "t1")
		require.NoError(t, err)
		require.Positive(t, left, "a failed delete must not mutate anything")
	})

	t.Run("suspend and resume keep remaining time", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		require.NoError(t, st.Create(ctx, testTimerRegistry, "t1", testDataRegistry, 10*time.Second, []byte("1")))

		ok, err := st.Suspend(ctx, testTimerRegistry, "t1", "t1-suspended")
		require.NoError(t, err)
		require.True(t, ok)

		left, err := st.TimeLeft(ctx, "t1")
		require.NoError(t, err)
		require.Equal(t, int64(-1), left, "suspended timer has no expiry")

		members, err := st.Members(ctx, testTimerRegistry)
		require.NoError(t, err)
		require.Empty(t, members)

		payload, err := st.Payload(ctx, testDataRegistry, "t1")
		require.NoError(t, err)
		require.Equal(t, "1", string(payload), "payload survives suspension")

		ok, err = st.Suspend(ctx, testTimerRegistry, "t1", "t1-suspended")
		require.NoError(t, err)
		require.False(t, ok, "suspending twice fails")

		ok, err = st.Resume(ctx, testTimerRegistry, "t1", "t1-resumed")
		require.NoError(t, err)
		require.True(t, ok)

		left, err = st.TimeLeft(ctx, "t1")
		require.NoError(t, err)
		require.Positive(t, left)
		require.LessOrEqual(t, left, int64(10000))
		require.Greater(t, left, int64(9000), "resume restores the frozen time, not a fresh one")

		members, err = st.Members(ctx, testTimerRegistry)
		require.NoError(t, err)
		require.Equal(t, []string{"t1"}, members)

		ok, err = st.Resume(ctx, testTimerRegistry, "t1", "t1-resumed")
		require.NoError(t, err)
		require.False(t, ok, "resuming an active timer fails")
	})

	t.Run("resume never suspended id fails", func(t *testing.T) {
		st := newStore(t)

		ok, err := st.Resume(context.Background(), testTimerRegistry, "ghost", "ghost-resumed")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("delete suspended timer", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		require.NoError(t, st.Create(ctx, testTimerRegistry, "t1", testDataRegistry, 10*time.Second, []byte("7")))
		ok, err := st.Suspend(ctx, testTimerRegistry, "t1", "t1-suspended")
		require.NoError(t, err)
		require.True(t, ok)

		payload, err := st.Delete(ctx, testTimerRegistry, testDataRegistry, "t1")
		require.NoError(t, err)
		require.Equal(t, "7", string(payload))

		ok, err = st.Resume(ctx, testTimerRegistry, "t1", "t1-resumed")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("members of both registries", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, st.Create(ctx, testTimerRegistry, id, testDataRegistry, 10*time.Second, []byte("null")))
		}
		ok, err := st.Suspend(ctx, testTimerRegistry, "b", "b-suspended")
		require.NoError(t, err)
		require.True(t, ok)

		active, err := st.Members(ctx, testTimerRegistry)
		require.NoError(t, err)
		sort.Strings(active)
		require.Equal(t, []string{"a", "c"}, active)

		retained, err := st.Members(ctx, testDataRegistry)
		require.NoError(t, err)
		sort.Strings(retained)
		require.Equal(t, []string{"a", "b", "c"}, retained)

		missing, err := st.Members(ctx, "nope-ttl-set")
		require.NoError(t, err)
		require.Empty(t, missing)
	})

	t.Run("remove from both", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		require.NoError(t, st.Create(ctx, testTimerRegistry, "t1", testDataRegistry, 10*time.Second, []byte("1")))
		require.NoError(t, st.Create(ctx, testTimerRegistry, "t2", testDataRegistry, 10*time.Second, []byte("2")))

		require.NoError(t, st.RemoveFromBoth(ctx, testTimerRegistry, testDataRegistry, "t1"))
		require.NoError(t, st.RemoveFromBoth(ctx, testTimerRegistry, testDataRegistry, "t1"), "idempotent")

		_, err := st.Payload(ctx, testDataRegistry, "t1")
		require.ErrorIs(t, err, types.ErrNotFound)

		n, err := st.CountExisting(ctx, testTimerRegistry, testDataRegistry)
		require.NoError(t, err)
		require.Equal(t, 2, n)

		require.NoError(t, st.RemoveFromBoth(ctx, testTimerRegistry, testDataRegistry, "t2"))
		n, err = st.CountExisting(ctx, testTimerRegistry, testDataRegistry)
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("count existing", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		n, err := st.CountExisting(ctx)
		require.NoError(t, err)
		require.Zero(t, n)

		require.NoError(t, st.Create(ctx, testTimerRegistry, "t1", testDataRegistry, 10*time.Second, []byte("1")))
		n, err = st.CountExisting(ctx, "t1", testTimerRegistry, testDataRegistry, "absent")
		require.NoError(t, err)
		require.Equal(t, 3, n)
	})
}
