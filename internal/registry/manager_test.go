package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tibrahul/Radicchio/internal/keys"
	"github.com/tibrahul/Radicchio/store"
	"github.com/tibrahul/Radicchio/types"
)

type fakeVerifier struct {
	existing atomic.Int64
	err      error
}

func (v *fakeVerifier) CountExisting(_ context.Context, _ ...string) (int, error) {
	if v.err != nil {
		return 0, v.err
	}

	return int(v.existing.Load()), nil
}

func sequentialIDs() types.IDGenerator {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("gen%d", n.Add(1))
	}
}

func TestNew_MintsFirstGeneration(t *testing.T) {
	m := New(&fakeVerifier{}, sequentialIDs())

	cur := m.Current()
	require.Equal(t, "gen1", cur.ID)
	require.Equal(t, "gen1-ttl-set", cur.TimerRegistry)
	require.Equal(t, "gen1-data-set", cur.DataRegistry)

	_, ok := m.Previous()
	require.False(t, ok)
}

func TestRetire_RotatesWhenBothHalvesRetire(t *testing.T) {
	var rotated []string
	m := New(&fakeVerifier{}, sequentialIDs(), WithOnRotate(func(_ context.Context, from, to types.Generation) {
		rotated = append(rotated, from.ID+"->"+to.ID)
	}))
	ctx := context.Background()

	ok, err := m.Retire(ctx, "gen1-data-set")
	require.NoError(t, err)
	require.False(t, ok)

	timer, data := m.Retired()
	require.False(t, timer)
	require.True(t, data)
	require.Equal(t, "gen1", m.Current().ID, "ids stay readable after a single retirement")

	ok, err = m.Retire(ctx, "gen1-ttl-set")
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, "gen2", m.Current().ID)
	prev, ok := m.Previous()
	require.True(t, ok)
	require.Equal(t, "gen1", prev.ID)
	require.Equal(t, []string{"gen1->gen2"}, rotated)
	require.Equal(t, uint64(1), m.Rotations())

	timer, data = m.Retired()
	require.False(t, timer)
	require.False(t, data)
}

func TestRetire_IgnoresOtherGenerations(t *testing.T) {
	m := New(&fakeVerifier{}, sequentialIDs())
	ctx := context.Background()

	ok, err := m.Retire(ctx, "other-ttl-set")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = m.Retire(ctx, "other-data-set")
	require.NoError(t, err)
	require.False(t, ok)

	timer, data := m.Retired()
	require.False(t, timer)
	require.False(t, data)
}

func TestRetire_RejectsNonRegistryKeys(t *testing.T) {
	m := New(&fakeVerifier{}, sequentialIDs())

	_, err := m.Retire(context.Background(), "timer-id")
	require.Error(t, err)
}

func TestRetire_KeepsRepopulatedGeneration(t *testing.T) {
	v := &fakeVerifier{}
	v.existing.Store(1)
	m := New(v, sequentialIDs())
	ctx := context.Background()

	_, err := m.Retire(ctx, "gen1-ttl-set")
	require.NoError(t, err)
	ok, err := m.Retire(ctx, "gen1-data-set")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "gen1", m.Current().ID)

	timer, data := m.Retired()
	require.False(t, timer, "flags reset when the store disagrees")
	require.False(t, data)
}

func TestRetire_VerificationFailureKeepsFlags(t *testing.T) {
	v := &fakeVerifier{err: errors.New("connection refused")}
	m := New(v, sequentialIDs())
	ctx := context.Background()

	_, err := m.Retire(ctx, "gen1-ttl-set")
	require.NoError(t, err)
	_, err = m.Retire(ctx, "gen1-data-set")
	require.Error(t, err)

	timer, data := m.Retired()
	require.True(t, timer)
	require.True(t, data)

	v.err = nil
	ok, err := m.Retire(ctx, "gen1-data-set")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCurrent_ConcurrentReaders(t *testing.T) {
	m := New(&fakeVerifier{}, sequentialIDs())
	ctx := context.Background()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				g := m.Current()
				if g.IsZero() || g.TimerRegistry == "" || g.DataRegistry == "" {
					t.Error("observed empty generation")
					return
				}
			}
		}()
	}

	for range 100 {
		cur := m.Current()
		_, _ = m.Retire(ctx, cur.TimerRegistry)
		_, _ = m.Retire(ctx, cur.DataRegistry)
	}
	close(stop)
	wg.Wait()

	require.Equal(t, uint64(100), m.Rotations())
}

// TestRetire_Property checks the manager against a model: it rotates exactly
// when both halves of the current generation retired and the store reports
// both keys gone.
func TestRetire_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := &fakeVerifier{}
		m := New(v, sequentialIDs())
		ctx := context.Background()

		var modelTimer, modelData bool
		rotations := uint64(0)

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for range steps {
			cur := m.Current()
			require.False(t, cur.IsZero())
			require.Equal(t, keys.TimerRegistry(cur.ID), cur.TimerRegistry)
			require.Equal(t, keys.DataRegistry(cur.ID), cur.DataRegistry)

			existing := rapid.IntRange(0, 2).Draw(t, "existing")
			v.existing.Store(int64(existing))

			var key string
			switch rapid.IntRange(0, 2).Draw(t, "target") {
			case 0:
				key = cur.TimerRegistry
				modelTimer = true
			case 1:
				key = cur.DataRegistry
				modelData = true
			default:
				key = keys.TimerRegistry("stale")
			}

			rotated, err := m.Retire(ctx, key)
			require.NoError(t, err)

			wantRotate := modelTimer && modelData && existing == 0
			require.Equal(t, wantRotate, rotated)
			if modelTimer && modelData {
				modelTimer, modelData = false, false
			}
			if rotated {
				rotations++
				prev, ok := m.Previous()
				require.True(t, ok)
				require.Equal(t, cur, prev)
				require.NotEqual(t, cur.ID, m.Current().ID)
			}
		}

		require.Equal(t, rotations, m.Rotations())
	})
}

// TestRetire_WithMemoryStore drives the manager from real store notifications.
func TestRetire_WithMemoryStore(t *testing.T) {
	st := store.NewMemory()
	defer st.Close()
	ctx := context.Background()

	m := New(st, sequentialIDs())
	sub, err := st.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	gen := m.Current()
	require.NoError(t, st.Create(ctx, gen.TimerRegistry, "a", gen.DataRegistry, time.Minute, []byte("1")))
	require.NoError(t, st.Create(ctx, gen.TimerRegistry, "b", gen.DataRegistry, time.Minute, []byte("2")))

	_, err = st.Delete(ctx, gen.TimerRegistry, gen.DataRegistry, "a")
	require.NoError(t, err)
	_, err = st.Delete(ctx, gen.TimerRegistry, gen.DataRegistry, "b")
	require.NoError(t, err)

	deadline := time.After(time.Second)
	for m.Rotations() == 0 {
		select {
		case n := <-sub.C():
			if n.Kind == types.NotificationDeleted && keys.IsRegistry(n.Key) {
				_, err := m.Retire(ctx, n.Key)
				require.NoError(t, err)
			}
		case <-deadline:
			t.Fatal("generation did not rotate")
		}
	}

	require.NotEqual(t, gen.ID, m.Current().ID)
}
