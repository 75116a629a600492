package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tibrahul/Radicchio/types"
)

func TestObservers_UnknownEvent(t *testing.T) {
	o := NewObservers()

	err := o.Add("fired", func(context.Context, types.Event) error { return nil })
	require.ErrorIs(t, err, types.ErrUnknownEvent)

	require.Error(t, o.Add(types.EventExpired, nil))
}

func TestObservers_OrderAndIsolation(t *testing.T) {
	o := NewObservers()
	var calls []string

	require.NoError(t, o.Add(types.EventExpired, func(context.Context, types.Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	}))
	require.NoError(t, o.Add(types.EventExpired, func(context.Context, types.Event) error {
		calls = append(calls, "second")
		panic("kaboom")
	}))
	require.NoError(t, o.Add(types.EventExpired, func(_ context.Context, ev types.Event) error {
		calls = append(calls, "third:"+ev.TimerID)
		return nil
	}))
	require.NoError(t, o.Add(types.EventDeleted, func(context.Context, types.Event) error {
		calls = append(calls, "other")
		return nil
	}))

	errs := o.Emit(context.Background(), types.Event{Name: types.EventExpired, TimerID: "t1"})

	require.Equal(t, []string{"first", "second", "third:t1"}, calls)
	require.Len(t, errs, 2)
	require.ErrorContains(t, errs[0], "boom")
	require.ErrorContains(t, errs[1], "panic: kaboom")
	require.Equal(t, 3, o.Count(types.EventExpired))
	require.Equal(t, 0, o.Count(types.EventResumed))
}

func TestObservers_EmitWithoutHandlers(t *testing.T) {
	o := NewObservers()
	require.Empty(t, o.Emit(context.Background(), types.Event{Name: types.EventResumed}))
}

func TestObservers_ConcurrentRegistration(t *testing.T) {
	o := NewObservers()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, name := range types.EventNames() {
				_ = o.Add(name, func(context.Context, types.Event) error { return nil })
			}
		}()
	}
	wg.Wait()

	for _, name := range types.EventNames() {
		require.Equal(t, 16, o.Count(name))
	}
}
