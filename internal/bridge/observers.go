package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/tibrahul/Radicchio/types"
)

// Observers is a per-event registry of handlers.
//
// Registration is safe from any goroutine. Handlers of one event run in
// registration order, each isolated from the others: an error or a panic is
// collected and the next handler still runs.
type Observers struct {
	lists *xsync.Map[types.EventName, *handlerList]
}

type handlerList struct {
	mu       sync.RWMutex
	handlers []types.Handler
}

// NewObservers creates an empty registry.
func NewObservers() *Observers {
	return &Observers{lists: xsync.NewMap[types.EventName, *handlerList]()}
}

// Add registers h for name.
//
// Returns:
//   - error: types.ErrUnknownEvent for unsupported names, or an error for a nil handler
func (o *Observers) Add(name types.EventName, h types.Handler) error {
	if !name.Valid() {
		return fmt.Errorf("%w: %q", types.ErrUnknownEvent, name)
	}
	if h == nil {
		return errors.New("bridge: nil handler")
	}

	list, _ := o.lists.LoadOrStore(name, &handlerList{})
	list.mu.Lock()
	list.handlers = append(list.handlers, h)
	list.mu.Unlock()

	return nil
}

// Count returns how many handlers are registered for name.
func (o *Observers) Count(name types.EventName) int {
	list, ok := o.lists.Load(name)
	if !ok {
		return 0
	}
	list.mu.RLock()
	defer list.mu.RUnlock()

	return len(list.handlers)
}

// Emit invokes every handler registered for ev.Name and returns their failures.
func (o *Observers) Emit(ctx context.Context, ev types.Event) []error {
	list, ok := o.lists.Load(ev.Name)
	if !ok {
		return nil
	}

	list.mu.RLock()
	handlers := make([]types.Handler, len(list.handlers))
	copy(handlers, list.handlers)
	list.mu.RUnlock()

	var errs []error
	for i, h := range handlers {
		if err := invoke(ctx, h, ev); err != nil {
			errs = append(errs, fmt.Errorf("observer %d for %q: %w", i, ev.Name, err))
		}
	}

	return errs
}

// invoke runs h and converts a panic into an error.
func invoke(ctx context.Context, h types.Handler, ev types.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return h(ctx, ev)
}
