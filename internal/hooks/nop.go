// Package hooks provides default types.Hooks implementations.
package hooks

import (
	"context"

	"github.com/tibrahul/Radicchio/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, error) error                              = (*NopHooks)(nil).OnError
	_ func(context.Context, types.Generation, types.Generation) error = (*NopHooks)(nil).OnGenerationRotated
)

// NewNop creates a new no-op hooks implementation.
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnError:             h.OnError,
		OnGenerationRotated: h.OnGenerationRotated,
	}
}

// Fill returns a copy of h where every nil callback is replaced by its no-op
// counterpart. A nil h yields NewNop().
func Fill(h *types.Hooks) types.Hooks {
	out := NewNop()
	if h == nil {
		return out
	}
	if h.OnError != nil {
		out.OnError = h.OnError
	}
	if h.OnGenerationRotated != nil {
		out.OnGenerationRotated = h.OnGenerationRotated
	}

	return out
}

// OnError is a no-op implementation.
func (h *NopHooks) OnError(_ context.Context, _ error) error {
	return nil
}

// OnGenerationRotated is a no-op implementation.
func (h *NopHooks) OnGenerationRotated(_ context.Context, _, _ types.Generation) error {
	return nil
}
