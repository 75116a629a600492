// Package registry implements the Registry & Generation Manager.
//
// The manager owns the current generation: one id and the timer and data
// registry keys derived from it. Registries clean themselves up: the store
// deletes a container key when its last member leaves and reports the
// deletion. The manager treats that report as the retirement of one half of
// the generation and mints a fresh generation once both halves retired.
//
// Readers never observe empty registry ids. Retirement only sets a flag; the
// ids stay valid until rotation swaps in the next generation atomically.
package registry
