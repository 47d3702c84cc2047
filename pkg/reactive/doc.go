// Package reactive implements the reactive primitives of the rendering
// core: signals (change-notifying value cells), render phases (the
// bookkeeping that gives signals created inside a component body a
// stable identity across re-renders), and scopes (nested lifetime units
// whose close runs registered finalizers deterministically).
//
// Reads and writes are safe from any goroutine, but the intended model
// is cooperative: a session's event loop performs writes, and listeners
// run synchronously on the writing goroutine. Use Batch to coalesce a
// burst of writes into a single notification pass.
package reactive
