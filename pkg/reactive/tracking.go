package reactive

import (
	"runtime"
	"sync"
)

// trackingContext holds the reactive state for a goroutine: the active
// render phase and the batch bookkeeping. Each goroutine has its own
// context so sessions can render concurrently without sharing state.
type trackingContext struct {
	// phase is the active render phase, or nil when no component body
	// is executing on this goroutine.
	phase *Phase

	// scope is the ambient scope: the subtree scope whose context
	// bindings are visible to the code currently executing. Set during
	// render and around event handler invocations.
	scope *Scope

	// batchDepth tracks nested Batch() calls. When > 0, signal writes
	// queue notifications instead of firing immediately.
	batchDepth int

	// pending holds, in first-write order, the signals effectively
	// written inside the current batch. pendingSeen dedupes by signal
	// ID so the baseline captured at the first effective write is the
	// pre-batch value.
	pending     []pendingWrite
	pendingSeen map[uint64]bool
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// goroutineID returns a unique identifier for the current goroutine,
// parsed from the runtime stack header. Implementation detail; never
// exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> ".
	var id uint64
	for i := 10; i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current
// goroutine, creating it on first use.
func getTrackingContext() *trackingContext {
	gid := goroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}

	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// CurrentPhase returns the render phase active on this goroutine, or nil.
func CurrentPhase() *Phase {
	return getTrackingContext().phase
}

// setCurrentPhase installs a render phase and returns the previous one.
func setCurrentPhase(p *Phase) *Phase {
	ctx := getTrackingContext()
	old := ctx.phase
	ctx.phase = p
	return old
}

// CurrentScope returns the ambient scope on this goroutine, or nil.
// During a render it is the component instance scope; inside an event
// handler it is the scope the handler's subtree mounted under, which is
// what makes Provide bindings reachable from handlers invoked later.
func CurrentScope() *Scope {
	return getTrackingContext().scope
}

// setCurrentScope installs an ambient scope and returns the previous one.
func setCurrentScope(s *Scope) *Scope {
	ctx := getTrackingContext()
	old := ctx.scope
	ctx.scope = s
	return old
}

// WithScope runs fn with s as the ambient scope.
func WithScope(s *Scope, fn func()) {
	old := setCurrentScope(s)
	defer setCurrentScope(old)
	fn()
}

// Untracked runs fn without an active render phase, so signal reads
// inside it do not become dependencies of the enclosing component.
// For a single read, Signal.Peek is clearer.
func Untracked(fn func()) {
	old := setCurrentPhase(nil)
	defer setCurrentPhase(old)
	fn()
}
