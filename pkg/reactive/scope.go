package reactive

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lumen-ui/lumen/pkg/diag"
	ierr "github.com/lumen-ui/lumen/internal/errors"
)

// Scope is a nested lifetime unit. Every mounted subtree owns one:
// subscriptions, spawned tasks, and detach actions register themselves
// as finalizers, and closing the scope releases all of them.
//
// Close order is deterministic: children close first (most recently
// created first), then the scope's own finalizers run in reverse
// registration order, exactly once. A panicking finalizer is reported
// to the diagnostics sink and does not stop the remaining finalizers.
type Scope struct {
	id uint64

	// parent is the parent scope, nil for a root.
	parent *Scope

	// children are nested scopes, in creation order.
	children []*Scope

	// cleanups are finalizers, in registration order.
	cleanups []func()

	// values stores context bindings visible to this scope's subtree.
	// Lookup walks toward the root, so nested Provide boundaries layer
	// over ancestors instead of replacing them.
	values map[any]any

	// slots stores render-phase signal slots for the component instance
	// that owns this scope. See Phase.
	slots []any

	ctx    context.Context
	cancel context.CancelFunc

	disposed atomic.Bool
	mu       sync.Mutex
}

// NewScope creates a scope. A nil parent creates a root scope whose task
// context derives from context.Background().
func NewScope(parent *Scope) *Scope {
	s := &Scope{
		id:     nextID(),
		parent: parent,
	}

	parentCtx := context.Background()
	if parent != nil {
		parentCtx = parent.Context()
		parent.addChild(s)
	}
	s.ctx, s.cancel = context.WithCancel(parentCtx)

	return s
}

// Child creates a nested scope owned by s.
func (s *Scope) Child() *Scope {
	return NewScope(s)
}

// ID returns the unique identifier for this scope.
func (s *Scope) ID() uint64 {
	return s.id
}

// Parent returns the parent scope, or nil for a root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// IsDisposed reports whether Close has run.
func (s *Scope) IsDisposed() bool {
	return s.disposed.Load()
}

// Context returns a context canceled when the scope closes. Tasks
// spawned for this subtree must honor it so cancellation reaches
// in-flight fetches and pending re-renders before nodes detach.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// addChild registers a nested scope.
func (s *Scope) addChild(child *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children = append(s.children, child)
}

// removeChild drops a nested scope after it closed itself.
func (s *Scope) removeChild(child *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// OnCleanup registers a finalizer. Registering on a closed scope runs
// the finalizer immediately, so late registrations cannot leak.
func (s *Scope) OnCleanup(fn func()) {
	if fn == nil {
		return
	}
	if s.disposed.Load() {
		runFinalizer(fn)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanups = append(s.cleanups, fn)
}

// Go runs fn on its own goroutine with the scope's context. When the
// scope closes, the context is canceled; fn must stop mutating anything
// owned by the subtree once that happens.
func (s *Scope) Go(fn func(ctx context.Context)) {
	if s.disposed.Load() {
		return
	}
	go fn(s.ctx)
}

// SetValue binds a context value on this scope's subtree.
func (s *Scope) SetValue(key, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values == nil {
		s.values = make(map[any]any)
	}
	s.values[key] = value
}

// Value resolves a context key against this scope and its ancestors.
// The nearest binding wins; ok is false when no enclosing scope binds
// the key.
func (s *Scope) Value(key any) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mu.Lock()
		v, ok := cur.values[key]
		cur.mu.Unlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// Close disposes the scope: tasks are canceled, children close in
// reverse creation order, then the scope's own finalizers run in
// reverse registration order. Close is idempotent.
func (s *Scope) Close() {
	if s.disposed.Swap(true) {
		return
	}

	// Cancel in-flight tasks before any teardown so a canceled task
	// cannot mutate a node that is about to be removed.
	s.cancel()

	if s.parent != nil {
		s.parent.removeChild(s)
	}

	s.mu.Lock()
	children := make([]*Scope, len(s.children))
	copy(children, s.children)
	s.children = nil
	cleanups := s.cleanups
	s.cleanups = nil
	s.values = nil
	s.slots = nil
	s.mu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Close()
	}

	for i := len(cleanups) - 1; i >= 0; i-- {
		runFinalizer(cleanups[i])
	}
}

// runFinalizer executes one finalizer with panic isolation.
func runFinalizer(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			sink().Emit(diag.Event{
				Kind: diag.KindFinalizerFailure,
				Err:  ierr.Newf("E005", "finalizer panic: %v", r),
			})
		}
	}()
	fn()
}
