package reactive

import (
	"reflect"
	"sync"

	"github.com/lumen-ui/lumen/pkg/diag"
	ierr "github.com/lumen-ui/lumen/internal/errors"
)

// Source is the type-erased view of a Signal. The renderer works with
// Sources wherever element props or text may carry signals of unknown
// value type.
type Source interface {
	// ID returns the unique identifier of the underlying signal.
	ID() uint64

	// Label returns the debug label, or "" if none was set.
	Label() string

	// Load returns the current value without dependency tracking.
	Load() any

	// Track returns the current value and records it as a dependency of
	// the active render phase, if any.
	Track() any

	// Subscribe registers a listener. Duplicate registrations by ID are
	// ignored.
	Subscribe(l Listener)

	// Unsubscribe removes a listener. Removing mid-notification takes
	// effect on the next cycle, not the one in flight.
	Unsubscribe(l Listener)
}

// signalCore provides type-erased subscriber management.
// It is embedded in Signal[T] to share subscription logic.
type signalCore struct {
	id    uint64
	label string

	// subs are the listeners subscribed to this signal.
	subs []Listener

	// subMu protects the subs slice.
	subMu sync.RWMutex
}

// subscribe adds a listener, deduplicating by listener ID.
func (c *signalCore) subscribe(l Listener) {
	if l == nil {
		return
	}

	c.subMu.Lock()
	defer c.subMu.Unlock()

	lid := l.ID()
	for _, existing := range c.subs {
		if existing.ID() == lid {
			return
		}
	}

	c.subs = append(c.subs, l)
}

// unsubscribe removes a listener by ID.
func (c *signalCore) unsubscribe(l Listener) {
	if l == nil {
		return
	}

	c.subMu.Lock()
	defer c.subMu.Unlock()

	lid := l.ID()
	for i, existing := range c.subs {
		if existing.ID() == lid {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return
		}
	}
}

// subscriberCount returns the current number of subscribers.
func (c *signalCore) subscriberCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subs)
}

// snapshot copies the subscriber slice. Notification iterates the
// copy, so a listener that unsubscribes itself or a sibling mid-cycle
// still sees the cycle through; removals apply from the next cycle on.
func (c *signalCore) snapshot() []Listener {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	subs := make([]Listener, len(c.subs))
	copy(subs, c.subs)
	return subs
}

// notify invokes every current subscriber as an independent unit of
// work. A listener that panics is reported to the diagnostics sink and
// does not prevent the remaining listeners from running.
func (c *signalCore) notify() {
	for _, sub := range c.snapshot() {
		notifyOne(c.label, sub)
	}
}

// notifyOne runs a single listener with panic isolation.
func notifyOne(label string, l Listener) {
	defer func() {
		if r := recover(); r != nil {
			sink().Emit(diag.Event{
				Kind:  diag.KindListenerFailure,
				Label: label,
				Err:   ierr.Newf("E005", "listener panic: %v", r),
			})
		}
	}()
	l.MarkDirty()
}

// Signal is a reactive value cell.
// Reading it during a render phase records it as a dependency of the
// component being rendered; writing it notifies subscribers unless the
// new value is equal to the old one under the equality predicate.
type Signal[T any] struct {
	core signalCore

	// value is the current signal value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal determines whether a write changed the value.
	// nil means defaultEquals.
	equal func(T, T) bool
}

// New creates a signal with the given initial value.
//
// Called during an active render phase, New participates in slot-based
// identity: the Nth New call of a render returns the same signal as the
// Nth call of the previous render, and initial is ignored after the
// first render. Outside a phase it always allocates a standalone cell.
func New[T any](initial T) *Signal[T] {
	if p := CurrentPhase(); p != nil {
		return phaseSlot(p, initial)
	}
	return newStandalone(initial)
}

// NewWithEquals creates a standalone signal with a custom equality
// predicate. It never participates in render-phase slot identity.
func NewWithEquals[T any](initial T, equal func(T, T) bool) *Signal[T] {
	s := newStandalone(initial)
	s.equal = equal
	return s
}

// newStandalone allocates a fresh cell outside any render phase.
func newStandalone[T any](initial T) *Signal[T] {
	return &Signal[T]{
		core:  signalCore{id: nextID()},
		value: initial,
	}
}

// WithEquals configures the signal's equality predicate and returns the
// signal for chaining. Use this for value types where reflect.DeepEqual
// is too expensive or has the wrong semantics.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// WithLabel attaches a debug label used in diagnostics events.
func (s *Signal[T]) WithLabel(label string) *Signal[T] {
	s.core.label = label
	return s
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.core.id
}

// Label returns the debug label, or "".
func (s *Signal[T]) Label() string {
	return s.core.label
}

// Get returns the current value and records a dependency on the active
// render phase, if any.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	value := s.value
	s.mu.RUnlock()

	if p := CurrentPhase(); p != nil {
		p.recordAccess(s)
	}

	return value
}

// Peek returns the current value without dependency tracking.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set writes a new value and notifies subscribers if it differs from
// the current value under the equality predicate.
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	before := s.value
	changed := !s.equals(before, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	if changed {
		s.afterWrite(before)
	}
}

// Update atomically applies fn to the current value.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	oldValue := s.value
	newValue := fn(oldValue)
	changed := !s.equals(oldValue, newValue)
	if changed {
		s.value = newValue
	}
	s.mu.Unlock()

	if changed {
		s.afterWrite(oldValue)
	}
}

// Modify atomically applies fn to the current value and returns the
// auxiliary result produced alongside the new value. Notification
// follows the same equality gate as Set.
func (s *Signal[T]) Modify(fn func(T) (T, any)) any {
	s.mu.Lock()
	oldValue := s.value
	newValue, aux := fn(oldValue)
	changed := !s.equals(oldValue, newValue)
	if changed {
		s.value = newValue
	}
	s.mu.Unlock()

	if changed {
		s.afterWrite(oldValue)
	}
	return aux
}

// afterWrite fires notifications for an effective write. Inside a
// batch the signal is queued instead, carrying the value it held
// before the batch's first effective write; the flush skips signals
// whose final value equals that baseline.
func (s *Signal[T]) afterWrite(before T) {
	ctx := getTrackingContext()
	if ctx.batchDepth == 0 {
		s.core.notify()
		return
	}

	if ctx.pendingSeen == nil {
		ctx.pendingSeen = make(map[uint64]bool)
	}
	if ctx.pendingSeen[s.core.id] {
		return
	}
	ctx.pendingSeen[s.core.id] = true

	baseline := before
	ctx.pending = append(ctx.pending, pendingWrite{
		core:    &s.core,
		changed: func() bool { return !s.equals(baseline, s.Peek()) },
	})
}

// Subscribe registers a listener for change notifications.
func (s *Signal[T]) Subscribe(l Listener) {
	s.core.subscribe(l)
}

// Unsubscribe removes a previously registered listener.
func (s *Signal[T]) Unsubscribe(l Listener) {
	s.core.unsubscribe(l)
}

// Listen registers fn as a raw change callback and returns the
// unsubscribe action. The callback is not tracked by any render phase,
// which makes Listen the right tool for boundary components that must
// observe a signal without re-rendering on it.
func (s *Signal[T]) Listen(fn func()) func() {
	l := NewFuncListener(fn)
	s.core.subscribe(l)
	return func() { s.core.unsubscribe(l) }
}

// SubscriberCount returns the number of registered listeners.
// Intended for tests and leak accounting.
func (s *Signal[T]) SubscriberCount() int {
	return s.core.subscriberCount()
}

// Load implements Source.
func (s *Signal[T]) Load() any {
	return s.Peek()
}

// Track implements Source.
func (s *Signal[T]) Track() any {
	return s.Get()
}

// equals checks two values with the configured predicate.
func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals provides type-appropriate equality checking:
// == for the common comparable kinds, reflect.DeepEqual for the rest.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}
