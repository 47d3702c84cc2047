package reactive

// Listener is anything that can be notified when a signal changes.
// The renderer implements it for component instances; raw callbacks can
// be wrapped with FuncListener.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies has
	// changed. It runs synchronously on the writing goroutine; long work
	// belongs on the session's dispatch queue, not here.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for snapshot bookkeeping and batch deduplication.
	ID() uint64
}

// FuncListener wraps a plain callback as a Listener.
type FuncListener struct {
	id uint64
	fn func()
}

// NewFuncListener creates a listener that invokes fn on every change.
func NewFuncListener(fn func()) *FuncListener {
	return &FuncListener{id: nextID(), fn: fn}
}

// MarkDirty implements Listener.
func (l *FuncListener) MarkDirty() {
	l.fn()
}

// ID implements Listener.
func (l *FuncListener) ID() uint64 {
	return l.id
}
