package diag

// Kind identifies the type of diagnostic event.
type Kind uint8

const (
	KindListenerFailure  Kind = iota + 1 // A signal listener panicked during notification
	KindFinalizerFailure                 // A scope finalizer panicked during close
	KindListReorder                      // A keyed list applied a structural update
	KindRenderStart                      // A component render phase opened
	KindRenderDone                       // A component render phase completed
	KindRenderFailure                    // A component render returned an error
	KindPortalMiss                       // A portal target could not be resolved
	KindKeyCollision                     // A keyed list update contained duplicate keys
	KindSuspenseResolved                 // A suspended subtree swapped in its content
)

// String returns a human-readable name for the event kind.
func (k Kind) String() string {
	switch k {
	case KindListenerFailure:
		return "ListenerFailure"
	case KindFinalizerFailure:
		return "FinalizerFailure"
	case KindListReorder:
		return "ListReorder"
	case KindRenderStart:
		return "RenderStart"
	case KindRenderDone:
		return "RenderDone"
	case KindRenderFailure:
		return "RenderFailure"
	case KindPortalMiss:
		return "PortalMiss"
	case KindKeyCollision:
		return "KeyCollision"
	case KindSuspenseResolved:
		return "SuspenseResolved"
	default:
		return "Unknown"
	}
}

// Event is a single structured diagnostic record.
// Only the fields relevant to the Kind are populated.
type Event struct {
	Kind  Kind
	Label string // Signal label, component name, list key, or portal selector
	Err   error  // For failure kinds

	// Keyed-list reorder statistics.
	Moves    int // Nodes physically moved
	Stable   int // Retained nodes left in place (LIS members)
	Inserted int // Freshly mounted items
	Removed  int // Disposed items
}

// Sink receives diagnostic events from the rendering core.
// Implementations must be safe for concurrent use and must not panic;
// a panicking sink would defeat the isolation the core relies on it for.
type Sink interface {
	Emit(Event)
}

// Nop is a Sink that discards every event.
type Nop struct{}

// Emit implements Sink.
func (Nop) Emit(Event) {}
