package reactive

// Derive creates a signal whose value is fn applied to source, kept
// current by an internal subscription. The subscription is torn down
// when scope closes; after that the derived signal stops updating but
// remains readable.
//
// The derived signal applies its own equality gate, so a source change
// that maps to an equal derived value notifies nobody downstream.
func Derive[S, T any](scope *Scope, source *Signal[S], fn func(S) T) *Signal[T] {
	out := newStandalone(fn(source.Peek()))

	unsub := source.Listen(func() {
		out.Set(fn(source.Peek()))
	})

	if scope != nil {
		scope.OnCleanup(unsub)
	} else {
		// Without a scope the subscription lives as long as the source.
		_ = unsub
	}

	return out
}
