package reactive

// Batch groups multiple signal writes into a single notification pass.
// Writes inside fn queue their signal; at the end of the outermost
// batch each queued signal compares its final value against the value
// it held before the batch, under its own equality predicate, and only
// the changed ones notify. Listeners shared across signals are
// deduplicated by ID and notified once. Batches nest.
//
// The equality gate applies to the net effect, so a burst of writes
// that ends back at the starting value produces no notifications at
// all.
func Batch(fn func()) {
	ctx := getTrackingContext()
	ctx.batchDepth++

	defer func() {
		ctx.batchDepth--
		if ctx.batchDepth == 0 {
			flushPending(ctx)
		}
	}()

	fn()
}

// pendingWrite is a signal effectively written inside the current
// batch. changed compares the value at flush time against the value
// the signal held before the batch's first effective write.
type pendingWrite struct {
	core    *signalCore
	changed func() bool
}

// flushPending notifies the listeners of every queued signal whose net
// value changed across the batch, deduplicating listeners by ID.
func flushPending(ctx *trackingContext) {
	pending := ctx.pending
	ctx.pending = nil
	ctx.pendingSeen = nil
	if len(pending) == 0 {
		return
	}

	seen := make(map[uint64]bool, len(pending))
	for _, w := range pending {
		if !w.changed() {
			continue
		}
		for _, l := range w.core.snapshot() {
			id := l.ID()
			if seen[id] {
				continue
			}
			seen[id] = true
			notifyOne(w.core.label, l)
		}
	}
}
