package reactive

import (
	mapset "github.com/deckarep/golang-set/v2"

	ierr "github.com/lumen-ui/lumen/internal/errors"
)

// Phase is the bookkeeping context active while a component's render
// body executes. It gives slot-based identity to signals created inside
// the body (the Nth New call returns the Nth slot on every render) and
// records which signals the body read, so the renderer can subscribe
// the component to exactly its dependencies.
type Phase struct {
	// scope is the component instance scope; slot storage lives there so
	// it survives across render phases.
	scope *Scope

	// cursor is the next slot index to hand out.
	cursor int

	// accessed deduplicates dependency recording by signal ID.
	// A phase runs on one goroutine, so the set can be lock-free.
	accessed mapset.Set[uint64]

	// sources are the accessed signals, in first-read order.
	sources []Source

	// prev is the phase to restore at End; prevScope likewise.
	prev      *Phase
	prevScope *Scope
}

// BeginPhase opens a render phase for the component instance owning
// scope and installs it as this goroutine's active phase. Callers must
// pair it with End.
func BeginPhase(scope *Scope) *Phase {
	p := &Phase{
		scope:    scope,
		accessed: mapset.NewThreadUnsafeSet[uint64](),
	}
	p.prev = setCurrentPhase(p)
	p.prevScope = setCurrentScope(scope)
	return p
}

// End closes the phase and restores the previously active one.
func (p *Phase) End() {
	setCurrentPhase(p.prev)
	setCurrentScope(p.prevScope)
}

// Sources returns the signals read during the phase, in first-read
// order. Valid after End.
func (p *Phase) Sources() []Source {
	return p.sources
}

// Accessed reports whether the signal with the given ID was read.
func (p *Phase) Accessed(id uint64) bool {
	return p.accessed.Contains(id)
}

// recordAccess adds a signal to the phase's dependency set.
func (p *Phase) recordAccess(src Source) {
	if p.accessed.Add(src.ID()) {
		p.sources = append(p.sources, src)
	}
}

// phaseSlot returns the signal stored in the phase's next slot,
// allocating it on the first render. A type mismatch means the
// component body created its signals in a different order than the
// previous render, which breaks slot identity.
func phaseSlot[T any](p *Phase, initial T) *Signal[T] {
	idx := p.cursor
	p.cursor++

	p.scope.mu.Lock()
	defer p.scope.mu.Unlock()

	if idx < len(p.scope.slots) {
		s, ok := p.scope.slots[idx].(*Signal[T])
		if !ok {
			panic(ierr.Newf("E001", "slot %d holds %T", idx, p.scope.slots[idx]))
		}
		return s
	}

	s := newStandalone(initial)
	p.scope.slots = append(p.scope.slots, s)
	return s
}
