package render

import (
	"sync/atomic"

	ierr "github.com/lumen-ui/lumen/internal/errors"
	"github.com/lumen-ui/lumen/pkg/diag"
	"github.com/lumen-ui/lumen/pkg/element"
	"github.com/lumen-ui/lumen/pkg/reactive"
)

// componentInstance is a mounted component: the instance scope that
// carries its signal slots across re-renders, the anchored region its
// output occupies, and the dependency subscriptions from its latest
// render phase.
type componentInstance struct {
	m      *mount
	name   string
	run    func() (*element.Element, error)
	scope  *reactive.Scope
	region *dynamicRegion

	// sources are the signals subscribed from the latest completed
	// render phase.
	sources []reactive.Source

	// dirty coalesces re-run requests: between MarkDirty and the
	// scheduled re-run, further notifications fold into the same run.
	dirty atomic.Bool

	// generation discards stale render results when a newer render
	// started while one was in flight.
	generation atomic.Uint64
}

var _ reactive.Listener = (*componentInstance)(nil)

// mountComponent invokes the component body inside a fresh render
// phase, mounts its output behind an anchor, and subscribes the
// instance to every signal the body read.
func (m *mount) mountComponent(e *element.Element, cur *cursor, scope *reactive.Scope, regionRoot bool) error {
	anchor := m.doc.CreateAnchor("component:" + e.Name)
	m.placeNode(anchor, cur, scope, regionRoot)

	instScope := scope.Child()
	c := &componentInstance{
		m:     m,
		name:  e.Name,
		run:   e.Run,
		scope: instScope,
		region: &dynamicRegion{
			m:      m,
			anchor: anchor,
			parent: cur.parent,
			scope:  instScope,
		},
	}
	instScope.OnCleanup(c.unsubscribeAll)

	return c.renderOnce()
}

// ID implements reactive.Listener. Scope IDs come from the same
// counter as every other reactive primitive, so snapshot bookkeeping
// never collides.
func (c *componentInstance) ID() uint64 {
	return c.scope.ID()
}

// MarkDirty implements reactive.Listener: schedule exactly one re-run
// no matter how many dependencies fire before it executes.
func (c *componentInstance) MarkDirty() {
	if c.scope.IsDisposed() {
		return
	}
	if c.dirty.CompareAndSwap(false, true) {
		c.m.schedule(func() {
			if c.scope.IsDisposed() {
				return
			}
			if c.dirty.Swap(false) {
				if err := c.renderOnce(); err != nil {
					c.m.sink.Emit(diag.Event{Kind: diag.KindRenderFailure, Label: c.name, Err: err})
				}
			}
		})
	}
}

// renderOnce runs the component body in a render phase, resubscribes
// its dependencies, and swaps the output region. A failure is routed to
// the nearest error boundary; with no boundary the error returns to the
// caller (fatal for the initial mount, logged for re-runs) while
// sibling subtrees stay mounted.
func (c *componentInstance) renderOnce() error {
	gen := c.generation.Add(1)
	c.m.sink.Emit(diag.Event{Kind: diag.KindRenderStart, Label: c.name})

	out, err := c.invoke()

	// A newer render superseded this one while the body was running;
	// its result wins and this one is dropped.
	if c.generation.Load() != gen {
		return nil
	}
	if c.scope.IsDisposed() {
		return nil
	}

	if err == nil {
		err = c.region.swap(out)
	}
	if err != nil {
		return c.contain(err)
	}

	c.m.sink.Emit(diag.Event{Kind: diag.KindRenderDone, Label: c.name})
	return nil
}

// invoke runs the body inside a fresh phase on the instance scope and
// refreshes the dependency subscriptions from what it read.
func (c *componentInstance) invoke() (out *element.Element, err error) {
	phase := reactive.BeginPhase(c.scope)
	func() {
		defer phase.End()
		defer func() {
			if r := recover(); r != nil {
				err = ierr.Newf("E005", "%s: panic: %v", c.name, r)
			}
		}()
		out, err = c.run()
	}()

	c.unsubscribeAll()
	c.sources = phase.Sources()
	for _, src := range c.sources {
		src.Subscribe(c)
	}
	return out, err
}

// contain routes a render failure to the nearest enclosing error
// boundary. The boundary's fallback replaces this component's region;
// everything outside the failing scope stays mounted and interactive.
func (c *componentInstance) contain(cause error) error {
	c.m.sink.Emit(diag.Event{Kind: diag.KindRenderFailure, Label: c.name, Err: cause})

	fallback, ok := nearestBoundary(c.scope)
	if !ok {
		return ierr.Newf("E005", "component %s", c.name).Wrap(cause)
	}

	if err := c.region.swap(fallback(cause)); err != nil {
		// The fallback itself failed; nothing left to show here.
		c.region.swap(nil)
		return ierr.Newf("E005", "error boundary fallback for %s", c.name).Wrap(err)
	}
	return nil
}

// unsubscribeAll drops the subscriptions from the previous phase.
func (c *componentInstance) unsubscribeAll() {
	for _, src := range c.sources {
		src.Unsubscribe(c)
	}
	c.sources = nil
}
