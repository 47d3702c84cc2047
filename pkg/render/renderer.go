package render

import (
	"sort"

	ierr "github.com/lumen-ui/lumen/internal/errors"
	"github.com/lumen-ui/lumen/pkg/diag"
	"github.com/lumen-ui/lumen/pkg/dom"
	"github.com/lumen-ui/lumen/pkg/element"
	"github.com/lumen-ui/lumen/pkg/reactive"
)

// mountKey binds the mount state into the root scope's context so
// nested machinery (suspense, component re-runs) can reach it.
type mountKeyType struct{}

var mountKey mountKeyType

// mount is the per-Mount renderer state.
type mount struct {
	doc      dom.Document
	sink     diag.Sink
	schedule func(func())
	boundary func(error) *element.Element
}

// Option configures a Mount call.
type Option func(*mount)

// WithSink sets the diagnostics sink for this mount.
func WithSink(s diag.Sink) Option {
	return func(m *mount) {
		if s != nil {
			m.sink = s
		}
	}
}

// WithScheduler routes deferred work (component re-runs, suspense
// swaps) through fn instead of running it inline. A live session passes
// its dispatch queue here so all mutations stay on one goroutine.
func WithScheduler(fn func(func())) Option {
	return func(m *mount) {
		if fn != nil {
			m.schedule = fn
		}
	}
}

// WithErrorBoundary installs a mount-level error boundary. A render
// failure with no closer Boundary swaps in fallback instead of failing
// the whole mount.
func WithErrorBoundary(fallback func(error) *element.Element) Option {
	return func(m *mount) {
		if fallback != nil {
			m.boundary = fallback
		}
	}
}

// Handle is a mounted tree. Dispose closes the root scope, which
// cancels in-flight tasks, releases every subscription, and detaches
// all nodes.
type Handle struct {
	scope *reactive.Scope
}

// Scope returns the mount's root scope.
func (h *Handle) Scope() *reactive.Scope {
	return h.scope
}

// Dispose unmounts the tree. Idempotent.
func (h *Handle) Dispose() {
	h.scope.Close()
}

// Mount lowers root into container and returns the handle. Context
// values may be pre-bound with values (nil is fine); they behave like
// an outermost Provide.
func Mount(doc dom.Document, container dom.Node, root *element.Element, values map[any]any, opts ...Option) (*Handle, error) {
	m := &mount{
		doc:      doc,
		sink:     diag.Nop{},
		schedule: func(fn func()) { fn() },
	}
	for _, opt := range opts {
		opt(m)
	}

	scope := reactive.NewScope(nil)
	scope.SetValue(mountKey, m)
	if m.boundary != nil {
		scope.SetValue(boundaryKey, m.boundary)
	}
	for k, v := range values {
		scope.SetValue(k, v)
	}

	cur := newCursor(container, lastChild(container), nil)
	if err := m.mountElement(root, cur, scope, true); err != nil {
		scope.Close()
		return nil, err
	}

	return &Handle{scope: scope}, nil
}

// mountOf resolves the mount state from any scope in the tree.
func mountOf(scope *reactive.Scope) *mount {
	if scope == nil {
		return nil
	}
	v, ok := scope.Value(mountKey)
	if !ok {
		return nil
	}
	return v.(*mount)
}

// cursor tracks an insertion position: new nodes go immediately after
// prev under parent (or at position zero when prev is nil). Placed
// nodes can be collected so callers learn the region's root nodes.
type cursor struct {
	parent  dom.Node
	prev    dom.Node
	collect *[]dom.Node
}

func newCursor(parent, prev dom.Node, collect *[]dom.Node) *cursor {
	return &cursor{parent: parent, prev: prev, collect: collect}
}

// place inserts n at the cursor and advances past it.
func (c *cursor) place(n dom.Node) {
	idx := 0
	if c.prev != nil {
		idx = c.parent.ChildIndex(c.prev) + 1
	}
	c.parent.InsertChild(n, idx)
	c.prev = n
	if c.collect != nil {
		*c.collect = append(*c.collect, n)
	}
}

func lastChild(n dom.Node) dom.Node {
	children := n.Children()
	if len(children) == 0 {
		return nil
	}
	return children[len(children)-1]
}

// mountElement lowers one element at the cursor. regionRoot marks
// nodes whose detach is owned by scope: closing the scope removes them.
// Children nested inside an intrinsic node are not region roots; they
// leave the document with their parent.
func (m *mount) mountElement(e *element.Element, cur *cursor, scope *reactive.Scope, regionRoot bool) error {
	if e == nil {
		return nil
	}
	if scope.IsDisposed() {
		return ierr.New("E002")
	}

	switch e.Kind {
	case element.KindText:
		m.placeNode(m.doc.CreateText(e.Text), cur, scope, regionRoot)
		return nil

	case element.KindSignalText:
		return m.mountSignalText(e, cur, scope, regionRoot)

	case element.KindIntrinsic:
		return m.mountIntrinsic(e, cur, scope, regionRoot)

	case element.KindComponent:
		return m.mountComponent(e, cur, scope, regionRoot)

	case element.KindSignalElement:
		return m.mountSignalElement(e, cur, scope, regionRoot)

	case element.KindFragment:
		return m.mountFragment(e, cur, scope, regionRoot)

	case element.KindPortal:
		return m.mountPortal(e, cur, scope, regionRoot)

	case element.KindProvide:
		return m.mountProvide(e, cur, scope, regionRoot)

	case element.KindKeyedList:
		return m.mountKeyedList(e, cur, scope, regionRoot)

	default:
		return ierr.Newf("E005", "unknown element kind %d", e.Kind)
	}
}

// placeNode inserts a node and, for region roots, registers its detach
// on the owning scope.
func (m *mount) placeNode(n dom.Node, cur *cursor, scope *reactive.Scope, regionRoot bool) {
	cur.place(n)
	if regionRoot {
		parent := cur.parent
		scope.OnCleanup(func() {
			parent.RemoveChild(n)
		})
	}
}

// mountSignalText creates a text node bound to a signal. Updates go
// straight to the node; no component re-runs.
func (m *mount) mountSignalText(e *element.Element, cur *cursor, scope *reactive.Scope, regionRoot bool) error {
	src := e.TextSource
	node := m.doc.CreateText(element.FormatText(src.Load()))
	m.placeNode(node, cur, scope, regionRoot)

	unsub := subscribeSource(src, func() {
		if scope.IsDisposed() {
			return
		}
		node.SetText(element.FormatText(src.Load()))
	})
	scope.OnCleanup(unsub)
	return nil
}

// mountIntrinsic creates an element node, applies props, and mounts
// children inside a child scope.
func (m *mount) mountIntrinsic(e *element.Element, cur *cursor, scope *reactive.Scope, regionRoot bool) error {
	node := m.doc.CreateElement(e.Tag)

	// Deterministic prop application order keeps recorded op streams
	// stable across runs.
	names := make([]string, 0, len(e.Props))
	for name := range e.Props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := m.applyProp(node, name, e.Props[name], scope); err != nil {
			return err
		}
	}

	m.placeNode(node, cur, scope, regionRoot)

	childScope := scope.Child()
	childCur := newCursor(node, nil, nil)
	for _, child := range e.Children {
		if err := m.mountElement(child, childCur, childScope, false); err != nil {
			return err
		}
	}
	return nil
}

// applyProp applies one prop: event handlers attach listeners, signal
// values subscribe for fine-grained attribute updates, and everything
// else is set once as a static attribute.
func (m *mount) applyProp(node dom.Node, name string, value any, scope *reactive.Scope) error {
	if isEventProp(name) {
		return m.attachHandler(node, eventName(name), value, scope)
	}

	if src, ok := value.(reactive.Source); ok {
		node.SetAttr(name, element.FormatText(src.Load()))
		unsub := subscribeSource(src, func() {
			if scope.IsDisposed() {
				return
			}
			node.SetAttr(name, element.FormatText(src.Load()))
		})
		scope.OnCleanup(unsub)
		return nil
	}

	node.SetAttr(name, element.FormatText(value))
	return nil
}

// attachHandler wires an event handler. The handler runs with the
// mounting scope ambient, so context reads inside it resolve against
// the Provide boundaries enclosing this node.
func (m *mount) attachHandler(node dom.Node, event string, value any, scope *reactive.Scope) error {
	var handler dom.EventHandler
	switch fn := value.(type) {
	case func(dom.Event):
		handler = fn
	case func():
		handler = func(dom.Event) { fn() }
	case dom.EventHandler:
		handler = fn
	default:
		return ierr.Newf("E005", "prop on%s has unsupported handler type %T", event, value)
	}

	detach := node.AddEventListener(event, func(ev dom.Event) {
		if scope.IsDisposed() {
			return
		}
		reactive.WithScope(scope, func() {
			handler(ev)
		})
	})
	scope.OnCleanup(detach)
	return nil
}

// mountFragment mounts children in order; an empty fragment keeps an
// anchor so adjacent siblings retain a stable insertion point.
func (m *mount) mountFragment(e *element.Element, cur *cursor, scope *reactive.Scope, regionRoot bool) error {
	if len(e.Children) == 0 {
		m.placeNode(m.doc.CreateAnchor("fragment"), cur, scope, regionRoot)
		return nil
	}
	for _, child := range e.Children {
		if err := m.mountElement(child, cur, scope, regionRoot); err != nil {
			return err
		}
	}
	return nil
}

// mountProvide layers the boundary's bindings over the ambient context
// in a child scope and mounts the subtree there. Lookup walks toward
// the root, so keys this Provide does not bind stay resolvable from
// ancestors. Merge, never replace.
func (m *mount) mountProvide(e *element.Element, cur *cursor, scope *reactive.Scope, regionRoot bool) error {
	childScope := scope.Child()
	for k, v := range e.Values {
		childScope.SetValue(k, v)
	}
	return m.mountElement(e.Child, cur, childScope, regionRoot)
}

// mountPortal resolves the target and mounts children there; an anchor
// stays at the home position so the portal's tree position is stable.
func (m *mount) mountPortal(e *element.Element, cur *cursor, scope *reactive.Scope, regionRoot bool) error {
	m.placeNode(m.doc.CreateAnchor("portal"), cur, scope, regionRoot)

	target, err := m.resolvePortalTarget(e.Target)
	if err != nil {
		m.sink.Emit(diag.Event{Kind: diag.KindPortalMiss, Label: portalLabel(e.Target), Err: err})
		return err
	}

	childScope := scope.Child()
	childCur := newCursor(target, lastChild(target), nil)
	for _, child := range e.Children {
		// Portal children are region roots under the portal scope: they
		// live in a foreign parent and must detach on unmount.
		if err := m.mountElement(child, childCur, childScope, true); err != nil {
			return err
		}
	}
	return nil
}

func (m *mount) resolvePortalTarget(target any) (dom.Node, error) {
	switch t := target.(type) {
	case dom.Node:
		if t == nil {
			return nil, ierr.Newf("E003", "nil target node")
		}
		return t, nil
	case string:
		node, ok := m.doc.Lookup(t)
		if !ok {
			return nil, ierr.Newf("E003", "selector %q", t)
		}
		return node, nil
	default:
		return nil, ierr.Newf("E003", "unsupported target %T", target)
	}
}

func portalLabel(target any) string {
	if s, ok := target.(string); ok {
		return s
	}
	return ""
}

// mountSignalElement mounts a reactive subtree behind an anchor. On
// signal change the new content mounts first, immediately after the
// anchor, and the old content's scope closes within the same
// synchronous step, so there is no gap and no lingering duplicate.
func (m *mount) mountSignalElement(e *element.Element, cur *cursor, scope *reactive.Scope, regionRoot bool) error {
	src := e.ElemSource
	anchor := m.doc.CreateAnchor("dyn")
	m.placeNode(anchor, cur, scope, regionRoot)

	region := &dynamicRegion{m: m, anchor: anchor, parent: cur.parent, scope: scope, keyed: true}
	if err := region.swap(currentElement(src)); err != nil {
		return err
	}

	unsub := subscribeSource(src, func() {
		if scope.IsDisposed() {
			return
		}
		if err := region.swap(currentElement(src)); err != nil {
			m.sink.Emit(diag.Event{Kind: diag.KindRenderFailure, Err: err})
		}
	})
	scope.OnCleanup(unsub)
	scope.OnCleanup(func() {
		region.close()
	})
	return nil
}

func currentElement(src reactive.Source) *element.Element {
	v := src.Load()
	if v == nil {
		return nil
	}
	if el, ok := v.(*element.Element); ok {
		return el
	}
	return element.Text(element.FormatText(v))
}

// dynamicRegion is the mutable content slot behind an anchor, shared by
// signal-element regions and component output.
type dynamicRegion struct {
	m       *mount
	anchor  dom.Node
	parent  dom.Node
	scope   *reactive.Scope
	current *reactive.Scope

	// keyed enables identity matching by Element.Key. Set for
	// signal-element regions; component output regions always replace,
	// since a re-render reuses the element's key but not its content.
	keyed bool

	// currentKey is the Key of the mounted content, "" when unkeyed.
	currentKey string
}

// swap mounts next into a fresh child scope right after the anchor,
// then closes the previous content scope. New-before-old within one
// synchronous step.
//
// A non-empty Key gives the content a logical identity: when next
// carries the same key as the mounted content, the subtree is kept
// as is, preserving its scope and any item-local signal state.
func (r *dynamicRegion) swap(next *element.Element) error {
	if r.keyed && next != nil && next.Key != "" && r.current != nil && next.Key == r.currentKey {
		return nil
	}

	fresh := r.scope.Child()

	cur := newCursor(r.parent, r.anchor, nil)
	if next != nil {
		if err := r.m.mountElement(next, cur, fresh, true); err != nil {
			fresh.Close()
			return err
		}
	}

	old := r.current
	r.current = fresh
	r.currentKey = ""
	if next != nil {
		r.currentKey = next.Key
	}
	if old != nil {
		old.Close()
	}
	return nil
}

// close releases the current content.
func (r *dynamicRegion) close() {
	if r.current != nil {
		r.current.Close()
		r.current = nil
		r.currentKey = ""
	}
}

// subscribeSource registers a raw callback on a type-erased source and
// returns the unsubscribe action.
func subscribeSource(src reactive.Source, fn func()) func() {
	l := reactive.NewFuncListener(fn)
	src.Subscribe(l)
	return func() { src.Unsubscribe(l) }
}

func isEventProp(name string) bool {
	return len(name) > 2 && (name[0] == 'o' || name[0] == 'O') && (name[1] == 'n' || name[1] == 'N')
}

func eventName(prop string) string {
	name := prop[2:]
	if name == "" {
		return name
	}
	// "onClick" and "onclick" both map to "click".
	b := []byte(name)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
