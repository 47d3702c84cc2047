package render

import (
	ierr "github.com/lumen-ui/lumen/internal/errors"
	"github.com/lumen-ui/lumen/pkg/element"
	"github.com/lumen-ui/lumen/pkg/reactive"
)

// boundaryKey binds an error-boundary fallback into scope context.
type boundaryKeyType struct{}

var boundaryKey boundaryKeyType

// Boundary wraps child with an error boundary. A render failure
// anywhere in the subtree replaces the failing component's region with
// fallback(err) instead of propagating further up.
func Boundary(fallback func(error) *element.Element, child *element.Element) *element.Element {
	return element.Provide(map[any]any{boundaryKey: fallback}, child)
}

// nearestBoundary resolves the closest enclosing error boundary.
func nearestBoundary(scope *reactive.Scope) (func(error) *element.Element, bool) {
	v, ok := scope.Value(boundaryKey)
	if !ok {
		return nil, false
	}
	fn, ok := v.(func(error) *element.Element)
	return fn, ok
}

// UseContext resolves a context key against the ambient scope: the
// union of all enclosing Provide bindings with nearest-enclosing
// precedence. Valid during a component render and inside event handlers
// attached by the renderer. A missing key is a render failure: it
// indicates a wiring defect, not a transient condition.
func UseContext[T any](key any) (T, error) {
	var zero T

	scope := reactive.CurrentScope()
	if scope == nil {
		return zero, ierr.Newf("E004", "no ambient scope; UseContext is only valid during render or event handling")
	}

	v, ok := scope.Value(key)
	if !ok {
		return zero, ierr.Newf("E004", "key %v", key)
	}

	t, ok := v.(T)
	if !ok {
		return zero, ierr.Newf("E004", "key %v holds %T", key, v)
	}
	return t, nil
}

// slotKey is the private identifier a layout boundary uses to hand its
// rendered child content to a nested insertion point. Content travels
// through the merged context like any other dependency. There is no
// shared mutable handoff variable, so nothing goes stale across renders
// and re-entrant mounts cannot observe each other's content.
type slotKey struct{ name string }

// ProvideSlot makes content available to the subtree under child as the
// named slot.
func ProvideSlot(name string, content *element.Element, child *element.Element) *element.Element {
	return element.Provide(map[any]any{slotKey{name: name}: content}, child)
}

// UseSlot resolves the named slot's content from the ambient context.
func UseSlot(name string) (*element.Element, error) {
	return UseContext[*element.Element](slotKey{name: name})
}
