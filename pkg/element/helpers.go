package element

import (
	"fmt"

	"github.com/lumen-ui/lumen/pkg/reactive"
)

// Text creates a static text leaf.
func Text(content string) *Element {
	return &Element{Kind: KindText, Text: content}
}

// Textf creates a formatted static text leaf.
func Textf(format string, args ...any) *Element {
	return Text(fmt.Sprintf(format, args...))
}

// SignalText creates a text leaf bound to a string signal. The
// renderer subscribes directly and mutates the text node in place;
// no component re-runs on change.
func SignalText(source *reactive.Signal[string]) *Element {
	return &Element{Kind: KindSignalText, TextSource: source}
}

// SignalTextOf creates a text leaf bound to any signal, formatting its
// value with fmt. Prefer SignalText for string signals.
func SignalTextOf(source reactive.Source) *Element {
	return &Element{Kind: KindSignalText, TextSource: source}
}

// El creates an intrinsic node. Args may be Props maps (merged in
// order, later keys win); everything else becomes children via
// Normalize.
func El(tag string, args ...any) *Element {
	e := &Element{Kind: KindIntrinsic, Tag: tag}

	var childArgs []any
	for _, arg := range args {
		if p, ok := arg.(Props); ok {
			if e.Props == nil {
				e.Props = make(Props, len(p))
			}
			for k, v := range p {
				e.Props[k] = v
			}
			continue
		}
		childArgs = append(childArgs, arg)
	}

	e.Children = Normalize(childArgs...)
	if key, ok := e.Props["key"].(string); ok {
		e.Key = key
		delete(e.Props, "key")
	}
	return e
}

// Func creates a component element from a render function. The body is
// deferred: the renderer invokes it inside a fresh render phase, so
// signals created in it get slot-based identity.
func Func(name string, run func() (*Element, error)) *Element {
	return &Element{Kind: KindComponent, Name: name, Run: run}
}

// FuncOf wraps an error-free render function as a component.
func FuncOf(name string, run func() *Element) *Element {
	return Func(name, func() (*Element, error) {
		return run(), nil
	})
}

// Dynamic creates a reactive subtree: when the signal's element value
// changes, the mounted region swaps wholesale without re-running any
// enclosing component.
func Dynamic(source *reactive.Signal[*Element]) *Element {
	return &Element{Kind: KindSignalElement, ElemSource: source}
}

// Fragment groups children without a wrapper node.
func Fragment(children ...any) *Element {
	return &Element{Kind: KindFragment, Children: Normalize(children...)}
}

// Portal mounts children into a different target: a document node or a
// lookup selector string. An anchor stays at the home position so the
// portal's tree position remains stable.
func Portal(target any, children ...any) *Element {
	return &Element{Kind: KindPortal, Target: target, Children: Normalize(children...)}
}

// Provide creates a context boundary. The bindings layer over the
// ambient context for the entire child subtree: on key collision the
// nearest enclosing Provide wins, and keys it does not bind stay
// resolvable from ancestors.
func Provide(values map[any]any, child *Element) *Element {
	return &Element{Kind: KindProvide, Values: values, Child: child}
}

// ProvideValue is Provide for a single binding.
func ProvideValue(key, value any, child *Element) *Element {
	return Provide(map[any]any{key: value}, child)
}

// If returns the element if condition is true, nil otherwise.
// Normalize drops the nil.
func If(condition bool, e *Element) *Element {
	if condition {
		return e
	}
	return nil
}

// IfElse returns the first element if condition is true, the second
// otherwise.
func IfElse(condition bool, ifTrue, ifFalse *Element) *Element {
	if condition {
		return ifTrue
	}
	return ifFalse
}
