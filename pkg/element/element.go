// Package element defines the immutable markup-tree data model the
// renderer lowers into live document nodes. Elements are pure data:
// construction helpers and child normalization, no behavior.
package element

import (
	"github.com/lumen-ui/lumen/pkg/reactive"
)

// Kind is the element type discriminator.
type Kind uint8

const (
	KindText          Kind = iota // Static text leaf
	KindSignalText                // Text leaf bound to a signal
	KindIntrinsic                 // Native node description (<div>, <button>, ...)
	KindComponent                 // Deferred render thunk, invoked by the renderer
	KindSignalElement             // Reactive subtree swapped wholesale on change
	KindFragment                  // Grouping without a wrapper node
	KindPortal                    // Children mounted into a different target
	KindProvide                   // Context boundary, merges over the ambient context
	KindKeyedList                 // Reactive collection view
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindSignalText:
		return "SignalText"
	case KindIntrinsic:
		return "Intrinsic"
	case KindComponent:
		return "Component"
	case KindSignalElement:
		return "SignalElement"
	case KindFragment:
		return "Fragment"
	case KindPortal:
		return "Portal"
	case KindProvide:
		return "Provide"
	case KindKeyedList:
		return "KeyedList"
	default:
		return "Unknown"
	}
}

// Props holds intrinsic node attributes and event handlers.
// A value may be a reactive.Source, in which case the renderer
// subscribes to it directly and pushes attribute updates without
// re-running any component. Keys starting with "on" whose value is a
// handler func attach as event listeners.
type Props map[string]any

// Element is one node of the markup tree. Which fields are meaningful
// depends on Kind; everything else is zero. Elements are immutable
// after construction and compared only by reference (and by Key during
// list reconciliation).
type Element struct {
	Kind Kind

	// Key is the reconciliation key. A dynamic region keeps its mounted
	// subtree when the incoming element carries the same non-empty Key;
	// elements are otherwise matched by position.
	Key string

	// Text is the content of a KindText leaf.
	Text string

	// TextSource drives a KindSignalText leaf. Load must yield a string
	// or a value with a reasonable default formatting.
	TextSource reactive.Source

	// Tag and Props describe a KindIntrinsic node.
	Tag   string
	Props Props

	// Children of KindIntrinsic, KindFragment, and KindPortal.
	Children []*Element

	// Run is the deferred body of a KindComponent. The renderer, never
	// the caller, invokes it inside a fresh render phase.
	Run func() (*Element, error)

	// Name labels a KindComponent in diagnostics.
	Name string

	// ElemSource drives a KindSignalElement region. Load must yield an
	// *Element (nil renders nothing).
	ElemSource reactive.Source

	// Target locates a KindPortal's mount point: either a node value
	// satisfying the renderer's document API or a lookup selector string.
	Target any

	// Values are the context bindings of a KindProvide boundary.
	Values map[any]any

	// Child is the single subtree under a KindProvide.
	Child *Element

	// List describes a KindKeyedList.
	List *KeyedList
}

// WithKey returns a shallow copy of e carrying the given key. Inside a
// Dynamic region the key is the element's identity: swapping to an
// element with the same key keeps the mounted subtree and its state,
// while a different key remounts.
func (e *Element) WithKey(key string) *Element {
	if e == nil {
		return nil
	}
	copied := *e
	copied.Key = key
	return &copied
}
