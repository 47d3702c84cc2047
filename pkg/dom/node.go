package dom

// Event is a document event delivered to listeners.
type Event struct {
	// Type is the event name ("click", "input", ...).
	Type string

	// Target is the node the event was dispatched on.
	Target Node

	// Value carries event payload such as an input's current value.
	Value string
}

// EventHandler handles a dispatched event.
type EventHandler func(Event)

// Node is a live document node.
type Node interface {
	// ID returns the node's stable identifier, unique per document.
	ID() string

	// Tag returns the element tag, or "" for text and anchor nodes.
	Tag() string

	// Text returns the text content of a text node.
	Text() string

	// IsText reports whether this is a text node.
	IsText() bool

	// IsAnchor reports whether this is an anchor (marker) node. Anchors
	// occupy a tree position but render nothing.
	IsAnchor() bool

	// SetText replaces a text node's content.
	SetText(text string)

	// Attr returns an attribute value.
	Attr(name string) (string, bool)

	// SetAttr sets an attribute.
	SetAttr(name, value string)

	// RemoveAttr removes an attribute.
	RemoveAttr(name string)

	// Attrs returns a snapshot of all attributes.
	Attrs() map[string]string

	// Parent returns the parent node, or nil for a detached node or the
	// document root.
	Parent() Node

	// Children returns the node's children in order. The returned slice
	// is a snapshot; mutating it does not affect the node.
	Children() []Node

	// ChildIndex returns the position of child under this node, or -1.
	ChildIndex(child Node) int

	// InsertChild inserts child at index. A child that already has a
	// parent is moved: detached from its old position first, in the same
	// step. index == len(children) appends.
	InsertChild(child Node, index int)

	// AppendChild inserts child at the end.
	AppendChild(child Node)

	// RemoveChild detaches child from this node.
	RemoveChild(child Node)

	// AddEventListener registers a handler for an event type and returns
	// the detach action.
	AddEventListener(eventType string, h EventHandler) func()

	// DispatchEvent delivers an event to this node's listeners.
	DispatchEvent(e Event)
}

// Document creates nodes and resolves lookup selectors.
type Document interface {
	// CreateElement creates a detached element node.
	CreateElement(tag string) Node

	// CreateText creates a detached text node.
	CreateText(text string) Node

	// CreateAnchor creates a detached anchor node. The label shows up in
	// dumps and ops for debugging; it has no rendering effect.
	CreateAnchor(label string) Node

	// Root returns the document's root node.
	Root() Node

	// Lookup resolves a selector to a node. Supported forms are "#id"
	// (matches the id attribute) and a bare tag name (first match in
	// tree order). ok is false if nothing matches.
	Lookup(selector string) (Node, bool)
}
