package dom

import (
	"fmt"
	"sort"
	"strings"
)

// nodeKind discriminates memory node types.
type nodeKind uint8

const (
	kindElement nodeKind = iota
	kindText
	kindAnchor
)

// MemoryDocument is the in-memory Document implementation.
type MemoryDocument struct {
	root     *memNode
	recorder Recorder
	counter  uint64
}

// NewMemoryDocument creates an empty document with a root element.
func NewMemoryDocument() *MemoryDocument {
	d := &MemoryDocument{}
	d.root = d.newNode(kindElement, "root", "")
	return d
}

// SetRecorder installs a mutation recorder. Pass nil to stop recording.
// Mutations made before the recorder was installed are not replayed.
func (d *MemoryDocument) SetRecorder(r Recorder) {
	d.recorder = r
}

func (d *MemoryDocument) newNode(kind nodeKind, tag, text string) *memNode {
	d.counter++
	return &memNode{
		doc:  d,
		id:   fmt.Sprintf("n%d", d.counter),
		kind: kind,
		tag:  tag,
		text: text,
	}
}

// CreateElement implements Document.
func (d *MemoryDocument) CreateElement(tag string) Node {
	return d.newNode(kindElement, tag, "")
}

// CreateText implements Document.
func (d *MemoryDocument) CreateText(text string) Node {
	return d.newNode(kindText, "", text)
}

// CreateAnchor implements Document.
func (d *MemoryDocument) CreateAnchor(label string) Node {
	return d.newNode(kindAnchor, "", label)
}

// Root implements Document.
func (d *MemoryDocument) Root() Node {
	return d.root
}

// Lookup implements Document.
func (d *MemoryDocument) Lookup(selector string) (Node, bool) {
	if selector == "" {
		return nil, false
	}
	if id, ok := strings.CutPrefix(selector, "#"); ok {
		return d.find(func(n *memNode) bool {
			v, has := n.attrs["id"]
			return has && v == id
		})
	}
	return d.find(func(n *memNode) bool {
		return n.kind == kindElement && n.tag == selector
	})
}

// NodeByID returns the attached node with the given node ID.
func (d *MemoryDocument) NodeByID(id string) (Node, bool) {
	return d.find(func(n *memNode) bool { return n.id == id })
}

// find walks the tree in document order.
func (d *MemoryDocument) find(match func(*memNode) bool) (Node, bool) {
	var walk func(n *memNode) (*memNode, bool)
	walk = func(n *memNode) (*memNode, bool) {
		if match(n) {
			return n, true
		}
		for _, c := range n.children {
			if found, ok := walk(c); ok {
				return found, true
			}
		}
		return nil, false
	}
	if found, ok := walk(d.root); ok {
		return found, true
	}
	return nil, false
}

func (d *MemoryDocument) record(op Op) {
	if d.recorder != nil {
		d.recorder.Record(op)
	}
}

// memNode is the in-memory Node implementation.
type memNode struct {
	doc      *MemoryDocument
	id       string
	kind     nodeKind
	tag      string
	text     string
	attrs    map[string]string
	parent   *memNode
	children []*memNode
	handlers map[string][]*handlerEntry
}

type handlerEntry struct {
	fn EventHandler
}

var _ Node = (*memNode)(nil)

// ID implements Node.
func (n *memNode) ID() string { return n.id }

// Tag implements Node.
func (n *memNode) Tag() string { return n.tag }

// Text implements Node.
func (n *memNode) Text() string { return n.text }

// IsText implements Node.
func (n *memNode) IsText() bool { return n.kind == kindText }

// IsAnchor implements Node.
func (n *memNode) IsAnchor() bool { return n.kind == kindAnchor }

// SetText implements Node.
func (n *memNode) SetText(text string) {
	if n.text == text {
		return
	}
	n.text = text
	if n.kind == kindText {
		n.doc.record(Op{Kind: OpSetText, NodeID: n.id, Value: text})
	}
}

// Attr implements Node.
func (n *memNode) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// SetAttr implements Node.
func (n *memNode) SetAttr(name, value string) {
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	if old, ok := n.attrs[name]; ok && old == value {
		return
	}
	n.attrs[name] = value
	n.doc.record(Op{Kind: OpSetAttr, NodeID: n.id, Key: name, Value: value})
}

// Attrs implements Node.
func (n *memNode) Attrs() map[string]string {
	out := make(map[string]string, len(n.attrs))
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}

// RemoveAttr implements Node.
func (n *memNode) RemoveAttr(name string) {
	if _, ok := n.attrs[name]; !ok {
		return
	}
	delete(n.attrs, name)
	n.doc.record(Op{Kind: OpRemoveAttr, NodeID: n.id, Key: name})
}

// Parent implements Node.
func (n *memNode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Children implements Node.
func (n *memNode) Children() []Node {
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// ChildIndex implements Node.
func (n *memNode) ChildIndex(child Node) int {
	c, ok := child.(*memNode)
	if !ok {
		return -1
	}
	for i, cur := range n.children {
		if cur == c {
			return i
		}
	}
	return -1
}

// InsertChild implements Node. Inserting a node that is already
// attached moves it: the detach and the re-insert happen in one step
// and record a single Move op.
func (n *memNode) InsertChild(child Node, index int) {
	c, ok := child.(*memNode)
	if !ok {
		return
	}

	moved := c.parent != nil
	if moved {
		c.parent.detach(c)
	}

	if index < 0 {
		index = 0
	}
	if index > len(n.children) {
		index = len(n.children)
	}

	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = c
	c.parent = n

	if moved {
		n.doc.record(Op{Kind: OpMove, NodeID: c.id, ParentID: n.id, Index: index})
	} else {
		n.doc.record(Op{Kind: OpInsert, NodeID: c.id, ParentID: n.id, Index: index, Node: c})
	}
}

// AppendChild implements Node.
func (n *memNode) AppendChild(child Node) {
	n.InsertChild(child, len(n.children))
}

// RemoveChild implements Node.
func (n *memNode) RemoveChild(child Node) {
	c, ok := child.(*memNode)
	if !ok || c.parent != n {
		return
	}
	n.detach(c)
	n.doc.record(Op{Kind: OpRemove, NodeID: c.id})
}

// detach unlinks c from n without recording.
func (n *memNode) detach(c *memNode) {
	for i, cur := range n.children {
		if cur == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			break
		}
	}
	c.parent = nil
}

// AddEventListener implements Node.
func (n *memNode) AddEventListener(eventType string, h EventHandler) func() {
	if n.handlers == nil {
		n.handlers = make(map[string][]*handlerEntry)
	}
	entry := &handlerEntry{fn: h}
	n.handlers[eventType] = append(n.handlers[eventType], entry)

	return func() {
		entries := n.handlers[eventType]
		for i, e := range entries {
			if e == entry {
				n.handlers[eventType] = append(entries[:i], entries[i+1:]...)
				return
			}
		}
	}
}

// DispatchEvent implements Node.
func (n *memNode) DispatchEvent(e Event) {
	if e.Target == nil {
		e.Target = n
	}
	// Snapshot so a handler that detaches itself still finishes this
	// dispatch cleanly.
	entries := append([]*handlerEntry(nil), n.handlers[e.Type]...)
	for _, entry := range entries {
		entry.fn(e)
	}
}

// Markup renders a node subtree as HTML-ish text. Anchors render as
// comments. Attributes print in sorted order so output is stable for
// assertions.
func Markup(node Node) string {
	var b strings.Builder
	writeMarkup(&b, node)
	return b.String()
}

func writeMarkup(b *strings.Builder, node Node) {
	n, ok := node.(*memNode)
	if !ok {
		return
	}

	switch n.kind {
	case kindText:
		b.WriteString(n.text)
	case kindAnchor:
		b.WriteString("<!--")
		b.WriteString(n.text)
		b.WriteString("-->")
	case kindElement:
		b.WriteByte('<')
		b.WriteString(n.tag)
		names := make([]string, 0, len(n.attrs))
		for name := range n.attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(b, " %s=%q", name, n.attrs[name])
		}
		b.WriteByte('>')
		for _, c := range n.children {
			writeMarkup(b, c)
		}
		b.WriteString("</")
		b.WriteString(n.tag)
		b.WriteByte('>')
	}
}
