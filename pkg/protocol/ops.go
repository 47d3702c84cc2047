package protocol

import (
	"fmt"
	"sort"

	"github.com/lumen-ui/lumen/pkg/dom"
)

// NodePayload is the wire form of an inserted subtree. Kind bytes:
// 0 element, 1 text, 2 anchor.
type NodePayload struct {
	ID       string
	Kind     uint8
	Tag      string
	Text     string
	Attrs    map[string]string
	Children []NodePayload
}

const (
	nodeElement uint8 = 0
	nodeText    uint8 = 1
	nodeAnchor  uint8 = 2
)

// snapshotNode converts a live node into its wire payload.
func snapshotNode(n dom.Node) NodePayload {
	p := NodePayload{ID: n.ID()}
	switch {
	case n.IsText():
		p.Kind = nodeText
		p.Text = n.Text()
	case n.IsAnchor():
		p.Kind = nodeAnchor
		p.Text = n.Text()
	default:
		p.Kind = nodeElement
		p.Tag = n.Tag()
		p.Attrs = n.Attrs()
		children := n.Children()
		p.Children = make([]NodePayload, len(children))
		for i, c := range children {
			p.Children[i] = snapshotNode(c)
		}
	}
	return p
}

func (p *NodePayload) encode(e *Encoder) {
	e.WriteString(p.ID)
	e.WriteByte(p.Kind)
	switch p.Kind {
	case nodeText, nodeAnchor:
		e.WriteString(p.Text)
	default:
		e.WriteString(p.Tag)

		// Sorted attribute order keeps encodings byte-stable.
		names := make([]string, 0, len(p.Attrs))
		for name := range p.Attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		e.WriteUvarint(uint64(len(names)))
		for _, name := range names {
			e.WriteString(name)
			e.WriteString(p.Attrs[name])
		}

		e.WriteUvarint(uint64(len(p.Children)))
		for i := range p.Children {
			p.Children[i].encode(e)
		}
	}
}

func decodeNodePayload(d *Decoder) (NodePayload, error) {
	var p NodePayload
	var err error

	if p.ID, err = d.ReadString(); err != nil {
		return p, err
	}
	if p.Kind, err = d.ReadByte(); err != nil {
		return p, err
	}

	switch p.Kind {
	case nodeText, nodeAnchor:
		p.Text, err = d.ReadString()
		return p, err
	case nodeElement:
		if p.Tag, err = d.ReadString(); err != nil {
			return p, err
		}

		attrCount, err := d.ReadCollectionCount()
		if err != nil {
			return p, err
		}
		if attrCount > 0 {
			p.Attrs = make(map[string]string, attrCount)
		}
		for i := 0; i < attrCount; i++ {
			name, err := d.ReadString()
			if err != nil {
				return p, err
			}
			value, err := d.ReadString()
			if err != nil {
				return p, err
			}
			p.Attrs[name] = value
		}

		childCount, err := d.ReadCollectionCount()
		if err != nil {
			return p, err
		}
		p.Children = make([]NodePayload, childCount)
		for i := 0; i < childCount; i++ {
			if p.Children[i], err = decodeNodePayload(d); err != nil {
				return p, err
			}
		}
		return p, nil
	default:
		return p, fmt.Errorf("protocol: unknown node kind %d", p.Kind)
	}
}

// WireOp is one decoded document mutation. It mirrors dom.Op except the
// inserted subtree arrives as a NodePayload instead of a live node.
type WireOp struct {
	Kind     dom.OpKind
	NodeID   string
	ParentID string
	Index    int
	Key      string
	Value    string
	Payload  *NodePayload
}

// EncodeOps encodes a batch of recorded mutations into e.
//
// Format: varint op count, then per op a kind byte followed by the
// fields that kind uses.
func EncodeOps(e *Encoder, ops []dom.Op) {
	e.WriteUvarint(uint64(len(ops)))
	for i := range ops {
		encodeOp(e, &ops[i])
	}
}

func encodeOp(e *Encoder, op *dom.Op) {
	e.WriteByte(byte(op.Kind))
	switch op.Kind {
	case dom.OpSetText:
		e.WriteString(op.NodeID)
		e.WriteString(op.Value)
	case dom.OpSetAttr:
		e.WriteString(op.NodeID)
		e.WriteString(op.Key)
		e.WriteString(op.Value)
	case dom.OpRemoveAttr:
		e.WriteString(op.NodeID)
		e.WriteString(op.Key)
	case dom.OpInsert:
		e.WriteString(op.ParentID)
		e.WriteSvarint(int64(op.Index))
		payload := snapshotNode(op.Node)
		payload.encode(e)
	case dom.OpRemove:
		e.WriteString(op.NodeID)
	case dom.OpMove:
		e.WriteString(op.NodeID)
		e.WriteString(op.ParentID)
		e.WriteSvarint(int64(op.Index))
	}
}

// DecodeOps decodes a batch encoded by EncodeOps.
func DecodeOps(d *Decoder) ([]WireOp, error) {
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}

	ops := make([]WireOp, 0, count)
	for i := 0; i < count; i++ {
		op, err := decodeOp(d)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func decodeOp(d *Decoder) (WireOp, error) {
	var op WireOp

	kind, err := d.ReadByte()
	if err != nil {
		return op, err
	}
	op.Kind = dom.OpKind(kind)

	switch op.Kind {
	case dom.OpSetText:
		if op.NodeID, err = d.ReadString(); err != nil {
			return op, err
		}
		op.Value, err = d.ReadString()
		return op, err
	case dom.OpSetAttr:
		if op.NodeID, err = d.ReadString(); err != nil {
			return op, err
		}
		if op.Key, err = d.ReadString(); err != nil {
			return op, err
		}
		op.Value, err = d.ReadString()
		return op, err
	case dom.OpRemoveAttr:
		if op.NodeID, err = d.ReadString(); err != nil {
			return op, err
		}
		op.Key, err = d.ReadString()
		return op, err
	case dom.OpInsert:
		if op.ParentID, err = d.ReadString(); err != nil {
			return op, err
		}
		idx, err := d.ReadSvarint()
		if err != nil {
			return op, err
		}
		op.Index = int(idx)
		payload, err := decodeNodePayload(d)
		if err != nil {
			return op, err
		}
		op.NodeID = payload.ID
		op.Payload = &payload
		return op, nil
	case dom.OpRemove:
		op.NodeID, err = d.ReadString()
		return op, err
	case dom.OpMove:
		if op.NodeID, err = d.ReadString(); err != nil {
			return op, err
		}
		if op.ParentID, err = d.ReadString(); err != nil {
			return op, err
		}
		idx, err := d.ReadSvarint()
		if err != nil {
			return op, err
		}
		op.Index = int(idx)
		return op, nil
	default:
		return op, fmt.Errorf("protocol: unknown op kind %d", kind)
	}
}
