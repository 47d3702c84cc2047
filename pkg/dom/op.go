package dom

// OpKind is the mutation type discriminator.
type OpKind uint8

const (
	OpSetText    OpKind = iota + 1 // Text node content changed
	OpSetAttr                      // Attribute set
	OpRemoveAttr                   // Attribute removed
	OpInsert                       // Node inserted under a parent
	OpRemove                       // Node detached
	OpMove                         // Node repositioned under a parent
)

// String returns the string representation of the op kind.
func (k OpKind) String() string {
	switch k {
	case OpSetText:
		return "SetText"
	case OpSetAttr:
		return "SetAttr"
	case OpRemoveAttr:
		return "RemoveAttr"
	case OpInsert:
		return "Insert"
	case OpRemove:
		return "Remove"
	case OpMove:
		return "Move"
	default:
		return "Unknown"
	}
}

// Op is one recorded document mutation. Node references are by ID so
// ops can cross a wire.
type Op struct {
	Kind     OpKind
	NodeID   string
	ParentID string // For Insert/Move
	Index    int    // For Insert/Move
	Key      string // Attribute name for SetAttr/RemoveAttr
	Value    string // Text or attribute value
	Node     Node   // For Insert: the inserted node, for payload serialization
}

// Recorder receives every mutation applied to a recording document.
type Recorder interface {
	Record(Op)
}

// OpLog is a Recorder that accumulates ops in memory.
// Drain hands the batch to the transport and resets the log.
type OpLog struct {
	ops []Op
}

// Record implements Recorder.
func (l *OpLog) Record(op Op) {
	l.ops = append(l.ops, op)
}

// Drain returns the accumulated ops and clears the log.
func (l *OpLog) Drain() []Op {
	ops := l.ops
	l.ops = nil
	return ops
}

// Len returns the number of buffered ops.
func (l *OpLog) Len() int {
	return len(l.ops)
}
