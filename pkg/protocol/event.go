package protocol

// EventMessage is a user event reported by the client: which node,
// which event type, and the payload value (an input's text, a select's
// choice). Travels in a FrameEvent payload.
type EventMessage struct {
	NodeID string
	Type   string
	Value  string
}

// Encode appends the event to e.
func (m *EventMessage) Encode(e *Encoder) {
	e.WriteString(m.NodeID)
	e.WriteString(m.Type)
	e.WriteString(m.Value)
}

// DecodeEventMessage parses an event payload.
func DecodeEventMessage(d *Decoder) (EventMessage, error) {
	var m EventMessage
	var err error
	if m.NodeID, err = d.ReadString(); err != nil {
		return m, err
	}
	if m.Type, err = d.ReadString(); err != nil {
		return m, err
	}
	m.Value, err = d.ReadString()
	return m, err
}
