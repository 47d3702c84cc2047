package protocol

// Version is the wire protocol version. Bump on any incompatible
// change to frame or payload layout.
const Version uint16 = 1

// Hello opens a connection. The client sends its protocol version and,
// when resuming, the session it wants back; the server replies with the
// session ID actually in effect.
type Hello struct {
	Version   uint16
	SessionID string
	Resume    bool
}

// Encode appends the handshake to e.
func (h *Hello) Encode(e *Encoder) {
	e.WriteUint16(h.Version)
	e.WriteString(h.SessionID)
	e.WriteBool(h.Resume)
}

// DecodeHello parses a handshake payload.
func DecodeHello(d *Decoder) (Hello, error) {
	var h Hello
	var err error
	if h.Version, err = d.ReadUint16(); err != nil {
		return h, err
	}
	if h.SessionID, err = d.ReadString(); err != nil {
		return h, err
	}
	h.Resume, err = d.ReadBool()
	return h, err
}
