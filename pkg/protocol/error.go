package protocol

// ErrorMessage is a coded error report. The code matches the registry
// codes used server-side (for example "E005"), so a client can key
// display behavior off it without parsing the message.
type ErrorMessage struct {
	Code    string
	Message string
}

// Encode appends the error report to e.
func (m *ErrorMessage) Encode(e *Encoder) {
	e.WriteString(m.Code)
	e.WriteString(m.Message)
}

// DecodeErrorMessage parses an error payload.
func DecodeErrorMessage(d *Decoder) (ErrorMessage, error) {
	var m ErrorMessage
	var err error
	if m.Code, err = d.ReadString(); err != nil {
		return m, err
	}
	m.Message, err = d.ReadString()
	return m, err
}
