package sdep

import (
	"fmt"
	"io"
)

// MsgType is the message type tag. It keeps the raw byte so tags
// outside the known set survive decoding.
type MsgType byte

// Message types.
const (
	MsgTypeCommand  MsgType = 0x10
	MsgTypeResponse MsgType = 0x20
	MsgTypeAlert    MsgType = 0x40
	MsgTypeError    MsgType = 0x80
)

// HeaderSize is the encoded size of a header.
const HeaderSize = 4

// MaxPayload is the largest payload the length byte can describe.
const MaxPayload = 0xff

// Known reports whether t is one of the defined message types.
func (t MsgType) Known() bool {
	switch t {
	case MsgTypeCommand, MsgTypeResponse, MsgTypeAlert, MsgTypeError:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (t MsgType) String() string {
	switch t {
	case MsgTypeCommand:
		return "command"
	case MsgTypeResponse:
		return "response"
	case MsgTypeAlert:
		return "alert"
	case MsgTypeError:
		return "error"
	}
	return fmt.Sprintf("unknown(0x%02x)", byte(t))
}

// Header is the fixed part of a message.
type Header struct {
	Type   MsgType
	CmdID  uint16
	Length byte
}

// EncodeHeader encodes the header fields in wire order.
func EncodeHeader(t MsgType, cmdID uint16, length byte) [HeaderSize]byte {
	return [HeaderSize]byte{byte(t), byte(cmdID & 0xff), byte(cmdID >> 8), length}
}

// DecodeHeader is the inverse of EncodeHeader.
func DecodeHeader(b [HeaderSize]byte) Header {
	return Header{
		Type:   MsgType(b[0]),
		CmdID:  uint16(b[1]) | uint16(b[2])<<8,
		Length: b[3],
	}
}

// Bytes encodes the header.
func (h Header) Bytes() []byte {
	b := EncodeHeader(h.Type, h.CmdID, h.Length)
	return b[:]
}

// Message is a decoded SDEP message.
// For received messages, Payload holds what was actually received which may
// be shorter than Header.Length.
type Message struct {
	Header
	Payload []byte
}

// NewCommand creates a command message carrying text.
func NewCommand(text string) (*Message, error) {
	if len(text) > MaxPayload {
		return nil, ErrPayloadTooLong
	}
	return &Message{
		Header:  Header{Type: MsgTypeCommand, Length: byte(len(text))},
		Payload: []byte(text),
	}, nil
}

// Truncated reports whether fewer payload bytes were received than declared.
func (m *Message) Truncated() bool {
	return len(m.Payload) < int(m.Length)
}

// Bytes returns encoded bytes for sending.
func (m *Message) Bytes() []byte {
	l := min(len(m.Payload), int(m.Length))
	b := make([]byte, HeaderSize+l)
	copy(b, m.Header.Bytes())
	copy(b[HeaderSize:], m.Payload[:l])
	return b
}

// WriteTo writes encoded bytes.
func (m *Message) WriteTo(w io.Writer) (n int64, err error) {
	head := m.Header.Bytes()
	n1, err := w.Write(head)
	n = int64(n1)
	if err != nil {
		return
	}
	if l := min(len(m.Payload), int(m.Length)); l > 0 {
		n1, err = w.Write(m.Payload[:l])
		n += int64(n1)
	}
	return
}
