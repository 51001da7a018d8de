package sdep

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderEncodeDecode(t *testing.T) {
	types := []MsgType{MsgTypeCommand, MsgTypeResponse, MsgTypeAlert, MsgTypeError, 0x00, 0x33}
	ids := []uint16{0, 1, 0xff, 0x100, 0x1234, 0xfeff, 0xffff}
	lengths := []byte{0, 1, 0x7f, 0xfe, 0xff}
	for _, typ := range types {
		for _, id := range ids {
			for _, l := range lengths {
				h := DecodeHeader(EncodeHeader(typ, id, l))
				require.Equal(t, Header{Type: typ, CmdID: id, Length: l}, h)
			}
		}
	}
}

func TestEncodeHeaderLayout(t *testing.T) {
	b := EncodeHeader(MsgTypeResponse, 0x1234, 7)
	require.Equal(t, [HeaderSize]byte{0x20, 0x34, 0x12, 7}, b)
}

func TestMsgType(t *testing.T) {
	for _, typ := range []MsgType{MsgTypeCommand, MsgTypeResponse, MsgTypeAlert, MsgTypeError} {
		require.True(t, typ.Known())
	}
	require.False(t, MsgType(0x30).Known())
	require.Equal(t, "unknown(0x30)", MsgType(0x30).String())
	require.Equal(t, "response", MsgTypeResponse.String())
}

func TestMessage(t *testing.T) {
	testCases := []struct {
		name   string
		text   string
		expect []byte
	}{
		{"empty", "", []byte{0x10, 0, 0, 0}},
		{"text", "ping", []byte{0x10, 0, 0, 4, 'p', 'i', 'n', 'g'}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := NewCommand(tc.text)
			require.NoError(t, err)
			require.Equal(t, tc.expect, msg.Bytes())
			var buf bytes.Buffer
			n, err := msg.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, tc.expect, buf.Bytes())
			require.EqualValues(t, len(tc.expect), n)
		})
	}
}

func TestNewCommandTooLong(t *testing.T) {
	_, err := NewCommand(string(make([]byte, MaxPayload)))
	require.NoError(t, err)
	_, err = NewCommand(string(make([]byte, MaxPayload+1)))
	require.Equal(t, ErrPayloadTooLong, err)
}

func TestMessageTruncated(t *testing.T) {
	msg := &Message{Header: Header{Type: MsgTypeResponse, Length: 3}, Payload: []byte("ab")}
	require.True(t, msg.Truncated())
	msg.Payload = []byte("abc")
	require.False(t, msg.Truncated())
}
