package sdep

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ackBytes(n int) []byte {
	return make([]byte, n)
}

func script(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestClientPing(t *testing.T) {
	link := newScriptLink(script(
		ackBytes(8),
		[]byte{0x00, Busy, 0x00, 0x20},
		[]byte{0x01, 0x00, 0x02},
		[]byte{'o', 'k'},
	)...)
	tr, _ := newTestTransceiver(link)
	c := NewClient(tr)

	var out bytes.Buffer
	reply, err := c.Dispatch(context.Background(), "ping", &out)
	require.NoError(t, err)
	require.Equal(t, []byte{0x10, 0x00, 0x00, 0x04, 'p', 'i', 'n', 'g'}, link.sent[:8])
	for _, b := range link.sent[8:] {
		require.Equal(t, Filler, b)
	}
	require.Equal(t, MsgTypeResponse, reply.Type)
	require.Equal(t, uint16(1), reply.CmdID)
	require.Equal(t, byte(2), reply.Length)
	require.Equal(t, []byte("ok"), reply.Payload)
	require.Equal(t, "MType: 0x20 - CMD: 0x0001 - Len: 2\nok\n", out.String())
}

func TestClientRequestLayout(t *testing.T) {
	for _, cmd := range []string{"a", "AT+INFO", strings.Repeat("x", 255)} {
		t.Run(cmd[:1], func(t *testing.T) {
			link := newScriptLink(script(
				ackBytes(HeaderSize+len(cmd)),
				[]byte{0x20, 0, 0, 0},
			)...)
			tr, _ := newTestTransceiver(link)
			reply, err := NewClient(tr).Do(context.Background(), cmd)
			require.NoError(t, err)
			require.Empty(t, reply.Payload)
			require.Equal(t, []byte{0x10, 0, 0, byte(len(cmd))}, link.sent[:HeaderSize])
			require.Equal(t, []byte(cmd), link.sent[HeaderSize:HeaderSize+len(cmd)])
		})
	}
}

func TestClientShortResponse(t *testing.T) {
	link := newScriptLink(script(
		ackBytes(HeaderSize+2),
		[]byte{0x20, 0x00, 0x00, 0x05},
		[]byte{'a', 'b', EndOfData},
	)...)
	tr, _ := newTestTransceiver(link)
	var out bytes.Buffer
	reply, err := NewClient(tr).Dispatch(context.Background(), "hi", &out)
	require.NoError(t, err)
	require.True(t, reply.Truncated())
	require.Equal(t, []byte("ab"), reply.Payload)
	require.Equal(t, "MType: 0x20 - CMD: 0x0000 - Len: 5\nab\n", out.String())
}

func TestClientSkipsUntilResponseTag(t *testing.T) {
	link := newScriptLink(script(
		ackBytes(HeaderSize+1),
		[]byte{byte(MsgTypeAlert), 0x13, EndOfData, byte(MsgTypeResponse)},
		[]byte{0x34, 0x12, 0x01, 'z'},
	)...)
	tr, rec := newTestTransceiver(link)
	reply, err := NewClient(tr).Do(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), reply.CmdID)
	require.Equal(t, []byte("z"), reply.Payload)
	require.Equal(t, 4, countSleeps(rec, DefaultSyncRetry.Interval))
}

func countSleeps(rec *sleepRecorder, d time.Duration) int {
	var n int
	for _, s := range rec.sleeps {
		if s == d {
			n++
		}
	}
	return n
}

func TestClientReset(t *testing.T) {
	link := newScriptLink()
	tr, _ := newTestTransceiver(link)
	c := NewClient(tr)
	var resets int
	c.Resetter = ResetFunc(func() { resets++ })

	var out bytes.Buffer
	_, err := c.Dispatch(context.Background(), DefaultResetKeyword, &out)
	require.Equal(t, ErrReset, err)
	require.Equal(t, 1, resets)
	require.Empty(t, link.sent)
	require.Zero(t, link.selects)
	require.Empty(t, out.String())

	// case sensitive
	link.replies = script(ackBytes(HeaderSize+3), []byte{0x20, 0, 0, 0})
	_, err = c.Do(context.Background(), "ATZ")
	require.NoError(t, err)
	require.Equal(t, 1, resets)
	require.NotEmpty(t, link.sent)
}

func TestClientSyncTimeout(t *testing.T) {
	link := newScriptLink(ackBytes(HeaderSize + 1)...)
	link.fallback = 0x00
	tr, _ := newTestTransceiver(link)
	c := NewClient(tr)
	c.Sync.MaxAttempts = 3

	var out bytes.Buffer
	_, err := c.Dispatch(context.Background(), "x", &out)
	require.True(t, errors.Is(err, ErrTimeout))
	require.Len(t, link.sent, HeaderSize+1+3)
	require.Equal(t, "ERROR: sync: peer not ready after 3 attempts\n", out.String())
}

func TestClientPayloadTooLong(t *testing.T) {
	link := newScriptLink()
	tr, _ := newTestTransceiver(link)
	_, err := NewClient(tr).Do(context.Background(), strings.Repeat("x", 256))
	require.Equal(t, ErrPayloadTooLong, err)
	require.Empty(t, link.sent)
}
