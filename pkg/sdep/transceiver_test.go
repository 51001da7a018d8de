package sdep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSendByteRetriesOnBusy(t *testing.T) {
	link := newScriptLink(Busy, Busy, 0x00)
	tr, rec := newTestTransceiver(link)
	require.NoError(t, tr.SendByte(context.Background(), 0x42))
	require.Equal(t, []byte{0x42, 0x42, 0x42}, link.sent)
	require.Equal(t, 3, link.selects)
	require.False(t, link.selected)
	require.Equal(t, []time.Duration{time.Millisecond, time.Millisecond}, rec.sleeps)
}

func TestSendBytesInOrder(t *testing.T) {
	link := newScriptLink(0, Busy, 0, 0)
	tr, _ := newTestTransceiver(link)
	require.NoError(t, tr.SendBytes(context.Background(), []byte{1, 2, 3}))
	require.Equal(t, []byte{1, 2, 2, 3}, link.sent)
	require.Equal(t, 4, link.selects)
}

func TestReceiveByte(t *testing.T) {
	link := newScriptLink(Busy, 0x7a)
	tr, rec := newTestTransceiver(link)
	b, err := tr.ReceiveByte(context.Background())
	require.NoError(t, err)
	require.Equal(t, byte(0x7a), b)
	require.Equal(t, []byte{Filler, Filler}, link.sent)
	require.Len(t, rec.sleeps, 1)
}

func TestReceiveBytes(t *testing.T) {
	testCases := []struct {
		name    string
		replies []byte
		max     int
		expect  []byte
	}{
		{"full", []byte{1, 2, 3}, 3, []byte{1, 2, 3}},
		{"busy in between", []byte{1, Busy, 2, Busy, Busy, 3}, 3, []byte{1, 2, 3}},
		{"end of data", []byte{1, 2, EndOfData, 4}, 4, []byte{1, 2}},
		{"immediate end", []byte{EndOfData}, 4, []byte{}},
		{"end after max", []byte{1, 2, EndOfData}, 2, []byte{1, 2}},
		{"zero", nil, 0, []byte{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			link := newScriptLink(tc.replies...)
			tr, _ := newTestTransceiver(link)
			buf := make([]byte, tc.max)
			n, err := tr.ReceiveBytes(context.Background(), buf)
			require.NoError(t, err)
			require.Equal(t, len(tc.expect), n)
			require.Equal(t, tc.expect, buf[:n])
		})
	}
}

func TestBoundedRetry(t *testing.T) {
	link := newScriptLink()
	tr, rec := newTestTransceiver(link)
	tr.Retry.MaxAttempts = 5
	err := tr.SendByte(context.Background(), 1)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrTimeout))
	var retryErr *RetryError
	require.True(t, errors.As(err, &retryErr))
	require.Equal(t, 5, retryErr.Attempts)
	require.Equal(t, "send", retryErr.Op)
	require.Len(t, link.sent, 5)
	require.Len(t, rec.sleeps, 4)
}

func TestRetryCanceled(t *testing.T) {
	link := newScriptLink()
	tr, _ := newTestTransceiver(link)
	ctx, cancel := context.WithCancel(context.Background())
	tr.Sleep = func(ctx context.Context, d time.Duration) error {
		if len(link.sent) >= 3 {
			cancel()
		}
		return ctx.Err()
	}
	_, err := tr.ReceiveByte(ctx)
	require.Equal(t, context.Canceled, err)
	require.Len(t, link.sent, 3)
}

func TestLinkError(t *testing.T) {
	link := newScriptLink()
	link.err = errors.New("bus fault")
	tr, _ := newTestTransceiver(link)
	err := tr.SendByte(context.Background(), 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bus fault")
	require.False(t, link.selected)
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, context.Canceled, Sleep(ctx, time.Hour))
	require.NoError(t, Sleep(context.Background(), time.Microsecond))
}
