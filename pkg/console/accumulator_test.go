package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func feedAll(a *Accumulator, in string) []string {
	var lines []string
	for i := 0; i < len(in); i++ {
		if line, ok := a.Feed(in[i]); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestAccumulator(t *testing.T) {
	testCases := []struct {
		name  string
		in    string
		lines []string
		echo  string
	}{
		{"cr", "ping\r", []string{"ping"}, "ping\n"},
		{"lf", "ping\n", []string{"ping"}, "ping\n"},
		{"crlf", "ping\r\n", []string{"ping"}, "ping\n"},
		{"repeated terminators", "\r\n\r\nping\r\r\n\n", []string{"ping"}, "ping\n"},
		{"two lines", "a\r\nbc\r\n", []string{"a", "bc"}, "a\nbc\n"},
		{"backspace", "pinx\bg\r", []string{"ping"}, "pinx\b \bg\n"},
		{"backspace on empty", "\b\b\r", nil, ""},
		{"erase all", "ab\b\b\r", nil, "ab\b \b\b \b"},
		{"backspace past start", "a\b\b\bb\r", []string{"b"}, "a\b \bb\n"},
		{"no terminator", "ping", nil, "ping"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var echo bytes.Buffer
			a := NewAccumulator(&echo)
			require.Equal(t, tc.lines, feedAll(a, tc.in))
			require.Equal(t, tc.echo, echo.String())
		})
	}
}

func TestAccumulatorOverflow(t *testing.T) {
	var echo bytes.Buffer
	a := NewAccumulator(&echo)
	long := strings.Repeat("x", LineCapacity+10)
	require.Empty(t, feedAll(a, long))
	require.Len(t, a.Pending(), LineCapacity-1)
	require.Equal(t, LineCapacity-1, echo.Len())

	// still editable when full
	require.Empty(t, feedAll(a, "\by"))
	require.Len(t, a.Pending(), LineCapacity-1)
	lines := feedAll(a, "\r")
	require.Equal(t, []string{strings.Repeat("x", LineCapacity-2) + "y"}, lines)
	require.Empty(t, a.Pending())

	require.Equal(t, []string{"ok"}, feedAll(a, "ok\r"))
}

func TestAccumulatorNoEcho(t *testing.T) {
	a := NewAccumulator(nil)
	require.Equal(t, []string{"atz"}, feedAll(a, "atz\r\n"))
}

func TestLineBuffer(t *testing.T) {
	var b LineBuffer
	require.False(t, b.Backspace())
	require.Zero(t, b.Len())
	for i := 0; i < LineCapacity-1; i++ {
		require.True(t, b.Append('a'))
	}
	require.True(t, b.Full())
	require.False(t, b.Append('b'))
	require.Equal(t, LineCapacity-1, b.Len())
	b.Reset()
	require.Zero(t, b.Len())
	require.Equal(t, "", b.String())
}
