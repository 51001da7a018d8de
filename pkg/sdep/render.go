package sdep

import (
	"bytes"
	"fmt"
	"io"
)

// Render prints a received message for the console.
// The declared length is shown even if fewer bytes were received, and the
// text stops at the first NUL byte.
func Render(w io.Writer, m *Message) error {
	text := m.Payload
	if n := bytes.IndexByte(text, 0); n >= 0 {
		text = text[:n]
	}
	_, err := fmt.Fprintf(w, "MType: 0x%02x - CMD: 0x%04x - Len: %d\n%s\n",
		byte(m.Type), m.CmdID, m.Length, text)
	return err
}

// RenderError prints err for the console.
func RenderError(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "ERROR: %v\n", err)
	return werr
}
