// Package console turns a raw console byte stream into command lines.
package console

// LineCapacity is the size of the line buffer, including the terminator slot.
const LineCapacity = 256

// LineBuffer is a fixed-capacity line with a write cursor.
// The cursor never passes LineCapacity-1.
type LineBuffer struct {
	buf    [LineCapacity]byte
	cursor int
}

// Append stores c at the cursor. It returns false if the buffer is full.
func (b *LineBuffer) Append(c byte) bool {
	if b.Full() {
		return false
	}
	b.buf[b.cursor] = c
	b.cursor++
	return true
}

// Backspace moves the cursor back one position. It returns false on an
// empty buffer.
func (b *LineBuffer) Backspace() bool {
	if b.cursor == 0 {
		return false
	}
	b.cursor--
	return true
}

// Len returns the number of bytes held.
func (b *LineBuffer) Len() int {
	return b.cursor
}

// Full indicates no more bytes can be appended.
func (b *LineBuffer) Full() bool {
	return b.cursor >= LineCapacity-1
}

// String returns the line up to the cursor.
func (b *LineBuffer) String() string {
	return string(b.buf[:b.cursor])
}

// Reset empties the buffer.
func (b *LineBuffer) Reset() {
	b.cursor = 0
}
