package console

import (
	"io"

	"github.com/golang/glog"
)

// Control bytes recognized by the Accumulator.
const (
	CR        byte = '\r'
	LF        byte = '\n'
	Backspace byte = '\b'
)

var eraseSeq = []byte{Backspace, ' ', Backspace}

// Accumulator edits console input into command lines.
type Accumulator struct {
	// Echo receives the console feedback. nil disables echoing.
	Echo io.Writer

	line    LineBuffer
	dropped int
}

// NewAccumulator creates an Accumulator echoing to w.
func NewAccumulator(w io.Writer) *Accumulator {
	return &Accumulator{Echo: w}
}

// Feed consumes one byte. When a line is terminated, it returns the line and
// true, and the buffer is emptied for the next line. Terminators on an empty
// line are ignored so CR LF dispatches once.
func (a *Accumulator) Feed(c byte) (string, bool) {
	switch c {
	case CR, LF:
		if a.line.Len() == 0 {
			return "", false
		}
		a.echo(LF)
		cmd := a.line.String()
		a.Reset()
		return cmd, true
	case Backspace:
		if a.line.Backspace() {
			a.echo(eraseSeq...)
		}
	default:
		if !a.line.Append(c) {
			if a.dropped == 0 {
				glog.Warningf("console line exceeds %d bytes, dropping input", LineCapacity-1)
			}
			a.dropped++
			return "", false
		}
		a.echo(c)
	}
	return "", false
}

// Pending returns the line being edited.
func (a *Accumulator) Pending() string {
	return a.line.String()
}

// Reset discards the line being edited.
func (a *Accumulator) Reset() {
	if a.dropped > 0 {
		if glog.V(1) {
			glog.Infof("dropped %d console bytes", a.dropped)
		}
	}
	a.line.Reset()
	a.dropped = 0
}

func (a *Accumulator) echo(b ...byte) {
	if a.Echo == nil {
		return
	}
	if _, err := a.Echo.Write(b); err != nil {
		glog.Warningf("console echo error: %v", err)
	}
}
