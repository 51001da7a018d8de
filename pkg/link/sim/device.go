// Package sim simulates an SDEP peripheral behind the sdep.Link interface.
package sim

import (
	"errors"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/sdep.go/pkg/sdep"
)

var (
	// ErrNotSelected indicates a transfer outside of a chip select frame.
	ErrNotSelected = errors.New("transfer while deselected")
	// ErrAlreadySelected indicates chip select was asserted twice.
	ErrAlreadySelected = errors.New("already selected")
)

// Handler produces the response for a received command.
type Handler interface {
	HandleCommand(*sdep.Message) *sdep.Message
}

// HandleCommandFunc is func type of Handler.
type HandleCommandFunc func(*sdep.Message) *sdep.Message

// HandleCommand implements Handler.
func (f HandleCommandFunc) HandleCommand(cmd *sdep.Message) *sdep.Message {
	return f(cmd)
}

// Echo answers every command with its own payload.
var Echo = HandleCommandFunc(func(cmd *sdep.Message) *sdep.Message {
	return &sdep.Message{
		Header:  sdep.Header{Type: sdep.MsgTypeResponse, CmdID: cmd.CmdID, Length: cmd.Length},
		Payload: cmd.Payload,
	}
})

// Device is a simulated peripheral. Each Transfer is one clocked byte.
type Device struct {
	Handler Handler
	// Latency is the number of Busy answers before a response starts.
	Latency int
	// BusyEvery makes every Nth exchange answer Busy without consuming
	// anything. 0 disables.
	BusyEvery int

	lock      sync.Mutex
	selected  bool
	exchanges int
	rx        []byte
	tx        []byte
	wait      int
	received  []*sdep.Message
}

// NewDevice creates an echoing Device.
func NewDevice() *Device {
	return &Device{Handler: Echo}
}

// Select implements sdep.Link.
func (d *Device) Select() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.selected {
		return ErrAlreadySelected
	}
	d.selected = true
	return nil
}

// Deselect implements sdep.Link.
func (d *Device) Deselect() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if !d.selected {
		return ErrNotSelected
	}
	d.selected = false
	return nil
}

// Transfer implements sdep.Link.
func (d *Device) Transfer(in byte) (byte, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if !d.selected {
		return 0, ErrNotSelected
	}
	d.exchanges++
	if d.BusyEvery > 0 && d.exchanges%d.BusyEvery == 0 {
		return sdep.Busy, nil
	}
	if d.tx != nil {
		return d.respond(), nil
	}
	d.collect(in)
	return sdep.EndOfData, nil
}

// Received returns the commands received so far.
func (d *Device) Received() []*sdep.Message {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]*sdep.Message(nil), d.received...)
}

// Exchanges returns the number of bytes clocked.
func (d *Device) Exchanges() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.exchanges
}

func (d *Device) respond() byte {
	if d.wait > 0 {
		d.wait--
		return sdep.Busy
	}
	b := d.tx[0]
	if d.tx = d.tx[1:]; len(d.tx) == 0 {
		d.tx = nil
	}
	return b
}

func (d *Device) collect(in byte) {
	if len(d.rx) == 0 && !sdep.MsgType(in).Known() {
		// filler from the master over-reading.
		return
	}
	d.rx = append(d.rx, in)
	if len(d.rx) < sdep.HeaderSize {
		return
	}
	var head [sdep.HeaderSize]byte
	copy(head[:], d.rx)
	msg := &sdep.Message{Header: sdep.DecodeHeader(head)}
	if len(d.rx) < sdep.HeaderSize+int(msg.Length) {
		return
	}
	msg.Payload = append([]byte(nil), d.rx[sdep.HeaderSize:]...)
	d.rx = nil
	d.received = append(d.received, msg)
	glog.V(2).Infof("sim: received %s id=%d %q", msg.Type, msg.CmdID, msg.Payload)

	h := d.Handler
	if h == nil {
		h = Echo
	}
	reply := h.HandleCommand(msg)
	if reply == nil {
		return
	}
	d.tx = reply.Bytes()
	d.wait = d.Latency
}
