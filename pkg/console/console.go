package console

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/golang/glog"
)

var (
	// ErrNoInput indicates no byte is pending.
	ErrNoInput = errors.New("no input pending")
	// ErrBusy indicates another stream is already attached.
	ErrBusy = errors.New("console busy")
)

// Console buffers incoming bytes so a polling loop can check for
// pending input without blocking, and serializes output.
type Console struct {
	// OnInput is called after bytes are queued.
	OnInput func()
	// Banner is written to each stream when it attaches.
	Banner string

	pending chan byte

	outLock sync.Mutex
	out     io.Writer

	attachLock sync.Mutex
	attached   bool
}

// New creates a Console writing to out.
func New(out io.Writer) *Console {
	return &Console{
		pending: make(chan byte, LineCapacity),
		out:     out,
	}
}

// Pending tells whether a byte is ready for ReadByte.
func (c *Console) Pending() bool {
	return len(c.pending) > 0
}

// ReadByte returns a pending byte, or ErrNoInput.
func (c *Console) ReadByte() (byte, error) {
	select {
	case b := <-c.pending:
		return b, nil
	default:
		return 0, ErrNoInput
	}
}

// Write implements io.Writer.
func (c *Console) Write(p []byte) (int, error) {
	c.outLock.Lock()
	defer c.outLock.Unlock()
	if c.out == nil {
		return len(p), nil
	}
	return c.out.Write(p)
}

// WriteByte writes a single byte.
func (c *Console) WriteByte(b byte) error {
	_, err := c.Write([]byte{b})
	return err
}

// SetOutput replaces the output writer and returns the previous one.
func (c *Console) SetOutput(w io.Writer) io.Writer {
	c.outLock.Lock()
	defer c.outLock.Unlock()
	prev := c.out
	c.out = w
	return prev
}

// Feed queues bytes as if they were received.
func (c *Console) Feed(ctx context.Context, p []byte) error {
	for _, b := range p {
		select {
		case c.pending <- b:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fn := c.OnInput; fn != nil && len(p) > 0 {
		fn()
	}
	return nil
}

// Serve attaches rw as the console stream until reading fails or ctx is done.
// Only one stream can be attached at a time.
func (c *Console) Serve(ctx context.Context, rw io.ReadWriter) error {
	c.attachLock.Lock()
	if c.attached {
		c.attachLock.Unlock()
		return ErrBusy
	}
	c.attached = true
	c.attachLock.Unlock()
	defer func() {
		c.attachLock.Lock()
		c.attached = false
		c.attachLock.Unlock()
	}()

	prev := c.SetOutput(rw)
	defer c.SetOutput(prev)
	if c.Banner != "" {
		if _, err := io.WriteString(c, c.Banner); err != nil {
			return err
		}
	}

	bytesCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go readLoop(subCtx, rw, bytesCh, errCh)
	for {
		select {
		case p := <-bytesCh:
			if err := c.Feed(ctx, p); err != nil {
				return err
			}
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func readLoop(ctx context.Context, r io.Reader, bytesCh chan []byte, errCh chan error) {
	buf := make([]byte, LineCapacity)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			p := make([]byte, n)
			copy(p, buf[:n])
			select {
			case bytesCh <- p:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

// Stream is a Runnable attaching a fixed stream to a Console.
type Stream struct {
	Console *Console
	RW      io.ReadWriter
}

// Run implements Runnable.
func (s *Stream) Run(ctx context.Context) error {
	defer func() {
		if closer, ok := s.RW.(io.Closer); ok {
			closer.Close()
		}
	}()
	err := s.Console.Serve(ctx, s.RW)
	if err == nil {
		glog.Info("console stream closed")
	}
	return err
}

type stdio struct {
	io.Reader
	io.Writer
}

// Stdio returns the process standard input/output as a stream.
func Stdio() io.ReadWriter {
	return &stdio{Reader: os.Stdin, Writer: os.Stdout}
}
