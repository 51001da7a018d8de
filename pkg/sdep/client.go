package sdep

import (
	"context"
	"io"

	"github.com/golang/glog"
)

// DefaultResetKeyword is the command triggering a local reset.
const DefaultResetKeyword = "atz"

// Resetter performs the local system reset.
type Resetter interface {
	Reset()
}

// ResetFunc is func type of Resetter.
type ResetFunc func()

// Reset implements Resetter.
func (f ResetFunc) Reset() {
	f()
}

// Client sends commands and waits for the matching response.
type Client struct {
	Transceiver  *Transceiver
	Sync         RetryPolicy
	ResetKeyword string
	Resetter     Resetter
}

// NewClient creates a client over the transceiver.
func NewClient(t *Transceiver) *Client {
	return &Client{
		Transceiver:  t,
		Sync:         DefaultSyncRetry,
		ResetKeyword: DefaultResetKeyword,
	}
}

// Do sends cmd as a command message and returns the response.
// If cmd is the reset keyword, nothing is sent and ErrReset is returned
// after the Resetter is invoked.
func (c *Client) Do(ctx context.Context, cmd string) (*Message, error) {
	if c.ResetKeyword != "" && cmd == c.ResetKeyword {
		glog.Info("reset requested")
		if r := c.Resetter; r != nil {
			r.Reset()
		}
		return nil, ErrReset
	}
	req, err := NewCommand(cmd)
	if err != nil {
		return nil, err
	}
	if glog.V(2) {
		glog.Infof("SEND %s id=%d len=%d %q", req.Type, req.CmdID, req.Length, cmd)
	}
	t := c.Transceiver
	if err = t.SendBytes(ctx, req.Header.Bytes()); err != nil {
		return nil, err
	}
	if err = t.SendBytes(ctx, req.Payload); err != nil {
		return nil, err
	}
	if err = c.waitResponse(ctx); err != nil {
		return nil, err
	}

	var head [HeaderSize]byte
	head[0] = byte(MsgTypeResponse)
	if _, err = t.ReceiveBytes(ctx, head[1:]); err != nil {
		return nil, err
	}
	reply := &Message{Header: DecodeHeader(head)}
	payload := make([]byte, reply.Length)
	n, err := t.ReceiveBytes(ctx, payload)
	if err != nil {
		return nil, err
	}
	reply.Payload = payload[:n]
	if glog.V(2) {
		glog.Infof("RECV %s id=%d len=%d %q", reply.Type, reply.CmdID, reply.Length, reply.Payload)
	}
	if reply.Truncated() {
		if glog.V(1) {
			glog.Infof("short response: %d of %d bytes", n, reply.Length)
		}
	}
	return reply, nil
}

// Dispatch runs Do and renders the outcome to w.
func (c *Client) Dispatch(ctx context.Context, cmd string, w io.Writer) (*Message, error) {
	reply, err := c.Do(ctx, cmd)
	if err != nil {
		if err != ErrReset {
			RenderError(w, err)
		}
		return nil, err
	}
	return reply, Render(w, reply)
}

// waitResponse polls single bytes until the response type tag shows up.
func (c *Client) waitResponse(ctx context.Context) error {
	t := c.Transceiver
	for attempts := 1; ; attempts++ {
		if err := t.sleep(ctx, c.Sync.Interval); err != nil {
			return err
		}
		b, err := t.ReceiveByte(ctx)
		if err != nil {
			return err
		}
		if MsgType(b) == MsgTypeResponse {
			return nil
		}
		if c.Sync.Exhausted(attempts) {
			return &RetryError{Op: "sync", Attempts: attempts}
		}
	}
}
