package sdep

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
)

// Reserved bytes at the single-byte exchange level.
const (
	// Busy is clocked out by the peer when it ignored the exchange.
	Busy byte = 0xfe
	// EndOfData is clocked out by the peer after over-reading its
	// transmit buffer.
	EndOfData byte = 0xff
	// Filler is transmitted while receiving.
	Filler byte = 0xff
)

// Link performs single-byte full-duplex exchanges.
// Select and Deselect bracket exactly one Transfer.
type Link interface {
	Select() error
	Deselect() error
	Transfer(b byte) (byte, error)
}

// RetryPolicy bounds a retry-until-ready loop.
type RetryPolicy struct {
	// Interval is the pacing delay between attempts.
	Interval time.Duration
	// MaxAttempts is the number of attempts before giving up, 0 for no limit.
	MaxAttempts int
}

// Exhausted tells whether no more attempts are allowed after attempts.
func (p RetryPolicy) Exhausted(attempts int) bool {
	return p.MaxAttempts > 0 && attempts >= p.MaxAttempts
}

// Default policies.
var (
	DefaultByteRetry = RetryPolicy{Interval: time.Millisecond}
	DefaultSyncRetry = RetryPolicy{Interval: 10 * time.Millisecond}
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Transceiver gates every byte on the peer's readiness.
type Transceiver struct {
	Link  Link
	Retry RetryPolicy
	Sleep SleepFunc
}

// NewTransceiver creates a Transceiver with the default policy.
func NewTransceiver(link Link) *Transceiver {
	return &Transceiver{
		Link:  link,
		Retry: DefaultByteRetry,
		Sleep: Sleep,
	}
}

// SendByte transmits b until the peer doesn't answer Busy.
func (t *Transceiver) SendByte(ctx context.Context, b byte) error {
	_, err := t.gated(ctx, "send", b)
	return err
}

// SendBytes sends each byte of buf in order.
func (t *Transceiver) SendBytes(ctx context.Context, buf []byte) error {
	for _, b := range buf {
		if err := t.SendByte(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// ReceiveByte clocks out Filler until a byte other than Busy comes back.
func (t *Transceiver) ReceiveByte(ctx context.Context) (byte, error) {
	return t.gated(ctx, "receive", Filler)
}

// ReceiveBytes fills buf until it's full or EndOfData is received.
// It returns the number of bytes stored, not counting the EndOfData.
func (t *Transceiver) ReceiveBytes(ctx context.Context, buf []byte) (int, error) {
	for n := range buf {
		b, err := t.ReceiveByte(ctx)
		if err != nil {
			return n, err
		}
		if b == EndOfData {
			return n, nil
		}
		buf[n] = b
	}
	return len(buf), nil
}

func (t *Transceiver) gated(ctx context.Context, op string, out byte) (byte, error) {
	for attempts := 1; ; attempts++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		in, err := t.exchange(out)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		if in != Busy {
			return in, nil
		}
		if t.Retry.Exhausted(attempts) {
			return 0, &RetryError{Op: op, Attempts: attempts}
		}
		if glog.V(4) {
			glog.Infof("%s 0x%02x: busy, attempt %d", op, out, attempts)
		}
		if err = t.sleep(ctx, t.Retry.Interval); err != nil {
			return 0, err
		}
	}
}

// exchange asserts chip select for exactly one byte.
func (t *Transceiver) exchange(out byte) (in byte, err error) {
	if err = t.Link.Select(); err != nil {
		return 0, fmt.Errorf("select: %w", err)
	}
	in, err = t.Link.Transfer(out)
	if derr := t.Link.Deselect(); derr != nil && err == nil {
		err = fmt.Errorf("deselect: %w", derr)
	}
	return
}

func (t *Transceiver) sleep(ctx context.Context, d time.Duration) error {
	if fn := t.Sleep; fn != nil {
		return fn(ctx, d)
	}
	return Sleep(ctx, d)
}
