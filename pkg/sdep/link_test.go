package sdep

import (
	"context"
	"errors"
	"time"
)

// scriptLink answers each Transfer with the next scripted byte.
type scriptLink struct {
	replies  []byte
	fallback byte
	sent     []byte
	selected bool
	selects  int
	err      error
}

func newScriptLink(replies ...byte) *scriptLink {
	return &scriptLink{replies: replies, fallback: Busy}
}

func (l *scriptLink) Select() error {
	if l.selected {
		return errors.New("already selected")
	}
	l.selected = true
	l.selects++
	return nil
}

func (l *scriptLink) Deselect() error {
	if !l.selected {
		return errors.New("not selected")
	}
	l.selected = false
	return nil
}

func (l *scriptLink) Transfer(b byte) (byte, error) {
	if !l.selected {
		return 0, errors.New("transfer without select")
	}
	if l.err != nil {
		return 0, l.err
	}
	l.sent = append(l.sent, b)
	if len(l.replies) == 0 {
		return l.fallback, nil
	}
	r := l.replies[0]
	l.replies = l.replies[1:]
	return r, nil
}

type sleepRecorder struct {
	sleeps []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.sleeps = append(r.sleeps, d)
	return ctx.Err()
}

func newTestTransceiver(link Link) (*Transceiver, *sleepRecorder) {
	rec := &sleepRecorder{}
	t := NewTransceiver(link)
	t.Sleep = rec.sleep
	return t, rec
}
