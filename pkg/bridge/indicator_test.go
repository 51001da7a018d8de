package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"

	fx "github.com/robotalks/sdep.go/pkg/framework"
)

type fakeLED struct {
	levels []gpio.Level
}

func (l *fakeLED) Out(level gpio.Level) error {
	l.levels = append(l.levels, level)
	return nil
}

type fakeIteration struct {
	now time.Time
}

func (it *fakeIteration) Context() context.Context { return context.Background() }
func (it *fakeIteration) Time() time.Time { return it.now }
func (it *fakeIteration) ProcessMessages(func(fx.Message) bool) {}
func (it *fakeIteration) PostMessage(fx.Message) {}
func (it *fakeIteration) TriggerNext() {}

func TestIndicator(t *testing.T) {
	led := &fakeLED{}
	ind := &Indicator{LED: led}
	it := &fakeIteration{now: time.Unix(100, 0)}
	for _, d := range []time.Duration{0, 300 * time.Millisecond, 700 * time.Millisecond, 1200 * time.Millisecond, 2100 * time.Millisecond} {
		it.now = time.Unix(100, 0).Add(d)
		require.NoError(t, ind.Poll(it))
	}
	require.Equal(t, []gpio.Level{gpio.Low, gpio.High, gpio.Low}, led.levels)
}
