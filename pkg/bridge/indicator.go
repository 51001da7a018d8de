package bridge

import (
	"periph.io/x/conn/v3/gpio"

	fx "github.com/robotalks/sdep.go/pkg/framework"
)

// LED is the output driving the indicator.
type LED interface {
	Out(gpio.Level) error
}

// Indicator toggles an LED once per second while the loop is alive.
type Indicator struct {
	LED LED

	lastSecond int64
}

// AddToLoop implements LoopAdder.
func (i *Indicator) AddToLoop(l *fx.Loop) {
	l.AddTask(fx.PrLvIdle, i)
}

// Poll implements Task.
func (i *Indicator) Poll(it fx.Iteration) error {
	sec := it.Time().Unix()
	if sec == i.lastSecond {
		return nil
	}
	i.lastSecond = sec
	return i.LED.Out(gpio.Level(sec%2 == 1))
}
