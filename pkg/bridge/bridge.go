// Package bridge wires the console, the SDEP client and remote front ends
// into the control loop.
package bridge

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/sdep.go/pkg/console"
	fx "github.com/robotalks/sdep.go/pkg/framework"
	"github.com/robotalks/sdep.go/pkg/sdep"
)

// RemoteCommand is a command line received from a remote front end.
type RemoteCommand struct {
	Source string
	Text   string
}

// SourceConsole is the source of command lines typed on the console.
const SourceConsole = "console"

// ExchangeObserver is notified after every dispatched command.
// source is SourceConsole or the RemoteCommand source.
type ExchangeObserver interface {
	ExchangeDone(source, cmd string, reply *sdep.Message, err error)
}

// ExchangeDoneFunc is func type of ExchangeObserver.
type ExchangeDoneFunc func(string, string, *sdep.Message, error)

// ExchangeDone implements ExchangeObserver.
func (f ExchangeDoneFunc) ExchangeDone(source, cmd string, reply *sdep.Message, err error) {
	f(source, cmd, reply, err)
}

// Bridge feeds console bytes to the line editor and dispatches complete
// lines through the client, all on the loop goroutine.
type Bridge struct {
	Console   *console.Console
	Client    *sdep.Client
	Observers []ExchangeObserver

	acc *console.Accumulator
}

// New creates a Bridge.
func New(con *console.Console, client *sdep.Client) *Bridge {
	return &Bridge{
		Console: con,
		Client:  client,
		acc:     console.NewAccumulator(con),
	}
}

// SetEcho turns console echo on or off.
func (b *Bridge) SetEcho(en bool) *Bridge {
	if en {
		b.acc.Echo = b.Console
	} else {
		b.acc.Echo = nil
	}
	return b
}

// Observe adds observers.
func (b *Bridge) Observe(observers ...ExchangeObserver) *Bridge {
	b.Observers = append(b.Observers, observers...)
	return b
}

// AddToLoop implements LoopAdder.
func (b *Bridge) AddToLoop(l *fx.Loop) {
	b.Console.OnInput = l.TriggerNext
	l.AddTask(fx.PrLvInput, fx.PollFunc(b.pollConsole))
	l.AddTask(fx.PrLvRemote, fx.PollFunc(b.pollRemote))
}

func (b *Bridge) pollConsole(it fx.Iteration) error {
	for b.Console.Pending() {
		c, err := b.Console.ReadByte()
		if err != nil {
			return nil
		}
		line, ok := b.acc.Feed(c)
		if !ok {
			continue
		}
		if err = b.dispatch(it.Context(), SourceConsole, line); err == sdep.ErrReset {
			return nil
		}
	}
	return nil
}

func (b *Bridge) pollRemote(it fx.Iteration) error {
	var reset bool
	it.ProcessMessages(func(msg fx.Message) bool {
		cmd, ok := msg.(*RemoteCommand)
		if !ok || reset {
			return false
		}
		fmt.Fprintf(b.Console, "[%s] %s\n", cmd.Source, cmd.Text)
		reset = b.dispatch(it.Context(), cmd.Source, cmd.Text) == sdep.ErrReset
		return true
	})
	return nil
}

func (b *Bridge) dispatch(ctx context.Context, source, cmd string) error {
	reply, err := b.Client.Dispatch(ctx, cmd, b.Console)
	if err != nil && err != sdep.ErrReset {
		glog.Warningf("command %q failed: %v", cmd, err)
	}
	for _, o := range b.Observers {
		o.ExchangeDone(source, cmd, reply, err)
	}
	return err
}
