package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Message is anything posted to the loop for tasks to consume.
type Message interface{}

// Task is polled once per loop iteration. A task owns whatever it
// touches for the duration of Poll; tasks never run concurrently.
type Task interface {
	Poll(Iteration) error
}

// PollFunc is the func form of Task.
type PollFunc func(Iteration) error

// Poll implements Task.
func (f PollFunc) Poll(it Iteration) error {
	return f(it)
}

// Iteration is the context of the current loop pass.
type Iteration interface {
	// Context retrieves context.Context.
	Context() context.Context
	// Time is when the iteration started.
	Time() time.Time
	// ProcessMessages hands every queued message to fn. Messages for
	// which fn returns true are removed.
	ProcessMessages(fn func(Message) bool)

	LoopControl
}

// Priority levels, lower runs first.
const (
	PrLvInput int = iota
	PrLvRemote
	PrLvIdle

	PriorityLevels
)

// LoopControl exposes access to the loop from runnables.
type LoopControl interface {
	// PostMessage enqueues the message for the next iteration.
	PostMessage(Message)
	// TriggerNext schedules the next iteration immediately.
	TriggerNext()
}
