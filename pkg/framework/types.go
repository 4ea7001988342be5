// Package framework provides the control loop shared by controllers and
// clients. Controllers run by priority once per iteration and consume the
// messages posted since the previous iteration.
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

// RunnableFunc is the func form of Runnable.
type RunnableFunc func(context.Context) error

// Run implements Runnable.
func (f RunnableFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Message is consumed by controllers in a loop iteration.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Controller runs once per loop iteration at its priority level.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// LoopControl exposes access to the running loop.
type LoopControl interface {
	// PostMessage enqueues a message for the next iteration.
	PostMessage(Message)
	// TriggerNext runs the next iteration without waiting for the interval.
	TriggerNext()
}

// ControlContext is what a Controller sees of the current iteration.
type ControlContext interface {
	LoopControl
	Context() context.Context
	// Time is when the iteration started.
	Time() time.Time
	PriorityLevel() int
	// Messages are the messages not yet taken by controllers of higher
	// priority.
	Messages() MessageStore
}

// PriorityLevels is the total levels of priorities, 0 runs first.
const PriorityLevels int = 16

// Priority levels
const (
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvIdle   int = PriorityLevels - 1

	// PrLvCommand is where remote commands are handled.
	PrLvCommand = PrLvNormal
	// PrLvReport is where state changes are reported.
	PrLvReport = PrLvIdle - 1
)

// MessageStore holds the messages of an iteration.
type MessageStore interface {
	// ProcessMessages visits messages in posting order.
	ProcessMessages(MessageProcessor)
	// AddMessages appends messages visible to lower priority controllers.
	AddMessages(msgs ...Message)
}

// MessageProcessor is used by MessageStore to process messages.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext provides context for current message.
type MessageProcessingContext interface {
	CurrentMessage() Message
	// MessageTaken removes the message from the store.
	MessageTaken()
	// StopProcessing skips the remaining messages.
	StopProcessing()
	AddMessages(msgs ...Message)
}
