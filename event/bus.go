// Package event carries simulation lifecycle notifications on a
// double-buffered bus: events emitted during tick N are delivered at the
// start of tick N+1, so subscribers never run in the middle of an agent
// activation pass. Single-goroutine use, matching the core's cooperative
// execution model.
package event

import (
	"reflect"

	"github.com/emmagras/mesa/core"
)

// AgentAdded is emitted when an agent joins the registry through the model.
type AgentAdded struct {
	ID   core.AgentID
	Step int
}

// AgentRemoved is emitted when an agent leaves the registry through the model.
type AgentRemoved struct {
	ID   core.AgentID
	Step int
}

// StepCompleted is emitted after a tick fully completes.
type StepCompleted struct {
	Step   int
	Agents int
}

// Bus is a double-buffered event bus. SwapBuffers rotates the buffers at
// tick start; DispatchAll then delivers the previous tick's events.
type Bus struct {
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event into the back buffer for delivery next tick.
func Emit[T any](b *Bus, ev T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.back[t] = append(b.back[t], ev)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// SwapBuffers rotates back→front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}

// DispatchAll delivers every front-buffer event to its subscribed
// handlers, then drops them.
func (b *Bus) DispatchAll() {
	for t, events := range b.front {
		handlers := b.handlers[t]
		for _, ev := range events {
			for _, h := range handlers {
				// Safe: Subscribe and Emit key handlers and events by the
				// same concrete type.
				reflect.ValueOf(h).Call([]reflect.Value{reflect.ValueOf(ev)})
			}
		}
		b.front[t] = b.front[t][:0]
	}
}

// Clear drops all buffered events. Handler registrations survive.
func (b *Bus) Clear() {
	for k := range b.front {
		b.front[k] = b.front[k][:0]
	}
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}
