package core

import (
	"reflect"
	"sync"
)

// Events published by the platform layer. Handlers receive the concrete
// value, there is no untyped payload to unpack.
type (
	WindowResized struct {
		Width  int
		Height int
	}
	KeyPressed struct {
		Key KeyCode
	}
	KeyReleased struct {
		Key KeyCode
	}
	ButtonPressed struct {
		Button Button
	}
	ButtonReleased struct {
		Button Button
	}
	MouseMoved struct {
		X float64
		Y float64
	}
	ApplicationQuit struct{}
)

// Handler should return true if it consumed the event. Later subscribers
// are then skipped.
type Handler[T any] func(event T) bool

type subscription struct {
	id uint64
	fn func(any) bool
}

// EventBus dispatches events synchronously on the publishing goroutine.
type EventBus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[reflect.Type][]subscription
}

func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[reflect.Type][]subscription),
	}
}

// Subscribe registers fn for events of type T and returns a function that
// removes the registration again. Calling it twice is a no-op.
func Subscribe[T any](bus *EventBus, fn Handler[T]) (unsubscribe func()) {
	key := reflect.TypeOf((*T)(nil)).Elem()

	bus.mu.Lock()
	bus.nextID++
	id := bus.nextID
	bus.subs[key] = append(bus.subs[key], subscription{
		id: id,
		fn: func(e any) bool { return fn(e.(T)) },
	})
	bus.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			bus.mu.Lock()
			defer bus.mu.Unlock()
			list := bus.subs[key]
			for i := range list {
				if list[i].id == id {
					bus.subs[key] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers event to the subscribers of its type in registration
// order. It reports whether any handler consumed it.
func Publish[T any](bus *EventBus, event T) bool {
	bus.mu.RLock()
	list := bus.subs[reflect.TypeOf((*T)(nil)).Elem()]
	// handlers may (un)subscribe while we iterate
	snapshot := make([]subscription, len(list))
	copy(snapshot, list)
	bus.mu.RUnlock()

	for _, s := range snapshot {
		if s.fn(event) {
			return true
		}
	}
	return false
}

// Clear drops every subscription.
func (bus *EventBus) Clear() {
	bus.mu.Lock()
	bus.subs = make(map[reflect.Type][]subscription)
	bus.mu.Unlock()
}
