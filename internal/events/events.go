// Package events carries engine notifications to interested subscribers.
package events

import (
	"time"

	"github.com/kelindar/event"
)

// Event type constants for kelindar/event.
const (
	TypeSequenceCompleted uint32 = iota + 1
	TypeAnimationChanged
	TypeConfigReloaded
)

// Event is the interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SequenceCompleted is published each time the playing animation wraps.
type SequenceCompleted struct {
	Completions uint64    `json:"completions"`
	At          time.Time `json:"at"`
}

func (SequenceCompleted) Type() uint32 { return TypeSequenceCompleted }

// AnimationChanged is published when a new animation is loaded.
type AnimationChanged struct {
	Name   string `json:"name"`
	Frames int    `json:"frames"`
	Loop   bool   `json:"loop"`
}

func (AnimationChanged) Type() uint32 { return TypeAnimationChanged }

// ConfigReloaded is published after a changed config file has been applied.
type ConfigReloaded struct {
	Path string `json:"path"`
}

func (ConfigReloaded) Type() uint32 { return TypeConfigReloaded }

// Bus wraps a kelindar/event dispatcher. Handlers run on the dispatcher's
// goroutines, never on the publisher's.
type Bus struct {
	dispatcher *event.Dispatcher
}

func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish sends ev to every subscriber of its type.
func Publish[T Event](b *Bus, ev T) {
	event.Publish(b.dispatcher, ev)
}

// Subscribe registers fn for events of type T and returns the unsubscribe
// function.
func Subscribe[T Event](b *Bus, fn func(T)) func() {
	return event.Subscribe(b.dispatcher, fn)
}

// SubscribeAll forwards every known event type to fn.
func SubscribeAll(b *Bus, fn func(Event)) func() {
	cancels := []func(){
		Subscribe(b, func(e SequenceCompleted) { fn(e) }),
		Subscribe(b, func(e AnimationChanged) { fn(e) }),
		Subscribe(b, func(e ConfigReloaded) { fn(e) }),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

// Name is a short label for ev used on the wire.
func Name(ev Event) string {
	switch ev.Type() {
	case TypeSequenceCompleted:
		return "sequence_completed"
	case TypeAnimationChanged:
		return "animation_changed"
	case TypeConfigReloaded:
		return "config_reloaded"
	default:
		return "unknown"
	}
}
