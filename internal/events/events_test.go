package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		require.FailNow(t, "event not delivered")
	}
	var zero T
	return zero
}

func TestPublishSubscribe(t *testing.T) {
	bus := New()
	got := make(chan AnimationChanged, 1)
	unsub := Subscribe(bus, func(e AnimationChanged) { got <- e })
	defer unsub()

	Publish(bus, AnimationChanged{Name: "heart", Frames: 8, Loop: true})
	assert.Equal(t, AnimationChanged{Name: "heart", Frames: 8, Loop: true}, recv(t, got))
}

func TestSubscribersOnlySeeTheirType(t *testing.T) {
	bus := New()
	done := make(chan SequenceCompleted, 1)
	reloaded := make(chan ConfigReloaded, 1)
	defer Subscribe(bus, func(e SequenceCompleted) { done <- e })()
	defer Subscribe(bus, func(e ConfigReloaded) { reloaded <- e })()

	Publish(bus, ConfigReloaded{Path: "/etc/charlieplex.yaml"})
	assert.Equal(t, "/etc/charlieplex.yaml", recv(t, reloaded).Path)

	select {
	case <-done:
		t.Fatal("sequence handler received a config event")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := New()
	got := make(chan SequenceCompleted, 2)
	unsub := Subscribe(bus, func(e SequenceCompleted) { got <- e })

	Publish(bus, SequenceCompleted{Completions: 1})
	recv(t, got)
	unsub()

	Publish(bus, SequenceCompleted{Completions: 2})
	select {
	case <-got:
		t.Fatal("received after unsubscribe")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSubscribeAll(t *testing.T) {
	bus := New()
	got := make(chan Event, 3)
	unsub := SubscribeAll(bus, func(e Event) { got <- e })
	defer unsub()

	Publish(bus, SequenceCompleted{Completions: 3})
	Publish(bus, AnimationChanged{Name: "sweep"})
	Publish(bus, ConfigReloaded{Path: "c.yaml"})

	names := map[string]bool{}
	for i := 0; i < 3; i++ {
		names[Name(recv(t, got))] = true
	}
	assert.Equal(t, map[string]bool{
		"sequence_completed": true,
		"animation_changed":  true,
		"config_reloaded":    true,
	}, names)
}
