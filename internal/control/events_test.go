package control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_FanOut(t *testing.T) {
	bus := NewBus()
	first := bus.Subscribe(4)
	second := bus.Subscribe(4)

	bus.Publish(Event{Name: EventExtend, Seconds: 30})

	assert.Equal(t, Event{Name: EventExtend, Seconds: 30}, <-first)
	assert.Equal(t, Event{Name: EventExtend, Seconds: 30}, <-second)
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	bus := NewBus()
	events := bus.Subscribe(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(Event{Name: EventToggle})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Len(t, events, 1)
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()

	assert.NotPanics(t, func() { bus.Publish(Event{Name: EventIdlePause}) })
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()
	events := bus.Subscribe(1)

	bus.Close()
	bus.Close()
	bus.Publish(Event{Name: EventSkip})

	_, open := <-events
	assert.False(t, open)

	late := bus.Subscribe(1)
	_, open = <-late
	require.False(t, open)
}
