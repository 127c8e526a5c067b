package inspector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.Publish(Event{Kind: "fetch", Layer: "data", Detail: "ok"})

	for _, ch := range []chan Event{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, "fetch", ev.Kind)
			assert.False(t, ev.Time.IsZero(), "publish stamps the time")
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	_, open := <-ch
	require.False(t, open)

	// Publishing after unsubscribe must not panic on the closed channel.
	bus.Publish(Event{Kind: "layer"})
}

func TestBusSlowSubscriberDropsEvents(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	for i := 0; i < 200; i++ {
		bus.Publish(Event{Kind: "viewport"})
	}
	// The buffer bounds what a stalled subscriber can accumulate.
	assert.LessOrEqual(t, len(ch), 64)
}
