package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubPublishSubscribe(t *testing.T) {
	h := NewHub(nil)
	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	h.Publish(Event{Type: EventPlay, Data: "x"})
	assert.Equal(t, EventPlay, (<-a).Type)
	assert.Equal(t, EventPlay, (<-b).Type)

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, h.Subscribers())

	cancelB()
	assert.Equal(t, 0, h.Subscribers())
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		h.Publish(Event{Type: EventState})
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestHubClose(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe()
	h.Close()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	late, _ := h.Subscribe()
	_, open = <-late
	assert.False(t, open)
	h.Publish(Event{Type: EventState})
}
