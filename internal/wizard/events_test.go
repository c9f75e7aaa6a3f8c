package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversPerSession(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe("s1", 4)
	b, cancelB := h.Subscribe("s2", 4)
	defer cancelB()

	h.Publish(Event{Kind: EventState, SessionID: "s1"})

	select {
	case e := <-a:
		assert.Equal(t, EventState, e.Kind)
	default:
		t.Fatal("expected event for s1")
	}
	select {
	case <-b:
		t.Fatal("s2 must not receive s1 events")
	default:
	}

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 0, h.Subscribers("s1"))
	assert.Equal(t, 1, h.Subscribers("s2"))
}

func TestHubDropsWhenFull(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("s1", 1)
	defer cancel()

	h.Publish(Event{Kind: EventState, SessionID: "s1"})
	h.Publish(Event{Kind: EventStep, SessionID: "s1"})

	e := <-ch
	assert.Equal(t, EventState, e.Kind)
	require.Len(t, ch, 0)
}

func TestNilHubPublish(t *testing.T) {
	var h *Hub
	h.Publish(Event{SessionID: "s1"})
}
