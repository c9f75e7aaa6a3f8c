package wizard

import "sync"

// EventKind tags a session event.
type EventKind string

const (
	EventState        EventKind = "state"
	EventStep         EventKind = "step"
	EventAvailability EventKind = "availability"
)

// Event is pushed to listeners of one session.
type Event struct {
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"session_id"`
	Payload   any       `json:"payload,omitempty"`
}

// Hub fans session events out to subscribers. Slow subscribers drop events
// rather than block publishers.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan Event
}

// NewHub builds an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan Event)}
}

// Subscribe registers a listener for sessionID. The returned cancel func
// closes the channel and must be called once.
func (h *Hub) Subscribe(sessionID string, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	id := h.next
	h.next++
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[int]chan Event)
	}
	h.subs[sessionID][id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.subs[sessionID]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(h.subs, sessionID)
				}
			}
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber of its session.
func (h *Hub) Publish(e Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[e.SessionID] {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribers counts listeners of sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}
