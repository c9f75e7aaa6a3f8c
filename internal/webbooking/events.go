package webbooking

import (
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/salon-booking-wizard/internal/wizard"
)

const eventBuffer = 16

// inboundFrame is what the widget may send on the event socket.
type inboundFrame struct {
	Type string `json:"type"` // "ping"
}

// Events streams session events over a websocket. The first frame is the
// current view; later frames follow state, step and availability changes.
// GET /booking/sessions/{sessionID}/events
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveEvents(conn, session)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveEvents(conn *websocket.Conn, session *wizard.Session) {
	defer conn.Close()

	events, cancel := h.manager.Hub().Subscribe(session.ID(), eventBuffer)
	defer cancel()

	if err := websocket.JSON.Send(conn, wizard.Event{
		Kind:      wizard.EventState,
		SessionID: session.ID(),
		Payload:   session.View(),
	}); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var frame inboundFrame
			if err := websocket.JSON.Receive(conn, &frame); err != nil {
				return
			}
			if frame.Type == "ping" {
				_ = websocket.JSON.Send(conn, map[string]string{"type": "pong"})
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := websocket.JSON.Send(conn, e); err != nil {
				h.logger.Debug("booking event socket closed", "session_id", session.ID(), "error", err)
				return
			}
		}
	}
}
