package webbooking

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

type eventFrame struct {
	Kind      string   `json:"kind"`
	SessionID string   `json:"session_id"`
	Payload   viewBody `json:"payload"`
}

func dialEvents(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/booking/sessions/" + sessionID + "/events"
	conn, err := websocket.Dial(url, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestEvents_StreamsInitialViewAndStateChanges(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	v := ts.open(t, nil)
	conn := dialEvents(t, srv, v.SessionID)

	var first eventFrame
	require.NoError(t, websocket.JSON.Receive(conn, &first))
	assert.Equal(t, "state", first.Kind)
	assert.Equal(t, v.SessionID, first.SessionID)
	assert.Equal(t, v.SessionID, first.Payload.SessionID)

	require.Eventually(t, func() bool {
		return ts.manager.Hub().Subscribers(v.SessionID) == 1
	}, time.Second, 10*time.Millisecond)

	rec := ts.do(t, http.MethodPost, "/booking/sessions/"+v.SessionID+"/services/toggle", map[string]string{"service_id": "s1"})
	require.Equal(t, http.StatusOK, rec.Code)

	for {
		var e eventFrame
		require.NoError(t, websocket.JSON.Receive(conn, &e))
		if e.Kind != "state" {
			continue
		}
		require.Len(t, e.Payload.State.Services, 1)
		assert.Equal(t, "s1", e.Payload.State.Services[0].ID)
		return
	}
}

func TestEvents_Ping(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	v := ts.open(t, nil)
	conn := dialEvents(t, srv, v.SessionID)

	var first eventFrame
	require.NoError(t, websocket.JSON.Receive(conn, &first))
	require.NoError(t, websocket.JSON.Send(conn, map[string]string{"type": "ping"}))

	for {
		var frame map[string]any
		require.NoError(t, websocket.JSON.Receive(conn, &frame))
		if frame["type"] == "pong" {
			return
		}
	}
}

func TestEvents_UnknownSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/booking/sessions/missing/events", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
