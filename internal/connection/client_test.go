package connection

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// serverEndpoint points an Endpoint at an httptest server.
func serverEndpoint(t *testing.T, server *httptest.Server) Endpoint {
	t.Helper()
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	return Endpoint{Host: u.Hostname(), Port: u.Port(), Path: DefaultPath}
}

// eventRecorder collects transport events.
type eventRecorder struct {
	mu     sync.Mutex
	events []TransportEvent
	ch     chan TransportEvent
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{ch: make(chan TransportEvent, 64)}
}

func (r *eventRecorder) handle(ev TransportEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.ch <- ev
}

func (r *eventRecorder) next(t *testing.T) TransportEvent {
	t.Helper()
	select {
	case ev := <-r.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for transport event")
		return TransportEvent{}
	}
}

func (r *eventRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestClient_DialOpensAndReceives(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"auth_required"}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	rec := newEventRecorder()
	d := NewWSDialer(DefaultClientConfig(), discardLogger())
	tr := d.Dial(wsURL(server)+DefaultPath, rec.handle)
	defer tr.Close()

	if ev := rec.next(t); ev.Kind != TransportOpened {
		t.Fatalf("first event = %v, want opened", ev.Kind)
	}
	ev := rec.next(t)
	if ev.Kind != TransportMessage {
		t.Fatalf("second event = %v, want message", ev.Kind)
	}
	if string(ev.Data) != `{"type":"auth_required"}` {
		t.Errorf("data = %s", ev.Data)
	}
}

func TestClient_SendWritesJSON(t *testing.T) {
	received := make(chan []byte, 1)
	server := mockWSServer(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- msg
		conn.ReadMessage()
	})
	defer server.Close()

	rec := newEventRecorder()
	d := NewWSDialer(DefaultClientConfig(), discardLogger())
	tr := d.Dial(wsURL(server), rec.handle)
	defer tr.Close()

	if ev := rec.next(t); ev.Kind != TransportOpened {
		t.Fatalf("first event = %v, want opened", ev.Kind)
	}

	if err := tr.Send(map[string]any{"type": "ping", "id": 7}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case msg := <-received:
		var m map[string]any
		if err := json.Unmarshal(msg, &m); err != nil {
			t.Fatalf("server got invalid json: %v", err)
		}
		if m["type"] != "ping" {
			t.Errorf("type = %v, want ping", m["type"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive frame")
	}
}

func TestClient_SendBeforeOpen(t *testing.T) {
	c := &client{done: make(chan struct{})}
	if err := c.Send(map[string]string{"type": "ping"}); err != ErrNotConnected {
		t.Errorf("Send error = %v, want ErrNotConnected", err)
	}
}

func TestClient_DialFailureReportsError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	rec := newEventRecorder()
	d := NewWSDialer(DefaultClientConfig(), discardLogger())
	tr := d.Dial(wsURL(server), rec.handle)
	defer tr.Close()

	ev := rec.next(t)
	if ev.Kind != TransportError {
		t.Fatalf("event = %v, want error", ev.Kind)
	}
	if ev.Err == nil {
		t.Error("expected dial error")
	}
}

func TestClient_ServerCloseReportsClosed(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "restart"))
		time.Sleep(50 * time.Millisecond)
	})
	defer server.Close()

	rec := newEventRecorder()
	d := NewWSDialer(DefaultClientConfig(), discardLogger())
	tr := d.Dial(wsURL(server), rec.handle)
	defer tr.Close()

	if ev := rec.next(t); ev.Kind != TransportOpened {
		t.Fatalf("first event = %v, want opened", ev.Kind)
	}
	if ev := rec.next(t); ev.Kind != TransportClosed {
		t.Errorf("second event = %v, want closed", ev.Kind)
	}
}

func TestClient_CloseDetaches(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	rec := newEventRecorder()
	d := NewWSDialer(DefaultClientConfig(), discardLogger())
	tr := d.Dial(wsURL(server), rec.handle)

	if ev := rec.next(t); ev.Kind != TransportOpened {
		t.Fatalf("first event = %v, want opened", ev.Kind)
	}

	if err := tr.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if n := rec.count(); n != 1 {
		t.Errorf("events after Close = %d, want only the open event", n)
	}
	if err := tr.Send(map[string]string{"type": "ping"}); err != ErrNotConnected {
		t.Errorf("Send after Close = %v, want ErrNotConnected", err)
	}
}
