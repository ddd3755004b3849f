package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// statusRecorder collects status transitions for assertions.
type statusRecorder struct {
	mu       sync.Mutex
	statuses []Status
}

func (r *statusRecorder) record(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *statusRecorder) seen(want Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.statuses {
		if s == want {
			return true
		}
	}
	return false
}

func (r *statusRecorder) all() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, len(r.statuses))
	copy(out, r.statuses)
	return out
}

func newTestServer(t *testing.T, handler func(conn *websocket.Conn, r *http.Request)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		handler(conn, r)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestWSChannel_ConnectSendReceive(t *testing.T) {
	var mu sync.Mutex
	var gotFrame []byte
	var gotAuth, gotSession string

	url := newTestServer(t, func(conn *websocket.Conn, r *http.Request) {
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		gotSession = r.Header.Get("X-Session-ID")
		mu.Unlock()

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		mu.Lock()
		gotFrame = data
		mu.Unlock()

		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"metadata"}`))
		// Keep the connection open until the client disconnects.
		conn.ReadMessage()
	})

	rec := &statusRecorder{}
	var msgs [][]byte
	ch := NewWSChannel(url, "test-token")
	ch.OnStatus(rec.record)
	ch.OnMessage(func(data []byte) {
		mu.Lock()
		msgs = append(msgs, data)
		mu.Unlock()
	})

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer ch.Dispose()

	if got := rec.all(); len(got) < 2 || got[0] != StatusConnecting || got[1] != StatusConnected {
		t.Fatalf("status sequence: got %v", got)
	}

	if err := ch.Send([]byte{0xFF, 0xD8, 1, 2}); err != nil {
		t.Fatalf("send: %v", err)
	}

	waitFor(t, 3*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotFrame != nil && len(msgs) > 0
	}, "round trip")

	mu.Lock()
	defer mu.Unlock()
	if gotAuth != "Bearer test-token" {
		t.Errorf("auth header: got %q", gotAuth)
	}
	if gotSession == "" {
		t.Error("session header missing")
	}
	if string(msgs[0]) != `{"type":"metadata"}` {
		t.Errorf("inbound message: got %s", msgs[0])
	}
	if len(gotFrame) != 4 {
		t.Errorf("outbound frame: got %d bytes", len(gotFrame))
	}
}

func TestWSChannel_ServerDropSurfacesErrorThenDisconnected(t *testing.T) {
	url := newTestServer(t, func(conn *websocket.Conn, r *http.Request) {
		conn.Close()
	})

	rec := &statusRecorder{}
	var errs []error
	var mu sync.Mutex

	ch := NewWSChannel(url, "")
	ch.OnStatus(rec.record)
	ch.OnError(func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	})

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer ch.Dispose()

	waitFor(t, 3*time.Second, func() bool {
		return rec.seen(StatusError) && rec.seen(StatusDisconnected)
	}, "error and disconnected statuses")

	mu.Lock()
	defer mu.Unlock()
	if len(errs) == 0 {
		t.Error("no error delivered")
	}

	if ch.Status() != StatusDisconnected {
		t.Errorf("final status: got %s", ch.Status())
	}
}

func TestWSChannel_SendWhenNotConnected(t *testing.T) {
	ch := NewWSChannel("ws://localhost:1/detect", "")
	if err := ch.Send([]byte{1}); err != ErrNotConnected {
		t.Errorf("got %v, want ErrNotConnected", err)
	}
}

func TestWSChannel_DialFailure(t *testing.T) {
	ch := NewWSChannel("ws://127.0.0.1:1/unreachable", "")
	rec := &statusRecorder{}
	ch.OnStatus(rec.record)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := ch.Connect(ctx); err == nil {
		t.Fatal("expected dial error")
	}
	if !rec.seen(StatusError) || !rec.seen(StatusDisconnected) {
		t.Errorf("status sequence: got %v", rec.all())
	}
}

func TestWSChannel_DisposeIsIdempotentAndTerminal(t *testing.T) {
	url := newTestServer(t, func(conn *websocket.Conn, r *http.Request) {
		conn.ReadMessage()
	})

	rec := &statusRecorder{}
	ch := NewWSChannel(url, "")
	ch.OnStatus(rec.record)
	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	ch.Dispose()
	ch.Dispose()

	if err := ch.Send([]byte{1}); err != ErrDisposed {
		t.Errorf("send after dispose: got %v, want ErrDisposed", err)
	}
	if err := ch.Connect(context.Background()); err != ErrDisposed {
		t.Errorf("connect after dispose: got %v, want ErrDisposed", err)
	}

	// No status callbacks after disposal; give stale pumps a moment.
	before := len(rec.all())
	time.Sleep(100 * time.Millisecond)
	if after := len(rec.all()); after != before {
		t.Errorf("statuses after dispose: %v", rec.all()[before:])
	}
}

func TestWSChannel_ReconnectAfterDisconnect(t *testing.T) {
	url := newTestServer(t, func(conn *websocket.Conn, r *http.Request) {
		conn.ReadMessage()
	})

	ch := NewWSChannel(url, "")
	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("first connect: %v", err)
	}
	first := ch.SessionID()

	ch.Disconnect()
	if ch.Status() != StatusDisconnected {
		t.Fatalf("status after disconnect: %s", ch.Status())
	}

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	defer ch.Dispose()

	if ch.Status() != StatusConnected {
		t.Errorf("status after reconnect: %s", ch.Status())
	}
	if ch.SessionID() == first {
		t.Error("reconnect should mint a fresh session ID")
	}
}
