package bridge

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// testServer is a WebSocket endpoint that records every text frame it
// receives.
type testServer struct {
	srv      *httptest.Server
	mu       sync.Mutex
	frames   [][]byte
	conns    []*websocket.Conn
	upgrades atomic.Int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{}
	upgrader := websocket.Upgrader{}

	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ts.upgrades.Add(1)
		ts.mu.Lock()
		ts.conns = append(ts.conns, conn)
		ts.mu.Unlock()
		defer conn.Close()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			ts.mu.Lock()
			ts.frames = append(ts.frames, data)
			ts.mu.Unlock()
		}
	}))
	t.Cleanup(ts.srv.Close)

	return ts
}

// URL returns the ws:// endpoint of the server.
func (ts *testServer) URL() string {
	return "ws" + strings.TrimPrefix(ts.srv.URL, "http")
}

func (ts *testServer) FrameCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.frames)
}

func (ts *testServer) Frames() [][]byte {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	out := make([][]byte, len(ts.frames))
	copy(out, ts.frames)
	return out
}

func (ts *testServer) Upgrades() int64 {
	return ts.upgrades.Load()
}

// CloseConns closes every accepted connection from the server side.
func (ts *testServer) CloseConns() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for _, conn := range ts.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	ts.conns = nil
}
