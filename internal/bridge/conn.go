package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codeberg.org/mutker/pointbridge/internal/errors"
	"codeberg.org/mutker/pointbridge/internal/logger"
	"github.com/gorilla/websocket"
)

// ConnectionManager owns the single persistent connection of a bridge.
// All other components only observe its state; the handle itself is
// never exposed.
type ConnectionManager struct {
	mu      sync.RWMutex
	writeMu sync.Mutex
	state   State
	conn    *websocket.Conn
	gen     uint64
	onState func(State)

	errFactory errors.Factory
}

func NewConnectionManager(onState func(State)) *ConnectionManager {
	return &ConnectionManager{
		state:      StateDisconnected,
		onState:    onState,
		errFactory: errors.New(),
	}
}

// State returns the current connection state.
func (m *ConnectionManager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Connect opens the connection to the given endpoint. Idempotent: a
// no-op when already connecting or connected. On failure the state
// returns to disconnected and the error is non-fatal; Connect may be
// retried.
func (m *ConnectionManager) Connect(ctx context.Context, endpoint string) error {
	m.mu.Lock()
	if m.state != StateDisconnected {
		m.mu.Unlock()
		return nil
	}
	m.gen++
	gen := m.gen
	m.state = StateConnecting
	m.mu.Unlock()
	m.notify(StateConnecting)

	dialer := &websocket.Dialer{HandshakeTimeout: connectTimeout}
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		m.mu.Lock()
		if m.gen == gen && m.state == StateConnecting {
			m.state = StateDisconnected
		}
		m.mu.Unlock()
		m.notify(StateDisconnected)

		if resp != nil {
			return m.errFactory.Wrap(ErrConnectFailed,
				fmt.Errorf("dial %s (status %d): %w", endpoint, resp.StatusCode, err))
		}
		return m.errFactory.Wrap(ErrConnectFailed, fmt.Errorf("dial %s: %w", endpoint, err))
	}

	m.mu.Lock()
	if m.gen != gen || m.state != StateConnecting {
		// Disconnect raced the dial; drop the fresh connection.
		m.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	m.conn = conn
	m.state = StateConnected
	m.mu.Unlock()
	m.notify(StateConnected)

	logger.Info().Str("endpoint", endpoint).Msg("Connected")
	go m.watch(conn, gen)

	return nil
}

// Disconnect closes the connection. Idempotent: a no-op when already
// disconnected. Once it returns, no further send can reach the wire.
func (m *ConnectionManager) Disconnect() error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	if m.state == StateDisconnected {
		m.mu.Unlock()
		return nil
	}
	conn := m.conn
	m.conn = nil
	m.state = StateDisconnected
	m.gen++
	m.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGrace))
		_ = conn.Close()
	}
	m.notify(StateDisconnected)

	logger.Info().Msg("Disconnected")
	return nil
}

// WriteText writes one text frame to the connection, preserving send
// order. Fails without network I/O when not connected.
func (m *ConnectionManager) WriteText(data []byte) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	conn, st, gen := m.conn, m.state, m.gen
	m.mu.RUnlock()

	if st != StateConnected || conn == nil {
		return m.errFactory.New(ErrNotConnected)
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		m.transportError(conn, gen, err)
		return m.errFactory.Wrap(ErrSendFailed, err)
	}

	return nil
}

// watch blocks on the read side of the connection to observe remote
// close and transport failures.
func (m *ConnectionManager) watch(conn *websocket.Conn, gen uint64) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			m.transportError(conn, gen, err)
			return
		}
	}
}

// transportError forces the state to disconnected after an unexpected
// close or transport failure. Not fatal; the bridge stays usable and
// Connect may be retried.
func (m *ConnectionManager) transportError(conn *websocket.Conn, gen uint64, err error) {
	m.mu.Lock()
	if m.gen != gen || m.conn != conn {
		// A newer connection took over; nothing to do.
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.state = StateDisconnected
	m.mu.Unlock()
	_ = conn.Close()

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		logger.Info().Msg("Connection closed by remote")
	} else {
		logger.ErrorWithCode(m.errFactory.Wrap(ErrRemoteClosed, err)).
			Msg("Connection lost")
	}
	m.notify(StateDisconnected)
}

func (m *ConnectionManager) notify(st State) {
	if m.onState != nil {
		m.onState(st)
	}
}
