package websocket

import (
	"errors"
	"io"
	"sync"
	"time"
)

// mockConnection records writes and blocks reads until closed
type mockConnection struct {
	mu       sync.Mutex
	written  []mockMessage
	closed   bool
	closedCh chan struct{}
	writeErr error
}

type mockMessage struct {
	Type int
	Data []byte
}

func newMockConnection() *mockConnection {
	return &mockConnection{closedCh: make(chan struct{})}
}

func (m *mockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("connection closed")
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written = append(m.written, mockMessage{Type: messageType, Data: data})
	return nil
}

func (m *mockConnection) ReadMessage() (int, []byte, error) {
	<-m.closedCh
	return 0, nil, io.EOF
}

func (m *mockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.closedCh)
	}
	return nil
}

func (m *mockConnection) SetReadDeadline(time.Time) error { return nil }
func (m *mockConnection) SetWriteDeadline(time.Time) error { return nil }
func (m *mockConnection) SetReadLimit(int64) {}
func (m *mockConnection) SetPongHandler(func(string) error) {}
func (m *mockConnection) RemoteAddr() string { return "127.0.0.1:9999" }

func (m *mockConnection) messages() []mockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mockMessage, len(m.written))
	copy(out, m.written)
	return out
}

func (m *mockConnection) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
