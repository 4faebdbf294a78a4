package websocket

import (
	"github.com/gorilla/websocket"
)

// connWrapper adapts *websocket.Conn to Connection. Only RemoteAddr differs
// in signature; the rest is promoted from the embedded conn.
type connWrapper struct {
	*websocket.Conn
}

// NewConnectionWrapper wraps a gorilla connection
func NewConnectionWrapper(conn *websocket.Conn) Connection {
	return connWrapper{Conn: conn}
}

// RemoteAddr returns the peer address as a string
func (c connWrapper) RemoteAddr() string {
	if addr := c.Conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
