package diag

import (
	"context"

	"github.com/coder/websocket"
)

// wsChannel adapts a coder/websocket.Conn to the jrpc2 Channel interface so
// one WebSocket connection carries one JSON-RPC session.
type wsChannel struct {
	conn *websocket.Conn
	ctx  context.Context
}

// Send writes a JSON-RPC message to the connection.
func (c *wsChannel) Send(data []byte) error {
	return c.conn.Write(c.ctx, websocket.MessageText, data)
}

// Recv reads the next JSON-RPC message from the connection.
func (c *wsChannel) Recv() ([]byte, error) {
	_, data, err := c.conn.Read(c.ctx)
	return data, err
}

// Close shuts the connection down with a normal closure status.
func (c *wsChannel) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
