package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is the part of *websocket.Conn used by the chat core.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Conn is one live client connection. Writes are serialized because the
// broadcast path and the owning session may write concurrently.
type Conn struct {
	transport    Transport
	info         ConnInfo
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps a transport. A zero writeTimeout disables write deadlines.
func NewConn(transport Transport, info ConnInfo, writeTimeout time.Duration) *Conn {
	return &Conn{transport: transport, info: info, writeTimeout: writeTimeout}
}

func (c *Conn) ID() string {
	return c.info.ConnID
}

func (c *Conn) UserID() string {
	return c.info.UserID
}

func (c *Conn) Info() ConnInfo {
	return c.info
}

func (c *Conn) writeFrame(payload []byte) error {
	return c.writeFrameWithin(payload, c.writeTimeout)
}

// writeFrameWithin writes payload with a deadline of timeout, or of the
// connection's own write timeout when that is shorter or timeout is zero.
func (c *Conn) writeFrameWithin(payload []byte, timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.writeFrameLocked(payload, timeout)
}

// writeFrameLocked requires writeMu to be held.
func (c *Conn) writeFrameLocked(payload []byte, timeout time.Duration) error {
	if timeout <= 0 || (c.writeTimeout > 0 && c.writeTimeout < timeout) {
		timeout = c.writeTimeout
	}
	if timeout > 0 {
		if err := c.transport.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	return c.transport.WriteMessage(websocket.TextMessage, payload)
}

func (c *Conn) writeJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.writeFrame(payload)
}

// greet holds the write lock while register runs and the returned event is
// written, so no broadcast can reach the connection ahead of it.
func (c *Conn) greet(register func() any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	payload, err := json.Marshal(register())
	if err != nil {
		return err
	}
	return c.writeFrameLocked(payload, c.writeTimeout)
}

func (c *Conn) read() ([]byte, error) {
	_, data, err := c.transport.ReadMessage()
	return data, err
}

// Close closes the transport once; later calls return the first result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.transport.Close()
	})
	return c.closeErr
}
