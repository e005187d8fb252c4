package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 32
	maxMessage = 4096
)

// Client serializes writes to one connection. Send never blocks, so it is
// safe to call from timer callbacks; a client that cannot keep up is dropped.
type Client struct {
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient wraps conn and configures read limits and keepalive.
func NewClient(conn *websocket.Conn) *Client {
	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &Client{conn: conn, send: make(chan []byte, sendBuffer)}
}

// Send queues v for writing. It reports false when the client is closed or
// its buffer is full.
func (c *Client) Send(v interface{}) bool {
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		c.closed = true
		close(c.send)
		return false
	}
}

// SendError queues an ErrorResponse.
func (c *Client) SendError(code, msg string) bool {
	return c.Send(ErrorResponse{Event: EventError, Code: code, Error: msg})
}

// Close stops the write pump after it drains queued messages.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// WritePump writes queued messages and pings until Close. It owns all writes
// to the connection and closes it on return.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ErrMalformed wraps a message that is not a valid Request. The connection
// stays usable.
var ErrMalformed = errors.New("malformed message")

// ReadRequest reads the next client message and extends the read deadline.
func (c *Client) ReadRequest(req *Request) error {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return err
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	if err := json.Unmarshal(data, req); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
