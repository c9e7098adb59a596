package network

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 20
)

// ErrConnectionClosed is returned when sending on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

type frame struct {
	messageType int
	data        []byte
}

// Connection wraps the WebSocket connection with additional fields
type Connection struct {
	ws        *websocket.Conn
	send      chan frame
	done      chan struct{}
	closeOnce sync.Once
}

// NewConnection creates a new connection wrapper
func NewConnection(ws *websocket.Conn) *Connection {
	ws.SetReadLimit(maxMessageSize)
	return &Connection{
		ws:   ws,
		send: make(chan frame, 256), // Buffered channel for outgoing messages
		done: make(chan struct{}),
	}
}

// MessageHandler interface for handling messages. messageType is
// websocket.TextMessage or websocket.BinaryMessage.
type MessageHandler interface {
	HandleMessage(conn *Connection, messageType int, message []byte)
}

// ReadPump reads messages from the WebSocket connection until it fails
func (c *Connection) ReadPump(h MessageHandler) {
	defer c.Close()

	for {
		messageType, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Connection] Error reading message: %v", err)
			}
			return
		}

		h.HandleMessage(c, messageType, message)
	}
}

// WritePump writes queued frames to the WebSocket connection
func (c *Connection) WritePump() {
	defer c.ws.Close()

	for {
		select {
		case f := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(f.messageType, f.data); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// Close stops the write pump. It is safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// SendMessage queues msg as a JSON text frame
func (c *Connection) SendMessage(msg interface{}) error {
	messageBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.enqueue(frame{messageType: websocket.TextMessage, data: messageBytes})
}

// SendBinary queues data as a binary frame
func (c *Connection) SendBinary(data []byte) error {
	return c.enqueue(frame{messageType: websocket.BinaryMessage, data: data})
}

func (c *Connection) enqueue(f frame) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- f:
		return nil
	default:
		// The client is not keeping up.
		c.Close()
		return ErrConnectionClosed
	}
}
