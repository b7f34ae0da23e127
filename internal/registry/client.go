package registry

import (
	"context"
	"log"
	"sync"

	"frella/internal/events"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const sendBuffer = 64

// Client represents a single WebSocket connection.
type Client struct {
	id       string
	userID   int64
	username string
	Conn     *websocket.Conn
	send     chan []byte

	mu       sync.Mutex
	closed   bool
	boardID  string
	gameRoom string
}

// NewClient creates a client with a fresh connection id.
func NewClient(userID int64, username string, conn *websocket.Conn) *Client {
	return &Client{
		id:       uuid.NewString(),
		userID:   userID,
		username: username,
		Conn:     conn,
		send:     make(chan []byte, sendBuffer),
	}
}

func (c *Client) ID() string       { return c.id }
func (c *Client) UserID() int64    { return c.userID }
func (c *Client) Username() string { return c.username }

// Emit queues an event for the write pump. Non-blocking: drops if the buffer is full
// or the client is closed.
func (c *Client) Emit(event string, data any) {
	frame, err := events.Encode(event, data)
	if err != nil {
		log.Printf("[WS] Encode %s error: %v\n", event, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		log.Printf("[WS] Send buffer full for %s, dropping %s\n", c.id, event)
	}
}

// Close stops further delivery and ends the write pump.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Outbox exposes queued frames. Used by the write pump and tests.
func (c *Client) Outbox() <-chan []byte {
	return c.send
}

// WritePump reads from the send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// BoardID is the board room the client last joined, or "".
func (c *Client) BoardID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boardID
}

// SetBoardID records the current board and returns the previous one.
func (c *Client) SetBoardID(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.boardID
	c.boardID = id
	return prev
}

// GameRoom is the game room the client joined, or "".
func (c *Client) GameRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameRoom
}

// SetGameRoom records the current game room and returns the previous one.
func (c *Client) SetGameRoom(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.gameRoom
	c.gameRoom = id
	return prev
}
