// Package eventstest provides a recording events.Conn for tests.
package eventstest

import (
	"encoding/json"
	"sync"
)

// Sent is one event delivered to a Conn.
type Sent struct {
	Event string
	Data  json.RawMessage
}

// Conn records every event emitted to it.
type Conn struct {
	id       string
	userID   int64
	username string

	mu   sync.Mutex
	sent []Sent
}

func NewConn(id string, userID int64, username string) *Conn {
	return &Conn{id: id, userID: userID, username: username}
}

func (c *Conn) ID() string       { return c.id }
func (c *Conn) UserID() int64    { return c.userID }
func (c *Conn) Username() string { return c.username }

func (c *Conn) Emit(event string, data any) {
	raw, _ := json.Marshal(data)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, Sent{Event: event, Data: raw})
}

// All returns a copy of everything received so far.
func (c *Conn) All() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Sent, len(c.sent))
	copy(out, c.sent)
	return out
}

// Named returns the received events with the given name, oldest first.
func (c *Conn) Named(event string) []Sent {
	var out []Sent
	for _, s := range c.All() {
		if s.Event == event {
			out = append(out, s)
		}
	}
	return out
}

// Last decodes the most recent event with the given name into v and reports whether one existed.
func (c *Conn) Last(event string, v any) bool {
	named := c.Named(event)
	if len(named) == 0 {
		return false
	}
	if v != nil {
		_ = json.Unmarshal(named[len(named)-1].Data, v)
	}
	return true
}

// Reset forgets everything received.
func (c *Conn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = nil
}
