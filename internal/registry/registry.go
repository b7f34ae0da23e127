package registry

import (
	"sync"

	"frella/internal/events"
)

// Registry maps a user to the one connection currently serving them.
type Registry struct {
	mu      sync.RWMutex
	clients map[int64]*Client
	all     map[string]*Client
}

func New() *Registry {
	return &Registry{
		clients: make(map[int64]*Client),
		all:     make(map[string]*Client),
	}
}

// Register makes c the handle for its user and returns the handle it replaced, if any.
// The replaced connection stays open so it can still receive global broadcasts
// until it disconnects on its own.
func (r *Registry) Register(c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.clients[c.UserID()]
	r.clients[c.UserID()] = c
	r.all[c.ID()] = c
	return prev
}

// Unregister drops c and closes it. It reports whether the user went offline,
// which is false when c had already been replaced by a newer connection.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	delete(r.all, c.ID())
	offline := false
	if cur, ok := r.clients[c.UserID()]; ok && cur == c {
		delete(r.clients, c.UserID())
		offline = true
	}
	r.mu.Unlock()

	c.Close()
	return offline
}

func (r *Registry) IsOnline(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[userID]
	return ok
}

// HandleOf returns the user's current connection.
func (r *Registry) HandleOf(userID int64) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

// Lookup is HandleOf behind the events.Conn interface.
func (r *Registry) Lookup(userID int64) (events.Conn, bool) {
	c, ok := r.HandleOf(userID)
	if !ok {
		return nil, false
	}
	return c, true
}

// Broadcast sends an event to every open connection.
func (r *Registry) Broadcast(event string, data any) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.all {
		c.Emit(event, data)
	}
}

// Count returns the number of online users and open connections.
func (r *Registry) Count() (users, conns int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients), len(r.all)
}
