// Package rooms groups connections under a name so an event can be sent to
// every member at once. Rooms exist only while they have members.
package rooms

import (
	"sync"

	"frella/internal/events"
)

type room struct {
	members map[string]events.Conn
}

type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

func NewManager() *Manager {
	return &Manager{
		rooms: make(map[string]*room),
	}
}

// Join adds conn to the named room, creating it on first use.
func (m *Manager) Join(conn events.Conn, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[name]
	if !ok {
		r = &room{members: make(map[string]events.Conn)}
		m.rooms[name] = r
	}
	r.members[conn.ID()] = conn
}

// Leave removes conn from the named room and reports whether conn was a member.
// The room is dropped once empty.
func (m *Manager) Leave(conn events.Conn, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[name]
	if !ok {
		return false
	}
	if _, member := r.members[conn.ID()]; !member {
		return false
	}
	delete(r.members, conn.ID())
	if len(r.members) == 0 {
		delete(m.rooms, name)
	}
	return true
}

// LeaveAll removes conn from every room and returns the names it left.
func (m *Manager) LeaveAll(conn events.Conn) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var left []string
	for name, r := range m.rooms {
		if _, ok := r.members[conn.ID()]; !ok {
			continue
		}
		delete(r.members, conn.ID())
		left = append(left, name)
		if len(r.members) == 0 {
			delete(m.rooms, name)
		}
	}
	return left
}

// Broadcast sends an event to every member of the room except the given connection,
// which may be nil.
func (m *Manager) Broadcast(name, event string, data any, except events.Conn) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[name]
	if !ok {
		return
	}
	for id, c := range r.members {
		if except != nil && id == except.ID() {
			continue
		}
		c.Emit(event, data)
	}
}

// Members returns a snapshot of the room's connections.
func (m *Manager) Members(name string) []events.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[name]
	if !ok {
		return nil
	}
	list := make([]events.Conn, 0, len(r.members))
	for _, c := range r.members {
		list = append(list, c)
	}
	return list
}

func (m *Manager) IsMember(conn events.Conn, name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[name]
	if !ok {
		return false
	}
	_, member := r.members[conn.ID()]
	return member
}

// Stats returns the number of live rooms and memberships.
func (m *Manager) Stats() (rooms, members int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rooms = len(m.rooms)
	for _, r := range m.rooms {
		members += len(r.members)
	}
	return rooms, members
}
