package guessgame

import (
	"sync"

	"frella/internal/events"
)

// DefaultRoom is used when a client joins without naming a room.
const DefaultRoom = "guessmything"

// Store maps room ids to sessions. Sessions are created on first join and
// dropped once their last player leaves.
type Store struct {
	cfg   Config
	hooks Hooks

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore(cfg Config, hooks Hooks) *Store {
	return &Store{
		cfg:      cfg,
		hooks:    hooks,
		sessions: make(map[string]*Session),
	}
}

// Join seats conn in roomID, creating the session if needed.
func (s *Store) Join(conn events.Conn, roomID string) (*Session, error) {
	if roomID == "" {
		roomID = DefaultRoom
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[roomID]
	if !ok {
		session = NewSession(roomID, s.cfg, s.hooks)
		s.sessions[roomID] = session
	}
	if err := session.Join(conn); err != nil {
		if session.Count() == 0 {
			delete(s.sessions, roomID)
		}
		return nil, err
	}
	return session, nil
}

func (s *Store) Get(roomID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[roomID]
	return session, ok
}

// Leave unseats conn from roomID and reports whether it was seated there.
func (s *Store) Leave(conn events.Conn, roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[roomID]
	if !ok {
		return false
	}
	left := session.Leave(conn)
	if session.Count() == 0 {
		session.Close()
		delete(s.sessions, roomID)
	}
	return left
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
