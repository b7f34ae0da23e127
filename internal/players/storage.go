package players

import (
	"sync"

	"frella/internal/events"
)

// Store is the roster of a game room, kept in join order.
type Store struct {
	mu      sync.Mutex
	players map[int64]*Player
	order   []int64
}

func NewStore() *Store {
	return &Store{
		players: make(map[int64]*Player),
	}
}

// Add seats a player. A player already seated keeps their score and ready
// state and only has the connection refreshed.
func (s *Store) Add(id int64, name string, conn events.Conn) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[id]; ok {
		p.Name = name
		p.Conn = conn
		return p
	}
	player := &Player{ID: id, Name: name, Conn: conn}
	s.players[id] = player
	s.order = append(s.order, id)
	return player
}

func (s *Store) Get(id int64) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players[id]
}

func (s *Store) GetList() []*Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	playerList := make([]*Player, 0, len(s.order))
	for _, id := range s.order {
		playerList = append(playerList, s.players[id])
	}
	return playerList
}

func (s *Store) UpdateScore(id int64, points int) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, e := s.players[id]; e {
		p.Score += points
		return p
	}
	return nil
}

func (s *Store) SetReady(id int64, isReady bool) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, e := s.players[id]; e {
		p.Ready = isReady
		return p
	}
	return nil
}

func (s *Store) ReadyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.players {
		if p.Ready {
			n++
		}
	}
	return n
}

func (s *Store) AllReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.players) == 0 {
		return false
	}

	for _, player := range s.players {
		if !player.Ready {
			return false
		}
	}
	return true
}

func (s *Store) Has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.players[id]
	return exists
}

// Remove unseats a player and reports whether they were seated.
func (s *Store) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[id]; !ok {
		return false
	}
	delete(s.players, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// ResetReady clears every ready flag and keeps scores.
func (s *Store) ResetReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		p.Ready = false
	}
}

func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		p.Score = 0
		p.Ready = false
	}
}
