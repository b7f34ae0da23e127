package chat

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps messages in process. It backs the chat when no database is configured.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	messages map[int64]*Message
	users    map[int64]string
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:   1,
		messages: make(map[int64]*Message),
		users:    make(map[int64]string),
		now:      time.Now,
	}
}

// AddUser records a username so loaded messages carry identities.
func (s *MemoryStore) AddUser(id int64, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = username
}

func (s *MemoryStore) CreateMessage(_ context.Context, m NewMessage) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	now := s.now().UTC()
	s.messages[id] = &Message{
		ID:         id,
		Content:    copyString(m.Content),
		ImageURL:   copyString(m.ImageURL),
		SenderID:   m.SenderID,
		ReceiverID: copyInt(m.ReceiverID),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return id, nil
}

func (s *MemoryStore) LoadMessage(_ context.Context, id int64) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("loading message: message %d not found", id)
	}
	m := *stored
	m.Sender = UserRef{ID: m.SenderID, Username: s.users[m.SenderID]}
	if m.ReceiverID != nil {
		m.Receiver = &UserRef{ID: *m.ReceiverID, Username: s.users[*m.ReceiverID]}
	}
	return &m, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, ids []int64, readerID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		m, ok := s.messages[id]
		if !ok || m.ReceiverID == nil || *m.ReceiverID != readerID || m.Read {
			continue
		}
		m.Read = true
		m.UpdatedAt = s.now().UTC()
		n++
	}
	return n, nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt(i *int64) *int64 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
