package chat

import (
	"context"
	"log"

	"frella/internal/events"
)

type Service struct {
	store Store
	rooms Rooms

	// OnPersisted is called after each stored message. Optional.
	OnPersisted func()
}

func NewService(store Store, rooms Rooms) *Service {
	return &Service{store: store, rooms: rooms}
}

// Join subscribes conn to the chat room.
func (s *Service) Join(conn events.Conn) {
	s.rooms.Join(conn, Room)
}

// Send stores a message from conn's user and broadcasts it to the chat room.
// The sender is always the authenticated user behind conn.
func (s *Service) Send(ctx context.Context, conn events.Conn, in SendInput) (*Message, error) {
	if isBlank(in.Content) && isBlank(in.ImageURL) {
		return nil, events.Invalid("Message content or image is required")
	}

	id, err := s.store.CreateMessage(ctx, NewMessage{
		Content:    in.Content,
		ImageURL:   in.ImageURL,
		SenderID:   conn.UserID(),
		ReceiverID: in.ReceiverID,
	})
	if err != nil {
		return nil, &events.PersistenceError{Op: events.OpSendMessage, Err: err}
	}
	msg, err := s.store.LoadMessage(ctx, id)
	if err != nil {
		return nil, &events.PersistenceError{Op: events.OpSendMessage, Err: err}
	}
	if s.OnPersisted != nil {
		s.OnPersisted()
	}

	s.rooms.Broadcast(Room, events.NewMessage, msg, nil)
	return msg, nil
}

func (s *Service) Typing(conn events.Conn) {
	s.rooms.Broadcast(Room, events.UserTyping, typingPayload{UserID: conn.UserID(), Username: conn.Username()}, conn)
}

func (s *Service) StopTyping(conn events.Conn) {
	s.rooms.Broadcast(Room, events.UserStopTyping, typingPayload{UserID: conn.UserID()}, conn)
}

// MarkRead marks the messages addressed to conn's user as read. Ids addressed
// to someone else are skipped without error.
func (s *Service) MarkRead(ctx context.Context, conn events.Conn, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := s.store.MarkRead(ctx, ids, conn.UserID())
	if err != nil {
		return &events.PersistenceError{Op: events.OpMarkRead, Err: err}
	}
	if n < int64(len(ids)) {
		log.Printf("[Chat] user %d marked %d of %d messages read\n", conn.UserID(), n, len(ids))
	}

	s.rooms.Broadcast(Room, events.MessagesRead, readPayload{MessageIDs: ids, ReadBy: conn.UserID()}, nil)
	return nil
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}
