// Package chat is the global party chat: persisted text and image messages,
// typing indicators and read receipts, all fanned out to one room.
package chat

import (
	"context"
	"time"

	"frella/internal/events"
)

// Room is the single room every chat participant joins.
const Room = "frella_chat"

type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Message is a stored chat message with identities attached.
type Message struct {
	ID         int64     `json:"id"`
	Content    *string   `json:"content"`
	ImageURL   *string   `json:"imageUrl"`
	SenderID   int64     `json:"senderId"`
	ReceiverID *int64    `json:"receiverId"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Sender     UserRef   `json:"sender"`
	Receiver   *UserRef  `json:"receiver"`
}

// NewMessage is what the chat session asks the store to persist.
type NewMessage struct {
	Content    *string
	ImageURL   *string
	SenderID   int64
	ReceiverID *int64
}

// Store is the persistence service for messages.
type Store interface {
	CreateMessage(ctx context.Context, m NewMessage) (int64, error)
	LoadMessage(ctx context.Context, id int64) (*Message, error)
	MarkRead(ctx context.Context, ids []int64, readerID int64) (int64, error)
}

// Rooms is the part of the room manager the chat needs.
type Rooms interface {
	Join(conn events.Conn, name string)
	Broadcast(name, event string, data any, except events.Conn)
}

// SendInput is the client payload of send_message. ReceiverID is stored for
// client-side filtering and does not restrict delivery.
type SendInput struct {
	Content    *string `json:"content"`
	ImageURL   *string `json:"imageUrl"`
	ReceiverID *int64  `json:"receiverId"`
}

type typingPayload struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username,omitempty"`
}

type readPayload struct {
	MessageIDs []int64 `json:"messageIds"`
	ReadBy     int64   `json:"readBy"`
}
