package db

import (
	"context"
	"database/sql"
	"fmt"

	"frella/internal/chat"

	"github.com/lib/pq"
)

// CreateMessage inserts a chat message and returns its id.
func (d *DB) CreateMessage(ctx context.Context, m chat.NewMessage) (int64, error) {
	var id int64
	err := d.conn.QueryRowContext(ctx, `
		INSERT INTO messages (content, image_url, sender_id, receiver_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, m.Content, m.ImageURL, m.SenderID, m.ReceiverID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating message: %w", err)
	}
	return id, nil
}

// LoadMessage reads a message with its sender and receiver identities attached.
func (d *DB) LoadMessage(ctx context.Context, id int64) (*chat.Message, error) {
	var (
		m            chat.Message
		content      sql.NullString
		imageURL     sql.NullString
		receiverID   sql.NullInt64
		receiverName sql.NullString
	)
	err := d.conn.QueryRowContext(ctx, `
		SELECT m.id, m.content, m.image_url, m.sender_id, m.receiver_id, m.read, m.created_at, m.updated_at,
		       s.username, r.username
		FROM messages m
		JOIN users s ON s.id = m.sender_id
		LEFT JOIN users r ON r.id = m.receiver_id
		WHERE m.id = $1
	`, id).Scan(&m.ID, &content, &imageURL, &m.SenderID, &receiverID, &m.Read, &m.CreatedAt, &m.UpdatedAt,
		&m.Sender.Username, &receiverName)
	if err != nil {
		return nil, fmt.Errorf("loading message: %w", err)
	}

	m.Sender.ID = m.SenderID
	if content.Valid {
		m.Content = &content.String
	}
	if imageURL.Valid {
		m.ImageURL = &imageURL.String
	}
	if receiverID.Valid {
		rid := receiverID.Int64
		m.ReceiverID = &rid
		m.Receiver = &chat.UserRef{ID: rid, Username: receiverName.String}
	}
	return &m, nil
}

// MarkRead flags the given messages as read, limited to those addressed to readerID.
func (d *DB) MarkRead(ctx context.Context, ids []int64, readerID int64) (int64, error) {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE messages SET read = true, updated_at = now()
		WHERE id = ANY($1) AND receiver_id = $2
	`, pq.Array(ids), readerID)
	if err != nil {
		return 0, fmt.Errorf("marking messages read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("marking messages read: %w", err)
	}
	return n, nil
}
