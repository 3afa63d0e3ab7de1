package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vovakirdan/messagely/internal/core"
	"github.com/vovakirdan/messagely/internal/store"
)

// CreateMessage persists msg and sets its ID.
func (q *queries) CreateMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (from_username, to_username, body, sent_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`
	err := q.db.QueryRowContext(ctx, q.rebind(query),
		msg.FromUsername,
		msg.ToUsername,
		msg.Body,
		msg.SentAt,
	).Scan(&msg.ID)
	if err != nil {
		return classify(ctx, err, "insert message")
	}

	return nil
}

// GetMessage retrieves a message with both participants expanded.
func (q *queries) GetMessage(ctx context.Context, id int64) (*store.MessageDetail, error) {
	query := `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       f.username, f.first_name, f.last_name, f.phone,
		       t.username, t.first_name, t.last_name, t.phone
		FROM messages AS m
		JOIN users AS f ON f.username = m.from_username
		JOIN users AS t ON t.username = m.to_username
		WHERE m.id = ?
	`
	var msg store.MessageDetail
	var readAt sql.NullTime
	err := q.db.QueryRowContext(ctx, q.rebind(query), id).Scan(
		&msg.ID,
		&msg.Body,
		&msg.SentAt,
		&readAt,
		&msg.FromUser.Username,
		&msg.FromUser.FirstName,
		&msg.FromUser.LastName,
		&msg.FromUser.Phone,
		&msg.ToUser.Username,
		&msg.ToUser.FirstName,
		&msg.ToUser.LastName,
		&msg.ToUser.Phone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NotFound("no message with id %d", id)
		}
		return nil, classify(ctx, err, "query message")
	}

	if readAt.Valid {
		msg.ReadAt = &readAt.Time
	}

	return &msg, nil
}

// MarkRead sets read_at once. The conditional update makes concurrent calls
// race-free: exactly one of them changes the row.
func (q *queries) MarkRead(ctx context.Context, id int64, at time.Time) (*store.ReadReceipt, error) {
	query := `
		UPDATE messages
		SET read_at = ?
		WHERE id = ? AND read_at IS NULL
		RETURNING id
	`
	receipt := store.ReadReceipt{ReadAt: at}
	err := q.db.QueryRowContext(ctx, q.rebind(query), at, id).Scan(&receipt.ID)
	if err == nil {
		return &receipt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, classify(ctx, err, "mark message read")
	}

	// Nothing changed: either the message is missing or already read.
	var readAt sql.NullTime
	err = q.db.QueryRowContext(ctx, q.rebind(`SELECT read_at FROM messages WHERE id = ?`), id).Scan(&readAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NotFound("no message with id %d", id)
		}
		return nil, classify(ctx, err, "query message state")
	}
	return nil, core.Conflict("message %d was already read", id)
}

// ListMessagesFrom lists messages sent by username with recipients expanded.
func (q *queries) ListMessagesFrom(ctx context.Context, username string) ([]*store.MailboxMessage, error) {
	query := `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       u.username, u.first_name, u.last_name, u.phone
		FROM messages AS m
		JOIN users AS u ON u.username = m.to_username
		WHERE m.from_username = ?
		ORDER BY m.sent_at, m.id
	`
	return q.listMailbox(ctx, query, username)
}

// ListMessagesTo lists messages received by username with senders expanded.
func (q *queries) ListMessagesTo(ctx context.Context, username string) ([]*store.MailboxMessage, error) {
	query := `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       u.username, u.first_name, u.last_name, u.phone
		FROM messages AS m
		JOIN users AS u ON u.username = m.from_username
		WHERE m.to_username = ?
		ORDER BY m.sent_at, m.id
	`
	return q.listMailbox(ctx, query, username)
}

func (q *queries) listMailbox(ctx context.Context, query, username string) ([]*store.MailboxMessage, error) {
	rows, err := q.db.QueryContext(ctx, q.rebind(query), username)
	if err != nil {
		return nil, classify(ctx, err, "query messages")
	}
	defer rows.Close()

	messages := make([]*store.MailboxMessage, 0)
	for rows.Next() {
		var msg store.MailboxMessage
		var readAt sql.NullTime
		if err := rows.Scan(
			&msg.ID,
			&msg.Body,
			&msg.SentAt,
			&readAt,
			&msg.Peer.Username,
			&msg.Peer.FirstName,
			&msg.Peer.LastName,
			&msg.Peer.Phone,
		); err != nil {
			return nil, classify(ctx, err, "scan message")
		}
		if readAt.Valid {
			msg.ReadAt = &readAt.Time
		}
		messages = append(messages, &msg)
	}

	return messages, classify(ctx, rows.Err(), "iterate messages")
}
