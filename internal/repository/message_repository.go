package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"
)

// ErrMessageNotFound is returned when a message ID does not resolve.
var ErrMessageNotFound = errors.New("message not found")

// MessageRepo stores direct messages between users.  The gig handshake's
// acceptance transition seeds one message through CreateTx so the chat
// thread appears atomically with the acceptance.
type MessageRepo struct {
    db *sql.DB
}

// NewMessageRepo returns a MessageRepo bound to the given database.
func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

// MessageRecord mirrors the messages table.
type MessageRecord struct {
    ID         uint64 `json:"id"`
    SenderID   uint64 `json:"sender_id"`
    ReceiverID uint64 `json:"receiver_id"`
    Content    string `json:"content"`
    Type       string `json:"message_type"`
    IsRead     bool   `json:"is_read"`
    SentAt     string `json:"sent_at"`
}

// Create inserts a message and returns its ID.
func (r *MessageRepo) Create(ctx context.Context, senderID, receiverID uint64, content, msgType string) (uint64, error) {
    const q = `INSERT INTO messages (sender_id, receiver_id, content, message_type, is_read)
               VALUES (?, ?, ?, ?, FALSE)`
    res, err := r.db.ExecContext(ctx, q, senderID, receiverID, content, msgType)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    return uint64(id), err
}

// CreateTx inserts a message inside an existing transaction.
func (r *MessageRepo) CreateTx(ctx context.Context, tx *sql.Tx, senderID, receiverID uint64, content, msgType string) error {
    const q = `INSERT INTO messages (sender_id, receiver_id, content, message_type, is_read)
               VALUES (?, ?, ?, ?, FALSE)`
    _, err := tx.ExecContext(ctx, q, senderID, receiverID, content, msgType)
    return err
}

// ConversationSummary is one row of the conversations list: the other
// participant plus the latest message.
type ConversationSummary struct {
    OtherUserID   uint64 `json:"other_user_id"`
    OtherUserName string `json:"other_user_name"`
    LastMessage   string `json:"last_message"`
    LastSentAt    string `json:"last_sent_at"`
    UnreadCount   int    `json:"unread_count"`
}

// Conversations lists the distinct chat partners of a user with the most
// recent message and unread count per partner, newest first.
func (r *MessageRepo) Conversations(ctx context.Context, userID uint64) ([]ConversationSummary, error) {
    const q = `SELECT other_id, u.name, m.content, m.sent_at,
                      (SELECT COUNT(1) FROM messages
                       WHERE sender_id = other_id AND receiver_id = ? AND is_read = FALSE)
               FROM (SELECT IF(sender_id = ?, receiver_id, sender_id) AS other_id,
                            MAX(id) AS last_id
                     FROM messages
                     WHERE sender_id = ? OR receiver_id = ?
                     GROUP BY other_id) t
               JOIN messages m ON m.id = t.last_id
               JOIN users u ON u.id = t.other_id
               ORDER BY m.sent_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID, userID, userID, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]ConversationSummary, 0)
    for rows.Next() {
        var c ConversationSummary
        var sent time.Time
        if err := rows.Scan(&c.OtherUserID, &c.OtherUserName, &c.LastMessage, &sent, &c.UnreadCount); err != nil {
            return nil, err
        }
        c.LastSentAt = sent.UTC().Format(time.RFC3339)
        out = append(out, c)
    }
    return out, rows.Err()
}

// Between returns the full message history between two users, oldest first.
func (r *MessageRepo) Between(ctx context.Context, userID, otherID uint64) ([]MessageRecord, error) {
    const q = `SELECT id, sender_id, receiver_id, content, message_type, is_read, sent_at
               FROM messages
               WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
               ORDER BY sent_at ASC, id ASC`
    rows, err := r.db.QueryContext(ctx, q, userID, otherID, otherID, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]MessageRecord, 0)
    for rows.Next() {
        var m MessageRecord
        var sent time.Time
        if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Type, &m.IsRead, &sent); err != nil {
            return nil, err
        }
        m.SentAt = sent.UTC().Format(time.RFC3339)
        out = append(out, m)
    }
    return out, rows.Err()
}

// MarkRead flags a message as read.  Only the receiver may mark it; a
// mismatch returns ErrForbidden.
func (r *MessageRepo) MarkRead(ctx context.Context, id, userID uint64) error {
    var receiverID uint64
    err := r.db.QueryRowContext(ctx, `SELECT receiver_id FROM messages WHERE id = ?`, id).Scan(&receiverID)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrMessageNotFound
    }
    if err != nil {
        return err
    }
    if receiverID != userID {
        return ErrForbidden
    }
    _, err = r.db.ExecContext(ctx, `UPDATE messages SET is_read = TRUE WHERE id = ?`, id)
    return err
}
