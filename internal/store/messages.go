package store

import (
	"fmt"
	"time"

	"github.com/passtalk/passtalk/internal/model"
)

// Messages persists the chat transcript so a restarted server can replay it.
type Messages struct {
	db *DB
}

// NewMessages creates the transcript store.
func NewMessages(db *DB) *Messages {
	return &Messages{db: db}
}

// Append stores one chat message.
func (m *Messages) Append(msg model.ChatMessage) error {
	createdAt := float64(msg.CreatedAt.UnixNano()) / float64(time.Second)
	_, err := m.db.conn.Exec(`
		INSERT INTO chat_messages (id, role, content, payload_type, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		msg.ID, string(msg.Role), msg.Content, string(msg.PayloadType), createdAt,
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// All returns the transcript in chronological order.
func (m *Messages) All() ([]model.ChatMessage, error) {
	rows, err := m.db.conn.Query(`
		SELECT id, role, content, payload_type, created_at
		FROM chat_messages ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	var out []model.ChatMessage
	for rows.Next() {
		var (
			msg       model.ChatMessage
			role      string
			payload   string
			createdAt float64
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = model.Role(role)
		msg.PayloadType = model.PayloadType(payload)
		msg.CreatedAt = epochToTime(createdAt)
		out = append(out, msg)
	}
	return out, rows.Err()
}
