// Package model defines data structures for the conversational vault.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PayloadType describes how a chat message should be rendered.
type PayloadType string

const (
	PayloadText     PayloadType = "text"
	PayloadCard     PayloadType = "card"
	PayloadFollowUp PayloadType = "follow_up"
)

// ChatMessage represents one turn in a conversation. Messages are immutable
// once created and form an append-only sequence.
type ChatMessage struct {
	ID          string      `json:"id"`
	Role        Role        `json:"role"`
	Content     string      `json:"content"`
	PayloadType PayloadType `json:"payload_type"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewChatMessage creates a message with a fresh ID and timestamp.
func NewChatMessage(role Role, content string, payload PayloadType) ChatMessage {
	return ChatMessage{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Role:        role,
		Content:     content,
		PayloadType: payload,
		CreatedAt:   time.Now(),
	}
}

// SendMessageRequest is the request to send a new chat message.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessageResponse carries the messages appended by one turn.
type SendMessageResponse struct {
	Messages []ChatMessage `json:"messages"`
}

// ListMessagesResponse is the response for reading the transcript.
type ListMessagesResponse struct {
	Messages []ChatMessage `json:"messages"`
}
