package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxMessageLength bounds private message content.
const MaxMessageLength = 2000

// PrivateMessage is one message inside a conversation. ReadBy is
// append-only: once a user appears in it they never leave. The sender is
// always present from creation.
type PrivateMessage struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	ConversationID string      `json:"conversationId" db:"conversation_id"`
	SenderID       uuid.UUID   `json:"senderId" db:"sender_id"`
	Content        string      `json:"content" db:"content"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	ReadBy         []uuid.UUID `json:"readBy" db:"-"`
}

// ReadByUser reports whether userID has observed this message.
func (m *PrivateMessage) ReadByUser(userID uuid.UUID) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// UnreadFor reports whether the message counts toward userID's unread
// total: authored by someone else and not yet observed.
func (m *PrivateMessage) UnreadFor(userID uuid.UUID) bool {
	return m.SenderID != userID && !m.ReadByUser(userID)
}
