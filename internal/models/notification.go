package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType tags what triggered a notification row.
type NotificationType string

const (
	NotificationMention        NotificationType = "mention"
	NotificationPrivateMessage NotificationType = "private_message"
	NotificationReaction       NotificationType = "reaction"
)

// Notification is a recipient-addressed record of a trigger event. The
// optional references point back at whatever caused it.
type Notification struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	Type           NotificationType `json:"type" db:"type"`
	RecipientID    uuid.UUID        `json:"recipientId" db:"recipient_id"`
	ActorID        uuid.UUID        `json:"actorId" db:"actor_id"`
	PostID         *uuid.UUID       `json:"postId,omitempty" db:"post_id"`
	TopicID        *uuid.UUID       `json:"topicId,omitempty" db:"topic_id"`
	ConversationID *string          `json:"conversationId,omitempty" db:"conversation_id"`
	ReactionType   *ReactionType    `json:"reactionType,omitempty" db:"reaction_type"`
	Message        string           `json:"message,omitempty" db:"message"`
	IsRead         bool             `json:"isRead" db:"is_read"`
	CreatedAt      time.Time        `json:"createdAt" db:"created_at"`
}
