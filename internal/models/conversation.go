package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a persistent thread between exactly two participants.
// The ID is derived, never generated: the same pair of users and the same
// normalized subject always map to the same row.
type Conversation struct {
	ID                 string    `json:"id" db:"id"`
	ParticipantA       uuid.UUID `json:"participantA" db:"participant_a"`
	ParticipantB       uuid.UUID `json:"participantB" db:"participant_b"`
	Subject            string    `json:"subject,omitempty" db:"subject"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	LastMessageAt      time.Time `json:"lastMessageAt" db:"last_message_at"`
	LastMessageSnippet string    `json:"lastMessageSnippet,omitempty" db:"last_message_snippet"`
	LastSenderID       uuid.UUID `json:"lastSenderId,omitempty" db:"last_sender_id"`
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// OtherParticipant returns the participant that is not userID. Callers must
// check HasParticipant first.
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// ConversationSummary is the inbox-row projection served to listings.
type ConversationSummary struct {
	ID                 string    `json:"id"`
	OtherParticipant   uuid.UUID `json:"otherParticipant"`
	Subject            string    `json:"subject,omitempty"`
	LastMessageAt      time.Time `json:"lastMessageAt"`
	LastMessageSnippet string    `json:"lastMessageSnippet,omitempty"`
	LastSenderID       uuid.UUID `json:"lastSenderId,omitempty"`
	UnreadCount        int       `json:"unreadCount"`
}
