package notifications

import (
	"github.com/google/uuid"

	"cypress-hollow/internal/models"
)

// Events carried from the mutating services to the dispatcher. Delivery
// is best-effort: emitting an event never fails the operation that
// produced it.
type (
	// MessageSentEvent follows every successful message append.
	MessageSentEvent struct {
		MessageID      uuid.UUID
		ConversationID string
		SenderID       uuid.UUID
		RecipientID    uuid.UUID
		Content        string
	}

	// ReactionEvent follows a reaction insert or type change. Removals
	// never produce one.
	ReactionEvent struct {
		PostID    uuid.UUID
		TopicID   uuid.UUID
		AuthorID  uuid.UUID
		ReactorID uuid.UUID
		Type      models.ReactionType
	}

	// ContentPublishedEvent follows freshly published post content and
	// feeds the mention scan.
	ContentPublishedEvent struct {
		PostID   uuid.UUID
		TopicID  uuid.UUID
		AuthorID uuid.UUID
		Content  string
	}
)

// Notifier is the write-side surface services emit through. The actor
// implementation delivers asynchronously; the sync one inline.
type Notifier interface {
	MessageSent(ev *MessageSentEvent)
	ReactionChanged(ev *ReactionEvent)
	ContentPublished(ev *ContentPublishedEvent)
}
