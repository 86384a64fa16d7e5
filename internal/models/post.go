package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is the minimal view of a forum post this core needs: enough to
// anchor reactions and mention notifications. Full post CRUD lives outside.
type Post struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TopicID   uuid.UUID `json:"topicId" db:"topic_id"`
	AuthorID  uuid.UUID `json:"authorId" db:"author_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// Populated on reads that care about reaction state, not persisted.
	ReactionCounts map[ReactionType]int `json:"reactionCounts,omitempty" db:"-"`
	ViewerReaction *ReactionType        `json:"viewerReaction,omitempty" db:"-"`
}
