package models

import (
	"time"

	"github.com/google/uuid"
)

// ReactionType is the closed set of reactions a user may place on a post.
type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionHaha  ReactionType = "haha"
	ReactionWow   ReactionType = "wow"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

// reactionWeights drives the points ledger: strong reactions score 2,
// light ones 1, the rest 0.
var reactionWeights = map[ReactionType]int{
	ReactionLike:  2,
	ReactionLove:  2,
	ReactionHaha:  1,
	ReactionWow:   1,
	ReactionSad:   0,
	ReactionAngry: 0,
}

// Valid reports whether t is a member of the closed reaction set.
func (t ReactionType) Valid() bool {
	_, ok := reactionWeights[t]
	return ok
}

// Weight returns the points contribution of one reaction of this type.
func (t ReactionType) Weight() int {
	return reactionWeights[t]
}

// Reaction is the single row allowed per (post, user) pair.
type Reaction struct {
	PostID    uuid.UUID    `json:"postId" db:"post_id"`
	UserID    uuid.UUID    `json:"userId" db:"user_id"`
	Type      ReactionType `json:"type" db:"type"`
	UpdatedAt time.Time    `json:"updatedAt" db:"updated_at"`
}
