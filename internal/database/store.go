package database

import (
	"context"
	"time"

	"cypress-hollow/internal/models"

	"github.com/google/uuid"
)

// Store defines the common interface for storage operations. One concrete
// backend (PostgreSQL, MongoDB, or the in-memory fallback) is chosen at
// composition time; services never branch on which one is live.
type Store interface {
	// Connection
	Close(ctx context.Context) error

	// Transact runs fn inside a single transaction. Any error from fn
	// rolls back every write made through the Store it receives. The ctx
	// handed to fn must be used for all calls inside the transaction.
	Transact(ctx context.Context, fn func(ctx context.Context, s Store) error) error

	// User methods
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	UpdateUserPoints(ctx context.Context, id uuid.UUID, points int) error

	// Post methods
	SavePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error)

	// Conversation methods
	// CreateConversation returns a DUPLICATE error when the derived id
	// already exists, converting first-message races into "fetch existing".
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ListConversationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error)
	TouchConversation(ctx context.Context, id string, snippet string, senderID uuid.UUID, at time.Time) error

	// Message methods
	SaveMessage(ctx context.Context, msg *models.PrivateMessage) error
	ListMessages(ctx context.Context, conversationID string) ([]*models.PrivateMessage, error)
	// MarkConversationRead appends userID to the read-by set of every
	// message in the conversation sent by someone else, as one batch.
	MarkConversationRead(ctx context.Context, conversationID string, userID uuid.UUID) error
	CountUnread(ctx context.Context, conversationID string, userID uuid.UUID) (int, error)
	CountUnreadForUser(ctx context.Context, userID uuid.UUID) (int, error)

	// Reaction methods
	// GetReaction returns NOT_FOUND when the (post, user) pair has no row.
	GetReaction(ctx context.Context, postID, userID uuid.UUID) (*models.Reaction, error)
	UpsertReaction(ctx context.Context, reaction *models.Reaction) error
	DeleteReaction(ctx context.Context, postID, userID uuid.UUID) error
	CountReactionsByPost(ctx context.Context, postID uuid.UUID) (map[models.ReactionType]int, error)
	// CountReactionsForAuthor groups reactions received across all of the
	// author's posts, excluding the author's own reactions.
	CountReactionsForAuthor(ctx context.Context, authorID uuid.UUID) (map[models.ReactionType]int, error)

	// Notification methods
	// SaveNotification returns a DUPLICATE error for a repeat mention of
	// the same (recipient, post) pair; other types always insert.
	SaveNotification(ctx context.Context, n *models.Notification) error
	ListNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (bool, error)
	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error)
}
