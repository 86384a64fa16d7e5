package notifications

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"cypress-hollow/internal/database"
	"cypress-hollow/internal/models"
	"cypress-hollow/internal/utils"

	"github.com/google/uuid"
)

// previewLength bounds the content preview carried in a private-message
// notification.
const previewLength = 50

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// Dispatcher turns trigger events into recipient-addressed notification
// rows. It is deliberately synchronous and returns errors; the Notifier
// wrappers decide how failures are absorbed.
type Dispatcher struct {
	store  database.Store
	logger *slog.Logger
}

func NewDispatcher(store database.Store, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, logger: logger}
}

// HandleMessageSent creates exactly one notification for the receiving
// participant, carrying a truncated content preview.
func (d *Dispatcher) HandleMessageSent(ctx context.Context, ev *MessageSentEvent) error {
	preview := ev.Content
	if runes := []rune(preview); len(runes) > previewLength {
		preview = string(runes[:previewLength]) + "…"
	}

	convID := ev.ConversationID
	return d.store.SaveNotification(ctx, &models.Notification{
		ID:             uuid.New(),
		Type:           models.NotificationPrivateMessage,
		RecipientID:    ev.RecipientID,
		ActorID:        ev.SenderID,
		ConversationID: &convID,
		Message:        preview,
		CreatedAt:      time.Now(),
	})
}

// HandleReaction notifies the post's author of a new or changed reaction.
// The caller guarantees the reactor is not the author and that the event
// is not a removal.
func (d *Dispatcher) HandleReaction(ctx context.Context, ev *ReactionEvent) error {
	postID := ev.PostID
	topicID := ev.TopicID
	reactionType := ev.Type

	return d.store.SaveNotification(ctx, &models.Notification{
		ID:           uuid.New(),
		Type:         models.NotificationReaction,
		RecipientID:  ev.AuthorID,
		ActorID:      ev.ReactorID,
		PostID:       &postID,
		TopicID:      &topicID,
		ReactionType: &reactionType,
		CreatedAt:    time.Now(),
	})
}

// HandleContentPublished scans freshly published content for @username
// tokens and notifies each resolved user once per post. Unresolvable
// names are skipped; a repeat mention of the same user on the same post
// is absorbed by the storage-level dedup.
func (d *Dispatcher) HandleContentPublished(ctx context.Context, ev *ContentPublishedEvent) error {
	seen := make(map[string]bool)
	var firstErr error

	for _, match := range mentionPattern.FindAllStringSubmatch(ev.Content, -1) {
		username := match[1]
		if seen[username] {
			continue
		}
		seen[username] = true

		user, err := d.store.GetUserByUsername(ctx, username)
		if err != nil {
			if utils.IsErrorCode(err, utils.ErrNotFound) {
				continue // not every @token names a real user
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if user.ID == ev.AuthorID {
			continue // no self-notification
		}

		postID := ev.PostID
		topicID := ev.TopicID
		err = d.store.SaveNotification(ctx, &models.Notification{
			ID:          uuid.New(),
			Type:        models.NotificationMention,
			RecipientID: user.ID,
			ActorID:     ev.AuthorID,
			PostID:      &postID,
			TopicID:     &topicID,
			CreatedAt:   time.Now(),
		})
		if err != nil {
			if utils.IsErrorCode(err, utils.ErrDuplicate) {
				continue // already notified for this (post, user) pair
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// SyncNotifier dispatches inline. Used by tests and by setups without an
// actor system; failures are logged and swallowed, matching the
// best-effort delivery contract.
type SyncNotifier struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func NewSyncNotifier(dispatcher *Dispatcher, logger *slog.Logger) *SyncNotifier {
	return &SyncNotifier{dispatcher: dispatcher, logger: logger}
}

func (n *SyncNotifier) MessageSent(ev *MessageSentEvent) {
	if err := n.dispatcher.HandleMessageSent(context.Background(), ev); err != nil {
		n.logger.Warn("message notification failed", "conversation", ev.ConversationID, "error", err)
	}
}

func (n *SyncNotifier) ReactionChanged(ev *ReactionEvent) {
	if err := n.dispatcher.HandleReaction(context.Background(), ev); err != nil {
		n.logger.Warn("reaction notification failed", "post", ev.PostID, "error", err)
	}
}

func (n *SyncNotifier) ContentPublished(ev *ContentPublishedEvent) {
	if err := n.dispatcher.HandleContentPublished(context.Background(), ev); err != nil {
		n.logger.Warn("mention notification failed", "post", ev.PostID, "error", err)
	}
}
