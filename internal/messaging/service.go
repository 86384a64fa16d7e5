package messaging

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"cypress-hollow/internal/database"
	"cypress-hollow/internal/models"
	"cypress-hollow/internal/notifications"
	"cypress-hollow/internal/utils"

	"github.com/google/uuid"
)

// snippetLength bounds the denormalized last-message preview cached on
// the conversation row.
const snippetLength = 50

// Service owns conversations, messages, and their read state. All
// multi-step mutations run inside a single store transaction.
type Service struct {
	store    database.Store
	notifier notifications.Notifier
	logger   *slog.Logger
}

func NewService(store database.Store, notifier notifications.Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, notifier: notifier, logger: logger}
}

// SendMessage appends a message from senderID. When conversationID is
// empty the conversation is resolved (or created) from the recipient and
// subject; a creation race against another first message is absorbed by
// refetching the row that won. The message notification is emitted after
// commit and cannot fail the send.
func (s *Service) SendMessage(ctx context.Context, senderID, receiverID uuid.UUID, conversationID, subject, content string) (*models.PrivateMessage, error) {
	if content == "" {
		return nil, utils.NewValidationError("content", "message content must not be empty")
	}
	if utf8.RuneCountInString(content) > models.MaxMessageLength {
		return nil, utils.NewValidationError("content", "message content exceeds maximum length")
	}

	var conv *models.Conversation
	var err error

	if conversationID != "" {
		conv, err = s.store.GetConversation(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		if !conv.HasParticipant(senderID) {
			return nil, utils.NewForbiddenError("sender is not a participant in this conversation")
		}
	} else {
		if receiverID == uuid.Nil {
			return nil, utils.NewValidationError("receiverId", "receiver is required without a conversation id")
		}
		if receiverID == senderID {
			return nil, utils.NewValidationError("receiverId", "cannot start a conversation with yourself")
		}
		if _, err := s.store.GetUser(ctx, receiverID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	msg := &models.PrivateMessage{
		ID:        uuid.New(),
		SenderID:  senderID,
		Content:   content,
		CreatedAt: now,
		ReadBy:    []uuid.UUID{senderID}, // the sender has read their own message
	}

	err = s.store.Transact(ctx, func(ctx context.Context, tx database.Store) error {
		if conv == nil {
			conv, err = s.getOrCreateConversation(ctx, tx, senderID, receiverID, subject, now)
			if err != nil {
				return err
			}
		}
		msg.ConversationID = conv.ID

		if err := tx.SaveMessage(ctx, msg); err != nil {
			return err
		}
		return tx.TouchConversation(ctx, conv.ID, Snippet(content, snippetLength), senderID, now)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.MessageSent(&notifications.MessageSentEvent{
		MessageID:      msg.ID,
		ConversationID: conv.ID,
		SenderID:       senderID,
		RecipientID:    conv.OtherParticipant(senderID),
		Content:        content,
	})
	return msg, nil
}

func (s *Service) getOrCreateConversation(ctx context.Context, tx database.Store, senderID, receiverID uuid.UUID, subject string, now time.Time) (*models.Conversation, error) {
	id, err := DeriveConversationID(senderID, receiverID, subject)
	if err != nil {
		return nil, err
	}

	conv, err := tx.GetConversation(ctx, id)
	if err == nil {
		return conv, nil
	}
	if !utils.IsErrorCode(err, utils.ErrNotFound) {
		return nil, err
	}

	// The slug only shapes the id; the row keeps the text the sender typed.
	conv = &models.Conversation{
		ID:            id,
		ParticipantA:  senderID,
		ParticipantB:  receiverID,
		Subject:       strings.TrimSpace(subject),
		CreatedAt:     now,
		LastMessageAt: now,
	}
	if err := tx.CreateConversation(ctx, conv); err != nil {
		if utils.IsErrorCode(err, utils.ErrDuplicate) {
			// Lost a first-message race; the other writer's row is ours too.
			return tx.GetConversation(ctx, id)
		}
		return nil, err
	}
	return conv, nil
}

// ListConversations returns inbox summaries for the user, most recently
// active first, with per-conversation unread counts.
func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID) ([]*models.ConversationSummary, error) {
	convs, err := s.store.ListConversationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		unread, err := s.store.CountUnread(ctx, conv.ID, userID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, &models.ConversationSummary{
			ID:                 conv.ID,
			OtherParticipant:   conv.OtherParticipant(userID),
			Subject:            conv.Subject,
			LastMessageAt:      conv.LastMessageAt,
			LastMessageSnippet: conv.LastMessageSnippet,
			LastSenderID:       conv.LastSenderID,
			UnreadCount:        unread,
		})
	}
	return summaries, nil
}

// ListMessages returns the conversation's messages oldest first. With
// markRead set, the caller is appended to the read-by set of every
// message they have not yet observed, in one batch; listing is the only
// read-receipt mechanism.
func (s *Service) ListMessages(ctx context.Context, conversationID string, userID uuid.UUID, markRead bool) ([]*models.PrivateMessage, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, utils.NewForbiddenError("user is not a participant in this conversation")
	}

	if markRead {
		if err := s.store.MarkConversationRead(ctx, conversationID, userID); err != nil {
			return nil, err
		}
	}
	return s.store.ListMessages(ctx, conversationID)
}

// UnreadCount returns the user's unread messages within one conversation.
// Non-participants are rejected, so the count never leaks how much a
// thread holds.
func (s *Service) UnreadCount(ctx context.Context, conversationID string, userID uuid.UUID) (int, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if !conv.HasParticipant(userID) {
		return 0, utils.NewForbiddenError("user is not a participant in this conversation")
	}
	return s.store.CountUnread(ctx, conversationID, userID)
}

// TotalUnread returns the user's unread messages across every
// conversation they participate in.
func (s *Service) TotalUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.CountUnreadForUser(ctx, userID)
}
