package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"cypress-hollow/internal/models"
	"cypress-hollow/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedConversation(t *testing.T, store Store, a, b uuid.UUID) *models.Conversation {
	t.Helper()
	conv := &models.Conversation{
		ID:            a.String() + "|" + b.String(),
		ParticipantA:  a,
		ParticipantB:  b,
		CreatedAt:     time.Now(),
		LastMessageAt: time.Now(),
	}
	require.NoError(t, store.CreateConversation(context.Background(), conv))
	return conv
}

func TestTransactRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a, b := uuid.New(), uuid.New()
	conv := seedConversation(t, store, a, b)

	boom := errors.New("boom")
	err := store.Transact(ctx, func(ctx context.Context, tx Store) error {
		msg := &models.PrivateMessage{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			SenderID:       a,
			Content:        "never committed",
			ReadBy:         []uuid.UUID{a},
		}
		if err := tx.SaveMessage(ctx, msg); err != nil {
			return err
		}
		if err := tx.TouchConversation(ctx, conv.ID, "never committed", a, time.Now()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Neither the message nor the conversation touch survived.
	msgs, err := store.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	fresh, err := store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh.LastMessageSnippet)
}

func TestTransactCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a, b := uuid.New(), uuid.New()
	conv := seedConversation(t, store, a, b)

	err := store.Transact(ctx, func(ctx context.Context, tx Store) error {
		return tx.SaveMessage(ctx, &models.PrivateMessage{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			SenderID:       a,
			Content:        "committed",
			ReadBy:         []uuid.UUID{a},
		})
	})
	require.NoError(t, err)

	msgs, err := store.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "committed", msgs[0].Content)
}

func TestCreateConversationDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a, b := uuid.New(), uuid.New()
	conv := seedConversation(t, store, a, b)

	err := store.CreateConversation(ctx, conv)
	assert.True(t, utils.IsErrorCode(err, utils.ErrDuplicate))
}

func TestMarkConversationReadIsMonotonic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a, b := uuid.New(), uuid.New()
	conv := seedConversation(t, store, a, b)

	for i := 0; i < 2; i++ {
		require.NoError(t, store.SaveMessage(ctx, &models.PrivateMessage{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			SenderID:       a,
			Content:        "hi",
			ReadBy:         []uuid.UUID{a},
		}))
	}

	require.NoError(t, store.MarkConversationRead(ctx, conv.ID, b))
	require.NoError(t, store.MarkConversationRead(ctx, conv.ID, b))

	msgs, err := store.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	for _, msg := range msgs {
		assert.Equal(t, []uuid.UUID{a, b}, msg.ReadBy, "read-by set must not grow duplicates")
	}

	count, err := store.CountUnread(ctx, conv.ID, b)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSaveNotificationMentionDedup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	recipient := uuid.New()
	postID := uuid.New()

	mention := func() *models.Notification {
		pid := postID
		return &models.Notification{
			ID:          uuid.New(),
			Type:        models.NotificationMention,
			RecipientID: recipient,
			ActorID:     uuid.New(),
			PostID:      &pid,
			CreatedAt:   time.Now(),
		}
	}

	require.NoError(t, store.SaveNotification(ctx, mention()))
	err := store.SaveNotification(ctx, mention())
	assert.True(t, utils.IsErrorCode(err, utils.ErrDuplicate))

	// A different post for the same recipient is a fresh mention.
	other := mention()
	otherPost := uuid.New()
	other.PostID = &otherPost
	require.NoError(t, store.SaveNotification(ctx, other))
}
