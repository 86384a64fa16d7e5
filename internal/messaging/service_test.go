package messaging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"cypress-hollow/internal/database"
	"cypress-hollow/internal/models"
	"cypress-hollow/internal/notifications"
	"cypress-hollow/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, database.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewMemoryStore()
	dispatcher := notifications.NewDispatcher(store, logger)
	notifier := notifications.NewSyncNotifier(dispatcher, logger)
	return NewService(store, notifier, logger), store
}

func seedUser(t *testing.T, store database.Store, username string) *models.User {
	t.Helper()
	user := &models.User{ID: uuid.New(), Username: username, CreatedAt: time.Now()}
	require.NoError(t, store.SaveUser(context.Background(), user))
	return user
}

func TestSendMessageCreatesConversationAndNotifies(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	// First message derives the conversation.
	msg, err := svc.SendMessage(ctx, alice.ID, bob.ID, "", "Trip Planning", "hey, are we still on?")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ConversationID)
	assert.Contains(t, msg.ConversationID, "trip-planning")

	conv, err := store.GetConversation(ctx, msg.ConversationID)
	require.NoError(t, err)
	assert.True(t, conv.HasParticipant(alice.ID))
	assert.True(t, conv.HasParticipant(bob.ID))
	assert.Equal(t, alice.ID, conv.LastSenderID)
	assert.Equal(t, "Trip Planning", conv.Subject, "subject keeps the sender's text, not the id slug")

	// Bob got exactly one message notification with a preview.
	notes, err := store.ListNotificationsByUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationPrivateMessage, notes[0].Type)
	assert.Equal(t, alice.ID, notes[0].ActorID)
	assert.Equal(t, "hey, are we still on?", notes[0].Message)

	// Reply from bob reuses the same conversation.
	reply, err := svc.SendMessage(ctx, bob.ID, alice.ID, "", "trip   planning!", "yes!")
	require.NoError(t, err)
	assert.Equal(t, msg.ConversationID, reply.ConversationID)
}

func TestSendMessageValidation(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	_, err := svc.SendMessage(ctx, alice.ID, bob.ID, "", "", "")
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))

	_, err = svc.SendMessage(ctx, alice.ID, bob.ID, "", "", strings.Repeat("x", models.MaxMessageLength+1))
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))

	_, err = svc.SendMessage(ctx, alice.ID, alice.ID, "", "", "talking to myself")
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))

	_, err = svc.SendMessage(ctx, alice.ID, uuid.New(), "", "", "hello stranger")
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	mallory := seedUser(t, store, "mallory")

	msg, err := svc.SendMessage(ctx, alice.ID, bob.ID, "", "", "private stuff")
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, mallory.ID, uuid.Nil, msg.ConversationID, "", "let me in")
	assert.True(t, utils.IsErrorCode(err, utils.ErrForbidden))

	_, err = svc.ListMessages(ctx, msg.ConversationID, mallory.ID, false)
	assert.True(t, utils.IsErrorCode(err, utils.ErrForbidden))

	// The unread count would reveal how much the thread holds, so it is
	// gated the same way.
	_, err = svc.UnreadCount(ctx, msg.ConversationID, mallory.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrForbidden))

	// Participants still get their count.
	count, err := svc.UnreadCount(ctx, msg.ConversationID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUnreadCountsAndMarkRead(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	var convID string
	for i := 0; i < 3; i++ {
		msg, err := svc.SendMessage(ctx, alice.ID, bob.ID, "", "", "ping")
		require.NoError(t, err)
		convID = msg.ConversationID
	}

	// Sender sees nothing unread, receiver sees all three.
	aliceUnread, err := svc.UnreadCount(ctx, convID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, aliceUnread)

	bobUnread, err := svc.UnreadCount(ctx, convID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, bobUnread)

	// Listing without markRead leaves the count untouched.
	_, err = svc.ListMessages(ctx, convID, bob.ID, false)
	require.NoError(t, err)
	bobUnread, err = svc.UnreadCount(ctx, convID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, bobUnread)

	// Listing with markRead drains it, and doing so again stays at zero.
	msgs, err := svc.ListMessages(ctx, convID, bob.ID, true)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for _, m := range msgs {
		assert.True(t, m.ReadByUser(bob.ID))
	}

	bobUnread, err = svc.UnreadCount(ctx, convID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, bobUnread)

	_, err = svc.ListMessages(ctx, convID, bob.ID, true)
	require.NoError(t, err)
	bobUnread, err = svc.UnreadCount(ctx, convID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, bobUnread)
}

// staleReadStore reports the conversation missing on the first lookup
// even though the row exists, reproducing a writer that loses the
// first-message race: its pre-insert existence check came back empty,
// but another sender's insert landed first.
type staleReadStore struct {
	database.Store
	stale *bool
}

func (s *staleReadStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	if *s.stale {
		*s.stale = false
		return nil, utils.NewNotFoundError("conversation")
	}
	return s.Store.GetConversation(ctx, id)
}

func (s *staleReadStore) Transact(ctx context.Context, fn func(ctx context.Context, tx database.Store) error) error {
	return s.Store.Transact(ctx, func(ctx context.Context, tx database.Store) error {
		return fn(ctx, &staleReadStore{Store: tx, stale: s.stale})
	})
}

func TestSendMessageAbsorbsFirstMessageRace(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewMemoryStore()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	// The other sender's first message already created the conversation.
	id, err := DeriveConversationID(alice.ID, bob.ID, "")
	require.NoError(t, err)
	require.NoError(t, store.CreateConversation(ctx, &models.Conversation{
		ID:            id,
		ParticipantA:  bob.ID,
		ParticipantB:  alice.ID,
		CreatedAt:     time.Now(),
		LastMessageAt: time.Now(),
	}))

	stale := true
	raced := &staleReadStore{Store: store, stale: &stale}
	dispatcher := notifications.NewDispatcher(store, logger)
	svc := NewService(raced, notifications.NewSyncNotifier(dispatcher, logger), logger)

	// The duplicate insert is absorbed by refetching the winner's row.
	msg, err := svc.SendMessage(ctx, alice.ID, bob.ID, "", "", "me too!")
	require.NoError(t, err)
	assert.Equal(t, id, msg.ConversationID)

	convs, err := store.ListConversationsByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1, "the race must not mint a second conversation")

	msgs, err := store.ListMessages(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "me too!", msgs[0].Content)
}

func TestListConversationsOrdersByActivity(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	carol := seedUser(t, store, "carol")

	first, err := svc.SendMessage(ctx, alice.ID, bob.ID, "", "", "older thread")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := svc.SendMessage(ctx, alice.ID, carol.ID, "", "", "newer thread with a much longer body than fifty characters in total")
	require.NoError(t, err)

	summaries, err := svc.ListConversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, second.ConversationID, summaries[0].ID)
	assert.Equal(t, first.ConversationID, summaries[1].ID)
	assert.Equal(t, carol.ID, summaries[0].OtherParticipant)
	assert.True(t, strings.HasSuffix(summaries[0].LastMessageSnippet, "…"))

	// Total unread spans conversations.
	total, err := svc.TotalUnread(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
