package notifications

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"cypress-hollow/internal/database"
	"cypress-hollow/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, database.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewMemoryStore()
	return NewDispatcher(store, logger), store
}

func seedUser(t *testing.T, store database.Store, username string) *models.User {
	t.Helper()
	user := &models.User{ID: uuid.New(), Username: username, CreatedAt: time.Now()}
	require.NoError(t, store.SaveUser(context.Background(), user))
	return user
}

func TestHandleContentPublishedMentions(t *testing.T) {
	ctx := context.Background()
	dispatcher, store := newTestDispatcher(t)
	author := seedUser(t, store, "author")
	gator := seedUser(t, store, "gator_gal")
	swampy := seedUser(t, store, "swampy")

	err := dispatcher.HandleContentPublished(ctx, &ContentPublishedEvent{
		PostID:   uuid.New(),
		TopicID:  uuid.New(),
		AuthorID: author.ID,
		Content:  "thanks @gator_gal and @swampy, also @gator_gal again and @nobody",
	})
	require.NoError(t, err)

	// One notification per mentioned user, repeats and unknowns dropped.
	gatorNotes, err := store.ListNotificationsByUser(ctx, gator.ID)
	require.NoError(t, err)
	require.Len(t, gatorNotes, 1)
	assert.Equal(t, models.NotificationMention, gatorNotes[0].Type)
	assert.Equal(t, author.ID, gatorNotes[0].ActorID)

	swampyNotes, err := store.ListNotificationsByUser(ctx, swampy.ID)
	require.NoError(t, err)
	assert.Len(t, swampyNotes, 1)
}

func TestHandleContentPublishedSkipsSelfMention(t *testing.T) {
	ctx := context.Background()
	dispatcher, store := newTestDispatcher(t)
	author := seedUser(t, store, "author")

	err := dispatcher.HandleContentPublished(ctx, &ContentPublishedEvent{
		PostID:   uuid.New(),
		TopicID:  uuid.New(),
		AuthorID: author.ID,
		Content:  "note to self: @author",
	})
	require.NoError(t, err)

	notes, err := store.ListNotificationsByUser(ctx, author.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestHandleContentPublishedDedupAcrossEdits(t *testing.T) {
	ctx := context.Background()
	dispatcher, store := newTestDispatcher(t)
	author := seedUser(t, store, "author")
	gator := seedUser(t, store, "gator_gal")

	postID := uuid.New()
	topicID := uuid.New()
	ev := &ContentPublishedEvent{
		PostID:   postID,
		TopicID:  topicID,
		AuthorID: author.ID,
		Content:  "hey @gator_gal",
	}

	// Reprocessing the same post must not notify twice; the storage-level
	// dedup absorbs it without surfacing an error.
	require.NoError(t, dispatcher.HandleContentPublished(ctx, ev))
	require.NoError(t, dispatcher.HandleContentPublished(ctx, ev))

	notes, err := store.ListNotificationsByUser(ctx, gator.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestHandleMessageSentTruncatesPreview(t *testing.T) {
	ctx := context.Background()
	dispatcher, store := newTestDispatcher(t)
	sender := seedUser(t, store, "sender")
	recipient := seedUser(t, store, "recipient")

	long := strings.Repeat("é", previewLength+10)
	err := dispatcher.HandleMessageSent(ctx, &MessageSentEvent{
		MessageID:      uuid.New(),
		ConversationID: "conv-1",
		SenderID:       sender.ID,
		RecipientID:    recipient.ID,
		Content:        long,
	})
	require.NoError(t, err)

	notes, err := store.ListNotificationsByUser(ctx, recipient.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationPrivateMessage, notes[0].Type)
	assert.Equal(t, strings.Repeat("é", previewLength)+"…", notes[0].Message)
	require.NotNil(t, notes[0].ConversationID)
	assert.Equal(t, "conv-1", *notes[0].ConversationID)
}

func TestHandleReactionRecordsReference(t *testing.T) {
	ctx := context.Background()
	dispatcher, store := newTestDispatcher(t)
	author := seedUser(t, store, "author")
	reactor := seedUser(t, store, "reactor")

	postID := uuid.New()
	topicID := uuid.New()
	err := dispatcher.HandleReaction(ctx, &ReactionEvent{
		PostID:    postID,
		TopicID:   topicID,
		AuthorID:  author.ID,
		ReactorID: reactor.ID,
		Type:      models.ReactionLove,
	})
	require.NoError(t, err)

	notes, err := store.ListNotificationsByUser(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationReaction, notes[0].Type)
	require.NotNil(t, notes[0].PostID)
	assert.Equal(t, postID, *notes[0].PostID)
	require.NotNil(t, notes[0].ReactionType)
	assert.Equal(t, models.ReactionLove, *notes[0].ReactionType)
	assert.False(t, notes[0].IsRead)
}
