package reactions

import (
	"context"
	"io"
	"log/slog"
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

func newTestEngine(t *testing.T) (*Engine, database.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewMemoryStore()
	dispatcher := notifications.NewDispatcher(store, logger)
	notifier := notifications.NewSyncNotifier(dispatcher, logger)
	return NewEngine(store, notifier, logger), store
}

func seedPost(t *testing.T, store database.Store, authorID uuid.UUID) *models.Post {
	t.Helper()
	post := &models.Post{
		ID:        uuid.New(),
		TopicID:   uuid.New(),
		AuthorID:  authorID,
		Content:   "gator sightings thread",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.SavePost(context.Background(), post))
	return post
}

func seedUser(t *testing.T, store database.Store, username string) *models.User {
	t.Helper()
	user := &models.User{ID: uuid.New(), Username: username, CreatedAt: time.Now()}
	require.NoError(t, store.SaveUser(context.Background(), user))
	return user
}

func TestToggleLifecycle(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	author := seedUser(t, store, "author")
	reactor := seedUser(t, store, "reactor")
	post := seedPost(t, store, author.ID)

	// Absent -> insert.
	result, err := engine.Toggle(ctx, post.ID, reactor.ID, models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdded, result.Outcome)
	assert.Equal(t, 1, result.Counts[models.ReactionLike])
	assert.Equal(t, 2, result.AuthorPoints)

	// Different type -> replace in place, never two rows.
	result, err = engine.Toggle(ctx, post.ID, reactor.ID, models.ReactionWow)
	require.NoError(t, err)
	assert.Equal(t, OutcomeChanged, result.Outcome)
	assert.Equal(t, 0, result.Counts[models.ReactionLike])
	assert.Equal(t, 1, result.Counts[models.ReactionWow])
	assert.Equal(t, 1, result.AuthorPoints)

	// Same type -> remove.
	result, err = engine.Toggle(ctx, post.ID, reactor.ID, models.ReactionWow)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, result.Outcome)
	assert.Empty(t, result.Counts)
	assert.Equal(t, 0, result.AuthorPoints)

	_, err = store.GetReaction(ctx, post.ID, reactor.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestTogglePointsStayConsistent(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	author := seedUser(t, store, "author")
	post := seedPost(t, store, author.ID)

	reactors := []*models.User{
		seedUser(t, store, "u1"),
		seedUser(t, store, "u2"),
		seedUser(t, store, "u3"),
	}
	types := []models.ReactionType{models.ReactionLove, models.ReactionHaha, models.ReactionSad}
	for i, reactor := range reactors {
		_, err := engine.Toggle(ctx, post.ID, reactor.ID, types[i])
		require.NoError(t, err)
	}

	// love=2 + haha=1 + sad=0
	user, err := store.GetUser(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, user.Points)

	// Removing the love drops the total accordingly.
	_, err = engine.Toggle(ctx, post.ID, reactors[0].ID, models.ReactionLove)
	require.NoError(t, err)
	user, err = store.GetUser(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, user.Points)
}

func TestToggleSelfReactionScoresNothing(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	author := seedUser(t, store, "author")
	post := seedPost(t, store, author.ID)

	result, err := engine.Toggle(ctx, post.ID, author.ID, models.ReactionLove)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdded, result.Outcome)
	assert.Equal(t, 1, result.Counts[models.ReactionLove])
	assert.Equal(t, 0, result.AuthorPoints, "own reactions must not mint points")

	// And no notification either.
	notes, err := store.ListNotificationsByUser(ctx, author.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestToggleNotifications(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	author := seedUser(t, store, "author")
	reactor := seedUser(t, store, "reactor")
	post := seedPost(t, store, author.ID)

	// Insert and change both notify the author.
	_, err := engine.Toggle(ctx, post.ID, reactor.ID, models.ReactionLike)
	require.NoError(t, err)
	_, err = engine.Toggle(ctx, post.ID, reactor.ID, models.ReactionAngry)
	require.NoError(t, err)

	notes, err := store.ListNotificationsByUser(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	// Newest first.
	assert.Equal(t, models.NotificationReaction, notes[0].Type)
	assert.Equal(t, models.ReactionAngry, *notes[0].ReactionType)
	assert.Equal(t, reactor.ID, notes[0].ActorID)

	// Removal stays silent.
	_, err = engine.Toggle(ctx, post.ID, reactor.ID, models.ReactionAngry)
	require.NoError(t, err)
	notes, err = store.ListNotificationsByUser(ctx, author.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestToggleRejectsUnknownInput(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	reactor := seedUser(t, store, "reactor")

	_, err := engine.Toggle(ctx, uuid.New(), reactor.ID, models.ReactionType("meh"))
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))

	_, err = engine.Toggle(ctx, uuid.New(), reactor.ID, models.ReactionLike)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestPostReactionsIncludesViewerState(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	author := seedUser(t, store, "author")
	reactor := seedUser(t, store, "reactor")
	post := seedPost(t, store, author.ID)

	_, err := engine.Toggle(ctx, post.ID, reactor.ID, models.ReactionHaha)
	require.NoError(t, err)

	got, err := engine.PostReactions(ctx, post.ID, reactor.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReactionCounts[models.ReactionHaha])
	require.NotNil(t, got.ViewerReaction)
	assert.Equal(t, models.ReactionHaha, *got.ViewerReaction)

	// A viewer without a reaction gets counts only.
	got, err = engine.PostReactions(ctx, post.ID, author.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ViewerReaction)
}
