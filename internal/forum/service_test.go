package forum

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

func newTestService(t *testing.T) (*Service, database.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewMemoryStore()
	dispatcher := notifications.NewDispatcher(store, logger)
	notifier := notifications.NewSyncNotifier(dispatcher, logger)
	return NewService(store, notifier, logger), store
}

func TestPublishPostNotifiesMentionedUsers(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	author := &models.User{ID: uuid.New(), Username: "author", CreatedAt: time.Now()}
	friend := &models.User{ID: uuid.New(), Username: "friend", CreatedAt: time.Now()}
	require.NoError(t, store.SaveUser(ctx, author))
	require.NoError(t, store.SaveUser(ctx, friend))

	post, err := svc.PublishPost(ctx, uuid.New(), author.ID, "big news, right @friend?")
	require.NoError(t, err)

	stored, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, stored.AuthorID)

	notes, err := store.ListNotificationsByUser(ctx, friend.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationMention, notes[0].Type)
	require.NotNil(t, notes[0].PostID)
	assert.Equal(t, post.ID, *notes[0].PostID)
}

func TestPublishPostValidation(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	author := &models.User{ID: uuid.New(), Username: "author", CreatedAt: time.Now()}
	require.NoError(t, store.SaveUser(ctx, author))

	_, err := svc.PublishPost(ctx, uuid.New(), author.ID, "")
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))

	_, err = svc.PublishPost(ctx, uuid.Nil, author.ID, "content")
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))

	_, err = svc.PublishPost(ctx, uuid.New(), uuid.New(), "content")
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}
