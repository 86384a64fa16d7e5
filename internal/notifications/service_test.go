package notifications

import (
	"context"
	"testing"
	"time"

	"cypress-hollow/internal/database"
	"cypress-hollow/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNotification(t *testing.T, store database.Store, recipientID uuid.UUID) *models.Notification {
	t.Helper()
	n := &models.Notification{
		ID:          uuid.New(),
		Type:        models.NotificationReaction,
		RecipientID: recipientID,
		ActorID:     uuid.New(),
		CreatedAt:   time.Now(),
	}
	require.NoError(t, store.SaveNotification(context.Background(), n))
	return n
}

func TestMarkReadRespectsOwnership(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	svc := NewService(store)

	owner := uuid.New()
	other := uuid.New()
	n := seedNotification(t, store, owner)

	// Someone else's id flips nothing.
	ok, err := svc.MarkRead(ctx, n.ID, other)
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := svc.CountUnread(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Owner succeeds, and doing it again is harmless.
	ok, err = svc.MarkRead(ctx, n.ID, owner)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.MarkRead(ctx, n.ID, owner)
	require.NoError(t, err)
	assert.True(t, ok)

	count, err = svc.CountUnread(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMarkAllReadDrainsUnread(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	svc := NewService(store)

	owner := uuid.New()
	for i := 0; i < 4; i++ {
		seedNotification(t, store, owner)
	}
	seedNotification(t, store, uuid.New()) // someone else's, must survive

	ok, err := svc.MarkAllRead(ctx, owner)
	require.NoError(t, err)
	assert.True(t, ok)

	count, err := svc.CountUnread(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 4)
	for _, n := range list {
		assert.True(t, n.IsRead)
	}
}
