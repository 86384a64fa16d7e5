package notifications

import (
	"context"

	"cypress-hollow/internal/database"
	"cypress-hollow/internal/models"

	"github.com/google/uuid"
)

// Service is the read side of the notification subsystem.
type Service struct {
	store database.Store
}

func NewService(store database.Store) *Service {
	return &Service{store: store}
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	return s.store.ListNotificationsByUser(ctx, userID)
}

// MarkRead flags one notification read. Returns false when the
// notification does not exist or belongs to someone else.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error) {
	return s.store.MarkNotificationRead(ctx, id, userID)
}

// MarkAllRead flags every notification of the user as read.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.store.MarkAllNotificationsRead(ctx, userID)
}

// CountUnread returns the number of unread notifications.
func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.CountUnreadNotifications(ctx, userID)
}
