package forum

import (
	"context"
	"log/slog"
	"time"

	"cypress-hollow/internal/database"
	"cypress-hollow/internal/models"
	"cypress-hollow/internal/notifications"
	"cypress-hollow/internal/utils"

	"github.com/google/uuid"
)

// Service publishes forum content. Publishing is the entry point of the
// mention pipeline: every new post's content is handed to the notifier
// for @username scanning after the post is stored.
type Service struct {
	store    database.Store
	notifier notifications.Notifier
	logger   *slog.Logger
}

func NewService(store database.Store, notifier notifications.Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, notifier: notifier, logger: logger}
}

// PublishPost stores a new post under a topic and emits the content for
// mention scanning. Mention delivery is best-effort and cannot fail the
// publish.
func (s *Service) PublishPost(ctx context.Context, topicID, authorID uuid.UUID, content string) (*models.Post, error) {
	if content == "" {
		return nil, utils.NewValidationError("content", "post content must not be empty")
	}
	if topicID == uuid.Nil {
		return nil, utils.NewValidationError("topicId", "topic is required")
	}
	if _, err := s.store.GetUser(ctx, authorID); err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:        uuid.New(),
		TopicID:   topicID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.store.SavePost(ctx, post); err != nil {
		return nil, err
	}

	s.notifier.ContentPublished(&notifications.ContentPublishedEvent{
		PostID:   post.ID,
		TopicID:  topicID,
		AuthorID: authorID,
		Content:  content,
	})
	return post, nil
}

// GetPost fetches a single post by id.
func (s *Service) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.store.GetPost(ctx, id)
}
