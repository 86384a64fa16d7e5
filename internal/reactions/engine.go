package reactions

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

// Outcome names what a toggle did to the user's reaction on a post.
type Outcome string

const (
	OutcomeAdded   Outcome = "added"
	OutcomeChanged Outcome = "changed"
	OutcomeRemoved Outcome = "removed"
)

// Result reports the toggle outcome together with the post's fresh
// per-type counts and the author's recomputed points.
type Result struct {
	Outcome      Outcome                     `json:"outcome"`
	PostID       uuid.UUID                   `json:"postId"`
	Counts       map[models.ReactionType]int `json:"counts"`
	AuthorPoints int                         `json:"authorPoints"`
}

// Engine applies reaction toggles. A user holds at most one reaction per
// post; repeating the held type removes it, a different type replaces it
// in place. The author's points are recomputed from reaction counts
// inside the same transaction, so points and reactions never drift.
type Engine struct {
	store    database.Store
	notifier notifications.Notifier
	logger   *slog.Logger
}

func NewEngine(store database.Store, notifier notifications.Notifier, logger *slog.Logger) *Engine {
	return &Engine{store: store, notifier: notifier, logger: logger}
}

// Toggle applies reactionType from userID to postID and returns the
// resulting state. Insert and change emit a reaction notification to the
// post's author after commit; removal and self-reaction never do.
func (e *Engine) Toggle(ctx context.Context, postID, userID uuid.UUID, reactionType models.ReactionType) (*Result, error) {
	if !reactionType.Valid() {
		return nil, utils.NewValidationError("type", "unknown reaction type")
	}

	var (
		post    *models.Post
		result  *Result
		outcome Outcome
	)

	err := e.store.Transact(ctx, func(ctx context.Context, tx database.Store) error {
		var err error
		post, err = tx.GetPost(ctx, postID)
		if err != nil {
			return err
		}

		existing, err := tx.GetReaction(ctx, postID, userID)
		switch {
		case err == nil && existing.Type == reactionType:
			outcome = OutcomeRemoved
			if err := tx.DeleteReaction(ctx, postID, userID); err != nil {
				return err
			}
		case err == nil:
			outcome = OutcomeChanged
			if err := tx.UpsertReaction(ctx, &models.Reaction{
				PostID:    postID,
				UserID:    userID,
				Type:      reactionType,
				UpdatedAt: time.Now(),
			}); err != nil {
				return err
			}
		case utils.IsErrorCode(err, utils.ErrNotFound):
			outcome = OutcomeAdded
			if err := tx.UpsertReaction(ctx, &models.Reaction{
				PostID:    postID,
				UserID:    userID,
				Type:      reactionType,
				UpdatedAt: time.Now(),
			}); err != nil {
				return err
			}
		default:
			return err
		}

		points, err := e.recomputePoints(ctx, tx, post.AuthorID)
		if err != nil {
			return err
		}

		counts, err := tx.CountReactionsByPost(ctx, postID)
		if err != nil {
			return err
		}
		result = &Result{
			Outcome:      outcome,
			PostID:       postID,
			Counts:       counts,
			AuthorPoints: points,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome != OutcomeRemoved && userID != post.AuthorID {
		e.notifier.ReactionChanged(&notifications.ReactionEvent{
			PostID:    postID,
			TopicID:   post.TopicID,
			AuthorID:  post.AuthorID,
			ReactorID: userID,
			Type:      reactionType,
		})
	}
	return result, nil
}

// recomputePoints derives the author's points from scratch out of the
// reactions their posts currently hold and writes the new total back.
// Self-reactions are excluded by the store-side aggregation.
func (e *Engine) recomputePoints(ctx context.Context, tx database.Store, authorID uuid.UUID) (int, error) {
	counts, err := tx.CountReactionsForAuthor(ctx, authorID)
	if err != nil {
		return 0, err
	}

	points := 0
	for reactionType, n := range counts {
		points += reactionType.Weight() * n
	}
	if err := tx.UpdateUserPoints(ctx, authorID, points); err != nil {
		return 0, err
	}
	return points, nil
}

// PostReactions returns the per-type counts for a post plus the viewer's
// own reaction, if any.
func (e *Engine) PostReactions(ctx context.Context, postID, viewerID uuid.UUID) (*models.Post, error) {
	post, err := e.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	counts, err := e.store.CountReactionsByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	post.ReactionCounts = counts

	if viewerID != uuid.Nil {
		own, err := e.store.GetReaction(ctx, postID, viewerID)
		if err == nil {
			post.ViewerReaction = &own.Type
		} else if !utils.IsErrorCode(err, utils.ErrNotFound) {
			return nil, err
		}
	}
	return post, nil
}
