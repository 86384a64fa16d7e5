package handlers

import (
	"encoding/json"
	"net/http"

	"cypress-hollow/internal/models"

	"github.com/google/uuid"
)

// ToggleReactionRequest represents a reaction toggle on a post.
type ToggleReactionRequest struct {
	PostID string `json:"postId"`
	Type   string `json:"type"`
}

// HandleReactions toggles the caller's reaction on a post and returns
// the outcome together with fresh counts.
func (s *Server) HandleReactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := callerID(r)
		if !ok {
			s.unauthorized(w)
			return
		}

		var req ToggleReactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		postID, err := uuid.Parse(req.PostID)
		if err != nil {
			http.Error(w, "Invalid post ID", http.StatusBadRequest)
			return
		}

		result, err := s.Reactions.Toggle(r.Context(), postID, userID, models.ReactionType(req.Type))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, result)
	}
}

// HandlePostReactions returns a post with its per-type reaction counts
// and the caller's own reaction.
func (s *Server) HandlePostReactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := callerID(r)
		if !ok {
			s.unauthorized(w)
			return
		}

		postID, err := uuid.Parse(r.URL.Query().Get("postId"))
		if err != nil {
			http.Error(w, "Invalid post ID", http.StatusBadRequest)
			return
		}

		post, err := s.Reactions.PostReactions(r.Context(), postID, userID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, post)
	}
}
