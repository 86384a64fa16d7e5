package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// CreatePostRequest represents a request to publish a post.
type CreatePostRequest struct {
	TopicID string `json:"topicId"`
	Content string `json:"content"`
}

// HandlePosts publishes a new post under a topic. Mentions in the
// content produce notifications asynchronously.
func (s *Server) HandlePosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		authorID, ok := callerID(r)
		if !ok {
			s.unauthorized(w)
			return
		}

		var req CreatePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		topicID, err := uuid.Parse(req.TopicID)
		if err != nil {
			http.Error(w, "Invalid topic ID", http.StatusBadRequest)
			return
		}

		post, err := s.Forum.PublishPost(r.Context(), topicID, authorID, req.Content)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, post)
	}
}

// HandleHealth reports liveness plus the request counters and the
// average latency per instrumented operation.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests, errors, uptime := s.Metrics.Snapshot()

		latencies := make(map[string]float64)
		for name, avg := range s.Metrics.OperationStats() {
			latencies[name] = float64(avg.Microseconds()) / 1000.0
		}

		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":         "healthy",
			"requestCount":   requests,
			"errorCount":     errors,
			"uptimeSeconds":  int(uptime.Seconds()),
			"avgOperationMs": latencies,
		})
	}
}
