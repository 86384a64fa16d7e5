package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// SendMessageRequest represents a request to send a private message.
// Either ConversationID or ReceiverID must be set; with only a receiver,
// the conversation is derived from the pair and the optional subject.
type SendMessageRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	ReceiverID     string `json:"receiverId,omitempty"`
	Subject        string `json:"subject,omitempty"`
	Content        string `json:"content"`
}

// HandleMessages sends a private message.
func (s *Server) HandleMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		senderID, ok := callerID(r)
		if !ok {
			s.unauthorized(w)
			return
		}

		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		var receiverID uuid.UUID
		if req.ReceiverID != "" {
			var err error
			receiverID, err = uuid.Parse(req.ReceiverID)
			if err != nil {
				http.Error(w, "Invalid receiver ID", http.StatusBadRequest)
				return
			}
		}

		msg, err := s.Messaging.SendMessage(r.Context(), senderID, receiverID, req.ConversationID, req.Subject, req.Content)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, msg)
	}
}

// HandleConversations lists the caller's conversations, most recently
// active first, with unread counts.
func (s *Server) HandleConversations() http.HandlerFunc {
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

		summaries, err := s.Messaging.ListConversations(r.Context(), userID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, summaries)
	}
}

// HandleConversationMessages returns one conversation's messages oldest
// first. markRead=true additionally records that the caller has now seen
// every message in it.
func (s *Server) HandleConversationMessages() http.HandlerFunc {
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

		conversationID := r.URL.Query().Get("conversationId")
		if conversationID == "" {
			http.Error(w, "Conversation ID required", http.StatusBadRequest)
			return
		}
		markRead := r.URL.Query().Get("markRead") == "true"

		messages, err := s.Messaging.ListMessages(r.Context(), conversationID, userID, markRead)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, messages)
	}
}

// HandleUnreadMessages returns the caller's unread message count, scoped
// to one conversation when conversationId is given, across all of them
// otherwise.
func (s *Server) HandleUnreadMessages() http.HandlerFunc {
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

		var (
			count int
			err   error
		)
		if conversationID := r.URL.Query().Get("conversationId"); conversationID != "" {
			count, err = s.Messaging.UnreadCount(r.Context(), conversationID, userID)
		} else {
			count, err = s.Messaging.TotalUnread(r.Context(), userID)
		}
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]int{"unreadCount": count})
	}
}
