package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"cypress-hollow/internal/forum"
	"cypress-hollow/internal/messaging"
	"cypress-hollow/internal/middleware"
	"cypress-hollow/internal/notifications"
	"cypress-hollow/internal/reactions"
	"cypress-hollow/internal/utils"

	"github.com/google/uuid"
)

// Server holds all HTTP dependencies.
type Server struct {
	Messaging     *messaging.Service
	Reactions     *reactions.Engine
	Forum         *forum.Service
	Notifications *notifications.Service
	Metrics       *utils.MetricsCollector
	Logger        *slog.Logger
}

func NewServer(
	messagingSvc *messaging.Service,
	reactionEngine *reactions.Engine,
	forumSvc *forum.Service,
	notificationSvc *notifications.Service,
	metrics *utils.MetricsCollector,
	logger *slog.Logger,
) *Server {
	return &Server{
		Messaging:     messagingSvc,
		Reactions:     reactionEngine,
		Forum:         forumSvc,
		Notifications: notificationSvc,
		Metrics:       metrics,
		Logger:        logger,
	}
}

// Instrument wraps a handler so its latency lands in the metrics
// collector under the given operation name.
func (s *Server) Instrument(operation string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		s.Metrics.AddOperationLatency(operation, time.Since(start))
	}
}

// callerID pulls the authenticated user out of the request context.
func callerID(r *http.Request) (uuid.UUID, bool) {
	return middleware.GetUserIDFromContext(r.Context())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps application errors onto HTTP statuses. Unknown errors
// become a generic 500 without leaking internals.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.Metrics.IncrementErrors()

	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		s.writeJSON(w, utils.AppErrorToHTTPStatus(appErr.Code), map[string]interface{}{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
		return
	}

	s.Logger.Error("unhandled error", "error", err)
	s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"error": "internal server error",
		"code":  utils.ErrDatabase,
	})
}

func (s *Server) unauthorized(w http.ResponseWriter) {
	s.Metrics.IncrementErrors()
	s.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
		"error": "authentication required",
		"code":  utils.ErrUnauthorized,
	})
}
