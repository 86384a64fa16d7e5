package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cypress-hollow/internal/config"
	"cypress-hollow/internal/database"
	"cypress-hollow/internal/forum"
	"cypress-hollow/internal/handlers"
	"cypress-hollow/internal/messaging"
	"cypress-hollow/internal/middleware"
	"cypress-hollow/internal/notifications"
	"cypress-hollow/internal/reactions"
	"cypress-hollow/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "type", cfg.Database.Type, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("store close failed", "error", err)
		}
	}()

	metrics := utils.NewMetricsCollector()

	// Notifications go through a single actor so that delivery never
	// blocks the request path.
	system := actor.NewActorSystem()
	dispatcher := notifications.NewDispatcher(store, logger)
	notifier := notifications.NewActorNotifier(system, dispatcher, logger)

	messagingSvc := messaging.NewService(store, notifier, logger)
	reactionEngine := reactions.NewEngine(store, notifier, logger)
	forumSvc := forum.NewService(store, notifier, logger)
	notificationSvc := notifications.NewService(store)

	server := handlers.NewServer(messagingSvc, reactionEngine, forumSvc, notificationSvc, metrics, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.HandleHealth())
	mux.HandleFunc("/messages", server.Instrument("send_message", server.HandleMessages()))
	mux.HandleFunc("/conversations", server.Instrument("list_conversations", server.HandleConversations()))
	mux.HandleFunc("/conversations/messages", server.Instrument("list_messages", server.HandleConversationMessages()))
	mux.HandleFunc("/posts", server.Instrument("publish_post", server.HandlePosts()))
	mux.HandleFunc("/posts/reactions", server.Instrument("post_reactions", server.HandlePostReactions()))
	mux.HandleFunc("/reactions", server.Instrument("toggle_reaction", server.HandleReactions()))
	mux.HandleFunc("/notifications", server.Instrument("list_notifications", server.HandleNotifications()))
	mux.HandleFunc("/notifications/read", server.Instrument("mark_notification_read", server.HandleMarkNotificationRead()))
	mux.HandleFunc("/notifications/read-all", server.Instrument("mark_all_notifications_read", server.HandleMarkAllNotificationsRead()))
	mux.HandleFunc("/unread/messages", server.Instrument("unread_messages", server.HandleUnreadMessages()))
	mux.HandleFunc("/unread/notifications", server.Instrument("unread_notifications", server.HandleUnreadNotifications()))

	auth := middleware.NewAuth(cfg.JWTSecret)
	cors := middleware.CORSMiddleware(middleware.DefaultCORSConfig(cfg.AllowedOrigins))
	handler := cors(auth.Middleware(mux))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server", "addr", addr, "database", cfg.Database.Type)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// openStore picks the storage backend. The in-memory store is the
// explicit fallback for local development, never a silent one.
func openStore(cfg *config.Config, logger *slog.Logger) (database.Store, error) {
	switch cfg.Database.Type {
	case "postgres":
		db, err := database.NewPostgresDB(cfg.Database.URI)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := db.InitializeTables(ctx); err != nil {
			return nil, err
		}
		return db, nil
	case "mongo":
		return database.NewMongoDB(cfg.Database.URI)
	case "memory":
		logger.Warn("using in-memory store, data is lost on shutdown")
		return database.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Database.Type)
	}
}
