package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"cypress-hollow/internal/config"
	"cypress-hollow/internal/database"
	"cypress-hollow/internal/forum"
	"cypress-hollow/internal/messaging"
	"cypress-hollow/internal/models"
	"cypress-hollow/internal/notifications"
	"cypress-hollow/internal/reactions"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
)

// Seeds a store with synthetic forum traffic: users, cross-user
// messages, posts carrying mentions, and reaction churn. Useful for
// poking at a fresh deployment or demoing the unread counters.
func main() {
	var (
		numUsers    = flag.Int("users", 8, "number of users to create")
		numTopics   = flag.Int("topics", 3, "number of topics to post under")
		numMessages = flag.Int("messages", 40, "number of private messages to exchange")
		numPosts    = flag.Int("posts", 20, "number of posts to publish")
		numToggles  = flag.Int("reactions", 60, "number of reaction toggles to apply")
	)
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.Kitchen}))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open store", "type", cfg.Database.Type, "error", err)
		os.Exit(1)
	}
	defer store.Close(context.Background())

	ctx := context.Background()

	// Inline dispatch so every notification is written before we report.
	dispatcher := notifications.NewDispatcher(store, logger)
	notifier := notifications.NewSyncNotifier(dispatcher, logger)

	messagingSvc := messaging.NewService(store, notifier, logger)
	reactionEngine := reactions.NewEngine(store, notifier, logger)
	forumSvc := forum.NewService(store, notifier, logger)

	users := make([]*models.User, 0, *numUsers)
	for i := 0; i < *numUsers; i++ {
		user := &models.User{
			ID:        uuid.New(),
			Username:  fmt.Sprintf("swampfolk%d", i+1),
			CreatedAt: time.Now(),
		}
		if err := store.SaveUser(ctx, user); err != nil {
			logger.Error("failed to seed user", "username", user.Username, "error", err)
			os.Exit(1)
		}
		users = append(users, user)
	}
	logger.Info("seeded users", "count", len(users))

	topics := make([]uuid.UUID, *numTopics)
	for i := range topics {
		topics[i] = uuid.New()
	}

	subjects := []string{"", "Trip Planning", "Game Night?", "re: that thread"}
	for i := 0; i < *numMessages; i++ {
		sender := users[rand.Intn(len(users))]
		receiver := users[rand.Intn(len(users))]
		if receiver.ID == sender.ID {
			continue
		}
		subject := subjects[rand.Intn(len(subjects))]
		content := fmt.Sprintf("hey %s, message #%d from %s", receiver.Username, i, sender.Username)
		if _, err := messagingSvc.SendMessage(ctx, sender.ID, receiver.ID, "", subject, content); err != nil {
			logger.Warn("message send failed", "error", err)
		}
	}

	posts := make([]*models.Post, 0, *numPosts)
	for i := 0; i < *numPosts; i++ {
		author := users[rand.Intn(len(users))]
		mentioned := users[rand.Intn(len(users))]
		content := fmt.Sprintf("post #%d, shoutout to @%s", i, mentioned.Username)
		post, err := forumSvc.PublishPost(ctx, topics[rand.Intn(len(topics))], author.ID, content)
		if err != nil {
			logger.Warn("post publish failed", "error", err)
			continue
		}
		posts = append(posts, post)
	}
	logger.Info("seeded posts", "count", len(posts))

	types := []models.ReactionType{
		models.ReactionLike, models.ReactionLove, models.ReactionHaha,
		models.ReactionWow, models.ReactionSad, models.ReactionAngry,
	}
	for i := 0; i < *numToggles && len(posts) > 0; i++ {
		post := posts[rand.Intn(len(posts))]
		reactor := users[rand.Intn(len(users))]
		if _, err := reactionEngine.Toggle(ctx, post.ID, reactor.ID, types[rand.Intn(len(types))]); err != nil {
			logger.Warn("reaction toggle failed", "error", err)
		}
	}

	for _, user := range users {
		unreadMsgs, _ := messagingSvc.TotalUnread(ctx, user.ID)
		fresh, err := store.GetUser(ctx, user.ID)
		if err != nil {
			continue
		}
		logger.Info("seeded user state",
			"username", user.Username,
			"points", fresh.Points,
			"unreadMessages", unreadMsgs,
		)
	}
}

func openStore(cfg *config.Config) (database.Store, error) {
	switch cfg.Database.Type {
	case "postgres":
		db, err := database.NewPostgresDB(cfg.Database.URI)
		if err != nil {
			return nil, err
		}
		if err := db.InitializeTables(context.Background()); err != nil {
			return nil, err
		}
		return db, nil
	case "mongo":
		return database.NewMongoDB(cfg.Database.URI)
	default:
		return database.NewMemoryStore(), nil
	}
}
