// internal/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cypress-hollow/internal/models"
	"cypress-hollow/internal/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresDB is the primary Store backend. The same struct serves both
// plain connections and open transactions: Transact hands out a clone
// whose ext is the *sqlx.Tx, so every method runs against whichever is
// current without call sites knowing the difference.
type PostgresDB struct {
	db  *sqlx.DB       // nil when this instance wraps a transaction
	ext sqlx.ExtContext
}

// NewPostgresDB creates a new PostgreSQL database connection.
func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %v", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %v", err)
	}

	return &PostgresDB{db: db, ext: db}, nil
}

// Close closes the database connection.
func (p *PostgresDB) Close(ctx context.Context) error {
	if p.db == nil {
		return nil // transaction-scoped clone, nothing to close
	}
	return p.db.Close()
}

// Transact runs fn inside a single transaction with rollback on any error.
// Nested calls reuse the already-open transaction.
func (p *PostgresDB) Transact(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	if p.db == nil {
		return fn(ctx, p)
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback() // no-op once committed

	if err := fn(ctx, &PostgresDB{ext: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return utils.NewStorageError("failed to commit transaction", err)
	}
	return nil
}

// InitializeTables creates all necessary tables if they don't exist.
func (p *PostgresDB) InitializeTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			points INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id UUID PRIMARY KEY,
			topic_id UUID NOT NULL,
			author_id UUID NOT NULL REFERENCES users(id),
			content TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			participant_a UUID NOT NULL REFERENCES users(id),
			participant_b UUID NOT NULL REFERENCES users(id),
			subject TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			last_message_at TIMESTAMP WITH TIME ZONE NOT NULL,
			last_message_snippet TEXT NOT NULL DEFAULT '',
			last_sender_id UUID NOT NULL DEFAULT '00000000-0000-0000-0000-000000000000'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_participants
			ON conversations (participant_a, participant_b, last_message_at DESC)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES conversations(id),
			sender_id UUID NOT NULL REFERENCES users(id),
			content TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			read_by TEXT[] NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation
			ON messages (conversation_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS reactions (
			post_id UUID NOT NULL REFERENCES posts(id),
			user_id UUID NOT NULL REFERENCES users(id),
			type VARCHAR(20) NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
			UNIQUE (post_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			type VARCHAR(20) NOT NULL,
			recipient_id UUID NOT NULL REFERENCES users(id),
			actor_id UUID NOT NULL,
			post_id UUID,
			topic_id UUID,
			conversation_id TEXT,
			reaction_type VARCHAR(20),
			message TEXT NOT NULL DEFAULT '',
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient
			ON notifications (recipient_id, created_at DESC)`,
		// One mention notification per (recipient, post), enforced at the
		// storage layer so concurrent mention scans cannot double-notify.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_notifications_mention_once
			ON notifications (recipient_id, post_id) WHERE type = 'mention'`,
	}

	for _, stmt := range statements {
		if _, err := p.ext.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize tables: %v", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code.Name() == "unique_violation"
	}
	return false
}

// --- User Methods ---

func (p *PostgresDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT id, username, points, created_at FROM users WHERE id = $1`
	var user models.User
	err := sqlx.GetContext(ctx, p.ext, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewNotFoundError("user")
		}
		return nil, utils.NewStorageError("failed to query user by id", err)
	}
	return &user, nil
}

func (p *PostgresDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, points, created_at FROM users WHERE username = $1`
	var user models.User
	err := sqlx.GetContext(ctx, p.ext, &user, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewNotFoundError("user")
		}
		return nil, utils.NewStorageError("failed to query user by username", err)
	}
	return &user, nil
}

func (p *PostgresDB) SaveUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	query := `INSERT INTO users (id, username, points, created_at) VALUES ($1, $2, $3, $4)`
	_, err := p.ext.ExecContext(ctx, query, user.ID, user.Username, user.Points, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return utils.NewDuplicateError("user")
		}
		return utils.NewStorageError("failed to save user", err)
	}
	return nil
}

func (p *PostgresDB) UpdateUserPoints(ctx context.Context, id uuid.UUID, points int) error {
	query := `UPDATE users SET points = $1 WHERE id = $2`
	result, err := p.ext.ExecContext(ctx, query, points, id)
	if err != nil {
		return utils.NewStorageError("failed to update user points", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return utils.NewNotFoundError("user")
	}
	return nil
}

// --- Post Methods ---

func (p *PostgresDB) SavePost(ctx context.Context, post *models.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	query := `INSERT INTO posts (id, topic_id, author_id, content, created_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := p.ext.ExecContext(ctx, query, post.ID, post.TopicID, post.AuthorID, post.Content, post.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return utils.NewDuplicateError("post")
		}
		return utils.NewStorageError("failed to save post", err)
	}
	return nil
}

func (p *PostgresDB) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	query := `SELECT id, topic_id, author_id, content, created_at FROM posts WHERE id = $1`
	var post models.Post
	err := sqlx.GetContext(ctx, p.ext, &post, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewNotFoundError("post")
		}
		return nil, utils.NewStorageError("failed to query post by id", err)
	}
	return &post, nil
}

// --- Conversation Methods ---

func (p *PostgresDB) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	query := `
		INSERT INTO conversations (id, participant_a, participant_b, subject, created_at, last_message_at, last_message_snippet, last_sender_id)
		VALUES (:id, :participant_a, :participant_b, :subject, :created_at, :last_message_at, :last_message_snippet, :last_sender_id)
	`
	_, err := sqlx.NamedExecContext(ctx, p.ext, query, conv)
	if err != nil {
		if isUniqueViolation(err) {
			return utils.NewDuplicateError("conversation")
		}
		return utils.NewStorageError("failed to create conversation", err)
	}
	return nil
}

func (p *PostgresDB) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	query := `
		SELECT id, participant_a, participant_b, subject, created_at, last_message_at, last_message_snippet, last_sender_id
		FROM conversations WHERE id = $1
	`
	var conv models.Conversation
	err := sqlx.GetContext(ctx, p.ext, &conv, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewNotFoundError("conversation")
		}
		return nil, utils.NewStorageError("failed to query conversation by id", err)
	}
	return &conv, nil
}

func (p *PostgresDB) ListConversationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	query := `
		SELECT id, participant_a, participant_b, subject, created_at, last_message_at, last_message_snippet, last_sender_id
		FROM conversations
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY last_message_at DESC
	`
	convs := []*models.Conversation{}
	err := sqlx.SelectContext(ctx, p.ext, &convs, query, userID)
	if err != nil {
		return nil, utils.NewStorageError("failed to query user conversations", err)
	}
	return convs, nil
}

func (p *PostgresDB) TouchConversation(ctx context.Context, id string, snippet string, senderID uuid.UUID, at time.Time) error {
	query := `
		UPDATE conversations
		SET last_message_at = $2, last_message_snippet = $3, last_sender_id = $4
		WHERE id = $1
	`
	result, err := p.ext.ExecContext(ctx, query, id, at, snippet, senderID)
	if err != nil {
		return utils.NewStorageError("failed to touch conversation", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return utils.NewNotFoundError("conversation")
	}
	return nil
}

// --- Message Methods ---

// messageRow carries the pq array column; the model keeps parsed UUIDs.
type messageRow struct {
	ID             uuid.UUID      `db:"id"`
	ConversationID string         `db:"conversation_id"`
	SenderID       uuid.UUID      `db:"sender_id"`
	Content        string         `db:"content"`
	CreatedAt      time.Time      `db:"created_at"`
	ReadBy         pq.StringArray `db:"read_by"`
}

func (r *messageRow) toModel() *models.PrivateMessage {
	msg := &models.PrivateMessage{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		Content:        r.Content,
		CreatedAt:      r.CreatedAt,
		ReadBy:         make([]uuid.UUID, 0, len(r.ReadBy)),
	}
	for _, s := range r.ReadBy {
		if id, err := uuid.Parse(s); err == nil {
			msg.ReadBy = append(msg.ReadBy, id)
		}
	}
	return msg
}

func (p *PostgresDB) SaveMessage(ctx context.Context, msg *models.PrivateMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	readBy := make([]string, len(msg.ReadBy))
	for i, id := range msg.ReadBy {
		readBy[i] = id.String()
	}

	query := `
		INSERT INTO messages (id, conversation_id, sender_id, content, created_at, read_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := p.ext.ExecContext(ctx, query, msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.CreatedAt, pq.Array(readBy))
	if err != nil {
		return utils.NewStorageError("failed to save message", err)
	}
	return nil
}

func (p *PostgresDB) ListMessages(ctx context.Context, conversationID string) ([]*models.PrivateMessage, error) {
	query := `
		SELECT id, conversation_id, sender_id, content, created_at, read_by
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`
	rows := []*messageRow{}
	err := sqlx.SelectContext(ctx, p.ext, &rows, query, conversationID)
	if err != nil {
		return nil, utils.NewStorageError("failed to query conversation messages", err)
	}

	messages := make([]*models.PrivateMessage, len(rows))
	for i, r := range rows {
		messages[i] = r.toModel()
	}
	return messages, nil
}

func (p *PostgresDB) MarkConversationRead(ctx context.Context, conversationID string, userID uuid.UUID) error {
	// Append-only: a user already present in read_by is never touched again.
	query := `
		UPDATE messages
		SET read_by = array_append(read_by, $2)
		WHERE conversation_id = $1
		  AND sender_id <> $2::uuid
		  AND NOT ($2 = ANY(read_by))
	`
	_, err := p.ext.ExecContext(ctx, query, conversationID, userID.String())
	if err != nil {
		return utils.NewStorageError("failed to mark conversation read", err)
	}
	return nil
}

func (p *PostgresDB) CountUnread(ctx context.Context, conversationID string, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages
		WHERE conversation_id = $1
		  AND sender_id <> $2::uuid
		  AND NOT ($2 = ANY(read_by))
	`
	var count int
	err := sqlx.GetContext(ctx, p.ext, &count, query, conversationID, userID.String())
	if err != nil {
		return 0, utils.NewStorageError("failed to count unread messages", err)
	}
	return count, nil
}

func (p *PostgresDB) CountUnreadForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversations c ON m.conversation_id = c.id
		WHERE (c.participant_a = $1::uuid OR c.participant_b = $1::uuid)
		  AND m.sender_id <> $1::uuid
		  AND NOT ($1 = ANY(m.read_by))
	`
	var count int
	err := sqlx.GetContext(ctx, p.ext, &count, query, userID.String())
	if err != nil {
		return 0, utils.NewStorageError("failed to count unread messages for user", err)
	}
	return count, nil
}

// --- Reaction Methods ---

func (p *PostgresDB) GetReaction(ctx context.Context, postID, userID uuid.UUID) (*models.Reaction, error) {
	// FOR UPDATE: inside a transaction, concurrent toggles of an existing
	// reaction serialize on the row instead of both acting on a stale read.
	query := `SELECT post_id, user_id, type, updated_at FROM reactions WHERE post_id = $1 AND user_id = $2 FOR UPDATE`
	var reaction models.Reaction
	err := sqlx.GetContext(ctx, p.ext, &reaction, query, postID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewNotFoundError("reaction")
		}
		return nil, utils.NewStorageError("failed to query reaction", err)
	}
	return &reaction, nil
}

func (p *PostgresDB) UpsertReaction(ctx context.Context, reaction *models.Reaction) error {
	// The unique constraint turns same-user races into an update of the
	// single existing row rather than a second row.
	query := `
		INSERT INTO reactions (post_id, user_id, type, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (post_id, user_id) DO UPDATE SET
			type = EXCLUDED.type,
			updated_at = EXCLUDED.updated_at
	`
	_, err := p.ext.ExecContext(ctx, query, reaction.PostID, reaction.UserID, reaction.Type, reaction.UpdatedAt)
	if err != nil {
		return utils.NewStorageError("failed to upsert reaction", err)
	}
	return nil
}

func (p *PostgresDB) DeleteReaction(ctx context.Context, postID, userID uuid.UUID) error {
	query := `DELETE FROM reactions WHERE post_id = $1 AND user_id = $2`
	_, err := p.ext.ExecContext(ctx, query, postID, userID)
	if err != nil {
		return utils.NewStorageError("failed to delete reaction", err)
	}
	return nil
}

type reactionCountRow struct {
	Type  models.ReactionType `db:"type"`
	Count int                 `db:"count"`
}

func (p *PostgresDB) CountReactionsByPost(ctx context.Context, postID uuid.UUID) (map[models.ReactionType]int, error) {
	query := `SELECT type, COUNT(*) AS count FROM reactions WHERE post_id = $1 GROUP BY type`
	rows := []reactionCountRow{}
	err := sqlx.SelectContext(ctx, p.ext, &rows, query, postID)
	if err != nil {
		return nil, utils.NewStorageError("failed to count post reactions", err)
	}
	counts := make(map[models.ReactionType]int, len(rows))
	for _, r := range rows {
		counts[r.Type] = r.Count
	}
	return counts, nil
}

func (p *PostgresDB) CountReactionsForAuthor(ctx context.Context, authorID uuid.UUID) (map[models.ReactionType]int, error) {
	query := `
		SELECT r.type, COUNT(*) AS count
		FROM reactions r
		JOIN posts p ON r.post_id = p.id
		WHERE p.author_id = $1 AND r.user_id <> p.author_id
		GROUP BY r.type
	`
	rows := []reactionCountRow{}
	err := sqlx.SelectContext(ctx, p.ext, &rows, query, authorID)
	if err != nil {
		return nil, utils.NewStorageError("failed to count author reactions", err)
	}
	counts := make(map[models.ReactionType]int, len(rows))
	for _, r := range rows {
		counts[r.Type] = r.Count
	}
	return counts, nil
}

// --- Notification Methods ---

func (p *PostgresDB) SaveNotification(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	if n.Type == models.NotificationMention {
		// Partial unique index on (recipient_id, post_id) makes a repeat
		// mention a no-op insert; report it so callers can skip quietly.
		query := `
			INSERT INTO notifications (id, type, recipient_id, actor_id, post_id, topic_id, conversation_id, reaction_type, message, is_read, created_at)
			VALUES (:id, :type, :recipient_id, :actor_id, :post_id, :topic_id, :conversation_id, :reaction_type, :message, :is_read, :created_at)
			ON CONFLICT (recipient_id, post_id) WHERE type = 'mention' DO NOTHING
		`
		result, err := sqlx.NamedExecContext(ctx, p.ext, query, n)
		if err != nil {
			return utils.NewStorageError("failed to save mention notification", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return utils.NewDuplicateError("mention notification")
		}
		return nil
	}

	query := `
		INSERT INTO notifications (id, type, recipient_id, actor_id, post_id, topic_id, conversation_id, reaction_type, message, is_read, created_at)
		VALUES (:id, :type, :recipient_id, :actor_id, :post_id, :topic_id, :conversation_id, :reaction_type, :message, :is_read, :created_at)
	`
	_, err := sqlx.NamedExecContext(ctx, p.ext, query, n)
	if err != nil {
		return utils.NewStorageError("failed to save notification", err)
	}
	return nil
}

func (p *PostgresDB) ListNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	query := `
		SELECT id, type, recipient_id, actor_id, post_id, topic_id, conversation_id, reaction_type, message, is_read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
	`
	notifications := []*models.Notification{}
	err := sqlx.SelectContext(ctx, p.ext, &notifications, query, userID)
	if err != nil {
		return nil, utils.NewStorageError("failed to query user notifications", err)
	}
	return notifications, nil
}

func (p *PostgresDB) MarkNotificationRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error) {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`
	result, err := p.ext.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, utils.NewStorageError("failed to mark notification read", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (p *PostgresDB) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (bool, error) {
	query := `UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND NOT is_read`
	_, err := p.ext.ExecContext(ctx, query, userID)
	if err != nil {
		return false, utils.NewStorageError("failed to mark all notifications read", err)
	}
	return true, nil
}

func (p *PostgresDB) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read`
	var count int
	err := sqlx.GetContext(ctx, p.ext, &count, query, userID)
	if err != nil {
		return 0, utils.NewStorageError("failed to count unread notifications", err)
	}
	return count, nil
}
