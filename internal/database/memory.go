// internal/database/memory.go
package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"cypress-hollow/internal/models"
	"cypress-hollow/internal/utils"

	"github.com/google/uuid"
)

type reactionKey struct {
	PostID uuid.UUID
	UserID uuid.UUID
}

type mentionKey struct {
	RecipientID uuid.UUID
	PostID      uuid.UUID
}

// memoryState holds every table as plain maps. Transactions snapshot the
// whole struct and swap it back in on commit, so a failed transaction
// leaves the previous state untouched.
type memoryState struct {
	users         map[uuid.UUID]*models.User
	usersByName   map[string]uuid.UUID
	posts         map[uuid.UUID]*models.Post
	conversations map[string]*models.Conversation
	messages      map[string][]*models.PrivateMessage // conversation id -> messages in creation order
	reactions     map[reactionKey]*models.Reaction
	notifications []*models.Notification
	mentionSeen   map[mentionKey]bool
}

func newMemoryState() *memoryState {
	return &memoryState{
		users:         make(map[uuid.UUID]*models.User),
		usersByName:   make(map[string]uuid.UUID),
		posts:         make(map[uuid.UUID]*models.Post),
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[string][]*models.PrivateMessage),
		reactions:     make(map[reactionKey]*models.Reaction),
		mentionSeen:   make(map[mentionKey]bool),
	}
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	for id, u := range s.users {
		cu := *u
		c.users[id] = &cu
	}
	for name, id := range s.usersByName {
		c.usersByName[name] = id
	}
	for id, p := range s.posts {
		cp := *p
		c.posts[id] = &cp
	}
	for id, conv := range s.conversations {
		cc := *conv
		c.conversations[id] = &cc
	}
	for id, msgs := range s.messages {
		cloned := make([]*models.PrivateMessage, len(msgs))
		for i, m := range msgs {
			cm := *m
			cm.ReadBy = append([]uuid.UUID(nil), m.ReadBy...)
			cloned[i] = &cm
		}
		c.messages[id] = cloned
	}
	for key, r := range s.reactions {
		cr := *r
		c.reactions[key] = &cr
	}
	c.notifications = make([]*models.Notification, len(s.notifications))
	for i, n := range s.notifications {
		cn := *n
		c.notifications[i] = &cn
	}
	for key := range s.mentionSeen {
		c.mentionSeen[key] = true
	}
	return c
}

// MemoryStore is the fallback Store backend. It keeps everything in
// process, which also makes it the substrate for unit tests.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState
	inTx  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Transact snapshots the state, runs fn against the copy under the write
// lock, and swaps the copy in only when fn succeeds.
func (m *MemoryStore) Transact(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	if m.inTx {
		return fn(ctx, m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	txStore := &MemoryStore{state: snapshot, inTx: true}
	if err := fn(ctx, txStore); err != nil {
		return err
	}
	m.state = snapshot
	return nil
}

func (m *MemoryStore) rlock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.RLock()
	return m.mu.RUnlock
}

func (m *MemoryStore) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

// --- User Methods ---

func (m *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	defer m.rlock()()
	user, ok := m.state.users[id]
	if !ok {
		return nil, utils.NewNotFoundError("user")
	}
	u := *user
	return &u, nil
}

func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	defer m.rlock()()
	id, ok := m.state.usersByName[username]
	if !ok {
		return nil, utils.NewNotFoundError("user")
	}
	u := *m.state.users[id]
	return &u, nil
}

func (m *MemoryStore) SaveUser(ctx context.Context, user *models.User) error {
	defer m.lock()()
	if _, exists := m.state.users[user.ID]; exists {
		return utils.NewDuplicateError("user")
	}
	if _, exists := m.state.usersByName[user.Username]; exists {
		return utils.NewDuplicateError("user")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	u := *user
	m.state.users[u.ID] = &u
	m.state.usersByName[u.Username] = u.ID
	return nil
}

func (m *MemoryStore) UpdateUserPoints(ctx context.Context, id uuid.UUID, points int) error {
	defer m.lock()()
	user, ok := m.state.users[id]
	if !ok {
		return utils.NewNotFoundError("user")
	}
	user.Points = points
	return nil
}

// --- Post Methods ---

func (m *MemoryStore) SavePost(ctx context.Context, post *models.Post) error {
	defer m.lock()()
	if _, exists := m.state.posts[post.ID]; exists {
		return utils.NewDuplicateError("post")
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	p := *post
	m.state.posts[p.ID] = &p
	return nil
}

func (m *MemoryStore) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	defer m.rlock()()
	post, ok := m.state.posts[id]
	if !ok {
		return nil, utils.NewNotFoundError("post")
	}
	p := *post
	return &p, nil
}

// --- Conversation Methods ---

func (m *MemoryStore) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	defer m.lock()()
	if _, exists := m.state.conversations[conv.ID]; exists {
		return utils.NewDuplicateError("conversation")
	}
	c := *conv
	m.state.conversations[c.ID] = &c
	return nil
}

func (m *MemoryStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	defer m.rlock()()
	conv, ok := m.state.conversations[id]
	if !ok {
		return nil, utils.NewNotFoundError("conversation")
	}
	c := *conv
	return &c, nil
}

func (m *MemoryStore) ListConversationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	defer m.rlock()()
	convs := []*models.Conversation{}
	for _, conv := range m.state.conversations {
		if conv.HasParticipant(userID) {
			c := *conv
			convs = append(convs, &c)
		}
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].LastMessageAt.After(convs[j].LastMessageAt)
	})
	return convs, nil
}

func (m *MemoryStore) TouchConversation(ctx context.Context, id string, snippet string, senderID uuid.UUID, at time.Time) error {
	defer m.lock()()
	conv, ok := m.state.conversations[id]
	if !ok {
		return utils.NewNotFoundError("conversation")
	}
	conv.LastMessageAt = at
	conv.LastMessageSnippet = snippet
	conv.LastSenderID = senderID
	return nil
}

// --- Message Methods ---

func (m *MemoryStore) SaveMessage(ctx context.Context, msg *models.PrivateMessage) error {
	defer m.lock()()
	if _, ok := m.state.conversations[msg.ConversationID]; !ok {
		return utils.NewNotFoundError("conversation")
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	stored := *msg
	stored.ReadBy = append([]uuid.UUID(nil), msg.ReadBy...)
	m.state.messages[msg.ConversationID] = append(m.state.messages[msg.ConversationID], &stored)
	return nil
}

func (m *MemoryStore) ListMessages(ctx context.Context, conversationID string) ([]*models.PrivateMessage, error) {
	defer m.rlock()()
	stored := m.state.messages[conversationID]
	messages := make([]*models.PrivateMessage, len(stored))
	for i, msg := range stored {
		c := *msg
		c.ReadBy = append([]uuid.UUID(nil), msg.ReadBy...)
		messages[i] = &c
	}
	return messages, nil
}

func (m *MemoryStore) MarkConversationRead(ctx context.Context, conversationID string, userID uuid.UUID) error {
	defer m.lock()()
	for _, msg := range m.state.messages[conversationID] {
		if msg.SenderID != userID && !msg.ReadByUser(userID) {
			msg.ReadBy = append(msg.ReadBy, userID)
		}
	}
	return nil
}

func (m *MemoryStore) CountUnread(ctx context.Context, conversationID string, userID uuid.UUID) (int, error) {
	defer m.rlock()()
	count := 0
	for _, msg := range m.state.messages[conversationID] {
		if msg.UnreadFor(userID) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) CountUnreadForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	defer m.rlock()()
	count := 0
	for convID, conv := range m.state.conversations {
		if !conv.HasParticipant(userID) {
			continue
		}
		for _, msg := range m.state.messages[convID] {
			if msg.UnreadFor(userID) {
				count++
			}
		}
	}
	return count, nil
}

// --- Reaction Methods ---

func (m *MemoryStore) GetReaction(ctx context.Context, postID, userID uuid.UUID) (*models.Reaction, error) {
	defer m.rlock()()
	reaction, ok := m.state.reactions[reactionKey{PostID: postID, UserID: userID}]
	if !ok {
		return nil, utils.NewNotFoundError("reaction")
	}
	r := *reaction
	return &r, nil
}

func (m *MemoryStore) UpsertReaction(ctx context.Context, reaction *models.Reaction) error {
	defer m.lock()()
	r := *reaction
	m.state.reactions[reactionKey{PostID: r.PostID, UserID: r.UserID}] = &r
	return nil
}

func (m *MemoryStore) DeleteReaction(ctx context.Context, postID, userID uuid.UUID) error {
	defer m.lock()()
	delete(m.state.reactions, reactionKey{PostID: postID, UserID: userID})
	return nil
}

func (m *MemoryStore) CountReactionsByPost(ctx context.Context, postID uuid.UUID) (map[models.ReactionType]int, error) {
	defer m.rlock()()
	counts := make(map[models.ReactionType]int)
	for key, r := range m.state.reactions {
		if key.PostID == postID {
			counts[r.Type]++
		}
	}
	return counts, nil
}

func (m *MemoryStore) CountReactionsForAuthor(ctx context.Context, authorID uuid.UUID) (map[models.ReactionType]int, error) {
	defer m.rlock()()
	counts := make(map[models.ReactionType]int)
	for key, r := range m.state.reactions {
		post, ok := m.state.posts[key.PostID]
		if !ok || post.AuthorID != authorID || key.UserID == authorID {
			continue
		}
		counts[r.Type]++
	}
	return counts, nil
}

// --- Notification Methods ---

func (m *MemoryStore) SaveNotification(ctx context.Context, n *models.Notification) error {
	defer m.lock()()
	if n.Type == models.NotificationMention && n.PostID != nil {
		key := mentionKey{RecipientID: n.RecipientID, PostID: *n.PostID}
		if m.state.mentionSeen[key] {
			return utils.NewDuplicateError("mention notification")
		}
		m.state.mentionSeen[key] = true
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	stored := *n
	m.state.notifications = append(m.state.notifications, &stored)
	return nil
}

func (m *MemoryStore) ListNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	defer m.rlock()()
	notifications := []*models.Notification{}
	// Newest first, matching the SQL backends.
	for i := len(m.state.notifications) - 1; i >= 0; i-- {
		if m.state.notifications[i].RecipientID == userID {
			n := *m.state.notifications[i]
			notifications = append(notifications, &n)
		}
	}
	return notifications, nil
}

func (m *MemoryStore) MarkNotificationRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error) {
	defer m.lock()()
	for _, n := range m.state.notifications {
		if n.ID == id && n.RecipientID == userID {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (bool, error) {
	defer m.lock()()
	for _, n := range m.state.notifications {
		if n.RecipientID == userID {
			n.IsRead = true
		}
	}
	return true, nil
}

func (m *MemoryStore) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	defer m.rlock()()
	count := 0
	for _, n := range m.state.notifications {
		if n.RecipientID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}
