// internal/database/mongo.go
package database

import (
	"context"
	"fmt"
	"time"

	"cypress-hollow/internal/models"
	"cypress-hollow/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB is the document Store backend, kept at feature parity with the
// Postgres adapter. UUIDs are stored as their string form.
type MongoDB struct {
	client        *mongo.Client
	Users         *mongo.Collection
	Posts         *mongo.Collection
	Conversations *mongo.Collection
	Messages      *mongo.Collection
	Reactions     *mongo.Collection
	Notifications *mongo.Collection
}

func NewMongoDB(uri string) (*MongoDB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	db := client.Database("cypress_hollow")
	m := &MongoDB{
		client:        client,
		Users:         db.Collection("users"),
		Posts:         db.Collection("posts"),
		Conversations: db.Collection("conversations"),
		Messages:      db.Collection("messages"),
		Reactions:     db.Collection("reactions"),
		Notifications: db.Collection("notifications"),
	}
	if err := m.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	_, err := m.Users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create username index: %v", err)
	}

	_, err = m.Reactions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "postid", Value: 1}, {Key: "userid", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create reaction index: %v", err)
	}

	// One mention notification per (recipient, post).
	_, err = m.Notifications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "recipientid", Value: 1}, {Key: "postid", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"type": "mention"}),
	})
	if err != nil {
		return fmt.Errorf("failed to create mention index: %v", err)
	}

	_, err = m.Messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversationid", Value: 1}, {Key: "createdat", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create message index: %v", err)
	}
	return nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Transact runs fn inside a MongoDB session transaction. The session
// context is threaded through as the fn's ctx so every operation inside
// joins the transaction.
func (m *MongoDB) Transact(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return fn(ctx, m)
	}

	sess, err := m.client.StartSession()
	if err != nil {
		return utils.NewStorageError("failed to start session", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, m)
	})
	return err
}

// --- Documents ---

type userDocument struct {
	ID        string    `bson:"_id"`
	Username  string    `bson:"username"`
	Points    int       `bson:"points"`
	CreatedAt time.Time `bson:"createdat"`
}

func (d *userDocument) toModel() (*models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %v", err)
	}
	return &models.User{ID: id, Username: d.Username, Points: d.Points, CreatedAt: d.CreatedAt}, nil
}

type postDocument struct {
	ID        string    `bson:"_id"`
	TopicID   string    `bson:"topicid"`
	AuthorID  string    `bson:"authorid"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"createdat"`
}

func (d *postDocument) toModel() (*models.Post, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %v", err)
	}
	topicID, err := uuid.Parse(d.TopicID)
	if err != nil {
		return nil, fmt.Errorf("invalid topic ID: %v", err)
	}
	authorID, err := uuid.Parse(d.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %v", err)
	}
	return &models.Post{ID: id, TopicID: topicID, AuthorID: authorID, Content: d.Content, CreatedAt: d.CreatedAt}, nil
}

type conversationDocument struct {
	ID                 string    `bson:"_id"`
	ParticipantA       string    `bson:"participanta"`
	ParticipantB       string    `bson:"participantb"`
	Subject            string    `bson:"subject"`
	CreatedAt          time.Time `bson:"createdat"`
	LastMessageAt      time.Time `bson:"lastmessageat"`
	LastMessageSnippet string    `bson:"lastmessagesnippet"`
	LastSenderID       string    `bson:"lastsenderid"`
}

func (d *conversationDocument) toModel() (*models.Conversation, error) {
	pa, err := uuid.Parse(d.ParticipantA)
	if err != nil {
		return nil, fmt.Errorf("invalid participant ID: %v", err)
	}
	pb, err := uuid.Parse(d.ParticipantB)
	if err != nil {
		return nil, fmt.Errorf("invalid participant ID: %v", err)
	}
	lastSender, _ := uuid.Parse(d.LastSenderID)
	return &models.Conversation{
		ID:                 d.ID,
		ParticipantA:       pa,
		ParticipantB:       pb,
		Subject:            d.Subject,
		CreatedAt:          d.CreatedAt,
		LastMessageAt:      d.LastMessageAt,
		LastMessageSnippet: d.LastMessageSnippet,
		LastSenderID:       lastSender,
	}, nil
}

type messageDocument struct {
	ID             string    `bson:"_id"`
	ConversationID string    `bson:"conversationid"`
	SenderID       string    `bson:"senderid"`
	Content        string    `bson:"content"`
	CreatedAt      time.Time `bson:"createdat"`
	ReadBy         []string  `bson:"readby"`
}

func (d *messageDocument) toModel() (*models.PrivateMessage, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid message ID: %v", err)
	}
	senderID, err := uuid.Parse(d.SenderID)
	if err != nil {
		return nil, fmt.Errorf("invalid sender ID: %v", err)
	}
	msg := &models.PrivateMessage{
		ID:             id,
		ConversationID: d.ConversationID,
		SenderID:       senderID,
		Content:        d.Content,
		CreatedAt:      d.CreatedAt,
		ReadBy:         make([]uuid.UUID, 0, len(d.ReadBy)),
	}
	for _, s := range d.ReadBy {
		if rid, err := uuid.Parse(s); err == nil {
			msg.ReadBy = append(msg.ReadBy, rid)
		}
	}
	return msg, nil
}

type notificationDocument struct {
	ID             string    `bson:"_id"`
	Type           string    `bson:"type"`
	RecipientID    string    `bson:"recipientid"`
	ActorID        string    `bson:"actorid"`
	PostID         *string   `bson:"postid,omitempty"`
	TopicID        *string   `bson:"topicid,omitempty"`
	ConversationID *string   `bson:"conversationid,omitempty"`
	ReactionType   *string   `bson:"reactiontype,omitempty"`
	Message        string    `bson:"message"`
	IsRead         bool      `bson:"isread"`
	CreatedAt      time.Time `bson:"createdat"`
}

func notificationToDocument(n *models.Notification) *notificationDocument {
	doc := &notificationDocument{
		ID:          n.ID.String(),
		Type:        string(n.Type),
		RecipientID: n.RecipientID.String(),
		ActorID:     n.ActorID.String(),
		Message:     n.Message,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}
	if n.PostID != nil {
		s := n.PostID.String()
		doc.PostID = &s
	}
	if n.TopicID != nil {
		s := n.TopicID.String()
		doc.TopicID = &s
	}
	if n.ConversationID != nil {
		s := *n.ConversationID
		doc.ConversationID = &s
	}
	if n.ReactionType != nil {
		s := string(*n.ReactionType)
		doc.ReactionType = &s
	}
	return doc
}

func (d *notificationDocument) toModel() (*models.Notification, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid notification ID: %v", err)
	}
	recipientID, err := uuid.Parse(d.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient ID: %v", err)
	}
	actorID, _ := uuid.Parse(d.ActorID)
	n := &models.Notification{
		ID:          id,
		Type:        models.NotificationType(d.Type),
		RecipientID: recipientID,
		ActorID:     actorID,
		Message:     d.Message,
		IsRead:      d.IsRead,
		CreatedAt:   d.CreatedAt,
	}
	if d.PostID != nil {
		if pid, err := uuid.Parse(*d.PostID); err == nil {
			n.PostID = &pid
		}
	}
	if d.TopicID != nil {
		if tid, err := uuid.Parse(*d.TopicID); err == nil {
			n.TopicID = &tid
		}
	}
	if d.ConversationID != nil {
		s := *d.ConversationID
		n.ConversationID = &s
	}
	if d.ReactionType != nil {
		rt := models.ReactionType(*d.ReactionType)
		n.ReactionType = &rt
	}
	return n, nil
}

// --- User Methods ---

func (m *MongoDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var doc userDocument
	err := m.Users.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFoundError("user")
		}
		return nil, utils.NewStorageError("failed to query user by id", err)
	}
	return doc.toModel()
}

func (m *MongoDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var doc userDocument
	err := m.Users.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFoundError("user")
		}
		return nil, utils.NewStorageError("failed to query user by username", err)
	}
	return doc.toModel()
}

func (m *MongoDB) SaveUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	doc := userDocument{
		ID:        user.ID.String(),
		Username:  user.Username,
		Points:    user.Points,
		CreatedAt: user.CreatedAt,
	}
	_, err := m.Users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewDuplicateError("user")
		}
		return utils.NewStorageError("failed to save user", err)
	}
	return nil
}

func (m *MongoDB) UpdateUserPoints(ctx context.Context, id uuid.UUID, points int) error {
	result, err := m.Users.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": bson.M{"points": points}})
	if err != nil {
		return utils.NewStorageError("failed to update user points", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("user")
	}
	return nil
}

// --- Post Methods ---

func (m *MongoDB) SavePost(ctx context.Context, post *models.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	doc := postDocument{
		ID:        post.ID.String(),
		TopicID:   post.TopicID.String(),
		AuthorID:  post.AuthorID.String(),
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
	}
	_, err := m.Posts.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewDuplicateError("post")
		}
		return utils.NewStorageError("failed to save post", err)
	}
	return nil
}

func (m *MongoDB) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var doc postDocument
	err := m.Posts.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFoundError("post")
		}
		return nil, utils.NewStorageError("failed to query post by id", err)
	}
	return doc.toModel()
}

// --- Conversation Methods ---

func (m *MongoDB) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	doc := conversationDocument{
		ID:                 conv.ID,
		ParticipantA:       conv.ParticipantA.String(),
		ParticipantB:       conv.ParticipantB.String(),
		Subject:            conv.Subject,
		CreatedAt:          conv.CreatedAt,
		LastMessageAt:      conv.LastMessageAt,
		LastMessageSnippet: conv.LastMessageSnippet,
		LastSenderID:       conv.LastSenderID.String(),
	}
	_, err := m.Conversations.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewDuplicateError("conversation")
		}
		return utils.NewStorageError("failed to create conversation", err)
	}
	return nil
}

func (m *MongoDB) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var doc conversationDocument
	err := m.Conversations.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFoundError("conversation")
		}
		return nil, utils.NewStorageError("failed to query conversation by id", err)
	}
	return doc.toModel()
}

func (m *MongoDB) ListConversationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	filter := bson.M{"$or": []bson.M{
		{"participanta": userID.String()},
		{"participantb": userID.String()},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "lastmessageat", Value: -1}})

	cursor, err := m.Conversations.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewStorageError("failed to query user conversations", err)
	}
	defer cursor.Close(ctx)

	convs := []*models.Conversation{}
	for cursor.Next(ctx) {
		var doc conversationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewStorageError("failed to decode conversation", err)
		}
		conv, err := doc.toModel()
		if err != nil {
			return nil, utils.NewStorageError("failed to decode conversation", err)
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

func (m *MongoDB) TouchConversation(ctx context.Context, id string, snippet string, senderID uuid.UUID, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"lastmessageat":      at,
		"lastmessagesnippet": snippet,
		"lastsenderid":       senderID.String(),
	}}
	result, err := m.Conversations.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return utils.NewStorageError("failed to touch conversation", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("conversation")
	}
	return nil
}

// --- Message Methods ---

func (m *MongoDB) SaveMessage(ctx context.Context, msg *models.PrivateMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	readBy := make([]string, len(msg.ReadBy))
	for i, id := range msg.ReadBy {
		readBy[i] = id.String()
	}
	doc := messageDocument{
		ID:             msg.ID.String(),
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID.String(),
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
		ReadBy:         readBy,
	}
	_, err := m.Messages.InsertOne(ctx, doc)
	if err != nil {
		return utils.NewStorageError("failed to save message", err)
	}
	return nil
}

func (m *MongoDB) ListMessages(ctx context.Context, conversationID string) ([]*models.PrivateMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdat", Value: 1}})
	cursor, err := m.Messages.Find(ctx, bson.M{"conversationid": conversationID}, opts)
	if err != nil {
		return nil, utils.NewStorageError("failed to query conversation messages", err)
	}
	defer cursor.Close(ctx)

	messages := []*models.PrivateMessage{}
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewStorageError("failed to decode message", err)
		}
		msg, err := doc.toModel()
		if err != nil {
			return nil, utils.NewStorageError("failed to decode message", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (m *MongoDB) MarkConversationRead(ctx context.Context, conversationID string, userID uuid.UUID) error {
	filter := bson.M{
		"conversationid": conversationID,
		"senderid":       bson.M{"$ne": userID.String()},
	}
	// $addToSet keeps the read-by set append-only and idempotent.
	update := bson.M{"$addToSet": bson.M{"readby": userID.String()}}
	_, err := m.Messages.UpdateMany(ctx, filter, update)
	if err != nil {
		return utils.NewStorageError("failed to mark conversation read", err)
	}
	return nil
}

func (m *MongoDB) CountUnread(ctx context.Context, conversationID string, userID uuid.UUID) (int, error) {
	filter := bson.M{
		"conversationid": conversationID,
		"senderid":       bson.M{"$ne": userID.String()},
		"readby":         bson.M{"$ne": userID.String()},
	}
	count, err := m.Messages.CountDocuments(ctx, filter)
	if err != nil {
		return 0, utils.NewStorageError("failed to count unread messages", err)
	}
	return int(count), nil
}

func (m *MongoDB) CountUnreadForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	convs, err := m.ListConversationsByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(convs) == 0 {
		return 0, nil
	}
	ids := make([]string, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
	}
	filter := bson.M{
		"conversationid": bson.M{"$in": ids},
		"senderid":       bson.M{"$ne": userID.String()},
		"readby":         bson.M{"$ne": userID.String()},
	}
	count, err := m.Messages.CountDocuments(ctx, filter)
	if err != nil {
		return 0, utils.NewStorageError("failed to count unread messages for user", err)
	}
	return int(count), nil
}

// --- Reaction Methods ---

type reactionDocument struct {
	PostID    string    `bson:"postid"`
	UserID    string    `bson:"userid"`
	Type      string    `bson:"type"`
	UpdatedAt time.Time `bson:"updatedat"`
}

func (m *MongoDB) GetReaction(ctx context.Context, postID, userID uuid.UUID) (*models.Reaction, error) {
	var doc reactionDocument
	filter := bson.M{"postid": postID.String(), "userid": userID.String()}
	err := m.Reactions.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFoundError("reaction")
		}
		return nil, utils.NewStorageError("failed to query reaction", err)
	}
	return &models.Reaction{
		PostID:    postID,
		UserID:    userID,
		Type:      models.ReactionType(doc.Type),
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (m *MongoDB) UpsertReaction(ctx context.Context, reaction *models.Reaction) error {
	filter := bson.M{"postid": reaction.PostID.String(), "userid": reaction.UserID.String()}
	update := bson.M{"$set": bson.M{
		"type":      string(reaction.Type),
		"updatedat": reaction.UpdatedAt,
	}}
	opts := options.Update().SetUpsert(true)
	_, err := m.Reactions.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return utils.NewStorageError("failed to upsert reaction", err)
	}
	return nil
}

func (m *MongoDB) DeleteReaction(ctx context.Context, postID, userID uuid.UUID) error {
	filter := bson.M{"postid": postID.String(), "userid": userID.String()}
	_, err := m.Reactions.DeleteOne(ctx, filter)
	if err != nil {
		return utils.NewStorageError("failed to delete reaction", err)
	}
	return nil
}

func (m *MongoDB) CountReactionsByPost(ctx context.Context, postID uuid.UUID) (map[models.ReactionType]int, error) {
	cursor, err := m.Reactions.Find(ctx, bson.M{"postid": postID.String()})
	if err != nil {
		return nil, utils.NewStorageError("failed to count post reactions", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[models.ReactionType]int)
	for cursor.Next(ctx) {
		var doc reactionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewStorageError("failed to decode reaction", err)
		}
		counts[models.ReactionType(doc.Type)]++
	}
	return counts, nil
}

func (m *MongoDB) CountReactionsForAuthor(ctx context.Context, authorID uuid.UUID) (map[models.ReactionType]int, error) {
	postCursor, err := m.Posts.Find(ctx, bson.M{"authorid": authorID.String()})
	if err != nil {
		return nil, utils.NewStorageError("failed to query author posts", err)
	}
	defer postCursor.Close(ctx)

	postIDs := []string{}
	for postCursor.Next(ctx) {
		var doc postDocument
		if err := postCursor.Decode(&doc); err != nil {
			return nil, utils.NewStorageError("failed to decode post", err)
		}
		postIDs = append(postIDs, doc.ID)
	}

	counts := make(map[models.ReactionType]int)
	if len(postIDs) == 0 {
		return counts, nil
	}

	filter := bson.M{
		"postid": bson.M{"$in": postIDs},
		"userid": bson.M{"$ne": authorID.String()},
	}
	cursor, err := m.Reactions.Find(ctx, filter)
	if err != nil {
		return nil, utils.NewStorageError("failed to count author reactions", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc reactionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewStorageError("failed to decode reaction", err)
		}
		counts[models.ReactionType(doc.Type)]++
	}
	return counts, nil
}

// --- Notification Methods ---

func (m *MongoDB) SaveNotification(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	_, err := m.Notifications.InsertOne(ctx, notificationToDocument(n))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewDuplicateError("mention notification")
		}
		return utils.NewStorageError("failed to save notification", err)
	}
	return nil
}

func (m *MongoDB) ListNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdat", Value: -1}})
	cursor, err := m.Notifications.Find(ctx, bson.M{"recipientid": userID.String()}, opts)
	if err != nil {
		return nil, utils.NewStorageError("failed to query user notifications", err)
	}
	defer cursor.Close(ctx)

	notifications := []*models.Notification{}
	for cursor.Next(ctx) {
		var doc notificationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewStorageError("failed to decode notification", err)
		}
		n, err := doc.toModel()
		if err != nil {
			return nil, utils.NewStorageError("failed to decode notification", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

func (m *MongoDB) MarkNotificationRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error) {
	filter := bson.M{"_id": id.String(), "recipientid": userID.String()}
	result, err := m.Notifications.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"isread": true}})
	if err != nil {
		return false, utils.NewStorageError("failed to mark notification read", err)
	}
	return result.MatchedCount > 0, nil
}

func (m *MongoDB) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (bool, error) {
	filter := bson.M{"recipientid": userID.String(), "isread": false}
	_, err := m.Notifications.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"isread": true}})
	if err != nil {
		return false, utils.NewStorageError("failed to mark all notifications read", err)
	}
	return true, nil
}

func (m *MongoDB) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	filter := bson.M{"recipientid": userID.String(), "isread": false}
	count, err := m.Notifications.CountDocuments(ctx, filter)
	if err != nil {
		return 0, utils.NewStorageError("failed to count unread notifications", err)
	}
	return int(count), nil
}
