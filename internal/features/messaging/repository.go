package messaging

import (
	"context"
	"time"

	"go-lpm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ThreadRepository interface {
	Create(ctx context.Context, thread *MessageThread) error
	FindOne(ctx context.Context, filter bson.M) (*MessageThread, error)
	List(ctx context.Context, filter bson.M, limit, offset int64) ([]MessageThread, error)
	TouchLastMessage(ctx context.Context, orgID, id primitive.ObjectID, at time.Time) error
}

type ThreadRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewThreadRepository(mongodb *database.MongodbDB) ThreadRepository {
	return &ThreadRepositoryImpl{
		Collection: mongodb.DB.Collection("message_threads"),
	}
}

func (r *ThreadRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "matter_id", Value: 1}},
	})
	return err
}

func (r *ThreadRepositoryImpl) Create(ctx context.Context, thread *MessageThread) error {
	now := time.Now()
	thread.CreatedAt = now
	thread.UpdatedAt = now
	if thread.ID.IsZero() {
		thread.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, thread)
	return err
}

func (r *ThreadRepositoryImpl) FindOne(ctx context.Context, filter bson.M) (*MessageThread, error) {
	var thread MessageThread
	if err := r.Collection.FindOne(ctx, filter).Decode(&thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *ThreadRepositoryImpl) List(ctx context.Context, filter bson.M, limit, offset int64) ([]MessageThread, error) {
	opts := options.Find().SetLimit(limit).SetSkip(offset).
		SetSort(bson.D{{Key: "last_message_at", Value: -1}, {Key: "created_at", Value: -1}})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var threads []MessageThread
	if err = cursor.All(ctx, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

func (r *ThreadRepositoryImpl) TouchLastMessage(ctx context.Context, orgID, id primitive.ObjectID, at time.Time) error {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "tenant_id": orgID},
		bson.M{"$set": bson.M{"last_message_at": at, "updated_at": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	List(ctx context.Context, filter bson.M, limit, offset int64) ([]Message, error)
}

type MessageRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewMessageRepository(mongodb *database.MongodbDB) MessageRepository {
	return &MessageRepositoryImpl{
		Collection: mongodb.DB.Collection("messages"),
	}
}

func (r *MessageRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "thread_id", Value: 1}, {Key: "sent_at", Value: 1}},
	})
	return err
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, msg *Message) error {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, msg)
	return err
}

func (r *MessageRepositoryImpl) List(ctx context.Context, filter bson.M, limit, offset int64) ([]Message, error) {
	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.D{{Key: "sent_at", Value: 1}})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var messages []Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
