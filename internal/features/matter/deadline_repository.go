package matter

import (
	"context"
	"time"

	"go-lpm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DeadlineRepository interface {
	Create(ctx context.Context, d *Deadline) error
	FindOne(ctx context.Context, filter bson.M) (*Deadline, error)
	List(ctx context.Context, filter bson.M, limit, offset int64) ([]Deadline, error)
	ListInRange(ctx context.Context, filter bson.M, from, to time.Time) ([]Deadline, error)
	Update(ctx context.Context, d *Deadline) error
	Delete(ctx context.Context, orgID, id primitive.ObjectID) error
	MarkCompleted(ctx context.Context, orgID, id, userID primitive.ObjectID) error
	Count(ctx context.Context, filter bson.M) (int64, error)

	// DueForReminder finds incomplete deadlines falling due within the window
	// that have not had a reminder sent yet, across all tenants.
	DueForReminder(ctx context.Context, within time.Duration) ([]Deadline, error)
	MarkReminderSent(ctx context.Context, id primitive.ObjectID) error
}

type DeadlineRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewDeadlineRepository(mongodb *database.MongodbDB) DeadlineRepository {
	return &DeadlineRepositoryImpl{
		Collection: mongodb.DB.Collection("deadlines"),
	}
}

func (r *DeadlineRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "matter_id", Value: 1}}},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "due_date", Value: 1}}},
	})
	return err
}

func (r *DeadlineRepositoryImpl) Create(ctx context.Context, d *Deadline) error {
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, d)
	return err
}

func (r *DeadlineRepositoryImpl) FindOne(ctx context.Context, filter bson.M) (*Deadline, error) {
	var d Deadline
	err := r.Collection.FindOne(ctx, filter).Decode(&d)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DeadlineRepositoryImpl) List(ctx context.Context, filter bson.M, limit, offset int64) ([]Deadline, error) {
	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.M{"due_date": 1})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var deadlines []Deadline
	if err = cursor.All(ctx, &deadlines); err != nil {
		return nil, err
	}
	return deadlines, nil
}

func (r *DeadlineRepositoryImpl) ListInRange(ctx context.Context, filter bson.M, from, to time.Time) ([]Deadline, error) {
	filter["due_date"] = bson.M{"$gte": from, "$lt": to}
	opts := options.Find().SetSort(bson.M{"due_date": 1})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var deadlines []Deadline
	if err = cursor.All(ctx, &deadlines); err != nil {
		return nil, err
	}
	return deadlines, nil
}

func (r *DeadlineRepositoryImpl) Update(ctx context.Context, d *Deadline) error {
	d.UpdatedAt = time.Now()
	filter := bson.M{"_id": d.ID, "tenant_id": d.TenantID}
	_, err := r.Collection.UpdateOne(ctx, filter, bson.M{"$set": d})
	return err
}

func (r *DeadlineRepositoryImpl) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id, "tenant_id": orgID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *DeadlineRepositoryImpl) MarkCompleted(ctx context.Context, orgID, id, userID primitive.ObjectID) error {
	now := time.Now()
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "tenant_id": orgID, "completed": false},
		bson.M{"$set": bson.M{
			"completed":    true,
			"completed_at": now,
			"completed_by": userID,
			"updated_at":   now,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *DeadlineRepositoryImpl) Count(ctx context.Context, filter bson.M) (int64, error) {
	return r.Collection.CountDocuments(ctx, filter)
}

func (r *DeadlineRepositoryImpl) DueForReminder(ctx context.Context, within time.Duration) ([]Deadline, error) {
	now := time.Now()
	filter := bson.M{
		"completed":        false,
		"reminder_sent_at": nil,
		"due_date":         bson.M{"$gte": now, "$lt": now.Add(within)},
	}
	cursor, err := r.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var deadlines []Deadline
	if err = cursor.All(ctx, &deadlines); err != nil {
		return nil, err
	}
	return deadlines, nil
}

func (r *DeadlineRepositoryImpl) MarkReminderSent(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"reminder_sent_at": time.Now()}},
	)
	return err
}
