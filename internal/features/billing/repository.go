package billing

import (
	"context"
	"time"

	"go-lpm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TimeEntryRepository interface {
	Create(ctx context.Context, entry *TimeEntry) error
	FindOne(ctx context.Context, filter bson.M) (*TimeEntry, error)
	List(ctx context.Context, filter bson.M, limit, offset int64) ([]TimeEntry, error)
	Update(ctx context.Context, entry *TimeEntry) error
	Delete(ctx context.Context, orgID, id primitive.ObjectID) error
	SumMinutes(ctx context.Context, filter bson.M) (int64, error)
}

type TimeEntryRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewTimeEntryRepository(mongodb *database.MongodbDB) TimeEntryRepository {
	return &TimeEntryRepositoryImpl{
		Collection: mongodb.DB.Collection("time_entries"),
	}
}

func (r *TimeEntryRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "matter_id", Value: 1}, {Key: "date", Value: -1}},
	})
	return err
}

func (r *TimeEntryRepositoryImpl) Create(ctx context.Context, entry *TimeEntry) error {
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, entry)
	return err
}

func (r *TimeEntryRepositoryImpl) FindOne(ctx context.Context, filter bson.M) (*TimeEntry, error) {
	var entry TimeEntry
	if err := r.Collection.FindOne(ctx, filter).Decode(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *TimeEntryRepositoryImpl) List(ctx context.Context, filter bson.M, limit, offset int64) ([]TimeEntry, error) {
	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var entries []TimeEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *TimeEntryRepositoryImpl) Update(ctx context.Context, entry *TimeEntry) error {
	entry.UpdatedAt = time.Now()
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": entry.ID, "tenant_id": entry.TenantID},
		bson.M{"$set": entry},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *TimeEntryRepositoryImpl) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id, "tenant_id": orgID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *TimeEntryRepositoryImpl) SumMinutes(ctx context.Context, filter bson.M) (int64, error) {
	total, err := sumField(ctx, r.Collection, filter, "$minutes")
	return int64(total), err
}

type ExpenseRepository interface {
	Create(ctx context.Context, expense *Expense) error
	FindOne(ctx context.Context, filter bson.M) (*Expense, error)
	List(ctx context.Context, filter bson.M, limit, offset int64) ([]Expense, error)
	Update(ctx context.Context, expense *Expense) error
	Delete(ctx context.Context, orgID, id primitive.ObjectID) error
	SumAmount(ctx context.Context, filter bson.M) (float64, error)
}

type ExpenseRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewExpenseRepository(mongodb *database.MongodbDB) ExpenseRepository {
	return &ExpenseRepositoryImpl{
		Collection: mongodb.DB.Collection("expenses"),
	}
}

func (r *ExpenseRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "matter_id", Value: 1}, {Key: "date", Value: -1}},
	})
	return err
}

func (r *ExpenseRepositoryImpl) Create(ctx context.Context, expense *Expense) error {
	now := time.Now()
	expense.CreatedAt = now
	expense.UpdatedAt = now
	if expense.ID.IsZero() {
		expense.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, expense)
	return err
}

func (r *ExpenseRepositoryImpl) FindOne(ctx context.Context, filter bson.M) (*Expense, error) {
	var expense Expense
	if err := r.Collection.FindOne(ctx, filter).Decode(&expense); err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *ExpenseRepositoryImpl) List(ctx context.Context, filter bson.M, limit, offset int64) ([]Expense, error) {
	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var expenses []Expense
	if err = cursor.All(ctx, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *ExpenseRepositoryImpl) Update(ctx context.Context, expense *Expense) error {
	expense.UpdatedAt = time.Now()
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": expense.ID, "tenant_id": expense.TenantID},
		bson.M{"$set": expense},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *ExpenseRepositoryImpl) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id, "tenant_id": orgID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *ExpenseRepositoryImpl) SumAmount(ctx context.Context, filter bson.M) (float64, error) {
	return sumField(ctx, r.Collection, filter, "$amount")
}

// sumField runs a $match + $group aggregation and tolerates integer or double
// accumulator results.
func sumField(ctx context.Context, coll *mongo.Collection, filter bson.M, field string) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": field}}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	var results []struct {
		Total float64 `bson:"total"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}
