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

type MatterRepository interface {
	Create(ctx context.Context, m *Matter) error
	FindOne(ctx context.Context, filter bson.M) (*Matter, error)
	List(ctx context.Context, filter bson.M, limit, offset int64) ([]Matter, error)
	Update(ctx context.Context, m *Matter) error
	Delete(ctx context.Context, orgID, id primitive.ObjectID) error
	GrantAccess(ctx context.Context, orgID, matterID, userID primitive.ObjectID) error
	RevokeAccess(ctx context.Context, orgID, matterID, userID primitive.ObjectID) error

	// MatterResolver implementation for the row scoper.
	VisibleMatterIDs(ctx context.Context, orgID, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	ClientMatterIDs(ctx context.Context, orgID, clientID primitive.ObjectID) ([]primitive.ObjectID, error)
}

type MatterRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewMatterRepository(mongodb *database.MongodbDB) MatterRepository {
	return &MatterRepositoryImpl{
		Collection: mongodb.DB.Collection("matters"),
	}
}

func (r *MatterRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "reference", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "lead_lawyer_id", Value: 1}}},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "client_id", Value: 1}}},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "access_user_ids", Value: 1}}},
	})
	return err
}

func (r *MatterRepositoryImpl) Create(ctx context.Context, m *Matter) error {
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.Status == "" {
		m.Status = StatusOpen
	}
	if m.OpenedAt.IsZero() {
		m.OpenedAt = now
	}
	if m.AccessUserIDs == nil {
		m.AccessUserIDs = []primitive.ObjectID{}
	}
	_, err := r.Collection.InsertOne(ctx, m)
	return err
}

func (r *MatterRepositoryImpl) FindOne(ctx context.Context, filter bson.M) (*Matter, error) {
	var m Matter
	err := r.Collection.FindOne(ctx, filter).Decode(&m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MatterRepositoryImpl) List(ctx context.Context, filter bson.M, limit, offset int64) ([]Matter, error) {
	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.M{"created_at": -1})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var matters []Matter
	if err = cursor.All(ctx, &matters); err != nil {
		return nil, err
	}
	return matters, nil
}

func (r *MatterRepositoryImpl) Update(ctx context.Context, m *Matter) error {
	m.UpdatedAt = time.Now()
	filter := bson.M{"_id": m.ID, "tenant_id": m.TenantID}
	_, err := r.Collection.UpdateOne(ctx, filter, bson.M{"$set": m})
	return err
}

func (r *MatterRepositoryImpl) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id, "tenant_id": orgID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MatterRepositoryImpl) GrantAccess(ctx context.Context, orgID, matterID, userID primitive.ObjectID) error {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": matterID, "tenant_id": orgID},
		bson.M{
			"$addToSet": bson.M{"access_user_ids": userID},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MatterRepositoryImpl) RevokeAccess(ctx context.Context, orgID, matterID, userID primitive.ObjectID) error {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": matterID, "tenant_id": orgID},
		bson.M{
			"$pull": bson.M{"access_user_ids": userID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MatterRepositoryImpl) VisibleMatterIDs(ctx context.Context, orgID, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"tenant_id": orgID,
		"$or": []bson.M{
			{"lead_lawyer_id": userID},
			{"access_user_ids": userID},
		},
	}
	return r.matterIDs(ctx, filter)
}

func (r *MatterRepositoryImpl) ClientMatterIDs(ctx context.Context, orgID, clientID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return r.matterIDs(ctx, bson.M{"tenant_id": orgID, "client_id": clientID})
}

func (r *MatterRepositoryImpl) matterIDs(ctx context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}
