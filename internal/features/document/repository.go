package document

import (
	"context"
	"time"

	"go-lpm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *Document) error
	FindOne(ctx context.Context, filter bson.M) (*Document, error)
	List(ctx context.Context, filter bson.M, limit, offset int64) ([]Document, error)
	AppendVersion(ctx context.Context, orgID, id primitive.ObjectID, v Version) error
	SetVisibility(ctx context.Context, orgID, id primitive.ObjectID, visible bool) error
	Delete(ctx context.Context, orgID, id primitive.ObjectID) error
}

type DocumentRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewDocumentRepository(mongodb *database.MongodbDB) DocumentRepository {
	return &DocumentRepositoryImpl{
		Collection: mongodb.DB.Collection("documents"),
	}
}

func (r *DocumentRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "matter_id", Value: 1}},
	})
	return err
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, doc *Document) error {
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, doc)
	return err
}

func (r *DocumentRepositoryImpl) FindOne(ctx context.Context, filter bson.M) (*Document, error) {
	var doc Document
	err := r.Collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepositoryImpl) List(ctx context.Context, filter bson.M, limit, offset int64) ([]Document, error) {
	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.M{"created_at": -1})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []Document
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// AppendVersion atomically pushes the revision and bumps current_version.
func (r *DocumentRepositoryImpl) AppendVersion(ctx context.Context, orgID, id primitive.ObjectID, v Version) error {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "tenant_id": orgID},
		bson.M{
			"$push": bson.M{"versions": v},
			"$set":  bson.M{"current_version": v.Number, "updated_at": time.Now()},
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

func (r *DocumentRepositoryImpl) SetVisibility(ctx context.Context, orgID, id primitive.ObjectID, visible bool) error {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "tenant_id": orgID},
		bson.M{"$set": bson.M{"client_visible": visible, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id, "tenant_id": orgID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
