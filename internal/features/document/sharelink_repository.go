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

type ShareLinkRepository interface {
	Create(ctx context.Context, link *ShareLink) error
	FindByToken(ctx context.Context, token string) (*ShareLink, error)
	ListByDocument(ctx context.Context, orgID, documentID primitive.ObjectID) ([]ShareLink, error)
	Revoke(ctx context.Context, orgID, id primitive.ObjectID) error
}

type ShareLinkRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewShareLinkRepository(mongodb *database.MongodbDB) ShareLinkRepository {
	return &ShareLinkRepositoryImpl{
		Collection: mongodb.DB.Collection("share_links"),
	}
}

func (r *ShareLinkRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *ShareLinkRepositoryImpl) Create(ctx context.Context, link *ShareLink) error {
	link.CreatedAt = time.Now()
	if link.ID.IsZero() {
		link.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, link)
	return err
}

func (r *ShareLinkRepositoryImpl) FindByToken(ctx context.Context, token string) (*ShareLink, error) {
	var link ShareLink
	err := r.Collection.FindOne(ctx, bson.M{"token": token}).Decode(&link)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *ShareLinkRepositoryImpl) ListByDocument(ctx context.Context, orgID, documentID primitive.ObjectID) ([]ShareLink, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"tenant_id": orgID, "document_id": documentID})
	if err != nil {
		return nil, err
	}
	var links []ShareLink
	if err = cursor.All(ctx, &links); err != nil {
		return nil, err
	}
	return links, nil
}

func (r *ShareLinkRepositoryImpl) Revoke(ctx context.Context, orgID, id primitive.ObjectID) error {
	now := time.Now()
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "tenant_id": orgID, "revoked_at": nil},
		bson.M{"$set": bson.M{"revoked_at": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
