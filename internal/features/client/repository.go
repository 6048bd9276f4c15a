package client

import (
	"context"
	"time"

	"go-lpm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ClientRepository interface {
	Create(ctx context.Context, client *Client) error
	FindOne(ctx context.Context, filter bson.M) (*Client, error)
	List(ctx context.Context, filter bson.M, limit, offset int64) ([]Client, error)
	Update(ctx context.Context, client *Client) error
	Delete(ctx context.Context, orgID, id primitive.ObjectID) error

	// PortalDirectory implementation for the auth feature.
	ClientIDForPortalUser(ctx context.Context, orgID, userID primitive.ObjectID) (primitive.ObjectID, error)
	LinkPortalUser(ctx context.Context, orgID, clientID, userID primitive.ObjectID) error
	PortalUserIDForClient(ctx context.Context, orgID, clientID primitive.ObjectID) (primitive.ObjectID, error)
}

type ClientRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewClientRepository(mongodb *database.MongodbDB) ClientRepository {
	return &ClientRepositoryImpl{
		Collection: mongodb.DB.Collection("clients"),
	}
}

func (r *ClientRepositoryImpl) Create(ctx context.Context, client *Client) error {
	now := time.Now()
	client.CreatedAt = now
	client.UpdatedAt = now
	if client.ID.IsZero() {
		client.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, client)
	return err
}

func (r *ClientRepositoryImpl) FindOne(ctx context.Context, filter bson.M) (*Client, error) {
	var client Client
	err := r.Collection.FindOne(ctx, filter).Decode(&client)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepositoryImpl) List(ctx context.Context, filter bson.M, limit, offset int64) ([]Client, error) {
	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.M{"created_at": -1})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var clients []Client
	if err = cursor.All(ctx, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *ClientRepositoryImpl) Update(ctx context.Context, client *Client) error {
	client.UpdatedAt = time.Now()
	filter := bson.M{"_id": client.ID, "tenant_id": client.TenantID}
	_, err := r.Collection.UpdateOne(ctx, filter, bson.M{"$set": client})
	return err
}

func (r *ClientRepositoryImpl) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id, "tenant_id": orgID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *ClientRepositoryImpl) ClientIDForPortalUser(ctx context.Context, orgID, userID primitive.ObjectID) (primitive.ObjectID, error) {
	var client Client
	err := r.Collection.FindOne(ctx, bson.M{"tenant_id": orgID, "portal_user_id": userID}).Decode(&client)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return client.ID, nil
}

// PortalUserIDForClient returns the linked portal user, or ErrNoDocuments when
// the client has no portal account.
func (r *ClientRepositoryImpl) PortalUserIDForClient(ctx context.Context, orgID, clientID primitive.ObjectID) (primitive.ObjectID, error) {
	var client Client
	err := r.Collection.FindOne(ctx, bson.M{"_id": clientID, "tenant_id": orgID}).Decode(&client)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if client.PortalUserID == nil {
		return primitive.NilObjectID, mongo.ErrNoDocuments
	}
	return *client.PortalUserID, nil
}

func (r *ClientRepositoryImpl) LinkPortalUser(ctx context.Context, orgID, clientID, userID primitive.ObjectID) error {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": clientID, "tenant_id": orgID},
		bson.M{"$set": bson.M{"portal_user_id": userID, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
