package auth

import (
	"context"
	"time"

	"go-lpm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	FindByToken(ctx context.Context, token string) (*Invitation, error)
	MarkAccepted(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, orgID primitive.ObjectID, limit, offset int64) ([]Invitation, error)
}

type InvitationRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewInvitationRepository(mongodb *database.MongodbDB) InvitationRepository {
	return &InvitationRepositoryImpl{
		Collection: mongodb.DB.Collection("invitations"),
	}
}

func (r *InvitationRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *InvitationRepositoryImpl) Create(ctx context.Context, inv *Invitation) error {
	inv.CreatedAt = time.Now()
	if inv.ID.IsZero() {
		inv.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, inv)
	return err
}

func (r *InvitationRepositoryImpl) FindByToken(ctx context.Context, token string) (*Invitation, error) {
	var inv Invitation
	err := r.Collection.FindOne(ctx, bson.M{"token": token}).Decode(&inv)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvitationRepositoryImpl) MarkAccepted(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "accepted_at": nil},
		bson.M{"$set": bson.M{"accepted_at": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *InvitationRepositoryImpl) List(ctx context.Context, orgID primitive.ObjectID, limit, offset int64) ([]Invitation, error) {
	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.M{"created_at": -1})
	cursor, err := r.Collection.Find(ctx, bson.M{"tenant_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	var invitations []Invitation
	if err = cursor.All(ctx, &invitations); err != nil {
		return nil, err
	}
	return invitations, nil
}
